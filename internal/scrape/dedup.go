package scrape

import (
	"strings"

	"github.com/law-makers/homeharvest/pkg/models"
)

type addressKey struct {
	street, unit, city string
}

// Dedup removes properties sharing a (street, unit, city) tuple, keeping
// the first occurrence. Properties with no address component at all are
// never treated as duplicates of each other.
func Dedup(props []models.Property) []models.Property {
	seen := make(map[addressKey]struct{}, len(props))
	out := make([]models.Property, 0, len(props))
	for _, p := range props {
		key, ok := dedupKey(p.Address)
		if ok {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, p)
	}
	return out
}

func dedupKey(a *models.Address) (addressKey, bool) {
	if a == nil {
		return addressKey{}, false
	}
	key := addressKey{
		street: normalize(a.Street),
		unit:   normalize(a.Unit),
		city:   normalize(a.City),
	}
	return key, key != addressKey{}
}

func normalize(s *string) string {
	if s == nil {
		return ""
	}
	return strings.ToLower(strings.Join(strings.Fields(*s), " "))
}
