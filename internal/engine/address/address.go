// Package address splits free-form street lines into a primary line and a
// normalized secondary (unit) designator.
package address

import (
	"regexp"
	"strings"
)

var (
	// "<street> <designator> <unit>" at the end of a line
	unitSuffix = regexp.MustCompile(`(?i)^(.*?)[\s,]+(?:(?:apt|apartment|unit|suite|ste|bldg|building)\.?\s*#?|#)\s*([\w-]+)\s*$`)
	// a bare secondary line such as "Apt 126" or "#3A"
	unitOnly = regexp.MustCompile(`(?i)^(?:(?:apt|apartment|unit|suite|ste|bldg|building)\.?\s*#?|#)\s*([\w-]+)\s*$`)
)

// ParseAddressOne splits "4303 E Cactus Rd Apt 126" into
// ("4303 E Cactus Rd", "#126"). The unit is nil when none is present.
func ParseAddressOne(line string) (string, *string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	m := unitSuffix.FindStringSubmatch(line)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return line, nil
	}
	unit := "#" + m[2]
	return strings.TrimSpace(m[1]), &unit
}

// ParseAddressTwo normalizes a secondary line ("SuIte 3A") to "#3A".
// Lines without a known designator are prefixed with "#" as-is.
func ParseAddressTwo(line string) *string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	var unit string
	if m := unitOnly.FindStringSubmatch(line); m != nil {
		unit = "#" + m[1]
	} else {
		unit = "#" + strings.TrimPrefix(line, "#")
	}
	return &unit
}
