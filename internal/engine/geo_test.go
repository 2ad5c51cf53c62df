package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/law-makers/homeharvest/pkg/models"
)

func TestBoundingBoxAround(t *testing.T) {
	center := models.Coordinate{Lat: 32.7767, Lon: -96.7970}
	box := BoundingBoxAround(center, 1)

	if box.North <= center.Lat || box.South >= center.Lat || box.East <= center.Lon || box.West >= center.Lon {
		t.Fatalf("box does not enclose center: %+v", box)
	}
	north := DistanceMiles(center, models.Coordinate{Lat: box.North, Lon: center.Lon})
	if math.Abs(north-1) > 0.01 {
		t.Errorf("expected ~1 mile to northern edge, got %f", north)
	}
	east := DistanceMiles(center, models.Coordinate{Lat: center.Lat, Lon: box.East})
	if math.Abs(east-1) > 0.01 {
		t.Errorf("expected ~1 mile to eastern edge, got %f", east)
	}
}

func TestWithinRadius(t *testing.T) {
	lat, lon := 32.7767, -96.7970
	farLat := 33.5
	scope := models.ScopeSpec{Kind: models.ScopeRadius, Center: &models.Coordinate{Lat: lat, Lon: lon}, Radius: 0.5}

	props := []models.Property{
		{PropertyURL: "near", Latitude: &lat, Longitude: &lon},
		{PropertyURL: "far", Latitude: &farLat, Longitude: &lon},
		{PropertyURL: "unplaced"},
	}
	out := WithinRadius(props, scope)
	if len(out) != 1 || out[0].PropertyURL != "near" {
		t.Errorf("unexpected result %+v", out)
	}
}

func TestErrorIs(t *testing.T) {
	err := GeoCoordsNotFound("2530 Al Lipscomb Way")
	if !errors.Is(err, ErrGeoCoordsNotFound) {
		t.Error("expected errors.Is to match by code")
	}
	if errors.Is(err, ErrNoResultsFound) {
		t.Error("different codes must not match")
	}
	if err.Details["location"] != "2530 Al Lipscomb Way" {
		t.Error("expected offending value in details")
	}
	if IsCallerError(err) {
		t.Error("resolution errors are not caller errors")
	}
	if !IsCallerError(NewError(ErrCodeInvalidDate, "bad", nil)) {
		t.Error("INVALID_DATE is a caller error")
	}
}
