package address

import "testing"

func TestParseAddressOne(t *testing.T) {
	cases := []struct {
		in, street, unit string
	}{
		{"4303 E Cactus Rd Apt 126", "4303 E Cactus Rd", "#126"},
		{"1234 Elm Street apt 2B", "1234 Elm Street", "#2B"},
		{"1234 Elm Street UNIT 3A", "1234 Elm Street", "#3A"},
		{"1234 Elm Street unit 3A", "1234 Elm Street", "#3A"},
		{"1234 Elm Street SuIte 3A", "1234 Elm Street", "#3A"},
		{"500 Main St #12", "500 Main St", "#12"},
		{"500 Main St, Ste. 4", "500 Main St", "#4"},
	}
	for _, tc := range cases {
		street, unit := ParseAddressOne(tc.in)
		if street != tc.street {
			t.Errorf("%q: street = %q, want %q", tc.in, street, tc.street)
		}
		if unit == nil || *unit != tc.unit {
			t.Errorf("%q: unit = %v, want %q", tc.in, unit, tc.unit)
		}
	}
}

func TestParseAddressOne_NoUnit(t *testing.T) {
	street, unit := ParseAddressOne("2530 Al Lipscomb Way")
	if street != "2530 Al Lipscomb Way" || unit != nil {
		t.Errorf("unexpected split (%q, %v)", street, unit)
	}
}

func TestParseAddressTwo(t *testing.T) {
	cases := map[string]string{
		"Apt 126":  "#126",
		"apt 2B":   "#2B",
		"UNIT 3A":  "#3A",
		"unit 3A":  "#3A",
		"SuIte 3A": "#3A",
		"#7":       "#7",
	}
	for in, want := range cases {
		got := ParseAddressTwo(in)
		if got == nil || *got != want {
			t.Errorf("ParseAddressTwo(%q) = %v, want %q", in, got, want)
		}
	}
	if ParseAddressTwo("  ") != nil {
		t.Error("blank input should yield nil")
	}
}
