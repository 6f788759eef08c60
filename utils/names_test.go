package utils

import "testing"

var cleanNameTests = []struct {
	in  string
	out string
}{
	{"SM_Crate", "Crate"},
	{"SK_Robot", "Robot"},
	{"sm_crate", "crate"},
	{"Crate.001", "Crate"},
	{"SM_Crate.012", "Crate"},
	{"Crate.01", "Crate_01"},
	{"Épée du Roi", "Epee_du_Roi"},
	{"Wheel-Front L", "Wheel-Front_L"},
	{"SM_SK_Mixed", "SK_Mixed"},
	{"", ""},
}

func TestCleanName(t *testing.T) {
	for _, test := range cleanNameTests {
		result := CleanName(test.in, "SM_", "SK_")
		if result != test.out {
			t.Errorf("CleanName(%q)=%q; expected %q", test.in, result, test.out)
		}
	}
}

func TestStripPrefixWithoutPrefixes(t *testing.T) {
	if got := StripPrefix("SM_Box"); got != "SM_Box" {
		t.Errorf("got %q", got)
	}
	if got := StripPrefix("SM_Box", ""); got != "SM_Box" {
		t.Errorf("empty prefix stripped something: %q", got)
	}
}
