package tracker

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"The Anchor!":            "THEANCHOR",
		"the anchor":             "THEANCHOR",
		"St. Mary’s (Old) Inn":   "STMARYSOLDINN",
		"Bell & Crown/Tap\tRoom": "BELLCROWNTAPROOM",
		"":                       "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q)=%q want %q", in, got, want)
		}
	}
}

func TestMatches(t *testing.T) {
	p := Pub{Name: "the anchor", Address: "1 Quay-Street, Bristol"}
	cases := map[string]bool{
		"The Anchor!":    true,
		"quay street":    true,
		"BRISTOL":        true,
		"":               true,
		"  ":             true,
		"crown":          false,
		"anchor bristol": false,
	}
	for q, want := range cases {
		if got := Matches(q, p); got != want {
			t.Errorf("Matches(%q)=%v want %v", q, got, want)
		}
	}
}
