package main

import (
	"bytes"
	"strings"
	"testing"

	"heritage_hunter/internal/tracker"
)

func testView() tracker.View {
	return tracker.View{Dataset: tracker.Dataset{UserID: 7, Pubs: []tracker.Entry{
		{Pub: tracker.Pub{Key: "a", Name: "Anchor Inn", Address: "1 Quay", UsersVisited: []int64{7}}},
		{Pub: tracker.Pub{Key: "b", Name: "Anchor Tap", Address: "2 Lane"}},
		{Pub: tracker.Pub{Key: "c", Name: "Crown", Address: "3 Road"}},
	}}}
}

func TestResolve(t *testing.T) {
	v := testView()
	cases := map[string]string{"a": "a", "anchor inn": "a", "crown": "c", "2 lane": "b"}
	for arg, want := range cases {
		got, err := resolve(v, arg)
		if err != nil || got != want {
			t.Errorf("resolve(%q)=%q,%v want %q", arg, got, err, want)
		}
	}
	if _, err := resolve(v, "anchor"); err == nil || !strings.Contains(err.Error(), "matches 2 pubs") {
		t.Fatalf("err=%v", err)
	}
	if _, err := resolve(v, "dolphin"); err == nil {
		t.Fatalf("expected no match")
	}
}

func TestTerminal_PrintList(t *testing.T) {
	var buf bytes.Buffer
	term := &terminal{out: &buf}
	v := testView()
	v.Expanded = "a"
	v.Dataset.Pubs[0].Posts = []tracker.Post{{ID: 1, Content: "Great atmosphere", DateVisited: strp("05-03-2024")}}
	term.Render(v, tracker.BuildList(v))
	term.printList()

	out := buf.String()
	for _, want := range []string{"[x] Anchor Inn  (1 Quay)", "Visited: 05-03-2024", "Great atmosphere", "[ ] Crown"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func strp(s string) *string { return &s }
