package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"heritage_hunter/internal/tracker"
)

// terminal keeps the last rendered snapshot; commands print it when done.
type terminal struct {
	out io.Writer

	mu    sync.Mutex
	view  tracker.View
	items []tracker.ListItem
}

func (t *terminal) Render(v tracker.View, items []tracker.ListItem) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view, t.items = v, items
}

func (t *terminal) ScrollTo(string) {}

func (t *terminal) snapshot() (tracker.View, []tracker.ListItem) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.view, t.items
}

func (t *terminal) printList() {
	_, items := t.snapshot()
	if len(items) == 0 {
		fmt.Fprintln(t.out, "No pubs match.")
		return
	}
	for _, it := range items {
		mark := "[ ]"
		if it.Visited {
			mark = "[x]"
		}
		fmt.Fprintf(t.out, "%s %s  (%s)\n", mark, it.Name, it.Address)
		if it.Detail != nil {
			printDetail(t.out, *it.Detail)
		}
	}
}

func printDetail(w io.Writer, d tracker.Detail) {
	const indent = "      "
	switch d.Kind {
	case tracker.DetailReview:
		date := d.Date
		if date == "" {
			date = "no date"
		}
		fmt.Fprintf(w, "%sVisited: %s\n", indent, date)
		if d.Content != "" {
			fmt.Fprintf(w, "%s%s\n", indent, strings.ReplaceAll(d.Content, "\n", "\n"+indent))
		}
	case tracker.DetailAddForm:
		fmt.Fprintf(w, "%sNot visited yet: hunter visit <pub> --date YYYY-MM-DD --review TEXT\n", indent)
	case tracker.DetailEditForm:
		fmt.Fprintf(w, "%sEditing (date %q): %s\n", indent, d.Date, d.Content)
	}
	if d.Processing {
		fmt.Fprintf(w, "%sProcessing...\n", indent)
	}
}

// resolve finds a pub by key, exact name (case-insensitive) or a unique search match.
func resolve(v tracker.View, arg string) (string, error) {
	if _, ok := v.Dataset.Find(arg); ok {
		return arg, nil
	}
	var matches []tracker.Pub
	for _, e := range v.Dataset.Pubs {
		if strings.EqualFold(e.Pub.Name, arg) {
			return e.Pub.Key, nil
		}
		if tracker.Matches(arg, e.Pub) {
			matches = append(matches, e.Pub)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no pub matches %q", arg)
	case 1:
		return matches[0].Key, nil
	}
	names := make([]string, 0, len(matches))
	for _, p := range matches {
		names = append(names, p.Name)
	}
	return "", fmt.Errorf("%q matches %d pubs: %s", arg, len(matches), strings.Join(names, ", "))
}
