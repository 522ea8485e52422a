package tracker

import (
	"sort"
	"time"
)

const (
	displayDateLayout = "02-01-2006"
	editDateLayout    = "2006-01-02"
)

// MaxContent bounds the review text in runes.
const MaxContent = 500

type DetailKind int

const (
	DetailNone DetailKind = iota
	DetailReview
	DetailAddForm
	DetailEditForm
)

func (k DetailKind) String() string {
	switch k {
	case DetailReview:
		return "review"
	case DetailAddForm:
		return "add-form"
	case DetailEditForm:
		return "edit-form"
	}
	return "none"
}

// Detail is the expanded part of a list item.
type Detail struct {
	Kind       DetailKind
	Date       string // DD-MM-YYYY for reviews, YYYY-MM-DD in forms
	Content    string
	CanEdit    bool
	CanDelete  bool
	MaxContent int
	Processing bool
}

type ListItem struct {
	Key      string
	PubID    int64
	Name     string
	Address  string
	URL      string
	Visited  bool
	Expanded bool
	Detail   *Detail // nil unless expanded
}

// ClickTarget names the part of a list item that received a click.
type ClickTarget int

const (
	TargetPub ClickTarget = iota
	TargetForm
	TargetButton
	TargetInputRow
)

// Toggles reports whether a click on t expands or collapses the item.
func (t ClickTarget) Toggles() bool { return t == TargetPub }

// BuildList renders v as list items sorted by name (byte order, stable),
// filtered by the current query.
func BuildList(v View) []ListItem {
	entries := make([]Entry, 0, len(v.Dataset.Pubs))
	for _, e := range v.Dataset.Pubs {
		if Matches(v.Query, e.Pub) {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Pub.Name < entries[j].Pub.Name })

	items := make([]ListItem, 0, len(entries))
	for _, e := range entries {
		it := ListItem{
			Key:     e.Pub.Key,
			PubID:   e.Pub.ID,
			Name:    e.Pub.Name,
			Address: e.Pub.Address,
			URL:     e.Pub.URL,
			Visited: e.Pub.VisitedBy(v.Dataset.UserID),
		}
		if e.Pub.Key == v.Expanded {
			it.Expanded = true
			d := detailFor(e, it.Visited, v.Editing == e.Pub.Key)
			d.Processing = v.Processing[e.Pub.Key]
			it.Detail = &d
		}
		items = append(items, it)
	}
	return items
}

func detailFor(e Entry, visited, editing bool) Detail {
	post, hasPost := e.LatestPost()
	switch {
	case visited && editing:
		d := Detail{Kind: DetailEditForm, MaxContent: MaxContent}
		if hasPost {
			d.Content = post.Content
			if post.DateVisited != nil {
				d.Date = DisplayToEditDate(*post.DateVisited)
			}
		}
		return d
	case visited:
		d := Detail{Kind: DetailReview, CanEdit: true, CanDelete: true}
		if hasPost {
			d.Content = post.Content
			if post.DateVisited != nil {
				d.Date = DisplayDate(*post.DateVisited)
			}
		}
		return d
	}
	return Detail{Kind: DetailAddForm, MaxContent: MaxContent}
}

// DisplayToEditDate turns DD-MM-YYYY into YYYY-MM-DD. Dates already in edit
// order pass through; anything else yields "".
func DisplayToEditDate(s string) string {
	if t, err := time.Parse(displayDateLayout, s); err == nil {
		return t.Format(editDateLayout)
	}
	if _, err := time.Parse(editDateLayout, s); err == nil {
		return s
	}
	return ""
}

// DisplayDate renders a served date day-first.
func DisplayDate(s string) string {
	if t, err := time.Parse(editDateLayout, s); err == nil {
		return t.Format(displayDateLayout)
	}
	return s
}
