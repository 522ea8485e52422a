// Package tracker holds the client side of Heritage Hunter: it fetches the
// user's dataset, derives the pub list, map markers, search results and
// progress from it, and coordinates visit mutations through a Controller.
package tracker

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Coordinate is a latitude or longitude as served by the API. The service may
// send a number, a numeric string or null; anything else is kept as Raw and
// reported invalid.
type Coordinate struct {
	Value float64
	Valid bool
	Raw   string
}

func (c *Coordinate) UnmarshalJSON(b []byte) error {
	*c = Coordinate{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		c.Raw = s
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			c.Value, c.Valid = f, true
		}
		return nil
	}
	c.Raw = string(b)
	if f, err := strconv.ParseFloat(c.Raw, 64); err == nil {
		c.Value, c.Valid = f, true
	}
	return nil
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// Num builds a valid coordinate.
func Num(f float64) Coordinate { return Coordinate{Value: f, Valid: true} }

type Pub struct {
	ID           int64      `json:"id"`
	Key          string     `json:"custom_pub_id"`
	Name         string     `json:"name"`
	Address      string     `json:"address"`
	URL          string     `json:"url"`
	Latitude     Coordinate `json:"latitude"`
	Longitude    Coordinate `json:"longitude"`
	UsersVisited []int64    `json:"users_visited"`
}

// VisitedBy reports whether uid is in the pub's visitor set.
func (p Pub) VisitedBy(uid int64) bool {
	for _, id := range p.UsersVisited {
		if id == uid {
			return true
		}
	}
	return false
}

type Post struct {
	ID          int64   `json:"id"`
	Content     string  `json:"content"`
	DateVisited *string `json:"date_visited"`
}

type Entry struct {
	Pub   Pub    `json:"pub"`
	Posts []Post `json:"posts"`
}

// LatestPost returns the most recent post. Posts are served oldest first.
func (e Entry) LatestPost() (Post, bool) {
	if len(e.Posts) == 0 {
		return Post{}, false
	}
	return e.Posts[len(e.Posts)-1], true
}

type Dataset struct {
	Pubs   []Entry `json:"pubs"`
	UserID int64   `json:"user_id"`
}

// Find looks a pub up by its stable key.
func (d Dataset) Find(key string) (Entry, bool) {
	for _, e := range d.Pubs {
		if e.Pub.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}
