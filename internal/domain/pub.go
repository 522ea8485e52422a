package domain

import "time"

type Pub struct {
	ID             int64
	CustomPubID    string // md5 of the address; stable list/marker key
	CamraID        *string
	Name           string
	Address        string
	Description    string
	InventoryStars int
	Listed         string
	Open           bool
	URL            string
	Lat, Lon       *float64
	UsersVisited   []int64
}

// VisitedBy reports whether uid has recorded a visit to the pub.
func (p Pub) VisitedBy(uid int64) bool {
	for _, id := range p.UsersVisited {
		if id == uid {
			return true
		}
	}
	return false
}

type Post struct {
	ID          int64
	PubID       int64
	OwnerID     int64
	Content     string
	DateVisited *time.Time
	CreatedAt   time.Time
}

// MaxPostContent bounds the review text in runes.
const MaxPostContent = 500

// StarStats counts pubs per inventory star level (0..3).
type StarStats [4]struct {
	Total int
	Open  int
}
