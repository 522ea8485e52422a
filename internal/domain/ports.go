package domain

import (
	"context"
	"time"
)

type PubRepository interface {
	// Write paths
	CreatePub(ctx context.Context, p Pub) (int64, error)
	UpdatePub(ctx context.Context, p Pub) error
	DeleteAllPubs(ctx context.Context) error
	SetCoords(ctx context.Context, id int64, lat, lon float64) error
	SaveVisit(ctx context.Context, ownerID, pubID int64, content string, date *time.Time) error
	DeleteVisit(ctx context.Context, ownerID, pubID int64) error

	// Read paths
	GetPub(ctx context.Context, id int64) (Pub, error)
	ListListedPubs(ctx context.Context) ([]Pub, error)
	ListAllPubs(ctx context.Context) ([]Pub, error)
	ListPubsMissingCoords(ctx context.Context) ([]Pub, error)
	ListPostsByOwner(ctx context.Context, ownerID int64) ([]Post, error)
	StarStats(ctx context.Context) (StarStats, error)
}

type Geocoder interface {
	Geocode(ctx context.Context, query string) (lat, lon float64, err error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, keys ...string) error
}

type Session struct {
	UserID int64  `json:"user_id"`
	CSRF   string `json:"csrf"`
}

type SessionStore interface {
	Issue(ctx context.Context, userID int64, ttl time.Duration) (token string, s Session, err error)
	Lookup(ctx context.Context, token string) (Session, error)
	Revoke(ctx context.Context, token string) error
}
