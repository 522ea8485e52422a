package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"heritage_hunter/internal/domain"
)

// ---- fakes ----

type savedVisit struct {
	owner, pub int64
	content    string
	date       *time.Time
}

type fakeRepo struct {
	mu sync.Mutex

	pubs    []domain.Pub
	posts   []domain.Post
	stats   []domain.StarStats // returned in order by StarStats
	nextID  int64
	updated []domain.Pub
	coords  map[int64][2]float64
	saved   []savedVisit
	wiped   bool

	listCalls  int
	postsCalls int
	saveErr    error
	deleteErr  error
}

func (f *fakeRepo) CreatePub(ctx context.Context, p domain.Pub) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = 1000 + f.nextID
	f.pubs = append(f.pubs, p)
	return p.ID, nil
}
func (f *fakeRepo) UpdatePub(ctx context.Context, p domain.Pub) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, p)
	for i := range f.pubs {
		if f.pubs[i].ID == p.ID {
			f.pubs[i] = p
			return nil
		}
	}
	return domain.ErrNotFound
}
func (f *fakeRepo) DeleteAllPubs(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pubs = nil
	f.wiped = true
	return nil
}
func (f *fakeRepo) SetCoords(ctx context.Context, id int64, lat, lon float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.coords == nil {
		f.coords = map[int64][2]float64{}
	}
	f.coords[id] = [2]float64{lat, lon}
	return nil
}
func (f *fakeRepo) SaveVisit(ctx context.Context, ownerID, pubID int64, content string, date *time.Time) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, savedVisit{owner: ownerID, pub: pubID, content: content, date: date})
	return nil
}
func (f *fakeRepo) DeleteVisit(ctx context.Context, ownerID, pubID int64) error { return f.deleteErr }
func (f *fakeRepo) GetPub(ctx context.Context, id int64) (domain.Pub, error) {
	for _, p := range f.pubs {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Pub{}, domain.ErrNotFound
}
func (f *fakeRepo) ListListedPubs(ctx context.Context) ([]domain.Pub, error) {
	f.listCalls++
	return f.pubs, nil
}
func (f *fakeRepo) ListAllPubs(ctx context.Context) ([]domain.Pub, error) {
	return append([]domain.Pub(nil), f.pubs...), nil
}
func (f *fakeRepo) ListPubsMissingCoords(ctx context.Context) ([]domain.Pub, error) {
	var out []domain.Pub
	for _, p := range f.pubs {
		if p.Lat == nil || p.Lon == nil {
			out = append(out, p)
		}
	}
	return out, nil
}
func (f *fakeRepo) ListPostsByOwner(ctx context.Context, ownerID int64) ([]domain.Post, error) {
	f.postsCalls++
	var out []domain.Post
	for _, p := range f.posts {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}
func (f *fakeRepo) StarStats(ctx context.Context) (domain.StarStats, error) {
	if len(f.stats) == 0 {
		return domain.StarStats{}, nil
	}
	st := f.stats[0]
	if len(f.stats) > 1 {
		f.stats = f.stats[1:]
	}
	return st, nil
}

// fakeCache stores JSON like the redis adapter does.
type fakeCache struct {
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}
func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.store, key)
		c.dels = append(c.dels, key)
	}
	return nil
}

type fakeGeocoder struct {
	mu      sync.Mutex
	queries []string
	fail    map[string]error
}

func (g *fakeGeocoder) Geocode(ctx context.Context, q string) (float64, float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queries = append(g.queries, q)
	if err := g.fail[q]; err != nil {
		return 0, 0, err
	}
	return 52.0, -1.5, nil
}

func ptr[T any](v T) *T { return &v }
