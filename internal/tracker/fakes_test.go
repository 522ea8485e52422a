package tracker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ---- in-memory API ----

type fakeAPI struct {
	mu      sync.Mutex
	userID  int64
	pubs    []Pub
	posts   map[int64][]Post // pub id -> this user's posts
	nextID  int64
	fetches int
	saves   []VisitInput

	// optional hooks
	fetchErr error
	saveHook func(ctx context.Context) error
}

func newFakeAPI(uid int64, pubs ...Pub) *fakeAPI {
	return &fakeAPI{userID: uid, pubs: pubs, posts: map[int64][]Post{}}
}

func (f *fakeAPI) FetchDataset(ctx context.Context) (Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return Dataset{}, f.fetchErr
	}
	ds := Dataset{UserID: f.userID}
	for _, p := range f.pubs {
		p.UsersVisited = append([]int64(nil), p.UsersVisited...)
		posts := append([]Post{}, f.posts[p.ID]...)
		ds.Pubs = append(ds.Pubs, Entry{Pub: p, Posts: posts})
	}
	return ds, nil
}

func (f *fakeAPI) SaveVisit(ctx context.Context, in VisitInput) error {
	if f.saveHook != nil {
		if err := f.saveHook(ctx); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, in)
	for i := range f.pubs {
		if f.pubs[i].ID != in.PubID {
			continue
		}
		f.nextID++
		var date *string
		if in.DateVisited != "" {
			t, _ := time.Parse("2006-01-02", in.DateVisited)
			s := t.Format("02-01-2006")
			date = &s
		}
		f.posts[in.PubID] = append(f.posts[in.PubID], Post{ID: f.nextID, Content: in.Content, DateVisited: date})
		if !f.pubs[i].VisitedBy(f.userID) {
			f.pubs[i].UsersVisited = append(f.pubs[i].UsersVisited, f.userID)
		}
		return nil
	}
	return &NetworkError{Op: "save visit", Status: 404}
}

func (f *fakeAPI) DeleteVisit(ctx context.Context, pubID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.posts[pubID]) == 0 {
		return &NetworkError{Op: "delete visit", Status: 404}
	}
	delete(f.posts, pubID)
	for i := range f.pubs {
		if f.pubs[i].ID == pubID {
			var keep []int64
			for _, u := range f.pubs[i].UsersVisited {
				if u != f.userID {
					keep = append(keep, u)
				}
			}
			f.pubs[i].UsersVisited = keep
		}
	}
	return nil
}

// ---- display ----

type fakeDisplay struct {
	mu       sync.Mutex
	renders  int
	last     View
	items    []ListItem
	scrolled []string
}

func (d *fakeDisplay) Render(v View, items []ListItem) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.renders++
	d.last, d.items = v, items
}

func (d *fakeDisplay) ScrollTo(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scrolled = append(d.scrolled, key)
}

func (d *fakeDisplay) item(key string) (ListItem, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, it := range d.items {
		if it.Key == key {
			return it, true
		}
	}
	return ListItem{}, false
}

// ---- map widget + manual scheduler ----

type fakeWidget struct {
	mu    sync.Mutex
	zoom  int
	calls []string
	pops  []Popup
	marks []Marker
}

func (w *fakeWidget) record(format string, args ...any) {
	w.calls = append(w.calls, fmt.Sprintf(format, args...))
}

func (w *fakeWidget) Init(c LatLng, zoom int, style string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.zoom = zoom
	w.record("init %.1f,%.1f z%d %s", c.Lat, c.Lng, zoom, style)
}
func (w *fakeWidget) Zoom() int { return w.zoom }
func (w *fakeWidget) SetZoom(z int) {
	w.zoom = z
	w.record("zoom %d", z)
}
func (w *fakeWidget) PanTo(p LatLng) { w.record("pan %.2f,%.2f", p.Lat, p.Lng) }
func (w *fakeWidget) SetMarkers(ms []Marker) {
	w.marks = ms
	w.record("markers %d", len(ms))
}
func (w *fakeWidget) OpenPopup(at LatLng, p Popup) {
	w.pops = append(w.pops, p)
	w.record("popup %s", p.Title)
}
func (w *fakeWidget) SetDoubleClickZoom(on bool) { w.record("dblclick %v", on) }

func (w *fakeWidget) log() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

func (w *fakeWidget) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = nil
}

type manualTimer struct {
	at      time.Duration
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// manualScheduler fires timers only when Advance is called.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()
	for {
		s.mu.Lock()
		sort.SliceStable(s.timers, func(i, j int) bool { return s.timers[i].at < s.timers[j].at })
		var due *manualTimer
		if len(s.timers) > 0 && s.timers[0].at <= target {
			due = s.timers[0]
			s.timers = s.timers[1:]
			s.now = due.at
		} else {
			s.now = target
		}
		s.mu.Unlock()
		if due == nil {
			return
		}
		if !due.stopped {
			due.f()
		}
	}
}

func strp(s string) *string { return &s }
