package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// API is the remote side of the tracker; *Client implements it.
type API interface {
	FetchDataset(ctx context.Context) (Dataset, error)
	SaveVisit(ctx context.Context, in VisitInput) error
	DeleteVisit(ctx context.Context, pubID int64) error
}

// Display receives a fresh snapshot after every state change.
type Display interface {
	Render(v View, items []ListItem)
	ScrollTo(key string)
}

// View is a read-only snapshot of the controller state.
type View struct {
	Dataset    Dataset
	Markers    []Marker
	Query      string
	Expanded   string
	Editing    string
	Processing map[string]bool
	Progress   Progress
}

// State is owned by the Controller and only touched under its lock.
type State struct {
	Dataset  Dataset
	Markers  []Marker
	Expanded string
	Editing  string
	Query    string

	processing map[string]bool
	cancels    map[string]context.CancelFunc
	seq        uint64 // last refresh issued
	applied    uint64 // last refresh rendered
}

type Options struct {
	Authenticated bool
	Map           *MapView // nil when there is no map
	Logger        zerolog.Logger
}

// Controller coordinates fetches, mutations, list and map. The lock is never
// held across a network call or a Display/Widget callback.
type Controller struct {
	api     API
	display Display
	mapv    *MapView
	log     zerolog.Logger
	auth    bool

	mu sync.Mutex
	st State

	renderMu sync.Mutex
}

func NewController(api API, d Display, opts Options) *Controller {
	return &Controller{
		api:     api,
		display: d,
		mapv:    opts.Map,
		log:     opts.Logger,
		auth:    opts.Authenticated,
		st: State{
			processing: map[string]bool{},
			cancels:    map[string]context.CancelFunc{},
		},
	}
}

// Load initialises the map and fetches the dataset. Unauthenticated viewers get neither.
func (c *Controller) Load(ctx context.Context) error {
	if !c.auth {
		return nil
	}
	if c.mapv != nil {
		c.mapv.Init()
	}
	return c.Refresh(ctx)
}

// Refresh refetches the dataset and rebuilds list and markers. A refresh that
// completes after a newer one has been applied is dropped.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.st.seq++
	seq := c.st.seq
	c.mu.Unlock()

	ds, err := c.api.FetchDataset(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("fetch dataset failed")
		return err
	}
	markers := BuildMarkers(ds, c.log)

	c.mu.Lock()
	if seq < c.st.applied {
		c.mu.Unlock()
		c.log.Debug().Uint64("seq", seq).Msg("stale refresh dropped")
		return nil
	}
	c.st.applied = seq
	c.st.Dataset = ds
	c.st.Markers = markers
	if _, ok := ds.Find(c.st.Expanded); !ok {
		c.st.Expanded, c.st.Editing = "", ""
	}
	c.mu.Unlock()

	if c.mapv != nil {
		c.mapv.SetMarkers(markers)
	}
	c.render()
	return nil
}

// View returns a copy of the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	proc := make(map[string]bool, len(c.st.processing))
	for k, v := range c.st.processing {
		proc[k] = v
	}
	return View{
		Dataset:    c.st.Dataset,
		Markers:    append([]Marker(nil), c.st.Markers...),
		Query:      c.st.Query,
		Expanded:   c.st.Expanded,
		Editing:    c.st.Editing,
		Processing: proc,
		Progress:   ComputeProgress(c.st.Dataset),
	}
}

func (c *Controller) render() {
	if c.display == nil {
		return
	}
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	v := c.View()
	c.display.Render(v, BuildList(v))
}

// Click handles a click on part of a list item. Only the pub row itself toggles.
func (c *Controller) Click(key string, target ClickTarget) {
	if !target.Toggles() {
		return
	}
	c.mu.Lock()
	if c.st.Expanded == key {
		c.st.Expanded, c.st.Editing = "", ""
		c.mu.Unlock()
		c.render()
		return
	}
	c.mu.Unlock()
	c.expand(key)
}

func (c *Controller) expand(key string) {
	c.mu.Lock()
	if _, ok := c.st.Dataset.Find(key); !ok {
		c.mu.Unlock()
		return
	}
	c.st.Expanded, c.st.Editing = key, ""
	var target *LatLng
	for _, m := range c.st.Markers {
		if m.Key == key {
			p := m.Position
			target = &p
			break
		}
	}
	c.mu.Unlock()

	if c.mapv != nil && target != nil {
		c.mapv.FlyTo(*target)
	}
	c.render()
}

// MarkerClick opens the popup, clears the search, expands the pub and asks the
// display to scroll to it. The fly-to transition is skipped.
func (c *Controller) MarkerClick(key string) {
	c.mu.Lock()
	var mk *Marker
	for i := range c.st.Markers {
		if c.st.Markers[i].Key == key {
			m := c.st.Markers[i]
			mk = &m
			break
		}
	}
	if mk == nil {
		c.mu.Unlock()
		return
	}
	c.st.Query = ""
	c.mu.Unlock()

	run := func() {
		if c.mapv != nil {
			c.mapv.OpenPopup(*mk)
		}
		c.expand(key)
	}
	if c.mapv != nil {
		c.mapv.WithMarkerClick(run)
	} else {
		run()
	}
	if c.display != nil {
		c.display.ScrollTo(key)
	}
}

// DoubleClick forwards a map double-click.
func (c *Controller) DoubleClick(p LatLng) {
	if c.mapv != nil {
		c.mapv.DoubleClick(p)
	}
}

// Search replaces the filter query and re-renders the list.
func (c *Controller) Search(q string) {
	c.mu.Lock()
	c.st.Query = q
	c.mu.Unlock()
	c.render()
}

// Edit opens the pre-filled form for an expanded, visited pub.
func (c *Controller) Edit(key string) error {
	c.mu.Lock()
	e, ok := c.st.Dataset.Find(key)
	if !ok || c.st.Expanded != key || !e.Pub.VisitedBy(c.st.Dataset.UserID) {
		c.mu.Unlock()
		return ErrNotExpanded
	}
	c.st.Editing = key
	c.mu.Unlock()
	c.render()
	return nil
}

// CancelEdit closes the edit form and shows the review again.
func (c *Controller) CancelEdit(key string) {
	c.mu.Lock()
	if c.st.Editing != key {
		c.mu.Unlock()
		return
	}
	c.st.Editing = ""
	c.mu.Unlock()
	c.render()
}

// SaveVisit records a visit for the pub (date YYYY-MM-DD or empty) and refreshes.
func (c *Controller) SaveVisit(ctx context.Context, key, date, content string) error {
	content = strings.TrimSpace(content)
	date = strings.TrimSpace(date)
	if utf8.RuneCountInString(content) > MaxContent {
		return fmt.Errorf("%w: review longer than %d characters", ErrInvalidVisit, MaxContent)
	}
	if date != "" {
		if _, err := time.Parse(editDateLayout, date); err != nil {
			return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidVisit)
		}
	}
	return c.mutate(ctx, key, "save visit", func(ctx context.Context, p Pub) error {
		return c.api.SaveVisit(ctx, VisitInput{PubID: p.ID, DateVisited: date, Content: content})
	})
}

// DeleteVisit removes the user's visit and posts for the pub and refreshes.
func (c *Controller) DeleteVisit(ctx context.Context, key string) error {
	return c.mutate(ctx, key, "delete visit", func(ctx context.Context, p Pub) error {
		return c.api.DeleteVisit(ctx, p.ID)
	})
}

// mutate marks the pub's control as processing, runs call, and on success
// closes the edit form and refreshes. Failures leave the state unchanged.
func (c *Controller) mutate(ctx context.Context, key, op string, call func(context.Context, Pub) error) error {
	c.mu.Lock()
	e, ok := c.st.Dataset.Find(key)
	if !ok {
		c.mu.Unlock()
		return ErrUnknownPub
	}
	if c.st.processing[key] {
		c.mu.Unlock()
		return ErrBusy
	}
	ctx, cancel := context.WithCancel(ctx)
	c.st.processing[key] = true
	c.st.cancels[key] = cancel
	c.mu.Unlock()
	c.render()

	defer func() {
		cancel()
		c.mu.Lock()
		delete(c.st.processing, key)
		delete(c.st.cancels, key)
		c.mu.Unlock()
		c.render()
	}()

	if err := call(ctx, e.Pub); err != nil {
		c.log.Error().Err(err).Str("pub", key).Msg(op + " failed")
		return err
	}

	c.mu.Lock()
	if c.st.Editing == key {
		c.st.Editing = ""
	}
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Cancel aborts the in-flight mutation for key, if any.
func (c *Controller) Cancel(key string) bool {
	c.mu.Lock()
	cancel, ok := c.st.cancels[key]
	c.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}
