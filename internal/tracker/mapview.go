package tracker

import (
	"sync"
	"sync/atomic"
	"time"
)

// Widget is the subset of a map provider the tracker drives.
type Widget interface {
	Init(center LatLng, zoom int, styleID string)
	Zoom() int
	SetZoom(z int)
	PanTo(p LatLng)
	SetMarkers(ms []Marker)
	OpenPopup(at LatLng, p Popup)
	SetDoubleClickZoom(enabled bool)
}

// Popup is the single shared info window.
type Popup struct {
	Title   string
	Link    string
	Caption string
}

type Timer interface{ Stop() bool }

// Scheduler runs f after d. Tests substitute a manual clock.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealScheduler is backed by time.AfterFunc.
var RealScheduler Scheduler = realScheduler{}

type AnimState int

const (
	AnimIdle AnimState = iota
	AnimZoomingOut
	AnimPanning
	AnimZoomingIn
)

func (s AnimState) String() string {
	return [...]string{"idle", "zooming-out", "panning", "zooming-in"}[s]
}

type MapConfig struct {
	Center     LatLng
	Zoom       int
	StyleID    string
	StageDelay time.Duration // between zoom-out, pan and zoom-in
	ZoomOutBy  int
	MinZoom    int
	Caption    string
}

func DefaultMapConfig(styleID string) MapConfig {
	return MapConfig{
		Center:     LatLng{Lat: 53.0, Lng: -2.0},
		Zoom:       6,
		StyleID:    styleID,
		StageDelay: 500 * time.Millisecond,
		ZoomOutBy:  2,
		MinZoom:    3,
		Caption:    "Three-star heritage pub",
	}
}

// MapView keeps a Widget in step with the tracker and runs the fly-to
// transition (idle, zooming-out, panning, zooming-in, idle).
type MapView struct {
	w     Widget
	cfg   MapConfig
	sched Scheduler

	// set while a marker click is being handled; suppresses FlyTo
	markerClick atomic.Bool

	mu          sync.Mutex
	initialized bool
	state       AnimState
	restore     int
	timer       Timer
	gen         int
}

func NewMapView(w Widget, cfg MapConfig, s Scheduler) *MapView {
	if s == nil {
		s = RealScheduler
	}
	return &MapView{w: w, cfg: cfg, sched: s}
}

// Init sets up the widget once; later calls do nothing.
func (m *MapView) Init() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return
	}
	m.initialized = true
	m.w.Init(m.cfg.Center, m.cfg.Zoom, m.cfg.StyleID)
}

func (m *MapView) State() AnimState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetMarkers replaces every marker.
func (m *MapView) SetMarkers(ms []Marker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.w.SetMarkers(ms)
}

// WithMarkerClick runs fn with the marker-click flag raised.
func (m *MapView) WithMarkerClick(fn func()) {
	m.markerClick.Store(true)
	defer m.markerClick.Store(false)
	fn()
}

func (m *MapView) OpenPopup(mk Marker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.w.OpenPopup(mk.Position, Popup{Title: mk.Name, Link: mk.URL, Caption: m.cfg.Caption})
}

// FlyTo zooms out, pans to p after one stage delay and zooms back in after
// another. A new FlyTo supersedes a running one. It does nothing during a
// marker click.
func (m *MapView) FlyTo(p LatLng) {
	if m.markerClick.Load() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
	}
	m.gen++
	gen := m.gen

	// an interrupted transition keeps the zoom it started from
	if m.state == AnimIdle {
		m.restore = m.w.Zoom()
	}
	restore := m.restore
	out := restore - m.cfg.ZoomOutBy
	if out < m.cfg.MinZoom {
		out = m.cfg.MinZoom
	}
	m.state = AnimZoomingOut
	m.w.SetZoom(out)

	m.timer = m.sched.AfterFunc(m.cfg.StageDelay, func() {
		if !m.advance(gen, AnimPanning, func() { m.w.PanTo(p) }) {
			return
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.gen != gen {
			return
		}
		m.timer = m.sched.AfterFunc(m.cfg.StageDelay, func() {
			if m.advance(gen, AnimZoomingIn, func() { m.w.SetZoom(restore) }) {
				m.mu.Lock()
				if m.gen == gen {
					m.state = AnimIdle
					m.timer = nil
				}
				m.mu.Unlock()
			}
		})
	})
}

// advance moves to next and runs step unless a newer FlyTo took over.
func (m *MapView) advance(gen int, next AnimState, step func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return false
	}
	m.state = next
	step()
	return true
}

// DoubleClick zooms one level in on p with the widget's own double-click
// zoom switched off for the duration.
func (m *MapView) DoubleClick(p LatLng) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.w.SetDoubleClickZoom(false)
	m.w.SetZoom(m.w.Zoom() + 1)
	m.w.PanTo(p)
	m.w.SetDoubleClickZoom(true)
}
