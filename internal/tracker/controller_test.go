package tracker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func testPubs() []Pub {
	return []Pub{
		{ID: 1, Key: "zed", Name: "Zed Arms", Address: "9 High St", Latitude: Num(53), Longitude: Num(-2), UsersVisited: []int64{}},
		{ID: 2, Key: "anchor", Name: "Anchor Inn", Address: "1 Quay", Latitude: Num(51.5), Longitude: Num(-0.12), UsersVisited: []int64{7}},
		{ID: 3, Key: "nowhere", Name: "No Coords", Address: "?"},
	}
}

func newTestController(api API) (*Controller, *fakeDisplay, *fakeWidget, *manualScheduler) {
	d := &fakeDisplay{}
	w := &fakeWidget{}
	s := &manualScheduler{}
	c := NewController(api, d, Options{
		Authenticated: true,
		Map:           NewMapView(w, DefaultMapConfig("style"), s),
		Logger:        zerolog.Nop(),
	})
	return c, d, w, s
}

func TestController_Unauthenticated(t *testing.T) {
	api := newFakeAPI(7, testPubs()...)
	w := &fakeWidget{}
	d := &fakeDisplay{}
	c := NewController(api, d, Options{Map: NewMapView(w, DefaultMapConfig("s"), &manualScheduler{})})
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("err: %v", err)
	}
	if api.fetches != 0 || len(w.log()) != 0 || d.renders != 0 {
		t.Fatalf("fetches=%d widget=%v renders=%d", api.fetches, w.log(), d.renders)
	}
}

func TestController_LoadRendersListAndMarkers(t *testing.T) {
	api := newFakeAPI(7, testPubs()...)
	c, d, w, _ := newTestController(api)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("err: %v", err)
	}
	if got := w.log(); len(got) != 2 || !strings.HasPrefix(got[0], "init ") || got[1] != "markers 2" {
		t.Fatalf("widget=%v", got)
	}
	if len(d.items) != 3 || d.items[0].Name != "Anchor Inn" || !d.items[0].Visited || d.items[2].Visited {
		t.Fatalf("items=%+v", d.items)
	}
	if d.last.Progress.Visited != 1 || d.last.Progress.Total != 3 || d.last.Progress.Percentage != 33.3 {
		t.Fatalf("progress=%+v", d.last.Progress)
	}

	// same data again: same list and markers
	first := append([]ListItem(nil), d.items...)
	markers := c.View().Markers
	_ = c.Refresh(context.Background())
	for i := range first {
		if d.items[i].Key != first[i].Key || d.items[i].Visited != first[i].Visited {
			t.Fatalf("refresh changed order")
		}
	}
	if len(c.View().Markers) != len(markers) {
		t.Fatalf("marker set changed")
	}
}

func TestController_SaveVisitScenario(t *testing.T) {
	api := newFakeAPI(7, testPubs()...)
	c, d, _, _ := newTestController(api)
	ctx := context.Background()
	_ = c.Load(ctx)

	c.Click("zed", TargetPub)
	it, _ := d.item("zed")
	if it.Detail == nil || it.Detail.Kind != DetailAddForm {
		t.Fatalf("expected add form, got %+v", it.Detail)
	}

	if err := c.SaveVisit(ctx, "zed", "2024-03-05", "Great atmosphere"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(api.saves) != 1 || api.saves[0].PubID != 1 {
		t.Fatalf("saves=%+v", api.saves)
	}
	it, _ = d.item("zed")
	if !it.Visited || it.Detail == nil || it.Detail.Kind != DetailReview {
		t.Fatalf("after save: %+v %+v", it, it.Detail)
	}
	if it.Detail.Date != "05-03-2024" || it.Detail.Content != "Great atmosphere" || !it.Detail.CanEdit || !it.Detail.CanDelete {
		t.Fatalf("review=%+v", it.Detail)
	}
	if d.last.Progress.Visited != 2 || len(d.last.Processing) != 0 {
		t.Fatalf("view=%+v", d.last)
	}

	// edit shows the form in edit order
	if err := c.Edit("zed"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	it, _ = d.item("zed")
	if it.Detail.Kind != DetailEditForm || it.Detail.Date != "2024-03-05" {
		t.Fatalf("edit form=%+v", it.Detail)
	}
	if err := c.SaveVisit(ctx, "zed", "2024-04-01", "Even better"); err != nil {
		t.Fatalf("resave: %v", err)
	}
	it, _ = d.item("zed")
	if it.Detail.Kind != DetailReview || it.Detail.Content != "Even better" || it.Detail.Date != "01-04-2024" {
		t.Fatalf("latest post should win: %+v", it.Detail)
	}
}

func TestController_DeleteVisitScenario(t *testing.T) {
	api := newFakeAPI(7, testPubs()...)
	api.posts[2] = []Post{{ID: 1, Content: "Lovely", DateVisited: strp("01-02-2024")}}
	c, d, _, _ := newTestController(api)
	ctx := context.Background()
	_ = c.Load(ctx)
	c.Click("anchor", TargetPub)

	if err := c.DeleteVisit(ctx, "anchor"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	it, _ := d.item("anchor")
	if it.Visited || it.Detail == nil || it.Detail.Kind != DetailAddForm {
		t.Fatalf("after delete: %+v %+v", it, it.Detail)
	}

	var ne *NetworkError
	if err := c.DeleteVisit(ctx, "anchor"); !errors.As(err, &ne) || ne.Status != 404 {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestController_ValidationAndUnknownPub(t *testing.T) {
	api := newFakeAPI(7, testPubs()...)
	c, _, _, _ := newTestController(api)
	_ = c.Load(context.Background())

	if err := c.SaveVisit(context.Background(), "zed", "05-03-2024", ""); !errors.Is(err, ErrInvalidVisit) {
		t.Fatalf("err=%v", err)
	}
	if err := c.SaveVisit(context.Background(), "zed", "", strings.Repeat("x", MaxContent+1)); !errors.Is(err, ErrInvalidVisit) {
		t.Fatalf("err=%v", err)
	}
	if err := c.SaveVisit(context.Background(), "missing", "", ""); !errors.Is(err, ErrUnknownPub) {
		t.Fatalf("err=%v", err)
	}
	if err := c.Edit("zed"); !errors.Is(err, ErrNotExpanded) {
		t.Fatalf("err=%v", err)
	}
	if len(api.saves) != 0 {
		t.Fatalf("nothing should be sent")
	}
}

func TestController_BusyAndCancel(t *testing.T) {
	api := newFakeAPI(7, testPubs()...)
	started := make(chan struct{})
	api.saveHook = func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return &NetworkError{Op: "save visit", Err: ctx.Err()}
	}
	c, d, _, _ := newTestController(api)
	_ = c.Load(context.Background())

	var wg sync.WaitGroup
	var saveErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		saveErr = c.SaveVisit(context.Background(), "zed", "", "first")
	}()
	<-started

	if !c.View().Processing["zed"] {
		t.Fatalf("control should be processing")
	}
	if err := c.SaveVisit(context.Background(), "zed", "", "again"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if !c.Cancel("zed") {
		t.Fatalf("cancel found nothing")
	}
	wg.Wait()

	if !errors.Is(saveErr, context.Canceled) {
		t.Fatalf("saveErr=%v", saveErr)
	}
	if c.View().Processing["zed"] || c.Cancel("zed") {
		t.Fatalf("processing flag not cleared")
	}
	it, _ := d.item("zed")
	if it.Visited {
		t.Fatalf("failed save must not change state")
	}
}

func TestController_FetchFailureKeepsState(t *testing.T) {
	api := newFakeAPI(7, testPubs()...)
	c, d, _, _ := newTestController(api)
	_ = c.Load(context.Background())
	before := len(d.items)

	api.fetchErr = &NetworkError{Op: "fetch dataset", Status: 503}
	if err := c.Refresh(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if len(c.View().Dataset.Pubs) != 3 || len(d.items) != before {
		t.Fatalf("state lost")
	}
}

// blockingAPI parks every fetch until the test answers it.
type blockingAPI struct {
	*fakeAPI
	calls chan chan Dataset
}

func (b *blockingAPI) FetchDataset(ctx context.Context) (Dataset, error) {
	ch := make(chan Dataset)
	b.calls <- ch
	return <-ch, nil
}

func TestController_StaleRefreshDropped(t *testing.T) {
	api := &blockingAPI{fakeAPI: newFakeAPI(7), calls: make(chan chan Dataset)}
	c, d, _, _ := newTestController(api)

	older := Dataset{UserID: 7, Pubs: []Entry{{Pub: Pub{Key: "old", Name: "Old"}}}}
	newer := Dataset{UserID: 7, Pubs: []Entry{{Pub: Pub{Key: "new", Name: "New"}}}}

	errs := make(chan error, 2)
	go func() { errs <- c.Refresh(context.Background()) }()
	first := <-api.calls
	go func() { errs <- c.Refresh(context.Background()) }()
	second := <-api.calls

	// the newer refresh lands first; the older one must not overwrite it
	second <- newer
	if err := <-errs; err != nil {
		t.Fatalf("err: %v", err)
	}
	first <- older
	if err := <-errs; err != nil {
		t.Fatalf("err: %v", err)
	}

	if _, ok := c.View().Dataset.Find("new"); !ok {
		t.Fatalf("stale refresh overwrote state: %+v", c.View().Dataset)
	}
	if len(d.items) != 1 || d.items[0].Key != "new" {
		t.Fatalf("items=%+v", d.items)
	}
}

func TestController_MarkerClick(t *testing.T) {
	api := newFakeAPI(7, testPubs()...)
	c, d, w, s := newTestController(api)
	_ = c.Load(context.Background())
	c.Search("zed")
	w.reset()

	c.MarkerClick("anchor")

	v := c.View()
	if v.Query != "" || v.Expanded != "anchor" {
		t.Fatalf("view query=%q expanded=%q", v.Query, v.Expanded)
	}
	if len(d.scrolled) != 1 || d.scrolled[0] != "anchor" {
		t.Fatalf("scrolled=%v", d.scrolled)
	}
	s.Advance(0)
	if got := w.log(); len(got) != 1 || got[0] != "popup Anchor Inn" {
		t.Fatalf("marker click must not fly: %v", got)
	}
	if len(d.items) != 3 {
		t.Fatalf("search should be cleared, items=%d", len(d.items))
	}

	// a manual click on another pub flies there
	c.Click("zed", TargetPub)
	if got := w.log(); len(got) != 2 || got[1] != "zoom 4" {
		t.Fatalf("calls=%v", got)
	}
}

func TestController_ClickTargets(t *testing.T) {
	api := newFakeAPI(7, testPubs()...)
	c, _, _, _ := newTestController(api)
	_ = c.Load(context.Background())

	c.Click("zed", TargetPub)
	c.Click("zed", TargetForm)
	c.Click("zed", TargetButton)
	c.Click("zed", TargetInputRow)
	if c.View().Expanded != "zed" {
		t.Fatalf("sub-element clicks must not toggle")
	}
	c.Click("anchor", TargetPub)
	if c.View().Expanded != "anchor" {
		t.Fatalf("expansion should move")
	}
	c.Click("anchor", TargetPub)
	if c.View().Expanded != "" {
		t.Fatalf("second click collapses")
	}
}
