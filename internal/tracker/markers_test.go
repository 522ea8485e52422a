package tracker

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestBuildMarkers(t *testing.T) {
	ds := Dataset{UserID: 7, Pubs: []Entry{
		{Pub: Pub{Key: "ok", Name: "Anchor", Latitude: Num(51.5), Longitude: Num(-0.12), UsersVisited: []int64{7}}},
		{Pub: Pub{Key: "ok2", Name: "Bell", Latitude: Num(53), Longitude: Num(-2)}},
		{Pub: Pub{Key: "nolat", Name: "No Lat", Longitude: Num(-2)}},
		{Pub: Pub{Key: "text", Name: "Text", Latitude: Coordinate{Raw: "north"}, Longitude: Num(1)}},
		{Pub: Pub{Key: "nan", Name: "NaN", Latitude: Num(math.NaN()), Longitude: Num(1)}},
		{Pub: Pub{Key: "range", Name: "Range", Latitude: Num(95), Longitude: Num(1)}},
	}}

	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	ms := BuildMarkers(ds, log)

	if len(ms) != 2 {
		t.Fatalf("markers=%+v", ms)
	}
	if ms[0].Key != "ok" || ms[0].Color != ColorVisited || !ms[0].Visited || ms[0].Position != (LatLng{51.5, -0.12}) {
		t.Fatalf("first marker: %+v", ms[0])
	}
	if ms[1].Color != ColorUnvisited || ms[1].Visited {
		t.Fatalf("second marker: %+v", ms[1])
	}
	for _, want := range []string{"missing coordinates", "non-numeric", "non-finite", "out of range"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log missing %q: %s", want, buf.String())
		}
	}

	if again := BuildMarkers(ds, zerolog.Nop()); !reflect.DeepEqual(again, ms) {
		t.Fatalf("markers not idempotent")
	}
}
