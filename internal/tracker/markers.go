package tracker

import (
	"math"

	"github.com/rs/zerolog"
)

type MarkerColor string

const (
	ColorVisited   MarkerColor = "green"
	ColorUnvisited MarkerColor = "red"
)

type LatLng struct {
	Lat float64
	Lng float64
}

type Marker struct {
	Key      string
	PubID    int64
	Name     string
	URL      string
	Position LatLng
	Visited  bool
	Color    MarkerColor
}

// BuildMarkers returns one marker per pub with usable coordinates. Pubs
// without them are logged at debug level and skipped.
func BuildMarkers(d Dataset, log zerolog.Logger) []Marker {
	out := make([]Marker, 0, len(d.Pubs))
	for _, e := range d.Pubs {
		pos, err := position(e.Pub)
		if err != nil {
			log.Debug().Err(err).Msg("marker skipped")
			continue
		}
		m := Marker{
			Key:      e.Pub.Key,
			PubID:    e.Pub.ID,
			Name:     e.Pub.Name,
			URL:      e.Pub.URL,
			Position: pos,
			Visited:  e.Pub.VisitedBy(d.UserID),
			Color:    ColorUnvisited,
		}
		if m.Visited {
			m.Color = ColorVisited
		}
		out = append(out, m)
	}
	return out
}

func position(p Pub) (LatLng, error) {
	bad := func(reason string) (LatLng, error) {
		return LatLng{}, &DataValidationError{Key: p.Key, Name: p.Name, Reason: reason}
	}
	lat, lng := p.Latitude, p.Longitude
	switch {
	case !lat.Valid && lat.Raw == "", !lng.Valid && lng.Raw == "":
		return bad("missing coordinates")
	case !lat.Valid || !lng.Valid:
		return bad("non-numeric coordinates")
	case math.IsNaN(lat.Value) || math.IsInf(lat.Value, 0) || math.IsNaN(lng.Value) || math.IsInf(lng.Value, 0):
		return bad("non-finite coordinates")
	case lat.Value < -90 || lat.Value > 90 || lng.Value < -180 || lng.Value > 180:
		return bad("coordinates out of range")
	}
	return LatLng{Lat: lat.Value, Lng: lng.Value}, nil
}
