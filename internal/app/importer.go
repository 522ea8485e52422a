package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"heritage_hunter/internal/domain"
)

type ImportMode string

const (
	ModeUpdate ImportMode = "update"
	ModeFresh  ImportMode = "fresh_import"
)

func ParseImportMode(s string) (ImportMode, error) {
	switch m := ImportMode(s); m {
	case ModeUpdate, ModeFresh:
		return m, nil
	}
	return "", fmt.Errorf("%w: mode must be update or fresh_import", domain.ErrInvalidInput)
}

type ImportReport struct {
	Created   int
	Updated   int
	Unchanged int
	Skipped   int
	Changes   []string // three-star promotions, demotions, openings and closures
	Before    domain.StarStats
	After     domain.StarStats
}

// StatsLines renders before/after counts per star level with deltas.
func (r ImportReport) StatsLines() []string {
	out := make([]string, 0, 3)
	for s := 1; s <= 3; s++ {
		b, a := r.Before[s], r.After[s]
		out = append(out, fmt.Sprintf("%d★ total: %d → %d (%+d), open: %d → %d (%+d)",
			s, b.Total, a.Total, a.Total-b.Total, b.Open, a.Open, a.Open-b.Open))
	}
	return out
}

type GeocodeReport struct {
	Filled int
	Failed int
}

type ImportService struct {
	repo     domain.PubRepository
	geo      domain.Geocoder
	datasets *DatasetService
}

func NewImportService(r domain.PubRepository, g domain.Geocoder, d *DatasetService) *ImportService {
	return &ImportService{repo: r, geo: g, datasets: d}
}

func (s *ImportService) Import(ctx context.Context, records []map[string]any, mode ImportMode) (ImportReport, error) {
	var rep ImportReport
	var err error
	if rep.Before, err = s.repo.StarStats(ctx); err != nil {
		return rep, fmt.Errorf("stats before: %w", err)
	}

	incoming := make([]domain.Pub, 0, len(records))
	for i, r := range records {
		p, err := mapScrapedPub(r)
		if err != nil {
			log.Warn().Int("index", i).Err(err).Msg("import record skipped")
			rep.Skipped++
			continue
		}
		incoming = append(incoming, p)
	}

	switch mode {
	case ModeFresh:
		log.Info().Msg("fresh import: wiping pubs")
		if err := s.repo.DeleteAllPubs(ctx); err != nil {
			return rep, fmt.Errorf("wipe pubs: %w", err)
		}
		for _, p := range incoming {
			if _, err := s.repo.CreatePub(ctx, p); err != nil {
				return rep, fmt.Errorf("create %q: %w", p.Name, err)
			}
			rep.Created++
		}
	case ModeUpdate:
		if err := s.update(ctx, incoming, &rep); err != nil {
			return rep, err
		}
	default:
		return rep, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, mode)
	}

	if rep.After, err = s.repo.StarStats(ctx); err != nil {
		return rep, fmt.Errorf("stats after: %w", err)
	}
	if s.datasets != nil {
		s.datasets.Invalidate(ctx, 0)
	}
	return rep, nil
}

func (s *ImportService) update(ctx context.Context, incoming []domain.Pub, rep *ImportReport) error {
	existing, err := s.repo.ListAllPubs(ctx)
	if err != nil {
		return fmt.Errorf("list pubs: %w", err)
	}
	byCamra := make(map[string]*domain.Pub, len(existing))
	byAddr := make(map[string]*domain.Pub, len(existing))
	for i := range existing {
		p := &existing[i]
		if p.CamraID != nil {
			byCamra[*p.CamraID] = p
		}
		byAddr[p.Address] = p
	}

	for _, in := range incoming {
		// CAMRA id first, then exact address
		var cur *domain.Pub
		if in.CamraID != nil {
			cur = byCamra[*in.CamraID]
		}
		if cur == nil {
			cur = byAddr[in.Address]
		}

		if cur == nil {
			id, err := s.repo.CreatePub(ctx, in)
			if err != nil {
				return fmt.Errorf("create %q: %w", in.Name, err)
			}
			in.ID = id
			rep.Created++
			log.Info().Str("name", in.Name).Msg("pub created")
			p := in
			if p.CamraID != nil {
				byCamra[*p.CamraID] = &p
			}
			byAddr[p.Address] = &p
			continue
		}

		rep.Changes = append(rep.Changes, starChanges(*cur, in)...)
		merged, dirty := mergePub(*cur, in)
		if len(dirty) == 0 {
			rep.Unchanged++
			continue
		}
		if err := s.repo.UpdatePub(ctx, merged); err != nil {
			return fmt.Errorf("update %q: %w", merged.Name, err)
		}
		*cur = merged
		rep.Updated++
		log.Info().Str("name", merged.Name).Strs("fields", dirty).Msg("pub updated")
	}
	return nil
}

// starChanges describes three-star promotions/demotions and open/closed changes of three-star pubs.
func starChanges(old, in domain.Pub) []string {
	var out []string
	switch {
	case old.InventoryStars == 3 && in.InventoryStars != 3:
		out = append(out, fmt.Sprintf("Demoted from Three-Star: %s, Address: %s", old.Name, old.Address))
	case old.InventoryStars != 3 && in.InventoryStars == 3:
		out = append(out, fmt.Sprintf("Promoted to Three-Star: %s, Address: %s", old.Name, old.Address))
	}
	if old.Open != in.Open && old.InventoryStars == 3 {
		status := "closed"
		if in.Open {
			status = "opened"
		}
		out = append(out, fmt.Sprintf("Three star %s: %s, Address: %s", status, old.Name, old.Address))
	}
	return out
}

// mergePub applies incoming fields onto old and lists what changed.
// Coordinates are only taken when the stored pub has none.
func mergePub(old, in domain.Pub) (domain.Pub, []string) {
	out := old
	var dirty []string
	set := func(name string, changed bool, apply func()) {
		if changed {
			apply()
			dirty = append(dirty, name)
		}
	}
	set("name", old.Name != in.Name, func() { out.Name = in.Name })
	set("address", old.Address != in.Address, func() { out.Address = in.Address })
	set("description", old.Description != in.Description, func() { out.Description = in.Description })
	set("inventory_stars", old.InventoryStars != in.InventoryStars, func() { out.InventoryStars = in.InventoryStars })
	set("listed", old.Listed != in.Listed, func() { out.Listed = in.Listed })
	set("open", old.Open != in.Open, func() { out.Open = in.Open })
	set("url", old.URL != in.URL, func() { out.URL = in.URL })
	set("camra_id", in.CamraID != nil && (old.CamraID == nil || *old.CamraID != *in.CamraID), func() { out.CamraID = in.CamraID })
	set("latitude", old.Lat == nil && in.Lat != nil, func() { out.Lat = in.Lat })
	set("longitude", old.Lon == nil && in.Lon != nil, func() { out.Lon = in.Lon })
	return out, dirty
}

// GeocodeMissing fills coordinates for pubs without them, at most workers lookups at a time.
// Failed lookups are logged and left for the next run.
func (s *ImportService) GeocodeMissing(ctx context.Context, workers int) (GeocodeReport, error) {
	if s.geo == nil {
		return GeocodeReport{}, errors.New("geocoder not configured")
	}
	if workers <= 0 {
		workers = 1
	}
	pubs, err := s.repo.ListPubsMissingCoords(ctx)
	if err != nil {
		return GeocodeReport{}, fmt.Errorf("list pubs missing coords: %w", err)
	}

	var filled, failed int64
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup

	for _, p := range pubs {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(p domain.Pub) {
			defer wg.Done()
			defer sem.Release(1)

			lat, lon, err := s.geo.Geocode(ctx, p.Name+", "+p.Address)
			if err == nil {
				err = s.repo.SetCoords(ctx, p.ID, lat, lon)
			}
			if err != nil {
				atomic.AddInt64(&failed, 1)
				log.Warn().Int64("id", p.ID).Str("name", p.Name).Err(err).Msg("geocode failed")
				return
			}
			atomic.AddInt64(&filled, 1)
		}(p)
	}
	wg.Wait()

	if filled > 0 && s.datasets != nil {
		s.datasets.Invalidate(ctx, 0)
	}
	return GeocodeReport{Filled: int(filled), Failed: int(failed)}, ctx.Err()
}
