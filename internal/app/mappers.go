package app

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"heritage_hunter/internal/domain"
)

/********** alias registry (single source of truth) **********/

// Scraper exports changed key casing between site versions; accept all of them.
var pubAliases = map[string][]string{
	"name":        {"Pub Name", "pub_name", "name"},
	"address":     {"Address", "address"},
	"description": {"Description", "description"},
	"stars":       {"Inventory Stars", "inventory_stars", "stars"},
	"listed":      {"Listed", "listed"},
	"open":        {"Open", "open"},
	"status":      {"Status", "status"},
	"url":         {"Url", "URL", "url"},
	"camra_id":    {"Camra ID", "camra_id"},
	"lat":         {"Latitude", "latitude", "lat"},
	"lon":         {"Longitude", "longitude", "lng", "lon"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstAlias returns the first alias path present in m, whatever its type.
func firstAlias(m map[string]any, key string) any {
	for _, p := range pubAliases[key] {
		if v := lookupAny(m, p); v != nil {
			return v
		}
	}
	return nil
}

// firstNonEmptyAlias: first non-empty trimmed string for a named alias set.
func firstNonEmptyAlias(m map[string]any, key string) string {
	for _, p := range pubAliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "51,2").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				return &f
			}
		}
	}
	return nil
}

var starWords = map[string]int{"zero": 0, "one": 1, "two": 2, "three": 3}

// parseStars accepts 3, "3", "Three star" and "Three star - National Inventory".
func parseStars(v any) int {
	switch t := v.(type) {
	case float64:
		return clampStars(int(t))
	case int:
		return clampStars(t)
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		if s == "" {
			return 0
		}
		if n, err := strconv.Atoi(s); err == nil {
			return clampStars(n)
		}
		words := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '-' })
		if len(words) == 0 {
			return 0
		}
		return starWords[words[0]]
	}
	return 0
}

func clampStars(n int) int {
	if n < 0 || n > 3 {
		return 0
	}
	return n
}

// parseOpen prefers an explicit Open flag; otherwise a Status of "Closed" means closed.
func parseOpen(m map[string]any) bool {
	switch v := firstAlias(m, "open").(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return !strings.EqualFold(firstNonEmptyAlias(m, "status"), "closed")
}

// CamraIDFromURL returns the last path segment of a CAMRA pub URL.
func CamraIDFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		raw = u.Path
	}
	raw = strings.TrimRight(raw, "/")
	if i := strings.LastIndexByte(raw, '/'); i >= 0 {
		raw = raw[i+1:]
	}
	return raw
}

// CustomPubID hashes the address into the stable key used by clients.
func CustomPubID(address string) string {
	sum := md5.Sum([]byte(address))
	return hex.EncodeToString(sum[:])
}

/********** scraper record mapper **********/

func mapScrapedPub(r map[string]any) (domain.Pub, error) {
	p := domain.Pub{
		Name:           firstNonEmptyAlias(r, "name"),
		Address:        firstNonEmptyAlias(r, "address"),
		Description:    firstNonEmptyAlias(r, "description"),
		InventoryStars: parseStars(firstAlias(r, "stars")),
		Listed:         firstNonEmptyAlias(r, "listed"),
		Open:           parseOpen(r),
		URL:            firstNonEmptyAlias(r, "url"),
		Lat:            getFloatFlexible(r, pubAliases["lat"]...),
		Lon:            getFloatFlexible(r, pubAliases["lon"]...),
	}
	if p.Name == "" || p.Address == "" {
		return domain.Pub{}, fmt.Errorf("%w: record missing name or address", domain.ErrInvalidInput)
	}
	id := firstNonEmptyAlias(r, "camra_id")
	if id == "" {
		id = CamraIDFromURL(p.URL)
	}
	if id != "" {
		p.CamraID = &id
	}
	p.CustomPubID = CustomPubID(p.Address)
	return p, nil
}
