// Package timeline buckets a product's entities into typed lanes over a
// time window and filters them by taxonomy tags.
package timeline

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/HendryAvila/thoughtbox/internal/knowledge"
)

// Range is a time-range key.
type Range string

const (
	Range1M  Range = "1m"
	Range3M  Range = "3m"
	Range6M  Range = "6m"
	Range1Y  Range = "1y"
	Range3Y  Range = "3y"
	RangeAll Range = "all"
)

var rangeMonths = map[Range]int{
	Range1M: 1,
	Range3M: 3,
	Range6M: 6,
	Range1Y: 12,
	Range3Y: 36,
}

// ParseRange validates a range key. An empty key means 6m.
func ParseRange(s string) (Range, error) {
	r := Range(strings.ToLower(strings.TrimSpace(s)))
	if r == "" {
		return Range6M, nil
	}
	if r == RangeAll {
		return r, nil
	}
	if _, ok := rangeMonths[r]; ok {
		return r, nil
	}
	return "", fmt.Errorf("invalid range %q: must be one of: 1m, 3m, 6m, 1y, 3y, all", s)
}

// Lanes is the fixed display order. Captures and artifacts never appear.
var Lanes = []knowledge.EntityType{
	knowledge.TypeProblem,
	knowledge.TypeHypothesis,
	knowledge.TypeExperiment,
	knowledge.TypeDecision,
	knowledge.TypeFeedback,
	knowledge.TypeFeatureRequest,
	knowledge.TypeFeature,
}

var completeStatuses = map[string]bool{
	"solved":      true,
	"validated":   true,
	"invalidated": true,
	"complete":    true,
	"shipped":     true,
	"stable":      true,
	"archived":    true,
	"actioned":    true,
	"declined":    true,
	"deprecated":  true,
}

// IsComplete reports whether status renders as a filled marker.
func IsComplete(status *string) bool {
	return status != nil && completeStatuses[strings.ToLower(*status)]
}

// Filters selects tag ids per taxonomy dimension. Ids within one
// dimension are ORed; dimensions are ANDed. Empty selections are ignored.
type Filters struct {
	Personas     []string            `json:"personas,omitempty"`
	FeatureAreas []string            `json:"featureAreas,omitempty"`
	Dimensions   map[string][]string `json:"dimensions,omitempty"` // dimension id → value ids
}

// Options controls Build.
type Options struct {
	Range Range
	// Visible restricts lanes; nil shows every lane.
	Visible []knowledge.EntityType
	Filters Filters
	// Now is the end of the window. Zero means time.Now.
	Now time.Time
}

// Item is one marker on a lane.
type Item struct {
	ID        string               `json:"id"`
	Type      knowledge.EntityType `json:"type"`
	Title     string               `json:"title"`
	Status    *string              `json:"status,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
	Complete  bool                 `json:"complete"`
}

// Lane holds the items of one entity type, oldest first.
type Lane struct {
	Type  knowledge.EntityType `json:"type"`
	Items []Item               `json:"items"`
}

// Result is a built timeline.
type Result struct {
	Range       Range       `json:"range"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	Granularity Granularity `json:"granularity"`
	GridLines   []time.Time `json:"gridLines"`
	Lanes       []Lane      `json:"lanes"`
	Total       int         `json:"total"`
}

// Build filters entities into lanes.
func Build(entities []knowledge.Entity, tax *knowledge.Taxonomy, opts Options) Result {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	rng := opts.Range
	if rng == "" {
		rng = Range6M
	}

	var candidates []knowledge.Entity
	for _, e := range entities {
		if slices.Contains(Lanes, e.Type) {
			candidates = append(candidates, e)
		}
	}

	start := rangeStart(rng, now, candidates)

	visible := opts.Visible
	if visible == nil {
		visible = Lanes
	}
	match := newMatcher(opts.Filters, tax)

	byType := map[knowledge.EntityType][]Item{}
	total := 0
	for _, e := range candidates {
		if e.CreatedAt.Before(start) || e.CreatedAt.After(now) {
			continue
		}
		if !slices.Contains(visible, e.Type) || !match(e) {
			continue
		}
		byType[e.Type] = append(byType[e.Type], Item{
			ID:        e.ID,
			Type:      e.Type,
			Title:     e.Title,
			Status:    e.Status,
			CreatedAt: e.CreatedAt,
			Complete:  IsComplete(e.Status),
		})
		total++
	}

	res := Result{
		Range:       rng,
		Start:       start,
		End:         now,
		Granularity: GranularityFor(start, now),
		Total:       total,
		Lanes:       []Lane{},
	}
	res.GridLines = GridLines(start, now, res.Granularity)
	for _, t := range Lanes {
		if !slices.Contains(visible, t) {
			continue
		}
		items := byType[t]
		sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
		if items == nil {
			items = []Item{}
		}
		res.Lanes = append(res.Lanes, Lane{Type: t, Items: items})
	}
	return res
}

func rangeStart(r Range, now time.Time, candidates []knowledge.Entity) time.Time {
	if months, ok := rangeMonths[r]; ok {
		return now.AddDate(0, -months, 0)
	}
	if len(candidates) == 0 {
		return now.AddDate(0, -6, 0)
	}
	earliest := candidates[0].CreatedAt
	for _, e := range candidates[1:] {
		if e.CreatedAt.Before(earliest) {
			earliest = e.CreatedAt
		}
	}
	return earliest.UTC()
}

// newMatcher compiles the active tag filters. A dimension selection only
// counts ids that belong to that dimension in tax.
func newMatcher(f Filters, tax *knowledge.Taxonomy) func(knowledge.Entity) bool {
	type check struct {
		selected map[string]bool
		ids      func(knowledge.Entity) []string
	}
	var checks []check

	add := func(sel []string, ids func(knowledge.Entity) []string) {
		if len(sel) == 0 {
			return
		}
		set := make(map[string]bool, len(sel))
		for _, id := range sel {
			set[id] = true
		}
		checks = append(checks, check{selected: set, ids: ids})
	}

	add(f.Personas, func(e knowledge.Entity) []string { return e.PersonaIDs })
	add(f.FeatureAreas, func(e knowledge.Entity) []string { return e.FeatureIDs })

	dimIDs := make([]string, 0, len(f.Dimensions))
	for id := range f.Dimensions {
		dimIDs = append(dimIDs, id)
	}
	sort.Strings(dimIDs)
	for _, dimID := range dimIDs {
		sel := f.Dimensions[dimID]
		if len(sel) == 0 {
			continue
		}
		if tax != nil {
			known := tax.DimensionValueIDs(dimID)
			kept := make([]string, 0, len(sel))
			for _, id := range sel {
				if slices.Contains(known, id) {
					kept = append(kept, id)
				}
			}
			if len(kept) == 0 {
				// Selection names no value of this dimension; nothing can match.
				checks = append(checks, check{selected: map[string]bool{}, ids: func(knowledge.Entity) []string { return nil }})
				continue
			}
			sel = kept
		}
		add(sel, func(e knowledge.Entity) []string { return e.DimensionValueIDs })
	}

	return func(e knowledge.Entity) bool {
		for _, c := range checks {
			hit := false
			for _, id := range c.ids(e) {
				if c.selected[id] {
					hit = true
					break
				}
			}
			if !hit {
				return false
			}
		}
		return true
	}
}
