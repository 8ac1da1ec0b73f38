package domain

import (
	"sort"
	"time"
)

type seriesKey struct {
	token string
	ts    int64
}

// Series is a read-only index over a multi-asset price universe.
//
// Timestamps are keyed by their instant, so the same moment expressed in two
// locations is the same date. When the input holds several rows for one
// (token, timestamp) the last one wins, while the token keeps the position of
// its first appearance in the per-date ordering.
type Series struct {
	dates    []time.Time
	points   map[seriesKey]PricePoint
	tokensAt map[int64][]string
	history  map[string][]int64
	order    []string
}

// NewSeries indexes points. The input slice is not retained.
func NewSeries(points []PricePoint) *Series {
	s := &Series{
		points:   make(map[seriesKey]PricePoint, len(points)),
		tokensAt: make(map[int64][]string),
		history:  make(map[string][]int64),
	}

	for _, p := range points {
		ts := p.Timestamp.UnixNano()
		key := seriesKey{token: p.TokenID, ts: ts}
		if _, dup := s.points[key]; !dup {
			if _, seen := s.tokensAt[ts]; !seen {
				s.dates = append(s.dates, p.Timestamp.UTC())
			}
			s.tokensAt[ts] = append(s.tokensAt[ts], p.TokenID)
			if _, known := s.history[p.TokenID]; !known {
				s.order = append(s.order, p.TokenID)
			}
			s.history[p.TokenID] = append(s.history[p.TokenID], ts)
		}
		s.points[key] = p
	}

	sort.Slice(s.dates, func(i, j int) bool { return s.dates[i].Before(s.dates[j]) })
	for _, h := range s.history {
		sort.Slice(h, func(i, j int) bool { return h[i] < h[j] })
	}
	return s
}

// Dates returns the distinct timestamps in ascending order.
func (s *Series) Dates() []time.Time {
	out := make([]time.Time, len(s.dates))
	copy(out, s.dates)
	return out
}

// Len is the number of distinct timestamps.
func (s *Series) Len() int { return len(s.dates) }

// Tokens returns every token in order of first appearance.
func (s *Series) Tokens() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// At returns the row for token at ts.
func (s *Series) At(token string, ts time.Time) (PricePoint, bool) {
	p, ok := s.points[seriesKey{token: token, ts: ts.UnixNano()}]
	return p, ok
}

// Rows returns the rows at ts in input order.
func (s *Series) Rows(ts time.Time) []PricePoint {
	tokens := s.tokensAt[ts.UnixNano()]
	out := make([]PricePoint, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, s.points[seriesKey{token: tok, ts: ts.UnixNano()}])
	}
	return out
}

// Observations counts the rows of token at or before ts.
func (s *Series) Observations(token string, ts time.Time) int {
	h := s.history[token]
	target := ts.UnixNano()
	return sort.Search(len(h), func(i int) bool { return h[i] > target })
}

// Previous returns the latest observation of token strictly before ts.
func (s *Series) Previous(token string, ts time.Time) (time.Time, bool) {
	h := s.history[token]
	target := ts.UnixNano()
	idx := sort.Search(len(h), func(i int) bool { return h[i] >= target })
	if idx == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, h[idx-1]).UTC(), true
}

// Points returns the deduplicated rows ordered by timestamp, then by input order.
func (s *Series) Points() []PricePoint {
	out := make([]PricePoint, 0, len(s.points))
	for _, d := range s.dates {
		out = append(out, s.Rows(d)...)
	}
	return out
}
