package dataset

import (
	"strings"
	"time"

	"grantstats/internal/cache"
	"grantstats/internal/core"
)

// dateLayouts are tried in order; the first one that parses wins.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01/2006",
	"1/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"January 2006",
	"Jan 2006",
	"2006",
}

// DateParser turns DATE COMMITTED cells into years. Grant exports repeat the
// same handful of dates thousands of times, so results are memoized.
type DateParser struct {
	memo *cache.LRUCache[core.Year]
}

// NewDateParser returns a parser remembering up to size distinct cells.
func NewDateParser(size int) *DateParser {
	return &DateParser{memo: cache.NewLRUCache[core.Year](size, 0)}
}

// Year returns the calendar year of the cell, or core.UnknownYear when the
// cell is blank or matches no known layout.
func (p *DateParser) Year(cell string) core.Year {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return core.UnknownYear
	}
	if y, ok := p.memo.Get(cell); ok {
		return y
	}
	y := parseYear(cell)
	p.memo.Set(cell, y)
	return y
}

// Stats exposes memo hit counters for logging.
func (p *DateParser) Stats() cache.Stats {
	return p.memo.Stats()
}

func parseYear(cell string) core.Year {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return core.NewYear(t.Year())
		}
	}
	return core.UnknownYear
}
