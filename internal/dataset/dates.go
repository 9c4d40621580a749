package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/ciaranwalsh/retailpulse/internal/common"
	"github.com/ciaranwalsh/retailpulse/internal/model"
)

// dayFirstLayouts are the textual date shapes seen in the retail exports,
// tried in order. The exports are day-first (DD/MM/YYYY), with ISO dates
// accepted as well. Time-of-day suffixes are tolerated and discarded.
var dayFirstLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"02-01-2006 15:04:05",
	"02-01-2006",
	"2-1-2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDayFirst normalizes a heterogeneous day-first date string to a
// calendar date. Returns common.ErrBadDate when no known layout matches.
func ParseDayFirst(s string) (model.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Date{}, fmt.Errorf("empty value: %w", common.ErrBadDate)
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.DateOf(t), nil
		}
	}
	return model.Date{}, fmt.Errorf("%q: %w", s, common.ErrBadDate)
}
