package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/qdex/internal/domain/question"
	"github.com/kailas-cloud/qdex/internal/domain/search/filter"
)

const secondsPerDay = 24 * 60 * 60

// Criteria are the optional search restrictions. Absent fields do not restrict.
type Criteria struct {
	FromDate string // dd.mm.yyyy, inclusive
	ToDate   string // dd.mm.yyyy, inclusive through the end of that day
	MP       string
	Ministry string
}

// Expression converts criteria into must-conditions on answered_ts, mp and ministry.
func (c Criteria) Expression() (filter.Expression, error) {
	var conds []filter.Condition

	if c.FromDate != "" || c.ToDate != "" {
		var gte, lt *float64
		if c.FromDate != "" {
			from, err := question.ParseDate(c.FromDate)
			if err != nil {
				return filter.Expression{}, fmt.Errorf("from_date: %w", err)
			}
			v := float64(from.Unix())
			gte = &v
		}
		if c.ToDate != "" {
			to, err := question.ParseDate(c.ToDate)
			if err != nil {
				return filter.Expression{}, fmt.Errorf("to_date: %w", err)
			}
			v := float64(to.Unix() + secondsPerDay)
			lt = &v
		}
		if gte != nil && lt != nil && *gte >= *lt {
			return filter.Expression{}, fmt.Errorf("from_date must not be after to_date")
		}
		r, err := filter.NewRangeFilter(nil, gte, lt, nil)
		if err != nil {
			return filter.Expression{}, err
		}
		cond, err := filter.NewRange(question.FieldAnsweredTS, r)
		if err != nil {
			return filter.Expression{}, err
		}
		conds = append(conds, cond)
	}

	if mp := strings.TrimSpace(c.MP); mp != "" {
		cond, err := filter.NewMatch(question.FieldMP, mp)
		if err != nil {
			return filter.Expression{}, err
		}
		conds = append(conds, cond)
	}
	if ministry := strings.TrimSpace(c.Ministry); ministry != "" {
		cond, err := filter.NewMatch(question.FieldMinistry, ministry)
		if err != nil {
			return filter.Expression{}, err
		}
		conds = append(conds, cond)
	}

	return filter.All(conds...)
}
