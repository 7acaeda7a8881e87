package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/qdex/internal/db"
)

const countAlias = "count"

// AggregateCount groups matching documents by q.GroupBy and returns the top
// q.Limit buckets ordered by document count. Documents without the field are skipped.
func (s *Store) AggregateCount(ctx context.Context, q *db.GroupCountQuery) ([]db.GroupCount, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.GroupBy == "" {
		return nil, fmt.Errorf("group by field is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	args := []string{
		q.IndexName, queryOrAll(q.Filters),
		"GROUPBY", "1", "@" + q.GroupBy,
		"REDUCE", "COUNT", "0", "AS", countAlias,
		"SORTBY", "2", "@" + countAlias, "DESC",
		"LIMIT", "0", strconv.Itoa(q.Limit),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, queryErr(db.OpAggregate, err)
	}

	return parseGroupCounts(raw, q.GroupBy), nil
}

// parseGroupCounts reads [total, [field, value, count, n], ...] rows.
func parseGroupCounts(raw []rueidis.RedisMessage, field string) []db.GroupCount {
	if len(raw) < 2 {
		return nil
	}

	out := make([]db.GroupCount, 0, len(raw)-1)
	for _, row := range raw[1:] {
		pairs, err := row.ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(pairs)
		value := fields[field]
		if value == "" {
			continue
		}
		n, err := strconv.Atoi(fields[countAlias])
		if err != nil {
			continue
		}
		out = append(out, db.GroupCount{Value: value, Count: n})
	}
	return out
}
