package redis

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/qdex/internal/db"
	"github.com/kailas-cloud/qdex/internal/domain/search/filter"
)

const defaultVectorField = "vector"

// SearchKNN runs a filtered KNN vector similarity search via FT.SEARCH.
// Scores are cosine similarities clamped to [0,1], sorted best first.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	switch {
	case q.IndexName == "":
		return nil, errors.New("index name is required")
	case len(q.Vector) == 0:
		return nil, errors.New("vector is required")
	case q.K <= 0:
		return nil, errors.New("k must be positive")
	}

	field := q.VectorField
	if field == "" {
		field = defaultVectorField
	}
	params := []string{"BLOB", vectorToBytes(q.Vector)}
	knn := fmt.Sprintf("[KNN %d @%s $BLOB", q.K, field)
	if q.EFRuntime > 0 {
		knn += " EF_RUNTIME $EF"
		params = append(params, "EF", strconv.Itoa(q.EFRuntime))
	}
	knn += " AS " + db.VectorScoreField + "]"

	query := "*=>" + knn
	if pre := buildFilter(q.Filters); pre != "" {
		query = "(" + pre + ")=>" + knn
	}

	args := []string{q.IndexName, query}
	args = appendReturn(args, withScoreField(q.ReturnFields))
	args = append(args,
		"SORTBY", db.VectorScoreField, "ASC",
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", strconv.Itoa(len(params)))
	args = append(args, params...)

	raw, err := s.ftSearch(ctx, args)
	if err != nil {
		return nil, err
	}
	res, err := parseListResult(raw)
	if err != nil {
		return nil, err
	}
	for i := range res.Entries {
		scoreKNN(&res.Entries[i])
	}
	return res, nil
}

// Search runs a filtered FT.SEARCH with optional SORTBY and pagination.
func (s *Store) Search(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	switch {
	case q.IndexName == "":
		return nil, errors.New("index name is required")
	case q.Limit <= 0:
		return nil, errors.New("limit must be positive")
	case q.Offset < 0:
		return nil, errors.New("offset must not be negative")
	}

	args := appendReturn([]string{q.IndexName, queryOrAll(q.Filters)}, q.ReturnFields)
	if q.SortBy != "" {
		order := "ASC"
		if q.SortDesc {
			order = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy, order)
	}
	args = append(args, "LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit))

	raw, err := s.ftSearch(ctx, args)
	if err != nil {
		return nil, err
	}
	return parseListResult(raw)
}

// SearchCount returns how many documents match filters (LIMIT 0 0).
func (s *Store) SearchCount(ctx context.Context, index string, filters filter.Expression) (int, error) {
	raw, err := s.ftSearch(ctx, []string{index, queryOrAll(filters), "LIMIT", "0", "0"})
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// ftSearch sends FT.SEARCH with DIALECT 2 appended.
func (s *Store) ftSearch(ctx context.Context, args []string) ([]rueidis.RedisMessage, error) {
	args = append(args, "DIALECT", "2")
	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, queryErr(db.OpSearch, err)
	}
	return raw, nil
}

// queryErr maps a missing index to db.ErrIndexNotFound.
func queryErr(op string, err error) error {
	if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name") {
		return db.ErrIndexNotFound
	}
	return &db.Error{Op: op, Err: err}
}

func appendReturn(args, fields []string) []string {
	if len(fields) == 0 {
		return args
	}
	args = append(args, "RETURN", strconv.Itoa(len(fields)))
	return append(args, fields...)
}

// withScoreField adds the KNN distance to an explicit RETURN list.
func withScoreField(fields []string) []string {
	if len(fields) == 0 {
		return nil
	}
	for _, f := range fields {
		if f == db.VectorScoreField {
			return fields
		}
	}
	return append(fields[:len(fields):len(fields)], db.VectorScoreField)
}

// scoreKNN converts the cosine distance field into Score and drops it.
func scoreKNN(e *db.SearchEntry) {
	raw, ok := e.Fields[db.VectorScoreField]
	if !ok {
		return
	}
	delete(e.Fields, db.VectorScoreField)
	if d, err := strconv.ParseFloat(raw, 64); err == nil {
		e.Score = min(1, max(0, 1-d))
	}
}

// parseListResult reads the RESP2 reply [total, key1, [f, v, ...], key2, ...].
func parseListResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	res := &db.SearchResult{Total: int(total)}
	if total == 0 {
		return res, nil
	}
	res.Entries = make([]db.SearchEntry, 0, len(raw)/2)
	for i := 1; i+1 < len(raw); i += 2 {
		key, kerr := raw[i].ToString()
		pairs, ferr := raw[i+1].ToArray()
		if kerr != nil || ferr != nil {
			continue
		}
		res.Entries = append(res.Entries, db.SearchEntry{Key: key, Fields: parseFieldPairs(pairs)})
	}
	return res, nil
}

func parseFieldPairs(pairs []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		name, nerr := pairs[i].ToString()
		value, verr := pairs[i+1].ToString()
		if nerr == nil && verr == nil {
			m[name] = value
		}
	}
	return m
}

// vectorToBytes packs v as little-endian FLOAT32, the BLOB layout KNN expects.
func vectorToBytes(v []float32) string {
	buf := make([]byte, 0, 4*len(v))
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return string(buf)
}
