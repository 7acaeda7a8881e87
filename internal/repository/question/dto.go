package question

import (
	"encoding/binary"
	"math"
	"strconv"
	"time"

	domq "github.com/kailas-cloud/qdex/internal/domain/question"
)

// toHash converts a stamped question into flat HSET fields.
// Answer fields are written only for answered questions so that
// ismissing(@answer) selects the unanswered ones.
func toHash(q *domq.Question) map[string]string {
	fields := map[string]string{
		domq.FieldQno:        strconv.FormatInt(q.Qno(), 10),
		domq.FieldStarred:    strconv.FormatBool(q.Starred()),
		domq.FieldSubject:    q.Subject(),
		domq.FieldMP:         q.MP(),
		domq.FieldMPID:       q.MPID(),
		domq.FieldMinistry:   q.Ministry(),
		domq.FieldMinistryID: q.MinistryID(),
		domq.FieldQuestion:   q.Text(),
		domq.FieldAskedOn:    domq.FormatDate(q.AskedOn()),
		domq.FieldAskedTS:    strconv.FormatInt(q.AskedOn().Unix(), 10),
	}

	if answer, ok := q.Answer(); ok {
		fields[domq.FieldAnswer] = answer
		if styled := q.AnswerStyled(); styled != "" {
			fields[domq.FieldAnswerStyled] = styled
		}
		if on := q.AnsweredOn(); !on.IsZero() {
			fields[domq.FieldAnsweredOn] = domq.FormatDate(on)
			fields[domq.FieldAnsweredTS] = strconv.FormatInt(on.Unix(), 10)
		}
	}

	if v := q.Vector(); len(v) > 0 {
		fields[domq.FieldVector] = vectorToBytes(v)
	}

	return fields
}

// fromHash rebuilds a question from hash fields. Missing fields stay zero.
func fromHash(id string, m map[string]string) domq.Question {
	qno, _ := strconv.ParseInt(m[domq.FieldQno], 10, 64)
	answer, answered := m[domq.FieldAnswer]

	return domq.Reconstruct(domq.Snapshot{
		ID:           id,
		Qno:          qno,
		Starred:      m[domq.FieldStarred] == "true",
		Subject:      m[domq.FieldSubject],
		MP:           m[domq.FieldMP],
		MPID:         m[domq.FieldMPID],
		Ministry:     m[domq.FieldMinistry],
		MinistryID:   m[domq.FieldMinistryID],
		Question:     m[domq.FieldQuestion],
		Answer:       answer,
		Answered:     answered,
		AnswerStyled: m[domq.FieldAnswerStyled],
		AskedOn:      parseDay(m[domq.FieldAskedOn], m[domq.FieldAskedTS]),
		AnsweredOn:   parseDay(m[domq.FieldAnsweredOn], m[domq.FieldAnsweredTS]),
	})
}

// parseDay prefers the dd.mm.yyyy string and falls back to the unix timestamp.
func parseDay(date, ts string) time.Time {
	if date != "" {
		if d, err := domq.ParseDate(date); err == nil {
			return d
		}
	}
	if ts != "" {
		if sec, err := strconv.ParseInt(ts, 10, 64); err == nil {
			return time.Unix(sec, 0).UTC()
		}
	}
	return time.Time{}
}

// vectorToBytes serializes []float32 to a little-endian binary string.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
