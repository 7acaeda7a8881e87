package chi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	domq "github.com/kailas-cloud/qdex/internal/domain/question"
	"github.com/kailas-cloud/qdex/internal/domain/search/result"
	lookupuc "github.com/kailas-cloud/qdex/internal/usecase/lookup"
	questionuc "github.com/kailas-cloud/qdex/internal/usecase/question"
)

// flexString accepts a JSON string or number. Clients send sitting numbers
// and participant ids both ways.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode string: %w", err)
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// indexList accepts "a,b" or ["a","b"] and normalizes to the comma form.
type indexList string

func (l *indexList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var names []string
		if err := json.Unmarshal(b, &names); err != nil {
			return fmt.Errorf("decode index list: %w", err)
		}
		*l = indexList(strings.Join(names, ","))
		return nil
	}
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	*l = indexList(s)
	return nil
}

type indexRequest struct {
	Chamber flexString `json:"chamber"`
	Version flexString `json:"version"`
}

type indexData struct {
	Index string `json:"index"`
}

type indicesData struct {
	Indices []string `json:"indices"`
}

type questionRequest struct {
	Chamber      flexString `json:"chamber"`
	Version      flexString `json:"version"`
	Question     string     `json:"question"`
	Subject      string     `json:"subject"`
	MP           string     `json:"mp"`
	MPID         flexString `json:"mp_id"`
	Ministry     string     `json:"ministry"`
	MinistryID   flexString `json:"ministry_id"`
	Starred      *bool      `json:"starred"`
	Answer       *string    `json:"answer"`
	AnswerStyled string     `json:"answer_styled"`
	AnsweredOn   string     `json:"answered_on"`
}

func (q *questionRequest) input() (domq.Input, error) {
	if q.Starred == nil {
		return domq.Input{}, fmt.Errorf("starred is required")
	}
	return domq.Input{
		Question:     q.Question,
		Subject:      q.Subject,
		MP:           q.MP,
		MPID:         string(q.MPID),
		Ministry:     q.Ministry,
		MinistryID:   string(q.MinistryID),
		Starred:      *q.Starred,
		Answer:       q.Answer,
		AnswerStyled: q.AnswerStyled,
		AnsweredOn:   q.AnsweredOn,
	}, nil
}

type createdData struct {
	ID    string `json:"id"`
	Qno   int64  `json:"qno"`
	Index string `json:"index"`
}

func createdToDTO(c questionuc.Created) createdData {
	return createdData{ID: c.ID, Qno: c.Qno, Index: c.Index}
}

type answerRequest struct {
	Index        string     `json:"index"`
	ID           flexString `json:"id"`
	Answer       *string    `json:"answer"`
	AnswerStyled *string    `json:"answer_styled"`
}

type answerData struct {
	Index string `json:"index"`
	ID    string `json:"id"`
}

type searchRequest struct {
	Question string     `json:"question"`
	Index    indexList  `json:"index"`
	Chamber  flexString `json:"chamber"`
	Version  flexString `json:"version"`
	Size     int        `json:"size"`
	MinScore float64    `json:"min_score"`
	FromDate string     `json:"from_date"`
	ToDate   string     `json:"to_date"`
	MP       string     `json:"mp"`
	Ministry string     `json:"ministry"`
}

// legacySelectors pulls the per-chamber sitting numbers (lok_sabha: 17) out of
// a raw request body for the allowed chambers.
func legacySelectors(raw map[string]json.RawMessage, allowed []string) (map[string]int, error) {
	out := make(map[string]int)
	for _, chamber := range allowed {
		v, ok := raw[chamber]
		if !ok {
			continue
		}
		var s flexString
		if err := s.UnmarshalJSON(v); err != nil {
			return nil, fmt.Errorf("%s: %w", chamber, err)
		}
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(string(s))
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", chamber)
		}
		out[chamber] = n
	}
	return out, nil
}

type searchData struct {
	Hits  []publicQuestion `json:"hits"`
	Total int              `json:"total"`
}

type suggestRequest struct {
	Index indexList `json:"index"`
	Query string    `json:"query"`
	Size  int       `json:"size"`
}

type suggestion struct {
	Text string `json:"text"`
}

type recentsRequest struct {
	Index indexList `json:"index"`
}

type recentSubject struct {
	Subject string `json:"subject"`
}

type participantsRequest struct {
	Index indexList `json:"index"`
}

type bucketDTO struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

func bucketsToDTO(bs []result.Bucket) []bucketDTO {
	out := make([]bucketDTO, len(bs))
	for i, b := range bs {
		out[i] = bucketDTO{Value: b.Value, Count: b.Count}
	}
	return out
}

// publicQuestion is the record view of search hits and unanswered listings.
// Record ids and vectors stay internal.
type publicQuestion struct {
	Index      string   `json:"index,omitempty"`
	Score      *float64 `json:"score,omitempty"`
	Qno        int64    `json:"qno"`
	Starred    bool     `json:"starred"`
	Subject    string   `json:"subject"`
	Question   string   `json:"question"`
	Answer     *string  `json:"answer,omitempty"`
	AnsweredOn string   `json:"answered_on,omitempty"`
	MP         string   `json:"mp"`
	Ministry   string   `json:"ministry"`
}

func publicToDTO(q *domq.Question) publicQuestion {
	p := publicQuestion{
		Qno:      q.Qno(),
		Starred:  q.Starred(),
		Subject:  q.Subject(),
		Question: q.Text(),
		MP:       q.MP(),
		Ministry: q.Ministry(),
	}
	if answer, ok := q.Answer(); ok {
		p.Answer = &answer
		p.AnsweredOn = domq.FormatDate(q.AnsweredOn())
	}
	return p
}

func hitsToDTO(hits []result.Hit) []publicQuestion {
	out := make([]publicQuestion, len(hits))
	for i := range hits {
		q := hits[i].Question()
		p := publicToDTO(&q)
		score := hits[i].Score()
		p.Score = &score
		p.Index = hits[i].Index()
		out[i] = p
	}
	return out
}

func publicListToDTO(qs []domq.Question) []publicQuestion {
	out := make([]publicQuestion, len(qs))
	for i := range qs {
		out[i] = publicToDTO(&qs[i])
	}
	return out
}

// recordView is the full record returned by direct reads; everything but the vector.
type recordView struct {
	ID           string  `json:"id"`
	Qno          int64   `json:"qno"`
	Starred      bool    `json:"starred"`
	Subject      string  `json:"subject"`
	Question     string  `json:"question"`
	MP           string  `json:"mp"`
	MPID         string  `json:"mp_id"`
	Ministry     string  `json:"ministry"`
	MinistryID   string  `json:"ministry_id"`
	Answer       *string `json:"answer,omitempty"`
	AnswerStyled string  `json:"answer_styled,omitempty"`
	AskedOn      string  `json:"asked_on"`
	AnsweredOn   string  `json:"answered_on,omitempty"`
}

func recordToDTO(q *domq.Question) recordView {
	v := recordView{
		ID:         q.ID(),
		Qno:        q.Qno(),
		Starred:    q.Starred(),
		Subject:    q.Subject(),
		Question:   q.Text(),
		MP:         q.MP(),
		MPID:       q.MPID(),
		Ministry:   q.Ministry(),
		MinistryID: q.MinistryID(),
		AskedOn:    domq.FormatDate(q.AskedOn()),
	}
	if answer, ok := q.Answer(); ok {
		v.Answer = &answer
		v.AnswerStyled = q.AnswerStyled()
		v.AnsweredOn = domq.FormatDate(q.AnsweredOn())
	}
	return v
}

func recordsToDTO(qs []domq.Question) []recordView {
	out := make([]recordView, len(qs))
	for i := range qs {
		out[i] = recordToDTO(&qs[i])
	}
	return out
}

type pageData struct {
	Items  []recordView `json:"items"`
	Total  int          `json:"total"`
	Offset int          `json:"offset"`
	Limit  int          `json:"limit"`
}

func pageToDTO(p lookupuc.Page) pageData {
	return pageData{
		Items:  recordsToDTO(p.Items),
		Total:  p.Total,
		Offset: p.Offset,
		Limit:  p.Limit,
	}
}
