package question

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the dd.mm.yyyy format used for asked_on and answered_on.
const DateLayout = "02.01.2006"

// Size limits.
const (
	MaxNameLength     = 256
	MaxIDLength       = 64
	MaxSubjectLength  = 1024
	MaxQuestionLength = 64 << 10
	MaxAnswerLength   = 1 << 20
)

// Input is the client-supplied part of a new question record.
type Input struct {
	Question   string
	Subject    string
	MP         string
	MPID       string
	Ministry   string
	MinistryID string
	Starred    bool
	// Answer is optional; nil means the question is unanswered.
	Answer       *string
	AnswerStyled string
	// AnsweredOn is an optional dd.mm.yyyy date.
	AnsweredOn string
}

// Question is the question record aggregate.
type Question struct {
	id           string
	qno          int64
	starred      bool
	subject      string
	mp           string
	mpID         string
	ministry     string
	ministryID   string
	text         string
	answer       string
	answered     bool
	answerStyled string
	askedOn      time.Time
	answeredOn   time.Time
	vector       []float32
}

// New validates client input and creates an unnumbered Question.
// Stamp assigns the server-side id, qno and asked_on.
func New(in Input) (Question, error) {
	text := strings.TrimSpace(in.Question)
	if text == "" {
		return Question{}, fmt.Errorf("question is required")
	}
	if len(text) > MaxQuestionLength {
		return Question{}, fmt.Errorf("question too long (max %d bytes)", MaxQuestionLength)
	}

	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return Question{}, fmt.Errorf("subject is required")
	}
	if len(subject) > MaxSubjectLength {
		return Question{}, fmt.Errorf("subject too long (max %d bytes)", MaxSubjectLength)
	}

	mp, err := participant("mp", in.MP, in.MPID)
	if err != nil {
		return Question{}, err
	}
	ministry, err := participant("ministry", in.Ministry, in.MinistryID)
	if err != nil {
		return Question{}, err
	}

	q := Question{
		starred:    in.Starred,
		subject:    subject,
		mp:         mp[0],
		mpID:       mp[1],
		ministry:   ministry[0],
		ministryID: ministry[1],
		text:       text,
	}

	if in.Answer != nil {
		if err := validateAnswer(*in.Answer, in.AnswerStyled); err != nil {
			return Question{}, err
		}
		q.answer = *in.Answer
		q.answered = true
		q.answerStyled = in.AnswerStyled
	} else if in.AnswerStyled != "" {
		return Question{}, fmt.Errorf("answer_styled requires answer")
	}

	if in.AnsweredOn != "" {
		if !q.answered {
			return Question{}, fmt.Errorf("answered_on requires answer")
		}
		d, err := ParseDate(in.AnsweredOn)
		if err != nil {
			return Question{}, fmt.Errorf("answered_on: %w", err)
		}
		q.answeredOn = d
	}

	return q, nil
}

func participant(kind, name, id string) ([2]string, error) {
	name = strings.TrimSpace(name)
	id = strings.TrimSpace(id)
	if name == "" {
		return [2]string{}, fmt.Errorf("%s is required", kind)
	}
	if len(name) > MaxNameLength {
		return [2]string{}, fmt.Errorf("%s too long (max %d bytes)", kind, MaxNameLength)
	}
	if strings.Contains(name, "|") {
		return [2]string{}, fmt.Errorf("%s must not contain '|'", kind)
	}
	if id == "" {
		return [2]string{}, fmt.Errorf("%s_id is required", kind)
	}
	if len(id) > MaxIDLength {
		return [2]string{}, fmt.Errorf("%s_id too long (max %d bytes)", kind, MaxIDLength)
	}
	return [2]string{name, id}, nil
}

// Stamp returns a copy with server-assigned identity. asked_on is the calendar
// day of now in UTC; an answer without a date is dated the same day.
func (q Question) Stamp(id string, qno int64, now time.Time) Question {
	q.id = id
	q.qno = qno
	q.askedOn = Day(now)
	if q.answered && q.answeredOn.IsZero() {
		q.answeredOn = q.askedOn
	}
	return q
}

// WithVector returns a copy carrying the question embedding.
func (q Question) WithVector(v []float32) Question {
	q.vector = v
	return q
}

// ID returns the record identifier.
func (q *Question) ID() string { return q.id }

// Qno returns the per-index sequence number.
func (q *Question) Qno() int64 { return q.qno }

// Starred reports whether this is a starred question.
func (q *Question) Starred() bool { return q.starred }

// Subject returns the subject line.
func (q *Question) Subject() string { return q.subject }

// MP returns the asking member's name.
func (q *Question) MP() string { return q.mp }

// MPID returns the asking member's stable id.
func (q *Question) MPID() string { return q.mpID }

// Ministry returns the answering ministry's name.
func (q *Question) Ministry() string { return q.ministry }

// MinistryID returns the answering ministry's stable id.
func (q *Question) MinistryID() string { return q.ministryID }

// Text returns the question body.
func (q *Question) Text() string { return q.text }

// Answer returns the answer text and whether the record has one.
func (q *Question) Answer() (string, bool) { return q.answer, q.answered }

// AnswerStyled returns the rich answer variant, if any.
func (q *Question) AnswerStyled() string { return q.answerStyled }

// AskedOn returns the server-stamped asked date.
func (q *Question) AskedOn() time.Time { return q.askedOn }

// AnsweredOn returns the answer date, zero when unanswered.
func (q *Question) AnsweredOn() time.Time { return q.answeredOn }

// Vector returns the question embedding.
func (q *Question) Vector() []float32 { return q.vector }

// Snapshot is the stored form of a Question, used to rehydrate it from storage.
type Snapshot struct {
	ID           string
	Qno          int64
	Starred      bool
	Subject      string
	MP           string
	MPID         string
	Ministry     string
	MinistryID   string
	Question     string
	Answer       string
	Answered     bool
	AnswerStyled string
	AskedOn      time.Time
	AnsweredOn   time.Time
}

// Reconstruct creates a Question without validation (storage hydration).
func Reconstruct(s Snapshot) Question {
	return Question{
		id: s.ID, qno: s.Qno, starred: s.Starred, subject: s.Subject,
		mp: s.MP, mpID: s.MPID, ministry: s.Ministry, ministryID: s.MinistryID,
		text: s.Question, answer: s.Answer, answered: s.Answered,
		answerStyled: s.AnswerStyled, askedOn: s.AskedOn, answeredOn: s.AnsweredOn,
	}
}

// AnswerUpdate is a validated answer upload. It touches only answer and answer_styled.
type AnswerUpdate struct {
	answer string
	styled *string
}

// NewAnswerUpdate validates an answer upload. A nil styled leaves the stored variant unchanged.
func NewAnswerUpdate(answer string, styled *string) (AnswerUpdate, error) {
	s := ""
	if styled != nil {
		s = *styled
	}
	if err := validateAnswer(answer, s); err != nil {
		return AnswerUpdate{}, err
	}
	return AnswerUpdate{answer: answer, styled: styled}, nil
}

// Answer returns the new answer text.
func (u AnswerUpdate) Answer() string { return u.answer }

// Styled returns the new rich variant and whether one was supplied.
func (u AnswerUpdate) Styled() (string, bool) {
	if u.styled == nil {
		return "", false
	}
	return *u.styled, true
}

func validateAnswer(answer, styled string) error {
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("answer is required")
	}
	if len(answer) > MaxAnswerLength || len(styled) > MaxAnswerLength {
		return fmt.Errorf("answer too long (max %d bytes)", MaxAnswerLength)
	}
	if !utf8.ValidString(answer) || !utf8.ValidString(styled) {
		return fmt.Errorf("answer must be valid UTF-8")
	}
	return nil
}

// ParseDate parses a dd.mm.yyyy date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want dd.mm.yyyy", s)
	}
	return t, nil
}

// FormatDate renders t as dd.mm.yyyy, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
