package question

// Hash field names of a stored question record.
const (
	FieldQno          = "qno"
	FieldStarred      = "starred"
	FieldSubject      = "subject"
	FieldMP           = "mp"
	FieldMPID         = "mp_id"
	FieldMinistry     = "ministry"
	FieldMinistryID   = "ministry_id"
	FieldQuestion     = "question"
	FieldAnswer       = "answer"
	FieldAnswerStyled = "answer_styled"
	FieldAskedOn      = "asked_on"
	FieldAnsweredOn   = "answered_on"
	FieldAskedTS      = "asked_ts"
	FieldAnsweredTS   = "answered_ts"
	FieldVector       = "question_vector"
)

// PublicFields are returned by search and unanswered listings.
var PublicFields = []string{
	FieldQno, FieldAnsweredOn, FieldSubject, FieldQuestion,
	FieldAnswer, FieldMP, FieldMinistry, FieldStarred,
}

// RecordFields are returned by direct reads; everything except the vector.
var RecordFields = []string{
	FieldQno, FieldStarred, FieldSubject, FieldMP, FieldMPID,
	FieldMinistry, FieldMinistryID, FieldQuestion, FieldAnswer,
	FieldAnswerStyled, FieldAskedOn, FieldAnsweredOn, FieldAskedTS, FieldAnsweredTS,
}

// ParticipantType selects whose questions to look up.
type ParticipantType string

const (
	// ParticipantMP is the member who asked.
	ParticipantMP ParticipantType = "mp"
	// ParticipantMinistry is the body that answers.
	ParticipantMinistry ParticipantType = "ministry"
)

// IsValid reports whether t is a known participant type.
func (t ParticipantType) IsValid() bool {
	return t == ParticipantMP || t == ParticipantMinistry
}

// IDField returns the hash field holding the participant's stable id.
func (t ParticipantType) IDField() string {
	if t == ParticipantMinistry {
		return FieldMinistryID
	}
	return FieldMPID
}

// NameField returns the hash field holding the participant's display name.
func (t ParticipantType) NameField() string {
	if t == ParticipantMinistry {
		return FieldMinistry
	}
	return FieldMP
}
