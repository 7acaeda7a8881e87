package session

import (
	"github.com/kailas-cloud/qdex/internal/db"
	"github.com/kailas-cloud/qdex/internal/domain/question"
	"github.com/kailas-cloud/qdex/internal/repository/keyspace"
)

// nameSeparator keeps names such as "Shri A. B. Singh" as one tag value.
const nameSeparator = "|"

// buildIndex returns the fixed question schema shared by every session index.
func buildIndex(ks keyspace.Keyspace, name string, vectorDim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	return db.NewIndex(ks.Index(name)).
		Prefix(ks.RecordPrefix(name)).
		Numeric(question.FieldQno, db.Sortable()).
		Tag(question.FieldStarred).
		Text(question.FieldSubject, db.Sortable()).
		Tag(question.FieldMP, db.Separator(nameSeparator), db.CaseSensitive(), db.Sortable()).
		Tag(question.FieldMPID).
		Tag(question.FieldMinistry, db.Separator(nameSeparator), db.CaseSensitive(), db.Sortable()).
		Tag(question.FieldMinistryID).
		Text(question.FieldQuestion).
		Text(question.FieldAnswer, db.IndexMissing()).
		Numeric(question.FieldAskedTS, db.Sortable()).
		Numeric(question.FieldAnsweredTS, db.Sortable()).
		VectorHNSW(question.FieldVector, vectorDim, hnsw.M, hnsw.EFConstruct).
		Build()
}
