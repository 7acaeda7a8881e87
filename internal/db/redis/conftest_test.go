package redis

import (
	"errors"
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/qdex/internal/db"
)

// newMockStore returns a Store backed by a gomock rueidis client.
func newMockStore(t *testing.T) (*Store, *mock.Client) {
	t.Helper()
	c := mock.NewClient(gomock.NewController(t))
	return &Store{client: c}, c
}

func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}

func dbErrorOp(err error) string {
	var dbErr *db.Error
	if errors.As(err, &dbErr) {
		return dbErr.Op
	}
	return ""
}
