package redis

import (
	"context"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/qdex/internal/db"
)

const recordKey = "qdex:lok_sabha_18_5:q:42"

func TestHSet_WritesEveryField(t *testing.T) {
	s, c := newMockStore(t)
	fields := map[string]string{
		"subject":  "Railway Safety",
		"mp":       "A. Kumar",
		"ministry": "RAILWAYS",
		"asked_ts": "1733097600",
		"starred":  "1",
	}

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if len(cmd) != 2+2*len(fields) || cmd[0] != "HSET" || cmd[1] != recordKey {
				return false
			}
			for i := 2; i < len(cmd); i += 2 {
				if fields[cmd[i]] != cmd[i+1] {
					return false
				}
			}
			return true
		}, "HSET with all record fields")).
		Return(mock.Result(mock.RedisInt64(int64(len(fields)))))

	if err := s.HSet(context.Background(), recordKey, fields); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHashCommands_WrapErrors(t *testing.T) {
	tests := []struct {
		name   string
		cmd    string
		call   func(s *Store) error
		wantOp string
	}{
		{
			name: "hset",
			cmd:  "HSET",
			call: func(s *Store) error {
				return s.HSet(context.Background(), recordKey, map[string]string{"subject": "x"})
			},
			wantOp: db.OpHSet,
		},
		{
			name: "hgetall",
			cmd:  "HGETALL",
			call: func(s *Store) error {
				_, err := s.HGetAll(context.Background(), recordKey)
				return err
			},
			wantOp: db.OpHGetAll,
		},
		{
			name:   "del",
			cmd:    "DEL",
			call:   func(s *Store) error { return s.Del(context.Background(), recordKey) },
			wantOp: db.OpDel,
		},
		{
			name: "exists",
			cmd:  "EXISTS",
			call: func(s *Store) error {
				_, err := s.Exists(context.Background(), recordKey)
				return err
			},
			wantOp: db.OpExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newMockStore(t)
			c.EXPECT().
				Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == tt.cmd }, tt.cmd)).
				Return(mock.ErrorResult(context.DeadlineExceeded))

			if got := dbErrorOp(tt.call(s)); got != tt.wantOp {
				t.Errorf("expected op %q, got %q", tt.wantOp, got)
			}
		})
	}
}

func TestHGetAll(t *testing.T) {
	tests := []struct {
		name  string
		reply rueidis.RedisMessage
		want  map[string]string
	}{
		{
			name: "record",
			reply: mock.RedisMap(map[string]rueidis.RedisMessage{
				"subject": mock.RedisString("Railway Safety"),
				"answer":  mock.RedisString("The Ministry has taken steps."),
			}),
			want: map[string]string{"subject": "Railway Safety", "answer": "The Ministry has taken steps."},
		},
		{
			name:  "missing key",
			reply: mock.RedisMap(map[string]rueidis.RedisMessage{}),
			want:  map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newMockStore(t)
			c.EXPECT().
				Do(gomock.Any(), mock.Match("HGETALL", recordKey)).
				Return(mock.Result(tt.reply))

			got, err := s.HGetAll(context.Background(), recordKey)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d fields, got %v", len(tt.want), got)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("field %s: expected %q, got %q", k, v, got[k])
				}
			}
		})
	}
}

func TestExists(t *testing.T) {
	for _, n := range []int64{0, 1} {
		s, c := newMockStore(t)
		c.EXPECT().
			Do(gomock.Any(), mock.Match("EXISTS", recordKey)).
			Return(mock.Result(mock.RedisInt64(n)))

		ok, err := s.Exists(context.Background(), recordKey)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok != (n == 1) {
			t.Errorf("EXISTS=%d: got %v", n, ok)
		}
	}
}

func TestDel(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", recordKey)).
		Return(mock.Result(mock.RedisInt64(0)))

	if err := s.Del(context.Background(), recordKey); err != nil {
		t.Fatalf("deleting an absent key must succeed: %v", err)
	}
}
