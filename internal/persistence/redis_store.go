package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/formflow/pkg/api"
)

// RedisSubmissionStore is a SubmissionStore backed by Redis.
// It uses a simple key structure:
//
//	<prefix>sub:<id>                => JSON-encoded submission
//	<prefix>idx:all                 => SET of all submission IDs
//	<prefix>idx:form:<formID>       => SET of submission IDs for a form
//	<prefix>idx:session:<sessionID> => SET of submission IDs for a session
//
// ListSubmissions uses set operations for filtering and sorts in memory.
type RedisSubmissionStore struct {
	client *redis.Client
	prefix string
}

var _ SubmissionStore = (*RedisSubmissionStore)(nil)

// NewRedisSubmissionStore creates a RedisSubmissionStore.
// prefix is optional but recommended (e.g. "formflow:").
func NewRedisSubmissionStore(client *redis.Client, prefix string) *RedisSubmissionStore {
	if prefix == "" {
		prefix = "formflow:"
	}
	return &RedisSubmissionStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisSubmissionStore) keySubmission(id string) string {
	return s.prefix + "sub:" + id
}

func (s *RedisSubmissionStore) keyAll() string {
	return s.prefix + "idx:all"
}

func (s *RedisSubmissionStore) keyForm(formID string) string {
	return s.prefix + "idx:form:" + formID
}

func (s *RedisSubmissionStore) keySession(sessionID string) string {
	return s.prefix + "idx:session:" + sessionID
}

func (s *RedisSubmissionStore) SaveSubmission(ctx context.Context, sub *api.Submission) error {
	if err := checkSubmission(sub); err != nil {
		return err
	}
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode submission %s: %w", sub.ID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keySubmission(sub.ID), data, 0)
	pipe.SAdd(ctx, s.keyAll(), sub.ID)
	pipe.SAdd(ctx, s.keyForm(sub.FormID), sub.ID)
	if sub.SessionID != "" {
		pipe.SAdd(ctx, s.keySession(sub.SessionID), sub.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save submission %s: %w", sub.ID, err)
	}
	return nil
}

func (s *RedisSubmissionStore) GetSubmission(ctx context.Context, id string) (*api.Submission, error) {
	data, err := s.client.Get(ctx, s.keySubmission(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return decodeRedisSubmission(data)
}

func (s *RedisSubmissionStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]*api.Submission, error) {
	var ids []string
	var err error

	switch {
	case filter.FormID != "" && filter.SessionID != "":
		ids, err = s.client.SInter(ctx, s.keyForm(filter.FormID), s.keySession(filter.SessionID)).Result()
	case filter.FormID != "":
		ids, err = s.client.SMembers(ctx, s.keyForm(filter.FormID)).Result()
	case filter.SessionID != "":
		ids, err = s.client.SMembers(ctx, s.keySession(filter.SessionID)).Result()
	default:
		ids, err = s.client.SMembers(ctx, s.keyAll()).Result()
	}
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*api.Submission{}, nil
		}
		return nil, err
	}
	if len(ids) == 0 {
		return []*api.Submission{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.keySubmission(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	out := make([]*api.Submission, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		sub, err := decodeRedisSubmission(data)
		if err != nil {
			return nil, err
		}
		// Index entries are never removed; re-check against the payload.
		if filter.match(sub) {
			out = append(out, sub)
		}
	}

	sortSubmissions(out)
	return filter.truncate(out), nil
}

func decodeRedisSubmission(data []byte) (*api.Submission, error) {
	var sub api.Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("decode submission: %w", err)
	}
	if sub.Answers == nil {
		sub.Answers = api.Answers{}
	}
	return &sub, nil
}
