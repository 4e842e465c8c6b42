package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/mojito/workflow"
)

const (
	workflowRecordVersionV1 = 1
)

var (
	ErrWorkflowNotFound         = errors.New("workflow not found")
	ErrWorkflowLocked           = errors.New("workflow locked")
	ErrWorkflowCorrupt          = errors.New("workflow record corrupt")
	ErrWorkflowExists           = errors.New("workflow already exists")
	ErrWorkflowRedisUnavailable = errors.New("workflow redis unavailable")
)

const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var unlockLua = redis.NewScript(unlockScript)

// WorkflowStore persists workflow snapshots in Redis. Each snapshot expires
// after its TTL; an expired workflow is indistinguishable from an abandoned
// one.
type WorkflowStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewWorkflowStore(redisClient redis.UniversalClient, prefix string) *WorkflowStore {
	if prefix == "" {
		prefix = "mwf"
	}
	return &WorkflowStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *WorkflowStore) key(id string) string {
	return s.prefix + ":" + id
}

func (s *WorkflowStore) lockKey(id string) string {
	return s.prefix + "l:" + id
}

// Create writes the first snapshot of a workflow. It fails with
// ErrWorkflowExists when the id is taken.
func (s *WorkflowStore) Create(ctx context.Context, state workflow.State, ttl time.Duration) error {
	encoded, err := encodeWorkflowRecord(state)
	if err != nil {
		return err
	}
	ok, err := s.redis.SetNX(ctx, s.key(state.ID), encoded, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWorkflowRedisUnavailable, err)
	}
	if !ok {
		return ErrWorkflowExists
	}
	return nil
}

// Save replaces the snapshot of an existing workflow and renews its TTL. A
// deleted or expired workflow stays gone: Save returns ErrWorkflowNotFound.
func (s *WorkflowStore) Save(ctx context.Context, state workflow.State, ttl time.Duration) error {
	encoded, err := encodeWorkflowRecord(state)
	if err != nil {
		return err
	}
	ok, err := s.redis.SetXX(ctx, s.key(state.ID), encoded, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWorkflowRedisUnavailable, err)
	}
	if !ok {
		return ErrWorkflowNotFound
	}
	return nil
}

func (s *WorkflowStore) Load(ctx context.Context, id string) (workflow.State, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return workflow.State{}, ErrWorkflowNotFound
		}
		return workflow.State{}, fmt.Errorf("%w: %v", ErrWorkflowRedisUnavailable, err)
	}
	return decodeWorkflowRecord(data)
}

// Delete drops the snapshot. The in-flight lock is left to its owner so a
// pending attempt keeps excluding new ones until it finishes.
func (s *WorkflowStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrWorkflowRedisUnavailable, err)
	}
	return nil
}

// Lock takes the in-flight lock of a workflow for at most ttl. The returned
// token must be passed to Unlock.
func (s *WorkflowStore) Lock(ctx context.Context, id string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := s.redis.SetNX(ctx, s.lockKey(id), token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWorkflowRedisUnavailable, err)
	}
	if !ok {
		return "", ErrWorkflowLocked
	}
	return token, nil
}

// Unlock releases the lock if token still owns it.
func (s *WorkflowStore) Unlock(ctx context.Context, id, token string) error {
	if err := unlockLua.Run(ctx, s.redis, []string{s.lockKey(id)}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrWorkflowRedisUnavailable, err)
	}
	return nil
}

func (s *WorkflowStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrWorkflowRedisUnavailable, err)
	}
	return nil
}

// The record is a version byte followed by the JSON snapshot.
func encodeWorkflowRecord(state workflow.State) ([]byte, error) {
	body, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode workflow: %w", err)
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, workflowRecordVersionV1)
	return append(out, body...), nil
}

func decodeWorkflowRecord(data []byte) (workflow.State, error) {
	if len(data) < 2 || data[0] != workflowRecordVersionV1 {
		return workflow.State{}, ErrWorkflowCorrupt
	}
	var state workflow.State
	if err := json.Unmarshal(data[1:], &state); err != nil {
		return workflow.State{}, fmt.Errorf("%w: %v", ErrWorkflowCorrupt, err)
	}
	if state.Context == nil {
		state.Context = map[string]string{}
	}
	return state, nil
}
