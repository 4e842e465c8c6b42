package stores

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/mojito/workflow"
)

// MemoryWorkflowStore is the in-process counterpart of WorkflowStore. Records
// are stored encoded so callers never share state with the store.
type MemoryWorkflowStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	locks   map[string]memoryRecord
	now     func() time.Time
}

type memoryRecord struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryWorkflowStore() *MemoryWorkflowStore {
	return &MemoryWorkflowStore{
		records: make(map[string]memoryRecord),
		locks:   make(map[string]memoryRecord),
		now:     time.Now,
	}
}

func (s *MemoryWorkflowStore) Create(_ context.Context, state workflow.State, ttl time.Duration) error {
	encoded, err := encodeWorkflowRecord(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if rec, ok := s.records[state.ID]; ok && now.Before(rec.expiresAt) {
		return ErrWorkflowExists
	}
	s.records[state.ID] = memoryRecord{data: encoded, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryWorkflowStore) Save(_ context.Context, state workflow.State, ttl time.Duration) error {
	encoded, err := encodeWorkflowRecord(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.records[state.ID]
	if !ok || !now.Before(rec.expiresAt) {
		delete(s.records, state.ID)
		return ErrWorkflowNotFound
	}
	s.records[state.ID] = memoryRecord{data: encoded, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryWorkflowStore) Load(_ context.Context, id string) (workflow.State, error) {
	s.mu.Lock()
	rec, ok := s.records[id]
	if ok && !s.now().Before(rec.expiresAt) {
		delete(s.records, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return workflow.State{}, ErrWorkflowNotFound
	}
	return decodeWorkflowRecord(rec.data)
}

func (s *MemoryWorkflowStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryWorkflowStore) Lock(_ context.Context, id string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if held, ok := s.locks[id]; ok && now.Before(held.expiresAt) {
		return "", ErrWorkflowLocked
	}
	token := uuid.NewString()
	s.locks[id] = memoryRecord{data: []byte(token), expiresAt: now.Add(ttl)}
	return token, nil
}

func (s *MemoryWorkflowStore) Unlock(_ context.Context, id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if held, ok := s.locks[id]; ok && string(held.data) == token {
		delete(s.locks, id)
	}
	return nil
}

// Sweep drops expired records and locks.
func (s *MemoryWorkflowStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, rec := range s.records {
		if !now.Before(rec.expiresAt) {
			delete(s.records, id)
			n++
		}
	}
	for id, rec := range s.locks {
		if !now.Before(rec.expiresAt) {
			delete(s.locks, id)
		}
	}
	return n
}
