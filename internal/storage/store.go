package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-vault/internal/domain"
)

// Fixed keys of the two persisted collections.
const (
	QuestionsKey = "quiz_questions"
	AnswersKey   = "quiz_answers"
)

// KV abstracts the durable string store (in-memory, SQLite, Redis, Postgres).
type KV interface {
	// Get returns the value under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store persists the questions and answers collections as whole JSON arrays.
// Every mutation rewrites a full collection; there is no cross-collection
// transaction.
type Store struct {
	kv  KV
	now func() time.Time
	sf  singleflight.Group
}

func NewStore(kv KV) *Store {
	return NewStoreWithClock(kv, time.Now)
}

// NewStoreWithClock fixes the clock used for seed timestamps.
func NewStoreWithClock(kv KV, now func() time.Time) *Store {
	return &Store{kv: kv, now: now}
}

// KV exposes the backing store for collaborators that persist their own keys.
func (s *Store) KV() KV {
	return s.kv
}

// Initialize seeds each absent or empty collection with the default dataset.
// Existing data is never touched.
func (s *Store) Initialize(ctx context.Context) error {
	questions, answers := SeedData(s.now())
	if err := s.seed(ctx, QuestionsKey, questions); err != nil {
		return err
	}
	return s.seed(ctx, AnswersKey, answers)
}

func (s *Store) seed(ctx context.Context, key string, records any) error {
	value, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("check %s: %w", key, err)
	}
	if ok && value != "" {
		return nil
	}
	return s.writeAll(ctx, key, records)
}

func (s *Store) Questions(ctx context.Context) ([]domain.Question, error) {
	return readAll[domain.Question](ctx, s, QuestionsKey)
}

func (s *Store) WriteQuestions(ctx context.Context, questions []domain.Question) error {
	return s.writeAll(ctx, QuestionsKey, questions)
}

func (s *Store) Answers(ctx context.Context) ([]domain.Answer, error) {
	return readAll[domain.Answer](ctx, s, AnswersKey)
}

func (s *Store) WriteAnswers(ctx context.Context, answers []domain.Answer) error {
	return s.writeAll(ctx, AnswersKey, answers)
}

// readAll decodes the collection under key. Absent or corrupt data yields an
// empty slice; only backend failures are returned as errors.
// Concurrent reads of one key share a single backend call until the next write.
func readAll[T any](ctx context.Context, s *Store, key string) ([]T, error) {
	raw, err, _ := s.sf.Do(key, func() (interface{}, error) {
		value, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", nil
		}
		return value, nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	value := raw.(string)
	if value == "" {
		return []T{}, nil
	}
	var records []T
	if err := json.Unmarshal([]byte(value), &records); err != nil {
		log.Printf("storage: discarding corrupt %s: %v", key, err)
		return []T{}, nil
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (s *Store) writeAll(ctx context.Context, key string, records any) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	// reads in flight may predate this write
	s.sf.Forget(key)
	return nil
}
