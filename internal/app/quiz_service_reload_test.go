package app_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"quiz-vault/internal/app"
	"quiz-vault/internal/auth"
	"quiz-vault/internal/domain"
	"quiz-vault/internal/infra/memory"
	"quiz-vault/internal/storage"
)

// gatedStore pauses one armed Answers read after it has taken its snapshot.
type gatedStore struct {
	app.Store
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Answers(ctx context.Context) ([]domain.Answer, error) {
	answers, err := g.Store.Answers(ctx)
	if g.armed.CompareAndSwap(true, false) {
		g.entered <- struct{}{}
		<-g.release
	}
	return answers, err
}

func TestReloadDoesNotOverwriteConcurrentSubmit(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	store := &gatedStore{
		Store:   storage.NewStore(kv),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	session := auth.NewSession(kv, auth.SessionKey)
	service := app.NewQuizServiceWithClock(store, session, nil, tickingClock())

	if _, err := session.Login(ctx, "admin@example.com", "admin"); err != nil {
		t.Fatalf("admin login: %v", err)
	}
	q, err := service.CreateQuestion(ctx, domain.QuestionInput{
		Title:         "Q1",
		Content:       "Pick B",
		Options:       []string{"A", "B"},
		CorrectOption: domain.IntPtr(1),
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	if _, err := session.Login(ctx, "user@example.com", "user"); err != nil {
		t.Fatalf("user login: %v", err)
	}

	store.armed.Store(true)
	loaded := make(chan error, 1)
	go func() { loaded <- service.Load(ctx) }()
	<-store.entered

	submitted := make(chan error, 1)
	go func() {
		_, err := service.SubmitAnswer(ctx, q.ID, 1)
		submitted <- err
	}()
	// give the submit a chance to race the paused reload
	time.Sleep(50 * time.Millisecond)
	close(store.release)

	if err := <-loaded; err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := <-submitted; err != nil {
		t.Fatalf("submit: %v", err)
	}

	answer, found := service.AnswerForQuestion(q.ID)
	if !found {
		t.Fatalf("expected the submitted answer to survive the reload")
	}
	if !answer.IsCorrect || len(answer.History) != 1 {
		t.Fatalf("unexpected answer %+v", answer)
	}
}
