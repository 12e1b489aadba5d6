package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-vault/internal/domain"
)

// Store persists whole collections (see storage.Store).
type Store interface {
	Questions(ctx context.Context) ([]domain.Question, error)
	WriteQuestions(ctx context.Context, questions []domain.Question) error
	Answers(ctx context.Context) ([]domain.Answer, error)
	WriteAnswers(ctx context.Context, answers []domain.Answer) error
}

// Identity resolves who is acting (see auth.Session).
type Identity interface {
	Current() (domain.User, bool)
}

// QuizService contains the question and answer use cases. It keeps an
// in-memory mirror of both collections that callers render from; the store
// remains the durable owner.
//
// Absence is reported through a false result, never through an error.
type QuizService struct {
	store    Store
	identity Identity
	feed     *Feed
	source   string
	now      func() time.Time

	mu        sync.Mutex
	questions []domain.Question
	answers   []domain.Answer
}

// NewQuizService wires a service to its store and identity. A nil feed gives
// the service a private one.
func NewQuizService(store Store, identity Identity, feed *Feed) *QuizService {
	return NewQuizServiceWithClock(store, identity, feed, time.Now)
}

// NewQuizServiceWithClock allows deterministic timestamps in tests.
func NewQuizServiceWithClock(store Store, identity Identity, feed *Feed, now func() time.Time) *QuizService {
	if feed == nil {
		feed = NewFeed()
	}
	return &QuizService{
		store:     store,
		identity:  identity,
		feed:      feed,
		source:    uuid.NewString(),
		now:       now,
		questions: []domain.Question{},
		answers:   []domain.Answer{},
	}
}

// Load replaces the mirror with the stored collections. It is serialized with
// the mutators so a reload never overwrites a newer write from this service.
func (s *QuizService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	questions, err := s.store.Questions(ctx)
	if err != nil {
		return err
	}
	answers, err := s.store.Answers(ctx)
	if err != nil {
		return err
	}
	s.questions = questions
	s.answers = answers
	return nil
}

// Subscribe returns changes made by other services sharing the feed.
func (s *QuizService) Subscribe() (<-chan domain.ChangeEvent, func()) {
	return s.feed.Subscribe(s.source)
}

// CreateQuestion stores a new question authored by the current admin.
func (s *QuizService) CreateQuestion(ctx context.Context, in domain.QuestionInput) (domain.Question, error) {
	user, err := s.requireAdmin()
	if err != nil {
		return domain.Question{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	questions, err := s.store.Questions(ctx)
	if err != nil {
		return domain.Question{}, err
	}

	now := s.now()
	question := domain.Question{
		ID:        newQuestionID(questions),
		Title:     in.Title,
		Content:   in.Content,
		Options:   append([]string(nil), in.Options...),
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: user.ID,
	}
	if in.CorrectOption != nil {
		question.CorrectOption = domain.IntPtr(*in.CorrectOption)
	}

	if err := s.store.WriteQuestions(ctx, append(questions, question)); err != nil {
		return domain.Question{}, err
	}
	s.questions = append(s.questions, question)
	s.publish(domain.ChangeQuestions, question.ID)
	return cloneQuestion(question), nil
}

// EditQuestion merges update into the question with id. It reports false
// when no such question exists.
func (s *QuizService) EditQuestion(ctx context.Context, id string, update domain.QuestionUpdate) (domain.Question, bool, error) {
	if _, err := s.requireAdmin(); err != nil {
		return domain.Question{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	questions, err := s.store.Questions(ctx)
	if err != nil {
		return domain.Question{}, false, err
	}
	idx := indexOfQuestion(questions, id)
	if idx < 0 {
		return domain.Question{}, false, nil
	}
	if err := update.Validate(questions[idx]); err != nil {
		return domain.Question{}, false, err
	}

	updated := update.Apply(questions[idx])
	updated.UpdatedAt = s.now()
	questions[idx] = updated
	if err := s.store.WriteQuestions(ctx, questions); err != nil {
		return domain.Question{}, false, err
	}

	if i := indexOfQuestion(s.questions, id); i >= 0 {
		s.questions[i] = updated
	} else {
		s.questions = append(s.questions, updated)
	}
	s.publish(domain.ChangeQuestions, id)
	return cloneQuestion(updated), true, nil
}

// RemoveQuestion deletes the question and every answer referencing it.
// It reports false when no such question exists.
func (s *QuizService) RemoveQuestion(ctx context.Context, id string) (bool, error) {
	if _, err := s.requireAdmin(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	questions, err := s.store.Questions(ctx)
	if err != nil {
		return false, err
	}
	remaining := withoutQuestion(questions, id)
	if len(remaining) == len(questions) {
		return false, nil
	}
	if err := s.store.WriteQuestions(ctx, remaining); err != nil {
		return false, err
	}

	// Not atomic with the write above: a failure here leaves orphaned answers.
	answers, err := s.store.Answers(ctx)
	if err != nil {
		return false, err
	}
	if err := s.store.WriteAnswers(ctx, answersWithoutQuestion(answers, id)); err != nil {
		return false, err
	}

	s.questions = withoutQuestion(s.questions, id)
	s.answers = answersWithoutQuestion(s.answers, id)
	s.publish(domain.ChangeQuestions, id)
	return true, nil
}

// SubmitAnswer records the current user's choice for a question. A second
// submission for the same question updates the existing answer in place.
func (s *QuizService) SubmitAnswer(ctx context.Context, questionID string, selectedOption int) (domain.Answer, error) {
	user, err := s.requireUser()
	if err != nil {
		return domain.Answer{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	answer, _, err := s.writeAnswerLocked(ctx, user, questionID, selectedOption, true)
	return answer, err
}

// EditAnswer revises an existing answer. It reports false, and creates
// nothing, when the user has not answered the question yet.
func (s *QuizService) EditAnswer(ctx context.Context, questionID string, selectedOption int) (domain.Answer, bool, error) {
	user, err := s.requireUser()
	if err != nil {
		return domain.Answer{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeAnswerLocked(ctx, user, questionID, selectedOption, false)
}

func (s *QuizService) writeAnswerLocked(ctx context.Context, user domain.User, questionID string, selectedOption int, create bool) (domain.Answer, bool, error) {
	answers, err := s.store.Answers(ctx)
	if err != nil {
		return domain.Answer{}, false, err
	}
	idx := indexOfAnswer(answers, user.ID, questionID)
	if idx < 0 && !create {
		return domain.Answer{}, false, nil
	}

	questions, err := s.store.Questions(ctx)
	if err != nil {
		return domain.Answer{}, false, err
	}
	// correctness always follows the question's current correct option
	correct := false
	if q := indexOfQuestion(questions, questionID); q >= 0 {
		correct = questions[q].IsCorrect(selectedOption)
	}

	now := s.now()
	var answer domain.Answer
	if idx >= 0 {
		answer = answers[idx]
		answer.History = append([]domain.HistoryEntry(nil), answer.History...)
		answer.Revise(selectedOption, correct, now)
		answers[idx] = answer
	} else {
		answer = domain.Answer{
			ID:         uuid.NewString(),
			QuestionID: questionID,
			UserID:     user.ID,
			CreatedAt:  now,
		}
		answer.Revise(selectedOption, correct, now)
		answers = append(answers, answer)
	}

	if err := s.store.WriteAnswers(ctx, answers); err != nil {
		return domain.Answer{}, false, err
	}

	if i := indexOfAnswer(s.answers, user.ID, questionID); i >= 0 {
		s.answers[i] = answer
	} else {
		s.answers = append(s.answers, answer)
	}
	s.publish(domain.ChangeAnswers, answer.ID)
	return cloneAnswer(answer), true, nil
}

// AnswerForQuestion looks up the current user's answer in the mirror only.
// IsCorrect is recomputed against the mirrored question, so edits to the
// correct option show up without touching the answer's history.
func (s *QuizService) AnswerForQuestion(questionID string) (domain.Answer, bool) {
	user, ok := s.identity.Current()
	if !ok {
		return domain.Answer{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOfAnswer(s.answers, user.ID, questionID)
	if idx < 0 {
		return domain.Answer{}, false
	}
	answer := cloneAnswer(s.answers[idx])
	if q := indexOfQuestion(s.questions, questionID); q >= 0 {
		answer.IsCorrect = s.questions[q].IsCorrect(answer.SelectedOption)
	}
	return answer, true
}

// Questions returns the mirrored questions.
func (s *QuizService) Questions() []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, cloneQuestion(q))
	}
	return out
}

// Question looks up one mirrored question by id.
func (s *QuizService) Question(id string) (domain.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOfQuestion(s.questions, id)
	if idx < 0 {
		return domain.Question{}, false
	}
	return cloneQuestion(s.questions[idx]), true
}

// AllAnswers returns every mirrored answer regardless of user.
func (s *QuizService) AllAnswers() []domain.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Answer, 0, len(s.answers))
	for _, a := range s.answers {
		out = append(out, cloneAnswer(a))
	}
	return out
}

// UserAnswers returns the current user's mirrored answers; empty when anonymous.
func (s *QuizService) UserAnswers() []domain.Answer {
	user, ok := s.identity.Current()
	if !ok {
		return []domain.Answer{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Answer{}
	for _, a := range s.answers {
		if a.UserID == user.ID {
			out = append(out, cloneAnswer(a))
		}
	}
	return out
}

func (s *QuizService) requireAdmin() (domain.User, error) {
	user, ok := s.identity.Current()
	if !ok || !user.IsAdmin() {
		return domain.User{}, domain.ErrForbidden
	}
	return user, nil
}

func (s *QuizService) requireUser() (domain.User, error) {
	user, ok := s.identity.Current()
	if !ok {
		return domain.User{}, domain.ErrUnauthenticated
	}
	return user, nil
}

func (s *QuizService) publish(kind domain.ChangeKind, id string) {
	s.feed.Publish(domain.ChangeEvent{Kind: kind, ID: id, Source: s.source, At: s.now()})
}

func newQuestionID(existing []domain.Question) string {
	for {
		id := uuid.NewString()
		if indexOfQuestion(existing, id) < 0 {
			return id
		}
	}
}

func indexOfQuestion(questions []domain.Question, id string) int {
	for i := range questions {
		if questions[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfAnswer(answers []domain.Answer, userID, questionID string) int {
	for i := range answers {
		if answers[i].UserID == userID && answers[i].QuestionID == questionID {
			return i
		}
	}
	return -1
}

func withoutQuestion(questions []domain.Question, id string) []domain.Question {
	out := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if q.ID != id {
			out = append(out, q)
		}
	}
	return out
}

func answersWithoutQuestion(answers []domain.Answer, questionID string) []domain.Answer {
	out := make([]domain.Answer, 0, len(answers))
	for _, a := range answers {
		if a.QuestionID != questionID {
			out = append(out, a)
		}
	}
	return out
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Options = append([]string(nil), q.Options...)
	if q.CorrectOption != nil {
		q.CorrectOption = domain.IntPtr(*q.CorrectOption)
	}
	return q
}

func cloneAnswer(a domain.Answer) domain.Answer {
	a.History = append([]domain.HistoryEntry(nil), a.History...)
	return a
}
