package domain

import (
	"sort"
	"time"
)

// Role distinguishes question authors from quiz takers.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is one of the fixed demo identities.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the user may author questions.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Question models an MCQ prompt with an optional designated correct option.
type Question struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Options       []string  `json:"options"`
	CorrectOption *int      `json:"correctOption,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	CreatedBy     string    `json:"createdBy"`
}

// IsCorrect reports whether option matches the question's current correct option.
// A question without a correct option never scores.
func (q Question) IsCorrect(option int) bool {
	return q.CorrectOption != nil && *q.CorrectOption == option
}

// HasOption reports whether option indexes a live entry in Options.
func (q Question) HasOption(option int) bool {
	return option >= 0 && option < len(q.Options)
}

// HistoryEntry is one snapshot of an answer revision.
type HistoryEntry struct {
	SelectedOption int       `json:"selectedOption"`
	Timestamp      time.Time `json:"timestamp"`
}

// Answer is a single user's current response to one question.
type Answer struct {
	ID             string         `json:"id"`
	QuestionID     string         `json:"questionId"`
	UserID         string         `json:"userId"`
	SelectedOption int            `json:"selectedOption"`
	IsCorrect      bool           `json:"isCorrect"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	History        []HistoryEntry `json:"history"`
}

// Revise moves the answer to option, appending a history snapshot.
func (a *Answer) Revise(option int, correct bool, at time.Time) {
	a.SelectedOption = option
	a.IsCorrect = correct
	a.UpdatedAt = at
	a.History = append(a.History, HistoryEntry{SelectedOption: option, Timestamp: at})
}

// HistoryNewestFirst returns a copy of the history ordered from newest to oldest.
func (a Answer) HistoryNewestFirst() []HistoryEntry {
	out := make([]HistoryEntry, len(a.History))
	copy(out, a.History)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// ChangeKind names what a mutation touched.
type ChangeKind string

const (
	ChangeQuestions ChangeKind = "questions"
	ChangeAnswers   ChangeKind = "answers"
)

// ChangeEvent is published after every successful mutation.
type ChangeEvent struct {
	Kind   ChangeKind `json:"kind"`
	ID     string     `json:"id"`
	Source string     `json:"-"`
	At     time.Time  `json:"at"`
}
