package domain

import (
	"fmt"
	"strings"
)

// QuestionInput carries the author-supplied fields of a new question.
type QuestionInput struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Options       []string `json:"options"`
	CorrectOption *int     `json:"correctOption,omitempty"`
}

// Normalize drops blank options and remaps CorrectOption onto the filtered list.
// A correct option that pointed at a blank entry is cleared.
func (in QuestionInput) Normalize() QuestionInput {
	out := QuestionInput{
		Title:   strings.TrimSpace(in.Title),
		Content: strings.TrimSpace(in.Content),
		Options: make([]string, 0, len(in.Options)),
	}
	for i, opt := range in.Options {
		if strings.TrimSpace(opt) == "" {
			continue
		}
		if in.CorrectOption != nil && *in.CorrectOption == i {
			idx := len(out.Options)
			out.CorrectOption = &idx
		}
		out.Options = append(out.Options, opt)
	}
	return out
}

// Validate applies the authoring form rules. The quiz service trusts its
// callers and does not repeat these checks.
func (in QuestionInput) Validate() error {
	var problems []string
	if strings.TrimSpace(in.Title) == "" {
		problems = append(problems, "title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		problems = append(problems, "content is required")
	}
	filled := 0
	for _, opt := range in.Options {
		if strings.TrimSpace(opt) != "" {
			filled++
		}
	}
	if filled < 2 {
		problems = append(problems, "at least 2 options are required")
	}
	if in.CorrectOption == nil || *in.CorrectOption < 0 || *in.CorrectOption >= len(in.Options) ||
		strings.TrimSpace(in.Options[*in.CorrectOption]) == "" {
		problems = append(problems, "a correct option must be selected")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidQuestion, strings.Join(problems, "; "))
	}
	return nil
}

// QuestionUpdate names exactly the mutable fields of a question. Nil fields
// are left unchanged.
type QuestionUpdate struct {
	Title              *string  `json:"title,omitempty"`
	Content            *string  `json:"content,omitempty"`
	Options            []string `json:"options,omitempty"`
	CorrectOption      *int     `json:"correctOption,omitempty"`
	ClearCorrectOption bool     `json:"clearCorrectOption,omitempty"`
}

// UpdateFromInput builds an update that replaces every authored field.
func UpdateFromInput(in QuestionInput) QuestionUpdate {
	u := QuestionUpdate{
		Title:         &in.Title,
		Content:       &in.Content,
		Options:       in.Options,
		CorrectOption: in.CorrectOption,
	}
	if in.CorrectOption == nil {
		u.ClearCorrectOption = true
	}
	return u
}

// Validate checks the update against the record it will be merged into.
func (u QuestionUpdate) Validate(current Question) error {
	if u.CorrectOption != nil && u.ClearCorrectOption {
		return fmt.Errorf("%w: correctOption set and cleared at once", ErrInvalidUpdate)
	}
	if u.Options != nil && len(u.Options) < 2 {
		return fmt.Errorf("%w: at least 2 options are required", ErrInvalidUpdate)
	}
	options := current.Options
	if u.Options != nil {
		options = u.Options
	}
	correct := current.CorrectOption
	if u.CorrectOption != nil {
		correct = u.CorrectOption
	}
	if u.ClearCorrectOption {
		correct = nil
	}
	if correct != nil && (*correct < 0 || *correct >= len(options)) {
		return fmt.Errorf("%w: correctOption %d out of range for %d options", ErrInvalidUpdate, *correct, len(options))
	}
	return nil
}

// Apply merges the update into q. Callers validate first.
func (u QuestionUpdate) Apply(q Question) Question {
	if u.Title != nil {
		q.Title = *u.Title
	}
	if u.Content != nil {
		q.Content = *u.Content
	}
	if u.Options != nil {
		q.Options = append([]string(nil), u.Options...)
	}
	if u.CorrectOption != nil {
		idx := *u.CorrectOption
		q.CorrectOption = &idx
	}
	if u.ClearCorrectOption {
		q.CorrectOption = nil
	}
	return q
}

// IntPtr is a convenience for building optional option indexes.
func IntPtr(v int) *int {
	return &v
}

// StringPtr is a convenience for building partial updates.
func StringPtr(v string) *string {
	return &v
}
