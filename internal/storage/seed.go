package storage

import (
	"time"

	"quiz-vault/internal/domain"
)

const day = 24 * time.Hour

// SeedData returns the default dataset relative to now.
func SeedData(now time.Time) ([]domain.Question, []domain.Answer) {
	ago := func(days int) time.Time {
		return now.Add(-time.Duration(days) * day)
	}
	question := func(id, title, content string, options []string, correct, days int) domain.Question {
		return domain.Question{
			ID:            id,
			Title:         title,
			Content:       content,
			Options:       options,
			CorrectOption: domain.IntPtr(correct),
			CreatedAt:     ago(days),
			UpdatedAt:     ago(days),
			CreatedBy:     domain.AdminUser.ID,
		}
	}
	answer := func(id, questionID string, selected int, correct bool, days int) domain.Answer {
		return domain.Answer{
			ID:             id,
			QuestionID:     questionID,
			UserID:         domain.RegularUser.ID,
			SelectedOption: selected,
			IsCorrect:      correct,
			CreatedAt:      ago(days),
			UpdatedAt:      ago(days),
			History:        []domain.HistoryEntry{{SelectedOption: selected, Timestamp: ago(days)}},
		}
	}

	questions := []domain.Question{
		question("1", "JavaScript Basics",
			"Which of the following is NOT a JavaScript data type?",
			[]string{"String", "Boolean", "Float", "Object"}, 2, 7),
		question("2", "React Fundamentals",
			"Which hook would you use to run side effects in a React component?",
			[]string{"useState", "useEffect", "useContext", "useReducer"}, 1, 5),
		question("3", "CSS Properties",
			"Which CSS property is used to create space between elements' content and its border?",
			[]string{"margin", "padding", "spacing", "border-spacing"}, 1, 3),
		question("4", "TypeScript Knowledge",
			"Which of the following is NOT a TypeScript type?",
			[]string{"any", "unknown", "string", "float"}, 3, 1),
	}
	answers := []domain.Answer{
		answer("1", "1", 0, false, 6),
		answer("2", "2", 1, true, 4),
	}
	return questions, answers
}
