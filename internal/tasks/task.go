// Package tasks implements the annotation task domain: the canonical task
// catalog sourced from the captions dataset, the remote task store, and the
// task resolution protocol.
package tasks

import (
	"github.com/google/uuid"

	"github.com/panolabel/panolabel/internal/dataset"
)

// Question is one prompt presented for a task. Attribute groups questions
// for display; grouping preserves dataset order.
type Question struct {
	ID              string `json:"id"`
	Question        string `json:"question"`
	Attribute       string `json:"attribute"`
	SuggestedAnswer string `json:"suggestedAnswer,omitempty"`
}

// Task is a panorama image with its question set. Tasks are read-only
// content; identity is ImageID. ID is assigned only by the remote store.
type Task struct {
	ID        uuid.UUID  `json:"id,omitzero"`
	ImageID   string     `json:"imageId"`
	ImageURL  string     `json:"imageUrl"`
	Caption   string     `json:"caption"`
	Questions []Question `json:"questions"`
}

// FromItem converts a dataset item into a Task, deriving question
// identifiers with the given IDFunc.
func FromItem(item dataset.Item, ids dataset.IDFunc) Task {
	return Task{
		ImageID:   item.URL,
		ImageURL:  item.URL,
		Caption:   item.Context,
		Questions: formatQuestions(item, ids),
	}
}

func formatQuestions(item dataset.Item, ids dataset.IDFunc) []Question {
	switch {
	case len(item.Groups) > 0:
		questions := make([]Question, 0)
		for _, group := range item.Groups {
			for _, pair := range group.Pairs {
				questions = append(questions, Question{
					ID:              ids(pair.Question),
					Question:        pair.Question,
					Attribute:       group.Attribute,
					SuggestedAnswer: pair.Answer,
				})
			}
		}
		return questions

	case len(item.Pairs) > 0:
		questions := make([]Question, 0, len(item.Pairs))
		for _, pair := range item.Pairs {
			attribute := pair.Attribute
			if attribute == "" {
				attribute = "General"
			}
			questions = append(questions, Question{
				ID:              ids(pair.Question),
				Question:        pair.Question,
				Attribute:       attribute,
				SuggestedAnswer: pair.Answer,
			})
		}
		return questions

	default:
		pairs := dataset.PlaceholderQuestions()
		questions := make([]Question, 0, len(pairs))
		for _, pair := range pairs {
			questions = append(questions, Question{
				ID:              ids(pair.Question),
				Question:        pair.Question,
				Attribute:       pair.Attribute,
				SuggestedAnswer: pair.Answer,
			})
		}
		return questions
	}
}
