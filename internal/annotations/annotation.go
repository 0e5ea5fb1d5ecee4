package annotations

import (
	"time"

	"github.com/google/uuid"
)

// Confidence bounds and default for answers. Confidence is a 1-5 self-rating
// the annotator assigns per answer.
const (
	MinConfidence     = 1
	MaxConfidence     = 5
	DefaultConfidence = 3
)

// Answer records a single question response within an annotation.
type Answer struct {
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	Attribute  string `json:"attribute,omitempty"`
	Answer     string `json:"answer"`
	Confidence int    `json:"confidence"`
}

// Annotation is the unit of annotator work: all answers for one panoramic
// image by one user, plus completion state.
type Annotation struct {
	ID          uuid.UUID `json:"id,omitzero"`
	ImageID     string    `json:"imageId"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Caption     string    `json:"caption,omitempty"`
	Answers     []Answer  `json:"answers"`
	IsComplete  bool      `json:"isComplete"`
	UserID      string    `json:"userId,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}

// AnswerFor returns a pointer to the answer for questionID, or nil.
func (a *Annotation) AnswerFor(questionID string) *Answer {
	for i := range a.Answers {
		if a.Answers[i].QuestionID == questionID {
			return &a.Answers[i]
		}
	}
	return nil
}

// ClampConfidence forces a confidence value into the valid range,
// substituting the default for out-of-range input.
func ClampConfidence(confidence int) int {
	if confidence < MinConfidence || confidence > MaxConfidence {
		return DefaultConfidence
	}
	return confidence
}

// Progress summarizes annotation state for a user against the task total.
type Progress struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
}

// ExportPayload is the envelope for full-dataset annotation exports.
type ExportPayload struct {
	ExportedAt  time.Time    `json:"exportedAt"`
	Count       int          `json:"count"`
	Annotations []Annotation `json:"annotations"`
}
