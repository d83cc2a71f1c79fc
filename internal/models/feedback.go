package models

import "time"

// FeedbackKind classifies what a piece of user feedback is about.
type FeedbackKind string

const (
	FeedbackAccuracy      FeedbackKind = "accuracy"
	FeedbackRelevance     FeedbackKind = "relevance"
	FeedbackFalsePositive FeedbackKind = "false_positive"
	FeedbackMissingThreat FeedbackKind = "missing_threat"
)

// FeedbackKinds lists every feedback kind in declaration order.
var FeedbackKinds = []FeedbackKind{
	FeedbackAccuracy,
	FeedbackRelevance,
	FeedbackFalsePositive,
	FeedbackMissingThreat,
}

// Valid reports whether k is a known feedback kind.
func (k FeedbackKind) Valid() bool {
	for _, known := range FeedbackKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Feedback is a rating submitted by a trial user, optionally tied to a
// specific threat record. Rating is constrained to [1,5].
type Feedback struct {
	ID             string       `json:"id"`
	ThreatID       string       `json:"threat_id,omitempty"`
	UserIdentifier string       `json:"user_identifier"`
	Kind           FeedbackKind `json:"feedback_type"`
	Rating         int          `json:"rating"`
	Comments       string       `json:"comments,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}
