package domain

import "time"

// Origin tells where a submission id was issued.
type Origin string

const (
	OriginRemote Origin = "remote"
	OriginLocal  Origin = "local"
)

// ContactInfo is what the lead types on the capture step.
type ContactInfo struct {
	Name    string `json:"name" validate:"max=200"`
	Email   string `json:"email" validate:"omitempty,email,max=320"`
	Phone   string `json:"phone" validate:"max=50"`
	Consent bool   `json:"subscribed"`
}

// Sentiment is the polarity assigned by answer analysis.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// Analysis is filled in later by an external collaborator.
type Analysis struct {
	Sentiment Sentiment `json:"sentiment"`
	Keywords  []string  `json:"keywords"`
	Summary   string    `json:"summary"`
}

// AnalyzedAnswer pairs an answer with its question text.
type AnalyzedAnswer struct {
	QuestionID   string      `json:"questionId"`
	QuestionText string      `json:"questionText"`
	Answer       AnswerValue `json:"answer"`
	Analysis     *Analysis   `json:"analysis,omitempty"`
}

// Submission is a finalized lead.
type Submission struct {
	ID        string           `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Contact   ContactInfo      `json:"contactInfo"`
	Answers   []AnalyzedAnswer `json:"analyzedAnswers"`
	FunnelID  string           `json:"funnelId,omitempty"`
	Origin    Origin           `json:"origin"`
}

// IsLocal reports whether the id was generated on the client.
func (s Submission) IsLocal() bool { return s.Origin == OriginLocal }
