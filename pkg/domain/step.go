package domain

import "fmt"

// StepKind identifies the variant of a Step.
// The numeric values are part of the document wire format.
type StepKind int

const (
	KindWelcome StepKind = iota
	KindQuestion
	KindMessage
	KindLeadCapture
)

var stepKindNames = map[StepKind]string{
	KindWelcome:     "welcome",
	KindQuestion:    "question",
	KindMessage:     "message",
	KindLeadCapture: "lead_capture",
}

func (k StepKind) String() string {
	if name, ok := stepKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// ParseStepKind resolves a textual kind name.
func ParseStepKind(s string) (StepKind, bool) {
	for k, name := range stepKindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// MediaType is the kind of an attached media asset.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
)

// Media references an asset by URL. The runtime never fetches it.
type Media struct {
	Type MediaType `json:"type" yaml:"type"`
	URL  string    `json:"url" yaml:"url"`
}

// IsZero reports whether no media is attached.
func (m Media) IsZero() bool { return m.URL == "" }

// AnswerInputKind selects how a Question is answered.
type AnswerInputKind string

const (
	InputButtons AnswerInputKind = "buttons"
	InputText    AnswerInputKind = "text"
	InputVoice   AnswerInputKind = "voice"
	InputVideo   AnswerInputKind = "video"
)

// Valid reports whether k is one of the known input kinds.
func (k AnswerInputKind) Valid() bool {
	switch k {
	case InputButtons, InputText, InputVoice, InputVideo:
		return true
	}
	return false
}

// AnswerInput describes the answer widget of a Question.
type AnswerInput struct {
	Type AnswerInputKind `json:"type" yaml:"type"`
}

// Option is a selectable answer of a buttons Question.
// A non-empty NextStepID overrides sequential advance when chosen.
type Option struct {
	ID         string `json:"id" yaml:"id"`
	Text       string `json:"text" yaml:"text"`
	NextStepID string `json:"nextStepId,omitempty" yaml:"nextStepId,omitempty"`
}

// SocialLink is shown on the lead capture step.
type SocialLink struct {
	ID   string `json:"id" yaml:"id"`
	Type string `json:"type" yaml:"type"`
	URL  string `json:"url" yaml:"url"`
}

// Step is one screen of a funnel. The set of implementations is closed:
// Welcome, Question, Message, LeadCapture and UnknownStep.
type Step interface {
	StepID() string
	Kind() StepKind
	MediaRef() Media
	sealed()
}

// Welcome opens the funnel.
type Welcome struct {
	ID         string
	Title      string
	ButtonText string
	Media      Media
}

// Question collects one answer.
type Question struct {
	ID      string
	Prompt  string
	Input   AnswerInput
	Options []Option
	Media   Media
}

// Message is informational content between questions.
type Message struct {
	ID         string
	Title      string
	ButtonText string
	Media      Media
}

// LeadCapture collects contact information.
type LeadCapture struct {
	ID               string
	Title            string
	Subtitle         string
	NamePlaceholder  string
	EmailPlaceholder string
	PhonePlaceholder string
	SubscriptionText string
	PrivacyPolicyURL string
	ButtonText       string
	SocialLinks      []SocialLink
	Media            Media
}

// UnknownStep holds a decoded step whose type the runtime does not recognize.
// It keeps the document loadable; landing on it is a runtime error.
type UnknownStep struct {
	ID      string
	RawType string
}

func (s *Welcome) StepID() string { return s.ID }
func (s *Question) StepID() string { return s.ID }
func (s *Message) StepID() string { return s.ID }
func (s *LeadCapture) StepID() string { return s.ID }
func (s *UnknownStep) StepID() string { return s.ID }

func (s *Welcome) Kind() StepKind { return KindWelcome }
func (s *Question) Kind() StepKind { return KindQuestion }
func (s *Message) Kind() StepKind { return KindMessage }
func (s *LeadCapture) Kind() StepKind { return KindLeadCapture }
func (s *UnknownStep) Kind() StepKind { return StepKind(-1) }

func (s *Welcome) MediaRef() Media { return s.Media }
func (s *Question) MediaRef() Media { return s.Media }
func (s *Message) MediaRef() Media { return s.Media }
func (s *LeadCapture) MediaRef() Media { return s.Media }
func (s *UnknownStep) MediaRef() Media { return Media{} }

func (*Welcome) sealed() {}
func (*Question) sealed() {}
func (*Message) sealed() {}
func (*LeadCapture) sealed() {}
func (*UnknownStep) sealed() {}

// OptionByID returns the option with the given id.
func (q *Question) OptionByID(id string) (Option, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// OptionByText returns the first option whose text matches.
func (q *Question) OptionByText(text string) (Option, bool) {
	for _, o := range q.Options {
		if o.Text == text {
			return o, true
		}
	}
	return Option{}, false
}

// Headline returns the main text of a step, whatever its variant.
func Headline(s Step) string {
	switch v := s.(type) {
	case *Welcome:
		return v.Title
	case *Question:
		return v.Prompt
	case *Message:
		return v.Title
	case *LeadCapture:
		return v.Title
	default:
		return ""
	}
}
