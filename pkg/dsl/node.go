package dsl

import "github.com/aretw0/funnel/pkg/domain"

// WelcomeBuilder provides a fluent API for configuring a welcome step.
type WelcomeBuilder struct {
	step *domain.Welcome
}

// Title sets the headline of the step.
func (w *WelcomeBuilder) Title(title string) *WelcomeBuilder {
	w.step.Title = title
	return w
}

// Button sets the label of the advance button.
func (w *WelcomeBuilder) Button(text string) *WelcomeBuilder {
	w.step.ButtonText = text
	return w
}

// Media attaches an asset to the step.
func (w *WelcomeBuilder) Media(kind domain.MediaType, url string) *WelcomeBuilder {
	w.step.Media = domain.Media{Type: kind, URL: url}
	return w
}

// Build returns the underlying step.
func (w *WelcomeBuilder) Build() *domain.Welcome {
	return w.step
}

// QuestionBuilder provides a fluent API for configuring a question step.
type QuestionBuilder struct {
	step *domain.Question
}

// Prompt sets the question text.
func (q *QuestionBuilder) Prompt(text string) *QuestionBuilder {
	q.step.Prompt = text
	return q
}

// Input sets how the question is answered.
func (q *QuestionBuilder) Input(kind domain.AnswerInputKind) *QuestionBuilder {
	q.step.Input = domain.AnswerInput{Type: kind}
	return q
}

// Buttons marks the question as a choice between options.
func (q *QuestionBuilder) Buttons() *QuestionBuilder {
	return q.Input(domain.InputButtons)
}

// Option adds a choice that advances to the next step.
func (q *QuestionBuilder) Option(id, text string) *QuestionBuilder {
	return q.Branch(id, text, "")
}

// Branch adds a choice that jumps to target when chosen.
// It also switches the question to buttons input.
func (q *QuestionBuilder) Branch(id, text, target string) *QuestionBuilder {
	q.step.Input = domain.AnswerInput{Type: domain.InputButtons}
	q.step.Options = append(q.step.Options, domain.Option{
		ID:         id,
		Text:       text,
		NextStepID: target,
	})
	return q
}

// Media attaches an asset to the step.
func (q *QuestionBuilder) Media(kind domain.MediaType, url string) *QuestionBuilder {
	q.step.Media = domain.Media{Type: kind, URL: url}
	return q
}

// Build returns the underlying step.
func (q *QuestionBuilder) Build() *domain.Question {
	return q.step
}

// MessageBuilder provides a fluent API for configuring a message step.
type MessageBuilder struct {
	step *domain.Message
}

// Title sets the text of the message.
func (m *MessageBuilder) Title(title string) *MessageBuilder {
	m.step.Title = title
	return m
}

// Button sets the label of the advance button.
func (m *MessageBuilder) Button(text string) *MessageBuilder {
	m.step.ButtonText = text
	return m
}

// Media attaches an asset to the step.
func (m *MessageBuilder) Media(kind domain.MediaType, url string) *MessageBuilder {
	m.step.Media = domain.Media{Type: kind, URL: url}
	return m
}

// Build returns the underlying step.
func (m *MessageBuilder) Build() *domain.Message {
	return m.step
}

// LeadBuilder provides a fluent API for configuring a lead capture step.
type LeadBuilder struct {
	step *domain.LeadCapture
}

// Title sets the headline of the step.
func (l *LeadBuilder) Title(title string) *LeadBuilder {
	l.step.Title = title
	return l
}

// Subtitle sets the text under the headline.
func (l *LeadBuilder) Subtitle(text string) *LeadBuilder {
	l.step.Subtitle = text
	return l
}

// Placeholders sets the hints of the name, email and phone fields.
func (l *LeadBuilder) Placeholders(name, email, phone string) *LeadBuilder {
	l.step.NamePlaceholder = name
	l.step.EmailPlaceholder = email
	l.step.PhonePlaceholder = phone
	return l
}

// Subscription sets the consent text and the privacy policy it links to.
func (l *LeadBuilder) Subscription(text, privacyURL string) *LeadBuilder {
	l.step.SubscriptionText = text
	l.step.PrivacyPolicyURL = privacyURL
	return l
}

// Button sets the label of the submit button.
func (l *LeadBuilder) Button(text string) *LeadBuilder {
	l.step.ButtonText = text
	return l
}

// Social adds a link shown under the form.
func (l *LeadBuilder) Social(id, kind, url string) *LeadBuilder {
	l.step.SocialLinks = append(l.step.SocialLinks, domain.SocialLink{ID: id, Type: kind, URL: url})
	return l
}

// Media attaches an asset to the step.
func (l *LeadBuilder) Media(kind domain.MediaType, url string) *LeadBuilder {
	l.step.Media = domain.Media{Type: kind, URL: url}
	return l
}

// Build returns the underlying step.
func (l *LeadBuilder) Build() *domain.LeadCapture {
	return l.step
}
