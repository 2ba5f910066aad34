package dsl

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/schema"
)

// Builder manages the document construction.
// Steps keep the order in which they were first added.
type Builder struct {
	doc   domain.Document
	index map[string]domain.Step
	errs  []error
}

// New creates a new document builder.
func New() *Builder {
	return &Builder{
		index: make(map[string]domain.Step),
	}
}

// Theme sets the presentation data carried with the document.
func (b *Builder) Theme(font string, colors map[string]string) *Builder {
	b.doc.Theme = domain.Theme{Font: font, Colors: colors}
	return b
}

// RedirectURL sets where the lead capture step sends the visitor after submitting.
func (b *Builder) RedirectURL(url string) *Builder {
	b.doc.RedirectURL = url
	return b
}

// ContactNumber sets the number used for the messaging redirect.
func (b *Builder) ContactNumber(number string) *Builder {
	b.doc.ContactNumber = number
	return b
}

// MaxSteps overrides the default authoring limit.
func (b *Builder) MaxSteps(n int) *Builder {
	b.doc.MaxSteps = n
	return b
}

// Welcome adds a welcome step, or returns the existing one with that id.
func (b *Builder) Welcome(id string) *WelcomeBuilder {
	s, ok := lookup[*domain.Welcome](b, id)
	if !ok {
		s = &domain.Welcome{ID: id}
		b.add(s)
	}
	return &WelcomeBuilder{step: s}
}

// Question adds a question step, or returns the existing one with that id.
// New questions default to text input.
func (b *Builder) Question(id string) *QuestionBuilder {
	s, ok := lookup[*domain.Question](b, id)
	if !ok {
		s = &domain.Question{ID: id, Input: domain.AnswerInput{Type: domain.InputText}}
		b.add(s)
	}
	return &QuestionBuilder{step: s}
}

// Message adds a message step, or returns the existing one with that id.
func (b *Builder) Message(id string) *MessageBuilder {
	s, ok := lookup[*domain.Message](b, id)
	if !ok {
		s = &domain.Message{ID: id}
		b.add(s)
	}
	return &MessageBuilder{step: s}
}

// Lead adds a lead capture step, or returns the existing one with that id.
func (b *Builder) Lead(id string) *LeadBuilder {
	s, ok := lookup[*domain.LeadCapture](b, id)
	if !ok {
		s = &domain.LeadCapture{ID: id}
		b.add(s)
	}
	return &LeadBuilder{step: s}
}

func (b *Builder) add(s domain.Step) {
	b.doc.Steps = append(b.doc.Steps, s)
	if s.StepID() != "" {
		b.index[s.StepID()] = s
	}
}

// lookup finds an existing step of type T. An id already bound to another
// kind is recorded as a build error.
func lookup[T domain.Step](b *Builder, id string) (T, bool) {
	var zero T
	existing, ok := b.index[id]
	if !ok {
		return zero, false
	}
	if s, ok := existing.(T); ok {
		return s, true
	}
	b.errs = append(b.errs, fmt.Errorf("step %q already added as %s", id, existing.Kind()))
	return zero, false
}

// Build validates and returns the document.
// Every call returns a fresh copy, so the builder can keep evolving.
func (b *Builder) Build() (*domain.Document, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("failed to build funnel: %w", errors.Join(b.errs...))
	}
	// Round-trip through the wire format so the result shares nothing with the builder
	data, err := json.Marshal(b.doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build funnel: %w", err)
	}
	doc := &domain.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to build funnel: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid funnel: %w", err)
	}
	return doc, nil
}
