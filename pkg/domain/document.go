package domain

import (
	"strings"
)

// DefaultMaxSteps is the authoring limit applied when a document sets none.
const DefaultMaxSteps = 15

// Theme is opaque presentation data carried with the document.
type Theme struct {
	Font   string            `json:"font,omitempty" yaml:"font,omitempty"`
	Colors map[string]string `json:"colors,omitempty" yaml:"colors,omitempty"`
}

// Document is the authored funnel definition. It is immutable during a run.
type Document struct {
	Steps         []Step
	Theme         Theme
	RedirectURL   string
	ContactNumber string
	MaxSteps      int
}

// Len returns the number of steps.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Steps)
}

// IndexOf returns the position of the step with the given id, or -1.
func (d *Document) IndexOf(id string) int {
	if d == nil || id == "" {
		return -1
	}
	for i, s := range d.Steps {
		if s.StepID() == id {
			return i
		}
	}
	return -1
}

// StepByID returns the step with the given id.
func (d *Document) StepByID(id string) (Step, bool) {
	i := d.IndexOf(id)
	if i < 0 {
		return nil, false
	}
	return d.Steps[i], true
}

// StepLimit returns MaxSteps or DefaultMaxSteps when unset.
func (d *Document) StepLimit() int {
	if d == nil || d.MaxSteps <= 0 {
		return DefaultMaxSteps
	}
	return d.MaxSteps
}

// RedirectTarget returns where the host should send the lead after confirmation:
// the redirect URL when set, otherwise a WhatsApp link built from the contact number.
func (d *Document) RedirectTarget() string {
	if d == nil {
		return ""
	}
	if u := strings.TrimSpace(d.RedirectURL); u != "" {
		return u
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, d.ContactNumber)
	if digits == "" {
		return ""
	}
	return "https://wa.me/" + digits
}

// Questions returns the Question steps in document order.
func (d *Document) Questions() []*Question {
	if d == nil {
		return nil
	}
	var out []*Question
	for _, s := range d.Steps {
		if q, ok := s.(*Question); ok {
			out = append(out, q)
		}
	}
	return out
}
