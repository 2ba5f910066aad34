package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type documentWire struct {
	Steps          []stepWire `json:"steps"`
	Theme          Theme      `json:"theme"`
	RedirectURL    string     `json:"redirectUrl,omitempty"`
	WhatsAppNumber string     `json:"whatsappNumber,omitempty"`
	ContactNumber  string     `json:"contactNumber,omitempty"`
	MaxSteps       int        `json:"maxSteps,omitempty"`
}

// stepWire is the flattened JSON shape shared by every step variant.
type stepWire struct {
	ID               string          `json:"id"`
	Type             json.RawMessage `json:"type"`
	Title            string          `json:"title,omitempty"`
	Subtitle         string          `json:"subtitle,omitempty"`
	Question         string          `json:"question,omitempty"`
	ButtonText       string          `json:"buttonText,omitempty"`
	AnswerInput      *AnswerInput    `json:"answerInput,omitempty"`
	Options          []Option        `json:"options,omitempty"`
	NamePlaceholder  string          `json:"namePlaceholder,omitempty"`
	EmailPlaceholder string          `json:"emailPlaceholder,omitempty"`
	PhonePlaceholder string          `json:"phonePlaceholder,omitempty"`
	SubscriptionText string          `json:"subscriptionText,omitempty"`
	PrivacyPolicyURL string          `json:"privacyPolicyUrl,omitempty"`
	SocialLinks      []SocialLink    `json:"socialLinks,omitempty"`
	Media            *Media          `json:"media,omitempty"`
}

// MarshalJSON encodes the document in the wire format used by share links
// and the persistence service. Step types are numeric.
func (d Document) MarshalJSON() ([]byte, error) {
	w := documentWire{
		Steps:          make([]stepWire, 0, len(d.Steps)),
		Theme:          d.Theme,
		RedirectURL:    d.RedirectURL,
		WhatsAppNumber: d.ContactNumber,
		MaxSteps:       d.MaxSteps,
	}
	for _, s := range d.Steps {
		sw, err := encodeStep(s)
		if err != nil {
			return nil, err
		}
		w.Steps = append(w.Steps, sw)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a document. Step types may be numeric or textual;
// unrecognized types decode to UnknownStep.
func (d *Document) UnmarshalJSON(data []byte) error {
	var w documentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	doc := Document{
		Steps:         make([]Step, 0, len(w.Steps)),
		Theme:         w.Theme,
		RedirectURL:   w.RedirectURL,
		ContactNumber: w.WhatsAppNumber,
		MaxSteps:      w.MaxSteps,
	}
	if doc.ContactNumber == "" {
		doc.ContactNumber = w.ContactNumber
	}
	for i, sw := range w.Steps {
		s, err := decodeStep(sw)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		doc.Steps = append(doc.Steps, s)
	}
	*d = doc
	return nil
}

func encodeStep(s Step) (stepWire, error) {
	sw := stepWire{ID: s.StepID()}
	if m := s.MediaRef(); !m.IsZero() {
		sw.Media = &m
	}
	switch v := s.(type) {
	case *Welcome:
		sw.Title = v.Title
		sw.ButtonText = v.ButtonText
	case *Question:
		sw.Question = v.Prompt
		in := v.Input
		sw.AnswerInput = &in
		sw.Options = v.Options
	case *Message:
		sw.Title = v.Title
		sw.ButtonText = v.ButtonText
	case *LeadCapture:
		sw.Title = v.Title
		sw.Subtitle = v.Subtitle
		sw.NamePlaceholder = v.NamePlaceholder
		sw.EmailPlaceholder = v.EmailPlaceholder
		sw.PhonePlaceholder = v.PhonePlaceholder
		sw.SubscriptionText = v.SubscriptionText
		sw.PrivacyPolicyURL = v.PrivacyPolicyURL
		sw.ButtonText = v.ButtonText
		sw.SocialLinks = v.SocialLinks
	case *UnknownStep:
		sw.Type = json.RawMessage(strconv.Quote(v.RawType))
		return sw, nil
	default:
		return sw, &StepTypeError{StepID: s.StepID(), Type: fmt.Sprintf("%T", s)}
	}
	sw.Type = json.RawMessage(strconv.Itoa(int(s.Kind())))
	return sw, nil
}

func decodeStep(sw stepWire) (Step, error) {
	kind, raw, ok := parseKind(sw.Type)
	if !ok {
		return &UnknownStep{ID: sw.ID, RawType: raw}, nil
	}
	var media Media
	if sw.Media != nil {
		media = *sw.Media
	}
	switch kind {
	case KindWelcome:
		return &Welcome{ID: sw.ID, Title: sw.Title, ButtonText: sw.ButtonText, Media: media}, nil
	case KindQuestion:
		q := &Question{ID: sw.ID, Prompt: sw.Question, Options: sw.Options, Media: media}
		if sw.AnswerInput != nil {
			q.Input = *sw.AnswerInput
		} else {
			q.Input = AnswerInput{Type: InputText}
		}
		return q, nil
	case KindMessage:
		return &Message{ID: sw.ID, Title: sw.Title, ButtonText: sw.ButtonText, Media: media}, nil
	case KindLeadCapture:
		return &LeadCapture{
			ID:               sw.ID,
			Title:            sw.Title,
			Subtitle:         sw.Subtitle,
			NamePlaceholder:  sw.NamePlaceholder,
			EmailPlaceholder: sw.EmailPlaceholder,
			PhonePlaceholder: sw.PhonePlaceholder,
			SubscriptionText: sw.SubscriptionText,
			PrivacyPolicyURL: sw.PrivacyPolicyURL,
			ButtonText:       sw.ButtonText,
			SocialLinks:      sw.SocialLinks,
			Media:            media,
		}, nil
	}
	return &UnknownStep{ID: sw.ID, RawType: raw}, nil
}

func parseKind(raw json.RawMessage) (StepKind, string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, "", false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		k := StepKind(n)
		_, known := stepKindNames[k]
		return k, strconv.Itoa(n), known
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			k := StepKind(n)
			_, known := stepKindNames[k]
			return k, s, known
		}
		k, known := ParseStepKind(s)
		return k, s, known
	}
	return 0, string(raw), false
}

// EncodeStep renders a single step in the document wire format.
func EncodeStep(s Step) (json.RawMessage, error) {
	sw, err := encodeStep(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sw)
}
