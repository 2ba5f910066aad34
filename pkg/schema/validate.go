package schema

import (
	"fmt"

	"github.com/aretw0/funnel/pkg/domain"
)

// Validate lints a document. It returns an *AggregateError listing every problem found.
func Validate(doc *domain.Document) error {
	if doc == nil || len(doc.Steps) == 0 {
		return &AggregateError{Errors: []error{
			&ValidationError{Key: "steps", Reason: domain.ErrEmptyDocument.Error()},
		}}
	}

	var errs []error
	add := func(key, reason string, value any) {
		errs = append(errs, &ValidationError{Key: key, Reason: reason, Value: value})
	}

	if limit := doc.StepLimit(); len(doc.Steps) > limit {
		add("steps", fmt.Sprintf("at most %d steps allowed", limit), len(doc.Steps))
	}

	seen := make(map[string]int, len(doc.Steps))
	for i, s := range doc.Steps {
		key := fmt.Sprintf("steps[%d]", i)
		id := s.StepID()
		if id == "" {
			add(key+".id", "required", nil)
		} else if prev, dup := seen[id]; dup {
			add(key+".id", fmt.Sprintf("duplicates steps[%d]", prev), id)
		} else {
			seen[id] = i
		}

		if m := s.MediaRef(); !m.IsZero() {
			switch m.Type {
			case domain.MediaImage, domain.MediaVideo, domain.MediaAudio:
			default:
				add(key+".media.type", "must be image, video or audio", m.Type)
			}
		}
	}

	for i, s := range doc.Steps {
		key := fmt.Sprintf("steps[%d]", i)
		switch v := s.(type) {
		case *domain.Welcome, *domain.Message:
		case *domain.Question:
			errs = append(errs, validateQuestion(key, v, seen)...)
		case *domain.LeadCapture:
			if v.PrivacyPolicyURL == "" && v.SubscriptionText != "" {
				add(key+".privacyPolicyUrl", "required when subscriptionText is set", nil)
			}
		case *domain.UnknownStep:
			add(key+".type", domain.ErrUnknownStepType.Error(), v.RawType)
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func validateQuestion(key string, q *domain.Question, ids map[string]int) []error {
	var errs []error
	if q.Prompt == "" {
		errs = append(errs, &ValidationError{Key: key + ".question", Reason: "required"})
	}
	if !q.Input.Type.Valid() {
		errs = append(errs, &ValidationError{Key: key + ".answerInput.type", Reason: "must be buttons, text, voice or video", Value: q.Input.Type})
	}
	if q.Input.Type == domain.InputButtons && len(q.Options) == 0 {
		errs = append(errs, &ValidationError{Key: key + ".options", Reason: "buttons question needs at least one option"})
	}

	optionIDs := make(map[string]bool, len(q.Options))
	for j, o := range q.Options {
		okey := fmt.Sprintf("%s.options[%d]", key, j)
		if o.ID == "" {
			errs = append(errs, &ValidationError{Key: okey + ".id", Reason: "required"})
		} else if optionIDs[o.ID] {
			errs = append(errs, &ValidationError{Key: okey + ".id", Reason: "duplicate option id", Value: o.ID})
		}
		optionIDs[o.ID] = true

		if o.NextStepID != "" {
			if _, ok := ids[o.NextStepID]; !ok {
				errs = append(errs, &ValidationError{Key: okey + ".nextStepId", Reason: domain.ErrInvalidBranchTarget.Error(), Value: o.NextStepID})
			}
		}
	}
	return errs
}
