package controller

import (
	"context"
	"fmt"

	"github.com/aretw0/funnel/pkg/domain"
)

// IntentType names a user intent in serialized form.
type IntentType string

const (
	IntentStart    IntentType = "start"
	IntentContinue IntentType = "continue"
	IntentAnswer   IntentType = "answer"
	IntentBack     IntentType = "back"
	IntentRestart  IntentType = "restart"
	IntentRetry    IntentType = "retry"
	IntentEdit     IntentType = "edit"
	IntentResume   IntentType = "resume"
	IntentSubmit   IntentType = "submit"
	IntentJump     IntentType = "jump"
)

// Intent is a serializable user action, used by hosts that receive intents over a wire.
type Intent struct {
	Type       IntentType          `json:"type" mapstructure:"type"`
	QuestionID string              `json:"questionId,omitempty" mapstructure:"question_id"`
	OptionID   string              `json:"optionId,omitempty" mapstructure:"option_id"`
	StepID     string              `json:"stepId,omitempty" mapstructure:"step_id"`
	Answer     *domain.AnswerValue `json:"answer,omitempty" mapstructure:"-"`
	Contact    *domain.ContactInfo `json:"contact,omitempty" mapstructure:"-"`
}

// Dispatch applies an intent to the controller.
func (c *Controller) Dispatch(ctx context.Context, in Intent) error {
	switch in.Type {
	case IntentStart:
		return c.OnStart(ctx)
	case IntentContinue:
		return c.OnContinue(ctx)
	case IntentAnswer:
		var value domain.AnswerValue
		if in.Answer != nil {
			value = *in.Answer
		}
		questionID := in.QuestionID
		if questionID == "" {
			questionID = c.nav.CurrentStepID
		}
		return c.OnAnswer(ctx, questionID, value, in.OptionID)
	case IntentBack:
		return c.OnBack(ctx)
	case IntentRestart:
		return c.OnRestart(ctx)
	case IntentRetry:
		return c.OnRetry(ctx)
	case IntentEdit:
		c.OnEditRequested()
		return nil
	case IntentResume:
		c.OnResume()
		return nil
	case IntentJump:
		return c.OnJumpTo(ctx, in.StepID)
	case IntentSubmit:
		var contact domain.ContactInfo
		if in.Contact != nil {
			contact = *in.Contact
		}
		_, err := c.OnSubmitLead(ctx, contact)
		return err
	}
	return fmt.Errorf("intent %q: %w", in.Type, ErrInvalidIntent)
}
