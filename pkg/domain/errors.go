package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyDocument is returned when a run is started on a document without steps.
var ErrEmptyDocument = errors.New("document has no steps")

// ErrInvalidBranchTarget is returned when a chosen option points to a step that does not exist.
var ErrInvalidBranchTarget = errors.New("invalid branch target")

// ErrUnknownStepType is returned when the run lands on a step the runtime cannot render.
var ErrUnknownStepType = errors.New("unknown step type")

// ErrInvalidStepID is returned when a document has an empty or repeated step id.
var ErrInvalidStepID = errors.New("invalid step id")

// ErrMissingOptions is returned when a buttons question has no option to choose.
var ErrMissingOptions = errors.New("buttons question has no options")

// ErrSubmissionTransport marks a failed call to the persistence service.
// It is logged by the recorder and never reaches the lead.
var ErrSubmissionTransport = errors.New("submission transport failed")

// ErrStepNotFound is returned when jumping to an id that is not in the document.
var ErrStepNotFound = errors.New("step not found")

// ErrRunCompleted is returned when advancing a run that already finished.
var ErrRunCompleted = errors.New("run already completed")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrFunnelNotFound is returned when a published funnel id is unknown.
var ErrFunnelNotFound = errors.New("funnel not found")

// ErrSubmissionNotFound is returned when a submission id is unknown.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrorKind classifies structural run errors for the recovery screen.
type ErrorKind string

const (
	ErrorKindNone                ErrorKind = ""
	ErrorKindEmptyDocument       ErrorKind = "empty_document"
	ErrorKindInvalidBranchTarget ErrorKind = "invalid_branch_target"
	ErrorKindUnknownStepType     ErrorKind = "unknown_step_type"
	ErrorKindInvalidStepID       ErrorKind = "invalid_step_id"
	ErrorKindMissingOptions      ErrorKind = "missing_options"
)

// KindOf maps an error to its ErrorKind. Non-structural errors map to ErrorKindNone.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.Is(err, ErrEmptyDocument):
		return ErrorKindEmptyDocument
	case errors.Is(err, ErrInvalidBranchTarget):
		return ErrorKindInvalidBranchTarget
	case errors.Is(err, ErrUnknownStepType):
		return ErrorKindUnknownStepType
	case errors.Is(err, ErrInvalidStepID):
		return ErrorKindInvalidStepID
	case errors.Is(err, ErrMissingOptions):
		return ErrorKindMissingOptions
	}
	return ErrorKindNone
}

// Err returns the sentinel behind a kind.
func (k ErrorKind) Err() error {
	switch k {
	case ErrorKindEmptyDocument:
		return ErrEmptyDocument
	case ErrorKindInvalidBranchTarget:
		return ErrInvalidBranchTarget
	case ErrorKindUnknownStepType:
		return ErrUnknownStepType
	case ErrorKindInvalidStepID:
		return ErrInvalidStepID
	case ErrorKindMissingOptions:
		return ErrMissingOptions
	}
	return nil
}

// BranchError reports an option whose nextStepId is not in the document.
type BranchError struct {
	StepID   string
	OptionID string
	Target   string
}

func (e *BranchError) Error() string {
	if e.OptionID != "" {
		return fmt.Sprintf("step %q option %q: target %q: %v", e.StepID, e.OptionID, e.Target, ErrInvalidBranchTarget)
	}
	return fmt.Sprintf("step %q: target %q: %v", e.StepID, e.Target, ErrInvalidBranchTarget)
}

func (e *BranchError) Unwrap() error { return ErrInvalidBranchTarget }

// StepTypeError reports a step variant the runtime does not handle.
type StepTypeError struct {
	StepID string
	Type   string
}

func (e *StepTypeError) Error() string {
	return fmt.Sprintf("step %q has type %q: %v", e.StepID, e.Type, ErrUnknownStepType)
}

func (e *StepTypeError) Unwrap() error { return ErrUnknownStepType }

// StepIDError reports the step at Index whose id is empty or already used.
type StepIDError struct {
	StepID string
	Index  int
}

func (e *StepIDError) Error() string {
	if e.StepID == "" {
		return fmt.Sprintf("step %d has no id: %v", e.Index, ErrInvalidStepID)
	}
	return fmt.Sprintf("step %d reuses id %q: %v", e.Index, e.StepID, ErrInvalidStepID)
}

func (e *StepIDError) Unwrap() error { return ErrInvalidStepID }

// OptionsError reports a buttons question without options.
type OptionsError struct {
	StepID string
}

func (e *OptionsError) Error() string {
	return fmt.Sprintf("question %q: %v", e.StepID, ErrMissingOptions)
}

func (e *OptionsError) Unwrap() error { return ErrMissingOptions }

// ErrorDetail is the persisted form of a structural run error. It keeps the
// step, option and target the recovery screen points at.
type ErrorDetail struct {
	Kind     ErrorKind `json:"kind"`
	Message  string    `json:"message,omitempty"`
	StepID   string    `json:"stepId,omitempty"`
	OptionID string    `json:"optionId,omitempty"`
	Target   string    `json:"target,omitempty"`
	Type     string    `json:"type,omitempty"`
	Index    int       `json:"index,omitempty"`
}

// DetailOf describes a structural error. It returns nil for other errors.
func DetailOf(err error) *ErrorDetail {
	kind := KindOf(err)
	if kind == ErrorKindNone {
		return nil
	}
	d := &ErrorDetail{Kind: kind, Message: err.Error()}
	var (
		be *BranchError
		te *StepTypeError
		ie *StepIDError
		oe *OptionsError
	)
	switch {
	case errors.As(err, &be):
		d.StepID, d.OptionID, d.Target = be.StepID, be.OptionID, be.Target
	case errors.As(err, &te):
		d.StepID, d.Type = te.StepID, te.Type
	case errors.As(err, &ie):
		d.StepID, d.Index = ie.StepID, ie.Index
	case errors.As(err, &oe):
		d.StepID = oe.StepID
	}
	return d
}

// Err rebuilds the typed error the detail was taken from.
func (d *ErrorDetail) Err() error {
	if d == nil {
		return nil
	}
	switch {
	case d.Kind == ErrorKindInvalidStepID:
		return &StepIDError{StepID: d.StepID, Index: d.Index}
	case d.StepID == "":
		return d.Kind.Err()
	case d.Kind == ErrorKindInvalidBranchTarget:
		return &BranchError{StepID: d.StepID, OptionID: d.OptionID, Target: d.Target}
	case d.Kind == ErrorKindUnknownStepType:
		return &StepTypeError{StepID: d.StepID, Type: d.Type}
	case d.Kind == ErrorKindMissingOptions:
		return &OptionsError{StepID: d.StepID}
	}
	return d.Kind.Err()
}

// TransportError wraps a failed call to the persistence service.
type TransportError struct {
	FunnelID   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("funnel %q: status %d: %v", e.FunnelID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("funnel %q: %v", e.FunnelID, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrSubmissionTransport, e.Err} }
