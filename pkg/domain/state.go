package domain

import "time"

// Phase is the lifecycle position of a funnel run.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseInProgress    Phase = "in_progress"
	PhaseCompleted     Phase = "completed"
	PhaseLeadConfirmed Phase = "lead_confirmed"
	PhaseError         Phase = "error"
)

// NavigationState is the position of a run inside a Document.
type NavigationState struct {
	// CurrentStepID is empty once the run has moved past the last step.
	CurrentStepID string `json:"currentStepId"`

	// History lists visited step ids, oldest first. The last entry is the current step.
	History []string `json:"history"`

	// Completed is set when the run advanced past the last step.
	Completed bool `json:"completed"`
}

// Clone returns a copy that shares no memory with s.
func (s NavigationState) Clone() NavigationState {
	next := s
	next.History = append([]string(nil), s.History...)
	return next
}

// Snapshot is the persisted form of a run, used by hosts that keep runs
// across requests.
type Snapshot struct {
	SessionID      string          `json:"sessionId"`
	Document       *Document       `json:"document"`
	Navigation     NavigationState `json:"navigation"`
	Answers        AnswerStore     `json:"answers"`
	Phase          Phase           `json:"phase"`
	ErrorKind      ErrorKind       `json:"errorKind,omitempty"`
	ErrorDetail    *ErrorDetail    `json:"errorDetail,omitempty"`
	Submission     *Submission     `json:"submission,omitempty"`
	RemoteFunnelID string          `json:"remoteFunnelId,omitempty"`
	Editing        bool            `json:"editing,omitempty"`
	UpdatedAt      time.Time       `json:"updatedAt"`

	// Sealed is set on envelopes written by an encrypting store wrapper.
	// An envelope carries only SessionID, Phase and UpdatedAt in clear.
	Sealed []byte `json:"sealed,omitempty"`
}
