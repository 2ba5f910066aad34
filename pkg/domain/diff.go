package domain

import (
	"reflect"
)

// SnapshotDiff represents the changes between two snapshots of a run.
// It is serialized to JSON for partial updates on the client.
type SnapshotDiff struct {
	SessionID string `json:"session_id"`

	CurrentStepID *string `json:"current_step_id,omitempty"`
	Phase         *Phase  `json:"phase,omitempty"`
	Completed     *bool   `json:"completed,omitempty"`

	// Answers contains changed or added answers. A nil value means the answer was removed.
	Answers map[string]*AnswerValue `json:"answers,omitempty"`

	History *HistoryDelta `json:"history,omitempty"`

	SubmissionID *string `json:"submission_id,omitempty"`
}

// HistoryDelta represents changes to the history stack.
// Truncated entries are dropped from the end before Appended is applied.
type HistoryDelta struct {
	Truncated int      `json:"truncated,omitempty"`
	Appended  []string `json:"appended,omitempty"`
}

// Diff calculates the difference between oldSnap and newSnap.
// If oldSnap is nil, it returns a diff representing the entire newSnap (initial load).
func Diff(oldSnap, newSnap *Snapshot) *SnapshotDiff {
	if newSnap == nil {
		return nil
	}

	diff := &SnapshotDiff{SessionID: newSnap.SessionID}

	if oldSnap == nil || oldSnap.Navigation.CurrentStepID != newSnap.Navigation.CurrentStepID {
		id := newSnap.Navigation.CurrentStepID
		diff.CurrentStepID = &id
	}
	if oldSnap == nil || oldSnap.Phase != newSnap.Phase {
		p := newSnap.Phase
		diff.Phase = &p
	}
	if (oldSnap == nil && newSnap.Navigation.Completed) ||
		(oldSnap != nil && oldSnap.Navigation.Completed != newSnap.Navigation.Completed) {
		c := newSnap.Navigation.Completed
		diff.Completed = &c
	}
	if newSnap.Submission != nil && (oldSnap == nil || oldSnap.Submission == nil || oldSnap.Submission.ID != newSnap.Submission.ID) {
		id := newSnap.Submission.ID
		diff.SubmissionID = &id
	}

	diff.Answers = diffAnswers(oldSnap, newSnap)
	diff.History = diffHistory(oldSnap, newSnap)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffAnswers(oldSnap, newSnap *Snapshot) map[string]*AnswerValue {
	delta := make(map[string]*AnswerValue)

	var old AnswerStore
	if oldSnap != nil {
		old = oldSnap.Answers
	}

	for _, k := range newSnap.Answers.Keys() {
		newVal, _ := newSnap.Answers.Get(k)
		oldVal, exists := old.Get(k)
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			v := newVal
			delta[k] = &v
		}
	}

	for _, k := range old.Keys() {
		if _, exists := newSnap.Answers.Get(k); !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffHistory(oldSnap, newSnap *Snapshot) *HistoryDelta {
	newHist := newSnap.Navigation.History
	if oldSnap == nil {
		if len(newHist) == 0 {
			return nil
		}
		return &HistoryDelta{Appended: newHist}
	}
	oldHist := oldSnap.Navigation.History

	common := 0
	for common < len(oldHist) && common < len(newHist) && oldHist[common] == newHist[common] {
		common++
	}
	if common == len(oldHist) && common == len(newHist) {
		return nil
	}

	delta := &HistoryDelta{Truncated: len(oldHist) - common}
	if common < len(newHist) {
		delta.Appended = newHist[common:]
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d.CurrentStepID == nil &&
		d.Phase == nil &&
		d.Completed == nil &&
		len(d.Answers) == 0 &&
		d.History == nil &&
		d.SubmissionID == nil
}
