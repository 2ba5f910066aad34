package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// RecordingKind is the medium of a recorded answer.
type RecordingKind string

const (
	RecordingVoice RecordingKind = "voice"
	RecordingVideo RecordingKind = "video"
)

// Recording references an uploaded voice or video answer.
type Recording struct {
	Kind RecordingKind `json:"type"`
	URL  string        `json:"url"`
}

// AnswerValue is either free text or a recording reference.
// On the wire it is a JSON string or an object {type, url}.
type AnswerValue struct {
	Text      string
	Recording *Recording
}

// TextAnswer builds a text answer.
func TextAnswer(s string) AnswerValue { return AnswerValue{Text: s} }

// RecordingAnswer builds a recording answer.
func RecordingAnswer(kind RecordingKind, url string) AnswerValue {
	return AnswerValue{Recording: &Recording{Kind: kind, URL: url}}
}

// IsRecording reports whether the value references a recording.
func (v AnswerValue) IsRecording() bool { return v.Recording != nil }

// String renders the value for display.
func (v AnswerValue) String() string {
	if v.Recording != nil {
		return fmt.Sprintf("[%s] %s", v.Recording.Kind, v.Recording.URL)
	}
	return v.Text
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	if v.Recording != nil {
		return json.Marshal(v.Recording)
	}
	return json.Marshal(v.Text)
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = AnswerValue{Text: s}
		return nil
	}
	var r Recording
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("answer must be a string or a recording: %w", err)
	}
	*v = AnswerValue{Recording: &r}
	return nil
}

// AnswerStore maps question ids to answers. It is a value type:
// Record returns a new store and never mutates the receiver.
type AnswerStore struct {
	values map[string]AnswerValue
}

// NewAnswerStore returns an empty store.
func NewAnswerStore() AnswerStore {
	return AnswerStore{}
}

// Record returns a copy of the store with questionID set to value. Last write wins.
func (a AnswerStore) Record(questionID string, value AnswerValue) AnswerStore {
	next := make(map[string]AnswerValue, len(a.values)+1)
	for k, v := range a.values {
		next[k] = v
	}
	next[questionID] = value
	return AnswerStore{values: next}
}

// Get returns the answer for questionID.
func (a AnswerStore) Get(questionID string) (AnswerValue, bool) {
	v, ok := a.values[questionID]
	return v, ok
}

// Len returns the number of recorded answers.
func (a AnswerStore) Len() int { return len(a.values) }

// Keys returns the recorded question ids, sorted.
func (a AnswerStore) Keys() []string {
	keys := make([]string, 0, len(a.values))
	for k := range a.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Analyze lists answered questions in document order. Answers whose question
// is not in doc are omitted.
func (a AnswerStore) Analyze(doc *Document) []AnalyzedAnswer {
	out := make([]AnalyzedAnswer, 0, len(a.values))
	for _, q := range doc.Questions() {
		v, ok := a.values[q.ID]
		if !ok {
			continue
		}
		out = append(out, AnalyzedAnswer{
			QuestionID:   q.ID,
			QuestionText: q.Prompt,
			Answer:       v,
		})
	}
	return out
}

func (a AnswerStore) MarshalJSON() ([]byte, error) {
	if a.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a.values)
}

func (a *AnswerStore) UnmarshalJSON(data []byte) error {
	var m map[string]AnswerValue
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	a.values = m
	return nil
}
