package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/funnel/internal/testutils"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_JSONRoundTrip(t *testing.T) {
	doc := testutils.SampleDocument()
	doc.ContactNumber = "+55 (11) 99999-0000"
	doc.Theme = domain.Theme{Font: "Inter", Colors: map[string]string{"primary": "#123456"}}

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var got domain.Document
	require.NoError(t, json.Unmarshal(data, &got))

	if diff := cmp.Diff(*doc, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDocument_DecodeWireFormat(t *testing.T) {
	raw := `{
		"steps": [
			{"id": "w", "type": 0, "title": "Hi", "buttonText": "Go", "media": {"type": "image", "url": "https://img/1.png"}},
			{"id": "q", "type": 1, "question": "Pick", "answerInput": {"type": "buttons"},
			 "options": [{"id": "a", "text": "A", "nextStepId": "l"}, {"id": "b", "text": "B"}]},
			{"id": "m", "type": "message", "title": "Note", "buttonText": "Next"},
			{"id": "l", "type": 3, "title": "Contact", "subtitle": "Leave your data", "socialLinks": [{"id": "s1", "type": "instagram", "url": "https://instagram.com/x"}]}
		],
		"theme": {"font": "Inter"},
		"whatsappNumber": "5511999990000",
		"maxSteps": 10
	}`

	doc := testutils.ParseDocument(t, raw)

	require.Len(t, doc.Steps, 4)
	assert.Equal(t, domain.KindWelcome, doc.Steps[0].Kind())
	assert.Equal(t, domain.KindQuestion, doc.Steps[1].Kind())
	assert.Equal(t, domain.KindMessage, doc.Steps[2].Kind())
	assert.Equal(t, domain.KindLeadCapture, doc.Steps[3].Kind())

	w := doc.Steps[0].(*domain.Welcome)
	assert.Equal(t, "https://img/1.png", w.Media.URL)

	q := doc.Steps[1].(*domain.Question)
	assert.Equal(t, domain.InputButtons, q.Input.Type)
	opt, ok := q.OptionByID("a")
	require.True(t, ok)
	assert.Equal(t, "l", opt.NextStepID)

	l := doc.Steps[3].(*domain.LeadCapture)
	assert.Equal(t, "Leave your data", l.Subtitle)
	require.Len(t, l.SocialLinks, 1)

	assert.Equal(t, "5511999990000", doc.ContactNumber)
	assert.Equal(t, 10, doc.StepLimit())
}

func TestDocument_DecodeUnknownType(t *testing.T) {
	doc := testutils.ParseDocument(t, `{"steps": [{"id": "x", "type": 7}, {"id": "y", "type": "carousel"}]}`)

	require.Len(t, doc.Steps, 2)
	for _, s := range doc.Steps {
		_, ok := s.(*domain.UnknownStep)
		assert.True(t, ok, "step %s should decode as unknown", s.StepID())
	}
	assert.Equal(t, "carousel", doc.Steps[1].(*domain.UnknownStep).RawType)
}

func TestDocument_QuestionWithoutInputDefaultsToText(t *testing.T) {
	doc := testutils.ParseDocument(t, `{"steps": [{"id": "q", "type": 1, "question": "Why?"}]}`)

	q := doc.Steps[0].(*domain.Question)
	assert.Equal(t, domain.InputText, q.Input.Type)
}

func TestAnswerValue_JSON(t *testing.T) {
	var values map[string]domain.AnswerValue
	err := json.Unmarshal([]byte(`{"q1": "hello", "q2": {"type": "voice", "url": "https://media/v.webm"}}`), &values)
	require.NoError(t, err)

	assert.Equal(t, "hello", values["q1"].Text)
	assert.False(t, values["q1"].IsRecording())
	require.True(t, values["q2"].IsRecording())
	assert.Equal(t, domain.RecordingVoice, values["q2"].Recording.Kind)

	out, err := json.Marshal(values["q2"])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "voice", "url": "https://media/v.webm"}`, string(out))

	err = json.Unmarshal([]byte(`{"q": 42}`), &values)
	assert.Error(t, err)
}
