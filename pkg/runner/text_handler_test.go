package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/funnel/internal/testutils"
	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedFrame(t *testing.T, doc *domain.Document) (*controller.Controller, Frame) {
	t.Helper()
	c := controller.New(doc)
	require.NoError(t, c.OnStart(t.Context()))
	return c, NewFrame(c)
}

func TestTextHandler_Output(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), out, WithTextHandlerRenderer(func(s string) (string, error) {
		return "Rendered: " + s, nil
	}))

	c, frame := startedFrame(t, testutils.SampleDocument())
	require.NoError(t, handler.Output(t.Context(), frame))
	assert.Contains(t, out.String(), "[1/5]")
	assert.Contains(t, out.String(), "Rendered: Find your plan")
	assert.Contains(t, out.String(), "(Enter) Start")

	out.Reset()
	require.NoError(t, c.OnStart(t.Context()))
	require.NoError(t, handler.Output(t.Context(), NewFrame(c)))
	assert.Contains(t, out.String(), "  1) Beginner")
	assert.Contains(t, out.String(), "  2) Expert")
}

func TestTextHandler_Output_Media(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), out)

	doc := &domain.Document{Steps: []domain.Step{
		&domain.Message{ID: "m", Title: "Watch this", Media: domain.Media{Type: domain.MediaVideo, URL: "https://cdn.test/intro.mp4"}},
	}}
	_, frame := startedFrame(t, doc)
	require.NoError(t, handler.Output(t.Context(), frame))
	assert.Contains(t, out.String(), "[video] https://cdn.test/intro.mp4")
	assert.Contains(t, out.String(), "(Enter) Continue")
}

func TestTextHandler_Input(t *testing.T) {
	doc := testutils.SampleDocument()

	tests := []struct {
		name  string
		input string
		// advance moves the controller to the step under test
		advance func(c *controller.Controller)
		want    controller.Intent
	}{
		{
			name:  "Welcome",
			input: "\n",
			want:  controller.Intent{Type: controller.IntentStart},
		},
		{
			name:    "Option by number",
			input:   "2\n",
			advance: func(c *controller.Controller) { _ = c.OnStart(context.Background()) },
			want:    controller.Intent{Type: controller.IntentAnswer, QuestionID: "q1", OptionID: "expert"},
		},
		{
			name:    "Option by text after a bad choice",
			input:   "7\nbeginner\n",
			advance: func(c *controller.Controller) { _ = c.OnStart(context.Background()) },
			want:    controller.Intent{Type: controller.IntentAnswer, QuestionID: "q1", OptionID: "beginner"},
		},
		{
			name:  "Command",
			input: "BACK\n",
			want:  controller.Intent{Type: controller.IntentBack},
		},
		{
			name:  "Jump",
			input: "jump q3\n",
			want:  controller.Intent{Type: controller.IntentJump, StepID: "q3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := startedFrame(t, doc)
			if tt.advance != nil {
				tt.advance(c)
			}
			handler := NewTextHandler(strings.NewReader(tt.input), io.Discard)
			got, err := handler.Input(t.Context(), NewFrame(c))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextHandler_Input_Answers(t *testing.T) {
	c, _ := startedFrame(t, testutils.SampleDocument())
	require.NoError(t, c.OnStart(t.Context()))
	require.NoError(t, c.OnAnswer(t.Context(), "q1", domain.AnswerValue{}, "beginner"))

	handler := NewTextHandler(strings.NewReader("Go \x1b[31mfast\n"), io.Discard)
	got, err := handler.Input(t.Context(), NewFrame(c))
	require.NoError(t, err)
	require.NotNil(t, got.Answer)
	assert.Equal(t, "Go [31mfast", got.Answer.Text)

	require.NoError(t, c.Dispatch(t.Context(), got))

	handler = NewTextHandler(strings.NewReader("\nhttps://cdn.test/a.mp3\n"), io.Discard)
	got, err = handler.Input(t.Context(), NewFrame(c))
	require.NoError(t, err)
	require.NotNil(t, got.Answer)
	require.True(t, got.Answer.IsRecording())
	assert.Equal(t, domain.RecordingVoice, got.Answer.Recording.Kind)
	assert.Equal(t, "https://cdn.test/a.mp3", got.Answer.Recording.URL)
}

func TestTextHandler_Input_Contact(t *testing.T) {
	doc := &domain.Document{Steps: []domain.Step{
		&domain.LeadCapture{ID: "lead", Title: "Contact", SubscriptionText: "Send me news"},
	}}
	_, frame := startedFrame(t, doc)

	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("Ada\nada@example.com\n555\nyes\n"), out)
	got, err := handler.Input(t.Context(), frame)
	require.NoError(t, err)

	assert.Equal(t, controller.IntentSubmit, got.Type)
	require.NotNil(t, got.Contact)
	assert.Equal(t, domain.ContactInfo{Name: "Ada", Email: "ada@example.com", Phone: "555", Consent: true}, *got.Contact)
	assert.Contains(t, out.String(), "Send me news [y/N]")
}

func TestTextHandler_Input_Quit(t *testing.T) {
	_, frame := startedFrame(t, testutils.QuestionsDocument("q1"))

	for _, input := range []string{"exit\n", "quit\n", ""} {
		handler := NewTextHandler(strings.NewReader(input), io.Discard)
		_, err := handler.Input(t.Context(), frame)
		assert.ErrorIs(t, err, io.EOF, "input %q", input)
	}
}

func TestTextHandler_Input_RejectsOversizedLine(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "8")
	_, frame := startedFrame(t, testutils.QuestionsDocument("q1"))

	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("far too long for the limit\nok\n"), out)
	got, err := handler.Input(t.Context(), frame)
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Answer.Text)
	assert.Contains(t, out.String(), "Please try again")
}

func TestTextHandler_Confirm(t *testing.T) {
	handler := NewTextHandler(strings.NewReader("Y\nno\n"), io.Discard)

	ok, err := handler.Confirm(t.Context(), "Sure?")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = handler.Confirm(t.Context(), "Sure?")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTextHandler_SystemOutput(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewTextHandler(nil, out)
	require.NoError(t, handler.SystemOutput(t.Context(), "saved"))
	assert.Equal(t, "[System] saved\n", out.String())
}
