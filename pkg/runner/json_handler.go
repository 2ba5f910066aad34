package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/domain"
)

// Event types written by JSONHandler, one JSON object per line.
const (
	EventView    = "view"
	EventConfirm = "confirm"
	EventSystem  = "system"
)

// Event is one JSON line emitted by JSONHandler.
type Event struct {
	Type    string           `json:"type"`
	View    *controller.View `json:"view,omitempty"`
	Message string           `json:"message,omitempty"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, frame Frame) error {
	v := frame.View
	return h.Encoder.Encode(Event{Type: EventView, View: &v})
}

// Input reads one line: either an intent object or a JSON string (or plain text)
// taken as the answer to the current question.
func (h *JSONHandler) Input(ctx context.Context, frame Frame) (controller.Intent, error) {
	text, err := h.readLine(ctx)
	if err != nil {
		return controller.Intent{}, err
	}

	if strings.HasPrefix(text, "{") {
		var in controller.Intent
		if err := json.Unmarshal([]byte(text), &in); err != nil {
			return controller.Intent{}, fmt.Errorf("decode intent: %w", err)
		}
		if err := SanitizeIntent(&in); err != nil {
			return controller.Intent{}, err
		}
		return in, nil
	}

	// Try to unquote if it's a JSON string
	var val string
	if err := json.Unmarshal([]byte(text), &val); err != nil {
		// Fallback: raw text (e.g. if they just sent plain text)
		val = text
	}
	if val == "exit" || val == "quit" {
		return controller.Intent{}, io.EOF
	}
	val, err = SanitizeInput(val)
	if err != nil {
		return controller.Intent{}, err
	}

	switch s := frame.Step.(type) {
	case *domain.Welcome:
		return controller.Intent{Type: controller.IntentStart}, nil
	case *domain.Message:
		return controller.Intent{Type: controller.IntentContinue}, nil
	case *domain.Question:
		in := controller.Intent{Type: controller.IntentAnswer, QuestionID: s.ID}
		if s.Input.Type == domain.InputButtons {
			if opt, ok := s.OptionByText(val); ok {
				in.OptionID = opt.ID
				return in, nil
			}
			in.OptionID = val
			return in, nil
		}
		answer := domain.TextAnswer(val)
		in.Answer = &answer
		return in, nil
	}
	return controller.Intent{}, fmt.Errorf("bare value in phase %s: %w", frame.View.Phase, controller.ErrInvalidIntent)
}

func (h *JSONHandler) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := h.Encoder.Encode(Event{Type: EventConfirm, Message: prompt}); err != nil {
		return false, err
	}
	text, err := h.readLine(ctx)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := json.Unmarshal([]byte(text), &ok); err != nil {
		return false, fmt.Errorf("confirm expects true or false: %w", err)
	}
	return ok, nil
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(Event{Type: EventSystem, Message: msg})
}

func (h *JSONHandler) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := h.Reader.ReadString('\n')
	text = strings.TrimSpace(text)
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	return text, nil
}
