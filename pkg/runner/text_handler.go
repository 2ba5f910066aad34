package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/domain"
	"golang.org/x/term"
)

// Commands accepted on any prompt.
const (
	CommandBack    = "back"
	CommandRestart = "restart"
	CommandRetry   = "retry"
	CommandEdit    = "edit"
	CommandResume  = "resume"
	// CommandJump takes a step id: "jump q3".
	CommandJump = "jump"
)

var errRetryPrompt = errors.New("retry prompt")

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	source      io.Reader
	interactive bool // true if reading from a terminal
	Reader      *bufio.Reader
	Writer      io.Writer
	Renderer    ContentRenderer

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		source:      r,
		Writer:      w,
		interactive: isTerminal(r),
	}
	h.Reader = bufio.NewReader(h.source)

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Interactive reports whether input comes from a terminal.
func (h *TextHandler) Interactive() bool { return h.interactive }

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')

		// If we got text (even with EOF), send it
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}

		if err != nil {
			if err == io.EOF {
				close(h.inputChan)
				return
			}
			h.inputChan <- inputResult{err: err}
			// Backoff for non-fatal errors to prevent CPU spikes on persistent failure
			time.Sleep(50 * time.Millisecond)
		}
	}
}

func (h *TextHandler) render(s string) string {
	if h.Renderer != nil {
		if rendered, err := h.Renderer(s); err == nil {
			return strings.TrimSpace(rendered)
		}
	}
	return strings.TrimSpace(s)
}

func (h *TextHandler) Output(ctx context.Context, frame Frame) error {
	v := frame.View
	switch {
	case v.Phase == domain.PhaseError:
		fmt.Fprintf(h.Writer, "\nThis funnel cannot be shown (%s). Type '%s' to start over.\n", v.ErrorKind, CommandRetry)
		return nil
	case v.Phase == domain.PhaseLeadConfirmed:
		fmt.Fprintln(h.Writer, "\nThanks! Your answers were sent.")
		if v.Submission != nil {
			fmt.Fprintf(h.Writer, "Reference: %s (%s)\n", v.Submission.ID, v.Submission.Origin)
		}
		if v.Redirect != "" {
			fmt.Fprintf(h.Writer, "Continue at %s\n", v.Redirect)
		}
		return nil
	case v.Completed:
		fmt.Fprintln(h.Writer, "\nYou reached the end. Thanks for your answers!")
		return nil
	case frame.Step == nil:
		return nil
	}

	fmt.Fprintf(h.Writer, "\n[%d/%d]\n", v.Position, v.TotalSteps)
	if m := frame.Step.MediaRef(); !m.IsZero() {
		fmt.Fprintf(h.Writer, "[%s] %s\n", m.Type, m.URL)
	}

	switch s := frame.Step.(type) {
	case *domain.Welcome:
		fmt.Fprintln(h.Writer, h.render(s.Title))
		fmt.Fprintf(h.Writer, "(Enter) %s\n", orDefault(s.ButtonText, "Start"))
	case *domain.Message:
		fmt.Fprintln(h.Writer, h.render(s.Title))
		fmt.Fprintf(h.Writer, "(Enter) %s\n", orDefault(s.ButtonText, "Continue"))
	case *domain.Question:
		fmt.Fprintln(h.Writer, h.render(s.Prompt))
		switch s.Input.Type {
		case domain.InputButtons:
			for i, opt := range s.Options {
				fmt.Fprintf(h.Writer, "  %d) %s\n", i+1, opt.Text)
			}
		case domain.InputVoice, domain.InputVideo:
			fmt.Fprintf(h.Writer, "(paste the URL of your %s recording)\n", s.Input.Type)
		}
	case *domain.LeadCapture:
		fmt.Fprintln(h.Writer, h.render(s.Title))
		if s.Subtitle != "" {
			fmt.Fprintln(h.Writer, h.render(s.Subtitle))
		}
		for _, link := range s.SocialLinks {
			fmt.Fprintf(h.Writer, "  %s: %s\n", link.Type, link.URL)
		}
		fmt.Fprintf(h.Writer, "(%s)\n", orDefault(s.NamePlaceholder, "Name"))
	}
	if v.Editing {
		fmt.Fprintf(h.Writer, "(editing, type '%s' to continue)\n", CommandResume)
	}
	return nil
}

func (h *TextHandler) Input(ctx context.Context, frame Frame) (controller.Intent, error) {
	for {
		in, err := h.readIntent(ctx, frame)
		if errors.Is(err, errRetryPrompt) {
			continue
		}
		return in, err
	}
}

func (h *TextHandler) readIntent(ctx context.Context, frame Frame) (controller.Intent, error) {
	text, err := h.readLine(ctx, "> ")
	if err != nil {
		return controller.Intent{}, err
	}

	if cmd, target, ok := strings.Cut(text, " "); ok && strings.EqualFold(cmd, CommandJump) {
		return controller.Intent{Type: controller.IntentJump, StepID: strings.TrimSpace(target)}, nil
	}

	switch strings.ToLower(text) {
	case "exit", "quit":
		return controller.Intent{}, io.EOF
	case CommandBack:
		return controller.Intent{Type: controller.IntentBack}, nil
	case CommandRestart:
		return controller.Intent{Type: controller.IntentRestart}, nil
	case CommandRetry:
		return controller.Intent{Type: controller.IntentRetry}, nil
	case CommandEdit:
		return controller.Intent{Type: controller.IntentEdit}, nil
	case CommandResume:
		return controller.Intent{Type: controller.IntentResume}, nil
	}

	if frame.View.Phase == domain.PhaseError {
		return controller.Intent{Type: controller.IntentRetry}, nil
	}

	switch s := frame.Step.(type) {
	case *domain.Welcome:
		return controller.Intent{Type: controller.IntentStart}, nil
	case *domain.Message:
		return controller.Intent{Type: controller.IntentContinue}, nil
	case *domain.Question:
		return h.answer(s, text)
	case *domain.LeadCapture:
		return h.contact(ctx, s, text)
	}
	return controller.Intent{}, fmt.Errorf("nothing to answer: %w", controller.ErrInvalidIntent)
}

func (h *TextHandler) answer(q *domain.Question, text string) (controller.Intent, error) {
	in := controller.Intent{Type: controller.IntentAnswer, QuestionID: q.ID}
	switch q.Input.Type {
	case domain.InputButtons:
		if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(q.Options) {
			in.OptionID = q.Options[n-1].ID
			return in, nil
		}
		if opt, ok := q.OptionByText(text); ok {
			in.OptionID = opt.ID
			return in, nil
		}
		fmt.Fprintf(h.Writer, "Choose a number between 1 and %d.\n", len(q.Options))
		return in, errRetryPrompt
	case domain.InputVoice, domain.InputVideo:
		if text == "" {
			fmt.Fprintln(h.Writer, "A recording URL is required.")
			return in, errRetryPrompt
		}
		kind := domain.RecordingVoice
		if q.Input.Type == domain.InputVideo {
			kind = domain.RecordingVideo
		}
		v := domain.RecordingAnswer(kind, text)
		in.Answer = &v
		return in, nil
	}
	v := domain.TextAnswer(text)
	in.Answer = &v
	return in, nil
}

// contact reads the remaining lead fields; first is the name typed on the main prompt.
func (h *TextHandler) contact(ctx context.Context, lead *domain.LeadCapture, first string) (controller.Intent, error) {
	contact := domain.ContactInfo{Name: first}
	if contact.Name == "" {
		name, err := h.readLine(ctx, orDefault(lead.NamePlaceholder, "Name")+": ")
		if err != nil {
			return controller.Intent{}, err
		}
		contact.Name = name
	}
	email, err := h.readLine(ctx, orDefault(lead.EmailPlaceholder, "Email")+": ")
	if err != nil {
		return controller.Intent{}, err
	}
	contact.Email = email
	phone, err := h.readLine(ctx, orDefault(lead.PhonePlaceholder, "Phone")+": ")
	if err != nil {
		return controller.Intent{}, err
	}
	contact.Phone = phone
	if lead.SubscriptionText != "" {
		ok, err := h.Confirm(ctx, lead.SubscriptionText)
		if err != nil {
			return controller.Intent{}, err
		}
		contact.Consent = ok
	}
	return controller.Intent{Type: controller.IntentSubmit, Contact: &contact}, nil
}

func (h *TextHandler) Confirm(ctx context.Context, prompt string) (bool, error) {
	text, err := h.readLine(ctx, prompt+" [y/N] ")
	if err != nil {
		return false, err
	}
	text = strings.ToLower(text)
	return text == "y" || text == "yes", nil
}

// readLine prints prompt and returns the next sanitized line. Rejected input is re-prompted.
func (h *TextHandler) readLine(ctx context.Context, prompt string) (string, error) {
	// Ensure the pump is running
	h.initPump()

	for {
		// Only show prompt if context is not yet done
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, prompt)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
