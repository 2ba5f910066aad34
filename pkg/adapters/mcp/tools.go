package mcp

import (
	"context"
	"fmt"

	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/runner"
	"github.com/aretw0/funnel/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mitchellh/mapstructure"
)

// SessionResponse is the structured output of the session tools.
type SessionResponse struct {
	View controller.View      `json:"view"`
	Diff *domain.SnapshotDiff `json:"diff,omitempty"`
}

// ValidationResponse lists the problems of a document.
type ValidationResponse struct {
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

// SubmissionsResponse wraps the results list.
type SubmissionsResponse struct {
	Submissions []domain.Submission `json:"submissions"`
}

type createArgs struct {
	Document       string `mapstructure:"document"`
	FunnelID       string `mapstructure:"funnel_id"`
	RemoteFunnelID string `mapstructure:"remote_funnel_id"`
}

// intentArgs is the flat tool form of controller.Intent.
type intentArgs struct {
	SessionID         string `mapstructure:"session_id"`
	controller.Intent `mapstructure:",squash"`
	Answer            string `mapstructure:"answer"`
	RecordingType     string `mapstructure:"recording_type"`
	RecordingURL      string `mapstructure:"recording_url"`
	Name              string `mapstructure:"name"`
	Email             string `mapstructure:"email"`
	Phone             string `mapstructure:"phone"`
	Subscribed        bool   `mapstructure:"subscribed"`
}

// decodeArgs maps loosely typed tool arguments onto out. Strings such as "true" are accepted for bools.
func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// intent builds the controller intent, sanitizing typed text.
func (a intentArgs) intent() (controller.Intent, error) {
	in := a.Intent
	switch {
	case a.RecordingURL != "":
		kind := domain.RecordingVoice
		if a.RecordingType == string(domain.RecordingVideo) {
			kind = domain.RecordingVideo
		}
		v := domain.RecordingAnswer(kind, a.RecordingURL)
		in.Answer = &v
	case a.Answer != "":
		clean, err := runner.SanitizeInput(a.Answer)
		if err != nil {
			return in, err
		}
		v := domain.TextAnswer(clean)
		in.Answer = &v
	}

	if in.Type == controller.IntentSubmit {
		contact := domain.ContactInfo{Consent: a.Subscribed}
		for dst, src := range map[*string]string{&contact.Name: a.Name, &contact.Email: a.Email, &contact.Phone: a.Phone} {
			clean, err := runner.SanitizeInput(src)
			if err != nil {
				return in, err
			}
			*dst = clean
		}
		in.Contact = &contact
	}
	return in, nil
}

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	var in createArgs
	if err := decodeArgs(args, &in); err != nil {
		return SessionResponse{}, err
	}

	switch {
	case in.Document != "":
		doc, err := schema.Decode([]byte(in.Document))
		if err != nil {
			return SessionResponse{}, err
		}
		res, err := s.sessions.Create(ctx, doc, in.RemoteFunnelID)
		if err != nil {
			return SessionResponse{}, err
		}
		return SessionResponse(*res), nil
	case in.FunnelID != "":
		res, err := s.sessions.CreateFromFunnel(ctx, in.FunnelID)
		if err != nil {
			return SessionResponse{}, err
		}
		return SessionResponse(*res), nil
	}
	return SessionResponse{}, errMissingDocument
}

func (s *Server) handleApplyIntent(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	var in intentArgs
	if err := decodeArgs(args, &in); err != nil {
		return SessionResponse{}, err
	}
	intent, err := in.intent()
	if err != nil {
		s.logger.Warn("input rejected", "session_id", in.SessionID, "error", err)
		return SessionResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	res, err := s.sessions.Apply(ctx, in.SessionID, intent)
	if err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse(*res), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	var in struct {
		SessionID string `mapstructure:"session_id"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return SessionResponse{}, err
	}
	view, err := s.sessions.View(ctx, in.SessionID)
	if err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse{View: view}, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ValidationResponse, error) {
	var in createArgs
	if err := decodeArgs(args, &in); err != nil {
		return ValidationResponse{}, err
	}
	doc, err := schema.Decode([]byte(in.Document))
	if err != nil {
		return ValidationResponse{Problems: []string{err.Error()}}, nil
	}
	resp := ValidationResponse{Valid: true}
	for _, problem := range schema.ValidationErrors(schema.Validate(doc)) {
		resp.Valid = false
		resp.Problems = append(resp.Problems, problem.Error())
	}
	return resp, nil
}

func (s *Server) handleListSubmissions(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SubmissionsResponse, error) {
	var in struct {
		FunnelID string `mapstructure:"funnel_id"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return SubmissionsResponse{}, err
	}
	subs, err := s.submissions.List(ctx, in.FunnelID)
	if err != nil {
		return SubmissionsResponse{}, err
	}
	if subs == nil {
		subs = []domain.Submission{}
	}
	return SubmissionsResponse{Submissions: subs}, nil
}
