package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/funnel/internal/testutils"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_Lookup(t *testing.T) {
	doc := testutils.SampleDocument()

	assert.Equal(t, 5, doc.Len())
	assert.Equal(t, 2, doc.IndexOf("q2"))
	assert.Equal(t, -1, doc.IndexOf("missing"))
	assert.Equal(t, -1, doc.IndexOf(""))

	s, ok := doc.StepByID("lead")
	assert.True(t, ok)
	assert.Equal(t, domain.KindLeadCapture, s.Kind())

	assert.Len(t, doc.Questions(), 3)

	var nilDoc *domain.Document
	assert.Equal(t, 0, nilDoc.Len())
	assert.Equal(t, domain.DefaultMaxSteps, nilDoc.StepLimit())
}

func TestDocument_RedirectTarget(t *testing.T) {
	tests := []struct {
		name string
		doc  domain.Document
		want string
	}{
		{"redirect url wins", domain.Document{RedirectURL: "https://x.io", ContactNumber: "5511"}, "https://x.io"},
		{"whatsapp digits only", domain.Document{ContactNumber: "+55 (11) 9999-0000"}, "https://wa.me/551199990000"},
		{"nothing configured", domain.Document{}, ""},
		{"no digits", domain.Document{ContactNumber: "n/a"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.doc.RedirectTarget())
		})
	}
}

func TestErrors_KindOf(t *testing.T) {
	branch := &domain.BranchError{StepID: "q1", OptionID: "o1", Target: "nowhere"}
	stepType := &domain.StepTypeError{StepID: "x", Type: "7"}
	transport := &domain.TransportError{FunnelID: "f1", StatusCode: 503, Err: errors.New("unavailable")}

	assert.Equal(t, domain.ErrorKindInvalidBranchTarget, domain.KindOf(branch))
	assert.Equal(t, domain.ErrorKindInvalidBranchTarget, domain.KindOf(fmt.Errorf("advance: %w", branch)))
	assert.Equal(t, domain.ErrorKindUnknownStepType, domain.KindOf(stepType))
	assert.Equal(t, domain.ErrorKindEmptyDocument, domain.KindOf(domain.ErrEmptyDocument))
	assert.Equal(t, domain.ErrorKindNone, domain.KindOf(transport))
	assert.Equal(t, domain.ErrorKindNone, domain.KindOf(nil))

	assert.ErrorIs(t, transport, domain.ErrSubmissionTransport)
	assert.Contains(t, branch.Error(), "nowhere")
	assert.ErrorIs(t, domain.ErrorKindUnknownStepType.Err(), domain.ErrUnknownStepType)

	assert.Equal(t, domain.ErrorKindInvalidStepID, domain.KindOf(&domain.StepIDError{StepID: "a", Index: 2}))
	assert.Equal(t, domain.ErrorKindMissingOptions, domain.KindOf(&domain.OptionsError{StepID: "q"}))
	assert.ErrorIs(t, domain.ErrorKindMissingOptions.Err(), domain.ErrMissingOptions)
}

func TestErrorDetail_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"branch", &domain.BranchError{StepID: "q1", OptionID: "o1", Target: "nowhere"}},
		{"step type", &domain.StepTypeError{StepID: "x", Type: "7"}},
		{"duplicate id", &domain.StepIDError{StepID: "a", Index: 2}},
		{"empty id", &domain.StepIDError{Index: 0}},
		{"no options", &domain.OptionsError{StepID: "q"}},
		{"bare sentinel", domain.ErrEmptyDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := domain.DetailOf(fmt.Errorf("wrapped: %w", tt.err))
			require.NotNil(t, d)
			assert.Equal(t, domain.KindOf(tt.err), d.Kind)
			assert.Contains(t, d.Message, tt.err.Error())
			assert.Equal(t, tt.err, d.Err())
		})
	}

	assert.Nil(t, domain.DetailOf(errors.New("plain")))
	assert.Nil(t, domain.DetailOf(nil))

	var nilDetail *domain.ErrorDetail
	assert.NoError(t, nilDetail.Err())
}

func TestStepKind_String(t *testing.T) {
	assert.Equal(t, "lead_capture", domain.KindLeadCapture.String())
	assert.Equal(t, "unknown(9)", domain.StepKind(9).String())

	k, ok := domain.ParseStepKind("question")
	assert.True(t, ok)
	assert.Equal(t, domain.KindQuestion, k)
}
