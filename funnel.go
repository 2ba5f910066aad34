package funnel

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/recorder"
	"github.com/aretw0/funnel/pkg/schema"
)

// Version is the release of this module, embedded from the VERSION file.
//
//go:embed VERSION
var Version string

// Funnel is the high-level entry point for the library.
// It binds a document to the controller stack and starts runs over it.
type Funnel struct {
	doc            *domain.Document
	recorder       *recorder.Recorder
	hooks          domain.LifecycleHooks
	logger         *slog.Logger
	remoteFunnelID string
	Name           string
}

// Option defines a functional option for configuring the Funnel.
type Option func(*Funnel)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(f *Funnel) {
		f.hooks = hooks
	}
}

// WithRecorder sets the submission recorder used on lead capture.
func WithRecorder(r *recorder.Recorder) Option {
	return func(f *Funnel) {
		f.recorder = r
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Funnel) {
		f.logger = logger
	}
}

// WithRemoteFunnelID binds runs to a published funnel, so leads are sent to the persistence service.
func WithRemoteFunnelID(id string) Option {
	return func(f *Funnel) {
		f.remoteFunnelID = id
	}
}

// New loads the document at path (JSON or YAML).
// The document is not validated here; structural problems surface as the Error phase of a run.
func New(path string, opts ...Option) (*Funnel, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	doc, err := schema.DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load funnel: %w", err)
	}
	f := FromDocument(doc, opts...)
	f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if f.Name != "" {
		f.logger = f.logger.With("funnel", f.Name)
	}
	return f, nil
}

// FromDocument wraps an in-memory document.
func FromDocument(doc *domain.Document, opts ...Option) *Funnel {
	f := &Funnel{doc: doc}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logging.NewNop()
	}
	return f
}

// Document returns the loaded document.
func (f *Funnel) Document() *domain.Document {
	return f.doc
}

// Validate reports every schema problem of the document at once.
func (f *Funnel) Validate() error {
	return schema.Validate(f.doc)
}

// NewController returns an idle controller for a new run.
func (f *Funnel) NewController(sessionID string) *controller.Controller {
	opts := []controller.Option{
		controller.WithLogger(f.logger),
		controller.WithLifecycleHooks(f.hooks),
		controller.WithSessionID(sessionID),
		controller.WithRemoteFunnelID(f.remoteFunnelID),
	}
	if f.recorder != nil {
		opts = append(opts, controller.WithRecorder(f.recorder))
	}
	return controller.New(f.doc, opts...)
}

// Start creates a controller and begins the run. Structural errors leave the
// controller in the Error phase and are returned alongside it.
func (f *Funnel) Start(ctx context.Context, sessionID string) (*controller.Controller, error) {
	c := f.NewController(sessionID)
	return c, c.OnStart(ctx)
}
