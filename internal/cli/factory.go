package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/funnel/internal/config"
	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/adapters/api"
	"github.com/aretw0/funnel/pkg/adapters/file"
	"github.com/aretw0/funnel/pkg/adapters/genai"
	"github.com/aretw0/funnel/pkg/adapters/kafka"
	"github.com/aretw0/funnel/pkg/adapters/postgres"
	"github.com/aretw0/funnel/pkg/adapters/redis"
	"github.com/aretw0/funnel/pkg/adapters/sqlite"
	"github.com/aretw0/funnel/pkg/analysis"
	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/persistence/middleware"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/recorder"
	"github.com/aretw0/funnel/pkg/session"
	backend "github.com/redis/go-redis/v9"
)

// ErrNotConfigured is returned when a command needs a backend that the configuration leaves out.
var ErrNotConfigured = errors.New("not configured")

// Stack holds the adapters selected by the configuration.
// Nil fields are backends that are not configured.
type Stack struct {
	Config      config.Config
	Logger      *slog.Logger
	Sessions    ports.SessionStore
	Submissions ports.SubmissionStore
	Locker      ports.SessionLocker
	Leads       ports.LeadService
	Funnels     ports.FunnelSource
	Publisher   ports.FunnelPublisher
	Events      ports.SubmissionPublisher
	Generator   *genai.Generator
	Hooks       domain.LifecycleHooks

	recorder *recorder.Recorder
	closers  []func() error
}

// StackOption configures Build.
type StackOption func(*stackBuild)

type stackBuild struct {
	generator bool
	events    bool
}

// WithGenerator connects the generative model when an API key is configured.
func WithGenerator() StackOption {
	return func(b *stackBuild) { b.generator = true }
}

// WithEvents connects the submission topic when brokers are configured.
func WithEvents() StackOption {
	return func(b *stackBuild) { b.events = true }
}

// Build opens every backend the configuration names.
// Sessions live in Redis when an address is set, otherwise in the local SQLite file,
// which also keeps submissions.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...StackOption) (*Stack, error) {
	var b stackBuild
	for _, opt := range opts {
		opt(&b)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Stack{Config: cfg, Logger: logger}

	if err := s.openStores(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := s.openRemote(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	if b.generator && cfg.GenAI.APIKey != "" {
		gen, err := genai.New(ctx, cfg.GenAI.APIKey,
			genai.WithModel(cfg.GenAI.Model),
			genai.WithLogger(logger),
		)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("genai: %w", err)
		}
		s.Generator = gen
	}

	if b.events && len(cfg.Kafka.Brokers) > 0 {
		pub, err := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, kafka.WithLogger(logger))
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("kafka: %w", err)
		}
		s.Events = pub
		s.closers = append(s.closers, pub.Close)
	}

	return s, nil
}

func (s *Stack) openStores(ctx context.Context) error {
	cfg := s.Config
	var sessions ports.SessionStore

	if cfg.Redis.Addr != "" {
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		sessions = redis.NewFromClient(client,
			redis.WithPrefix(cfg.Redis.Prefix+"session:"),
			redis.WithTTL(cfg.Redis.TTL),
		)
		s.Submissions = redis.NewSubmissions(client, redis.WithPrefix(cfg.Redis.Prefix+"submission:"))
		s.Locker = redis.NewLocker(client, cfg.Redis.Prefix+"lock:")
		s.Logger.Debug("Using Redis stores", "addr", cfg.Redis.Addr)
	} else {
		db, err := sqlite.Open(ctx, cfg.LocalStore, sqlite.WithLogger(s.Logger))
		if err != nil {
			return fmt.Errorf("local store: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		sessions = db.Sessions()
		s.Submissions = db.Submissions()
		s.Logger.Debug("Using local store", "path", cfg.LocalStore)

		if cfg.SessionDir != "" {
			sessions = file.New(cfg.SessionDir)
			s.Logger.Debug("Using session files", "dir", cfg.SessionDir)
		}
	}

	wrapped, err := protect(sessions, cfg.Security)
	if err != nil {
		return err
	}
	s.Sessions = wrapped
	return nil
}

// protect wraps the session store with PII masking and encryption, in that order.
func protect(store ports.SessionStore, sec config.SecurityConfig) (ports.SessionStore, error) {
	var mws []middleware.Middleware
	if len(sec.PIIPatterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(sec.PIIPatterns)
		if err != nil {
			return nil, fmt.Errorf("pii patterns: %w", err)
		}
		mws = append(mws, pii)
	}

	active, fallback, err := sec.EncryptionKeys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(store, mws...), nil
}

// openRemote selects the persistence service: a direct database connection wins over the HTTP API.
func (s *Stack) openRemote(ctx context.Context) error {
	cfg := s.Config
	switch {
	case cfg.DatabaseURL != "":
		db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.WithLogger(s.Logger))
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		s.Leads = db
		s.Funnels = db
		s.Publisher = db
	case cfg.API.BaseURL != "":
		client := api.New(cfg.API.BaseURL,
			api.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
			api.WithLogger(s.Logger),
		)
		s.Leads = client
		s.Funnels = client
	}
	return nil
}

// Recorder returns the submission recorder wired to the configured backends.
// Every controller built from the stack shares it; Close drains its pending publishes
// before the publisher is closed.
func (s *Stack) Recorder() *recorder.Recorder {
	if s.recorder != nil {
		return s.recorder
	}
	opts := []recorder.Option{
		recorder.WithLocalStore(s.Submissions),
		recorder.WithLifecycleHooks(s.Hooks),
		recorder.WithLogger(s.Logger),
		recorder.WithTimeout(s.Config.SubmitTimeout),
	}
	if s.Leads != nil {
		opts = append(opts, recorder.WithLeadService(s.Leads))
	}
	if s.Events != nil {
		opts = append(opts, recorder.WithPublisher(s.Events))
	}
	s.recorder = recorder.New(opts...)
	s.closers = append(s.closers, s.recorder.Close)
	return s.recorder
}

// ControllerOptions returns the options shared by every controller built from this stack.
func (s *Stack) ControllerOptions() []controller.Option {
	return []controller.Option{
		controller.WithLogger(s.Logger),
		controller.WithLifecycleHooks(s.Hooks),
		controller.WithRecorder(s.Recorder()),
	}
}

// SessionService returns a session service over the configured stores.
func (s *Stack) SessionService() *session.Service {
	mOpts := []session.Option{session.WithLogger(s.Logger)}
	if s.Locker != nil {
		mOpts = append(mOpts, session.WithLocker(s.Locker))
	}
	svcOpts := []session.ServiceOption{
		session.WithControllerOptions(s.ControllerOptions()...),
		session.WithServiceLogger(s.Logger),
	}
	if s.Funnels != nil {
		svcOpts = append(svcOpts, session.WithFunnelSource(s.Funnels))
	}
	return session.NewService(session.NewManager(s.Sessions, mOpts...), svcOpts...)
}

// Enricher returns the answer analyzer, or ErrNotConfigured without an API key.
func (s *Stack) Enricher() (*analysis.Enricher, error) {
	if s.Generator == nil {
		return nil, fmt.Errorf("genai api key: %w", ErrNotConfigured)
	}
	return analysis.NewEnricher(s.Generator, s.Submissions, analysis.WithLogger(s.Logger)), nil
}

// Close releases every opened backend, newest first.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
