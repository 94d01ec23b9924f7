package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/clickfood/webapp/internal/auth"
	"github.com/clickfood/webapp/internal/config"
	"github.com/clickfood/webapp/internal/launch"
)

// Exchange outcomes reported to the metrics recorder.
const (
	ExchangeOK           = "ok"
	ExchangeSkipped      = "skipped"
	ExchangeNoCredential = "no_credential"
	ExchangeFailed       = "failed"
)

// ErrUnusableToken is returned when the backend issued a token the session
// cannot authenticate with.
var ErrUnusableToken = errors.New("exchanged token does not authenticate the session")

// TokenExchanger trades a launch credential for a bearer token.
type TokenExchanger interface {
	ExchangeInitData(ctx context.Context, initData, source string) (string, error)
}

// ExchangeRecorder counts exchange outcomes.
type ExchangeRecorder interface {
	RecordExchange(result string)
}

// BootstrapDependencies groups what the bootstrap needs.
type BootstrapDependencies struct {
	Store     *auth.TokenStore
	Session   *auth.Session
	Launch    launch.Provider
	Exchanger TokenExchanger
	Metrics   ExchangeRecorder
}

// BootstrapService acquires the initial token once per process.
type BootstrapService struct {
	store     *auth.TokenStore
	session   *auth.Session
	launch    launch.Provider
	exchanger TokenExchanger
	metrics   ExchangeRecorder
	devSource string
	logger    *zap.Logger

	once sync.Once
	done chan struct{}
}

// NewBootstrapService builds the service.
func NewBootstrapService(cfg config.LaunchConfig, deps BootstrapDependencies, logger *zap.Logger) *BootstrapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &BootstrapService{
		store:     deps.Store,
		session:   deps.Session,
		launch:    deps.Launch,
		exchanger: deps.Exchanger,
		metrics:   deps.Metrics,
		logger:    logger.Named("bootstrap"),
		done:      make(chan struct{}),
	}
	if cfg.DevMode {
		s.devSource = cfg.DevSource
	}
	return s
}

// Run performs the startup token acquisition. Only the first call does any
// work; later calls return immediately. Failures leave the session
// unauthenticated, and the session is marked initialized in every case.
func (s *BootstrapService) Run(ctx context.Context) {
	s.once.Do(func() {
		defer close(s.done)
		defer s.session.MarkInitialized()
		s.record(s.acquire(ctx))
	})
}

// Done is closed once Run has finished.
func (s *BootstrapService) Done() <-chan struct{} {
	return s.done
}

func (s *BootstrapService) acquire(ctx context.Context) string {
	if token, ok := s.store.Get(ctx); ok && !auth.IsExpired(token) {
		s.logger.Info("stored token is valid; skipping exchange", zap.String("fingerprint", auth.Fingerprint(token)))
		return ExchangeSkipped
	}

	params, err := s.launch.Retrieve(ctx)
	if err != nil {
		s.logger.Warn("launch parameters unavailable; continuing unauthenticated", zap.Error(err))
		return ExchangeNoCredential
	}

	token, err := s.exchange(ctx, params, "")
	if err != nil {
		s.logger.Error("failed to exchange init data", zap.Error(err))
		return ExchangeFailed
	}

	userID, _ := auth.UserIDFromToken(token)
	s.logger.Info("obtained token from init data",
		zap.String("fingerprint", auth.Fingerprint(token)),
		zap.String("user_id", userID),
	)
	return ExchangeOK
}

// Reauthenticate runs the exchange again on demand, bypassing the stored
// token. source overrides the launch start parameter when set.
func (s *BootstrapService) Reauthenticate(ctx context.Context, source string) error {
	params, err := s.launch.Retrieve(ctx)
	if err != nil {
		s.record(ExchangeNoCredential)
		return fmt.Errorf("retrieve launch parameters: %w", err)
	}

	if _, err := s.exchange(ctx, params, source); err != nil {
		s.record(ExchangeFailed)
		return err
	}
	s.record(ExchangeOK)

	s.session.Refetch(ctx)
	if !s.session.IsAuthenticated() {
		return ErrUnusableToken
	}
	return nil
}

func (s *BootstrapService) exchange(ctx context.Context, params launch.Params, source string) (string, error) {
	if source == "" {
		source = params.StartParam
	}
	if source == "" {
		source = s.devSource
	}

	token, err := s.exchanger.ExchangeInitData(ctx, params.InitDataRaw, source)
	if err != nil {
		return "", err
	}
	s.store.Set(ctx, token)
	return token, nil
}

func (s *BootstrapService) record(result string) {
	if s.metrics != nil {
		s.metrics.RecordExchange(result)
	}
}
