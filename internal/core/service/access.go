package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/gatecam/internal/core/domain"
	"github.com/yndnr/gatecam/internal/telemetry/metric"
)

// Defaults for AccessConfig.
const (
	DefaultRelayDuration = 2 * time.Second
	DefaultCooldown      = 5 * time.Second
)

// CardReader yields card UIDs. ReadUID returns io.EOF when the source is
// exhausted.
type CardReader interface {
	ReadUID(ctx context.Context) (string, error)
}

// Authorizer decides whether a card UID may open the door.
type Authorizer interface {
	Authorize(uid string) bool
}

// Relay drives the door strike.
type Relay interface {
	// Pulse energizes the relay for d and always releases it, even when
	// ctx ends first.
	Pulse(ctx context.Context, d time.Duration) error
}

// Capturer takes a photo for a card read.
type Capturer interface {
	Capture(ctx context.Context, req CaptureRequest) (domain.Outcome, error)
}

// AccessConfig configures an AccessService.
type AccessConfig struct {
	RelayDuration time.Duration
	Cooldown      time.Duration
}

// AccessResult is the result of one card read.
type AccessResult struct {
	Subject domain.Subject
	Outcome domain.Outcome
}

// AccessService handles card reads: authorize, pulse the relay for
// authorized cards and capture a photo for every read.
type AccessService struct {
	reader  CardReader
	auth    Authorizer
	relay   Relay
	capture Capturer

	relayDuration time.Duration
	limiter       *rate.Limiter

	metrics *metric.Registry
	logger  *slog.Logger

	pulses sync.WaitGroup
}

// NewAccessService creates an AccessService. metrics and log may be nil.
func NewAccessService(reader CardReader, auth Authorizer, relay Relay, capture Capturer,
	cfg AccessConfig, metrics *metric.Registry, log *slog.Logger) *AccessService {
	if cfg.RelayDuration <= 0 {
		cfg.RelayDuration = DefaultRelayDuration
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if log == nil {
		log = slog.Default()
	}
	return &AccessService{
		reader:        reader,
		auth:          auth,
		relay:         relay,
		capture:       capture,
		relayDuration: cfg.RelayDuration,
		limiter:       rate.NewLimiter(rate.Every(cfg.Cooldown), 1),
		metrics:       metrics,
		logger:        log.With("component", "access"),
	}
}

// Run processes card reads until ctx ends or the reader is exhausted.
// Reads arriving within the cooldown of the previous accepted read are
// dropped. Run waits for outstanding relay pulses before returning.
func (s *AccessService) Run(ctx context.Context) error {
	defer s.pulses.Wait()

	for {
		uid, err := s.reader.ReadUID(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		uid = strings.TrimSpace(uid)
		if uid == "" {
			s.logger.Debug("empty card read ignored", "error", domain.ErrEmptyUID)
			continue
		}
		if !s.limiter.Allow() {
			s.logger.Debug("card read ignored during cooldown", "uid", uid)
			continue
		}

		s.HandleCard(ctx, uid)
	}
}

// HandleCard authorizes uid, starts the relay pulse when authorized and
// captures a photo regardless of the decision. Capture problems never
// change the decision.
func (s *AccessService) HandleCard(ctx context.Context, uid string) AccessResult {
	subj := domain.Subject{ID: uid, Authorized: s.auth.Authorize(uid)}
	log := s.logger.With("uid", uid, "authorized", subj.Authorized)

	decision := "denied"
	if subj.Authorized {
		decision = "granted"
		s.pulse(ctx, log)
	}
	if s.metrics != nil {
		s.metrics.AccessDecisions.WithLabelValues(decision).Inc()
	}
	log.Info("card read", "decision", decision)

	out, err := s.capture.Capture(ctx, CaptureRequest{Subject: &subj})
	if err != nil {
		log.Warn("capture skipped", "error", err)
	}
	return AccessResult{Subject: subj, Outcome: out}
}

func (s *AccessService) pulse(ctx context.Context, log *slog.Logger) {
	s.pulses.Add(1)
	go func() {
		defer s.pulses.Done()
		if err := s.relay.Pulse(context.WithoutCancel(ctx), s.relayDuration); err != nil {
			log.Error("relay pulse failed", "error", domain.ErrRelay.WithCause(err))
		}
	}()
}
