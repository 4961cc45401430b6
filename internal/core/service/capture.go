package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/gatecam/internal/core/domain"
	"github.com/yndnr/gatecam/internal/core/protocol"
	"github.com/yndnr/gatecam/internal/core/reassembly"
	"github.com/yndnr/gatecam/internal/telemetry/logger"
	"github.com/yndnr/gatecam/internal/telemetry/metric"
	"github.com/yndnr/gatecam/internal/transport"
)

// DefaultCaptureTimeout bounds a capture attempt, from publishing the
// command to the camera's end message.
const DefaultCaptureTimeout = 15 * time.Second

// PhotoStore persists reassembled photos.
type PhotoStore interface {
	// Save writes photo for id and returns its path. partial marks a
	// payload whose length disagreed with the announced total.
	Save(id domain.CorrelationID, photo []byte, partial bool) (string, error)
}

// AuditSink appends audit records.
type AuditSink interface {
	Record(ctx context.Context, rec domain.AuditRecord) error
}

// CaptureState is the lifecycle state of the capture session.
type CaptureState uint8

const (
	StateIdle CaptureState = iota
	StateRequested
	StateReceiving
	StateCompleted
	StateTimedOut
)

func (s CaptureState) String() string {
	switch s {
	case StateRequested:
		return "requested"
	case StateReceiving:
		return "receiving"
	case StateCompleted:
		return "completed"
	case StateTimedOut:
		return "timed_out"
	default:
		return "idle"
	}
}

func (s CaptureState) terminal() bool {
	return s == StateCompleted || s == StateTimedOut
}

// attempt is the state of one capture. The transport callback and the
// waiting caller share it through mu; done fires exactly once.
type attempt struct {
	id domain.CorrelationID

	mu     sync.Mutex
	state  CaptureState
	chunks *reassembly.ChunkSet

	done chan struct{}
	once sync.Once
}

func newAttempt(id domain.CorrelationID) *attempt {
	return &attempt{
		id:     id,
		state:  StateRequested,
		chunks: reassembly.New(),
		done:   make(chan struct{}),
	}
}

func (a *attempt) signal() {
	a.once.Do(func() { close(a.done) })
}

// finish moves the attempt to its terminal state and snapshots the chunks.
// Messages handled afterwards are discarded.
func (a *attempt) finish(state CaptureState) reassembly.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = state
	return a.chunks.Assemble()
}

// CaptureConfig configures a CaptureService.
type CaptureConfig struct {
	Topics  protocol.Topics
	Timeout time.Duration
}

// CaptureOption configures optional collaborators.
type CaptureOption func(*CaptureService)

// WithPhotoStore persists photos through store.
func WithPhotoStore(store PhotoStore) CaptureOption {
	return func(s *CaptureService) { s.photos = store }
}

// WithAuditSink records attempts that carry a subject.
func WithAuditSink(sink AuditSink) CaptureOption {
	return func(s *CaptureService) { s.audit = sink }
}

// WithMetrics reports capture metrics to reg.
func WithMetrics(reg *metric.Registry) CaptureOption {
	return func(s *CaptureService) { s.metrics = reg }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) CaptureOption {
	return func(s *CaptureService) { s.logger = logger }
}

// WithClock replaces time.Now for correlation ids and audit timestamps.
func WithClock(now func() time.Time) CaptureOption {
	return func(s *CaptureService) { s.now = now }
}

// CaptureService runs the capture protocol: it publishes a command carrying
// a fresh correlation id, reassembles the camera's chunked reply and
// resolves the attempt on the end message or the timeout.
//
// At most one attempt is in flight. Concurrent callers queue on the capture
// slot; HandleMessage never waits on it.
type CaptureService struct {
	client  transport.Client
	topics  protocol.Topics
	timeout time.Duration

	ids     *domain.CorrelationIDGenerator
	photos  PhotoStore
	audit   AuditSink
	metrics *metric.Registry
	logger  *slog.Logger
	now     func() time.Time

	slot   chan struct{}
	active atomic.Pointer[attempt]
}

// NewCaptureService creates a CaptureService publishing on client.
// Call Subscribe before the first Capture.
func NewCaptureService(client transport.Client, cfg CaptureConfig, opts ...CaptureOption) *CaptureService {
	s := &CaptureService{
		client:  client,
		topics:  cfg.Topics,
		timeout: cfg.Timeout,
		logger:  slog.Default(),
		now:     time.Now,
		slot:    make(chan struct{}, 1),
	}
	if s.topics == (protocol.Topics{}) {
		s.topics = protocol.DefaultTopics()
	}
	if s.timeout <= 0 {
		s.timeout = DefaultCaptureTimeout
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "capture")
	s.ids = domain.NewCorrelationIDGenerator(s.now)
	return s
}

// Subscribe registers HandleMessage for the start, chunk and end topics.
func (s *CaptureService) Subscribe(ctx context.Context) error {
	for _, topic := range s.topics.Inbound() {
		if err := s.client.Subscribe(ctx, topic, s.HandleMessage); err != nil {
			return err
		}
	}
	return nil
}

// State returns the state of the in-flight attempt, or StateIdle.
func (s *CaptureService) State() CaptureState {
	a := s.active.Load()
	if a == nil {
		return StateIdle
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// CaptureRequest describes one capture.
type CaptureRequest struct {
	// Subject is recorded in the audit log with the outcome. Nil means the
	// capture is not audited.
	Subject *domain.Subject
}

// Capture performs one capture attempt and waits for its outcome.
//
// Protocol failures (timeout, empty or truncated payload, malformed
// fragments, publish and persistence failures) are reported in the
// Outcome. The error is non-nil only when ctx ends before the capture
// slot is acquired. A ctx that ends while waiting for the camera resolves
// the attempt as a timeout.
func (s *CaptureService) Capture(ctx context.Context, req CaptureRequest) (domain.Outcome, error) {
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return domain.Outcome{}, domain.ErrCaptureBusy.WithCause(ctx.Err())
	}
	defer func() { <-s.slot }()

	start := time.Now()
	a := newAttempt(s.ids.Next())
	s.active.Store(a)
	s.setInFlight(1)
	defer s.setInFlight(0)

	ctx = logger.WithCorrelationID(ctx, a.id.String())
	s.logger.DebugContext(ctx, "capture requested")

	// The timeout covers the publish acknowledgement as well as the reply.
	wctx, cancel := context.WithDeadline(ctx, start.Add(s.timeout))
	defer cancel()

	published := make(chan error, 1)
	go func() {
		published <- s.client.Publish(wctx, s.topics.Command, protocol.CommandPayload(a.id))
	}()
	out := s.await(ctx, wctx, a, published)

	out.CorrelationID = a.id
	out.Elapsed = time.Since(start)
	s.observe(out)
	s.logOutcome(ctx, out)

	if req.Subject != nil {
		s.record(context.WithoutCancel(ctx), req.Subject, out)
	}
	return out, nil
}

// await blocks until the attempt is signalled, the publish fails or wctx
// ends. ctx is the caller's context and only distinguishes an abandoned
// capture from a timeout in the log.
func (s *CaptureService) await(ctx, wctx context.Context, a *attempt, published <-chan error) domain.Outcome {
	state := StateCompleted
	var publishErr error
wait:
	for {
		select {
		case <-a.done:
			break wait
		case err := <-published:
			published = nil
			if err != nil {
				s.logger.WarnContext(ctx, "capture command not published", "error", err)
				publishErr = domain.ErrCapturePublish.WithCause(err)
				state = StateTimedOut
				break wait
			}
		case <-wctx.Done():
			if ctx.Err() != nil {
				s.logger.DebugContext(ctx, "capture abandoned by caller", "error", ctx.Err())
			}
			state = StateTimedOut
			break wait
		}
	}

	s.active.CompareAndSwap(a, nil)
	res := a.finish(state)

	if state == StateTimedOut {
		return domain.Outcome{
			Kind:         domain.OutcomeTimeout,
			Expected:     res.Expected,
			Got:          res.Got,
			Chunks:       res.Chunks,
			TransportErr: publishErr,
		}
	}
	return s.resolve(ctx, a.id, res)
}

// resolve turns a completed reassembly into an outcome and persists the photo.
func (s *CaptureService) resolve(ctx context.Context, id domain.CorrelationID, res reassembly.Result) domain.Outcome {
	out := domain.Outcome{
		Encoded:      res.Encoded,
		Photo:        res.Decoded,
		Expected:     res.Expected,
		Got:          res.Got,
		Chunks:       res.Chunks,
		DecodeErrors: res.Errors,
	}

	for _, err := range res.Errors {
		s.logger.WarnContext(ctx, "fragment decode failed", "error", err)
	}

	switch {
	case res.Empty() || len(res.Decoded) == 0:
		out.Kind = domain.OutcomeEmptyPayload
		return out
	case res.LengthMismatch():
		out.Kind = domain.OutcomeLengthMismatch
		s.logger.WarnContext(ctx, "photo length mismatch", "expected", res.Expected, "got", res.Got)
	default:
		out.Kind = domain.OutcomeSuccess
	}

	if s.photos == nil {
		return out
	}
	path, err := s.photos.Save(id, res.Decoded, out.Truncated())
	if err != nil {
		out.PersistErr = domain.ErrPhotoWrite.WithCause(err)
		s.logger.ErrorContext(ctx, "photo not saved", "error", err)
		return out
	}
	out.Path = path
	return out
}

func (s *CaptureService) record(ctx context.Context, subj *domain.Subject, out domain.Outcome) {
	if s.audit == nil {
		return
	}
	rec, err := domain.NewAuditRecord(s.now(), subj.ID, subj.Authorized, out.AuditOutcome(), out.CorrelationID)
	if err == nil {
		err = s.audit.Record(ctx, rec)
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.AuditWriteFailures.Inc()
		}
		s.logger.ErrorContext(ctx, "audit record not written", "error", err)
	}
}

// HandleMessage is the transport callback for inbound camera messages.
// Messages for a correlation id other than the in-flight one are dropped.
func (s *CaptureService) HandleMessage(topic string, payload []byte) {
	msg, err := s.topics.Decode(topic, payload)
	if err != nil {
		s.logger.Warn("inbound message rejected", "topic", topic, "error", err)
		return
	}

	a := s.active.Load()
	if a == nil || !a.id.Matches(msg.CorrelationID) {
		s.stale(msg)
		return
	}

	a.mu.Lock()
	if a.state.terminal() {
		a.mu.Unlock()
		s.stale(msg)
		return
	}
	switch msg.Kind {
	case protocol.KindStart:
		a.chunks.Start(msg.Total)
		a.state = StateReceiving
	case protocol.KindChunk:
		if a.chunks.Put(msg.Offset, msg.Data) {
			s.logger.Debug("chunk replaced", "correlation_id", a.id.String(), "offset", msg.Offset)
		}
		a.state = StateReceiving
		if s.metrics != nil {
			s.metrics.ChunksTotal.Inc()
		}
	case protocol.KindEnd:
		a.signal()
	}
	a.mu.Unlock()
}

func (s *CaptureService) stale(msg protocol.Message) {
	if s.metrics != nil {
		s.metrics.StaleMessages.Inc()
	}
	s.logger.Debug("stale message discarded",
		"kind", msg.Kind.String(),
		"correlation_id", msg.CorrelationID,
	)
}

func (s *CaptureService) setInFlight(v float64) {
	if s.metrics != nil {
		s.metrics.CaptureInFlight.Set(v)
	}
}

func (s *CaptureService) observe(out domain.Outcome) {
	if s.metrics == nil {
		return
	}
	s.metrics.CapturesTotal.WithLabelValues(out.Kind.String()).Inc()
	s.metrics.CaptureDuration.Observe(out.Elapsed.Seconds())
	if out.Truncated() {
		s.metrics.LengthMismatches.Inc()
	}
	if n := len(out.DecodeErrors); n > 0 {
		s.metrics.DecodeFailures.Add(float64(n))
	}
}

func (s *CaptureService) logOutcome(ctx context.Context, out domain.Outcome) {
	attrs := []any{
		"outcome", out.Kind.String(),
		"chunks", out.Chunks,
		"elapsed", out.Elapsed,
	}
	if out.Path != "" {
		attrs = append(attrs, "path", out.Path)
	}
	switch out.Kind {
	case domain.OutcomeSuccess:
		s.logger.InfoContext(ctx, "capture completed", attrs...)
	default:
		s.logger.WarnContext(ctx, "capture failed", attrs...)
	}
}
