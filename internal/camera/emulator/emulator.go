package emulator

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/gatecam/internal/core/protocol"
	"github.com/yndnr/gatecam/internal/transport"
)

// DefaultChunkSize is the number of base64 characters per chunk.
const DefaultChunkSize = 1024

// Config configures an Emulator.
type Config struct {
	Topics protocol.Topics

	// ChunkSize is the number of base64 characters per chunk.
	ChunkSize int

	// Shuffle sends chunks in random order.
	Shuffle bool

	// Drop omits every Drop-th chunk (1-based) to provoke length
	// mismatches. Zero sends everything.
	Drop int

	// Delay is the pause between consecutive messages.
	Delay time.Duration

	// Silent subscribes but never answers, to provoke timeouts.
	Silent bool
}

// Emulator answers capture commands with a fixed image.
type Emulator struct {
	client  transport.Client
	cfg     Config
	encoded string
	logger  *slog.Logger

	served  atomic.Int64
	replies sync.WaitGroup
}

// New creates an emulator serving image.
func New(client transport.Client, image []byte, cfg Config, logger *slog.Logger) (*Emulator, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("emulator: empty image")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Topics == (protocol.Topics{}) {
		cfg.Topics = protocol.DefaultTopics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Emulator{
		client:  client,
		cfg:     cfg,
		encoded: base64.StdEncoding.EncodeToString(image),
		logger:  logger.With("component", "camera-emulator"),
	}, nil
}

// Start subscribes to the command topic. Replies are sent from their own
// goroutines until ctx ends.
func (e *Emulator) Start(ctx context.Context) error {
	if err := e.client.Subscribe(ctx, e.cfg.Topics.Command, func(_ string, payload []byte) {
		id := string(payload)
		e.replies.Add(1)
		go func() {
			defer e.replies.Done()
			e.reply(ctx, id)
		}()
	}); err != nil {
		return fmt.Errorf("emulator: subscribe: %w", err)
	}

	e.logger.Info("camera emulator ready",
		"topic", e.cfg.Topics.Command,
		"encoded_len", len(e.encoded),
		"chunk_size", e.cfg.ChunkSize,
	)
	return nil
}

// Serve starts the emulator and blocks until ctx ends and in-progress
// replies are done.
func (e *Emulator) Serve(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	e.Wait()
	return nil
}

// Wait blocks until in-progress replies are done.
func (e *Emulator) Wait() {
	e.replies.Wait()
}

// Served returns the number of commands answered.
func (e *Emulator) Served() int64 {
	return e.served.Load()
}

// Chunks splits the encoded image into offset-tagged fragments in the order
// they will be sent.
func (e *Emulator) Chunks() []Chunk {
	var chunks []Chunk
	for off, n := 0, 0; off < len(e.encoded); off += e.cfg.ChunkSize {
		n++
		if e.cfg.Drop > 0 && n%e.cfg.Drop == 0 {
			continue
		}
		end := min(off+e.cfg.ChunkSize, len(e.encoded))
		chunks = append(chunks, Chunk{Offset: off, Data: e.encoded[off:end]})
	}
	if e.cfg.Shuffle {
		rand.Shuffle(len(chunks), func(i, j int) { chunks[i], chunks[j] = chunks[j], chunks[i] })
	}
	return chunks
}

// Chunk is one fragment of the encoded image.
type Chunk struct {
	Offset int
	Data   string
}

func (e *Emulator) reply(ctx context.Context, id string) {
	log := e.logger.With("correlation_id", id)
	if e.cfg.Silent {
		log.Debug("capture command ignored")
		return
	}

	if err := e.send(ctx, id); err != nil {
		log.Error("reply failed", "error", err)
		return
	}
	e.served.Add(1)
	log.Info("capture answered")
}

func (e *Emulator) send(ctx context.Context, id string) error {
	start, err := protocol.EncodeStart(id, len(e.encoded))
	if err != nil {
		return err
	}
	if err := e.publish(ctx, e.cfg.Topics.Start, start); err != nil {
		return err
	}

	for _, c := range e.Chunks() {
		msg, err := protocol.EncodeChunk(id, c.Offset, c.Data)
		if err != nil {
			return err
		}
		if err := e.publish(ctx, e.cfg.Topics.Chunk, msg); err != nil {
			return err
		}
	}

	end, err := protocol.EncodeEnd(id)
	if err != nil {
		return err
	}
	return e.publish(ctx, e.cfg.Topics.End, end)
}

func (e *Emulator) publish(ctx context.Context, topic string, payload []byte) error {
	if e.cfg.Delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.cfg.Delay):
		}
	}
	return e.client.Publish(ctx, topic, payload)
}
