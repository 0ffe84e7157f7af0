package ingester

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/callboard/internal/events"
	"github.com/MikeSquared-Agency/callboard/internal/store"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	analysisStream   = "CALL_ANALYSIS"
	analysisSubjects = "callboard.analysis.>"
	consumerName     = "callboard-analysis"
)

// AnalysisStore is the subset of store.DataStore the ingester writes to.
type AnalysisStore interface {
	SetCallAnalysis(ctx context.Context, id string, analysis json.RawMessage) error
}

// Recorder receives audit entries for applied analyses.
type Recorder interface {
	Record(e events.Entry)
}

// AnalysisMessage is published by the analytics service once a call has been
// processed.
type AnalysisMessage struct {
	CallID   string          `json:"call_id"`
	Analysis json.RawMessage `json:"analysis"`
}

type Ingester struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	store  AnalysisStore
	audit  Recorder
	subs   []jetstream.ConsumeContext
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	stopped  bool
	inflight sync.WaitGroup
}

func New(natsURL string, s AnalysisStore, r Recorder) (*Ingester, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("callboard"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			slog.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ictx, ican := context.WithCancel(context.Background())
	return &Ingester{
		nc:     nc,
		js:     js,
		store:  s,
		audit:  r,
		ctx:    ictx,
		cancel: ican,
	}, nil
}

// Start ensures the analysis stream exists and binds a durable consumer to it.
func (ing *Ingester) Start(ctx context.Context) error {
	if err := ing.ensureStream(ctx); err != nil {
		return err
	}

	consumer, err := ing.js.CreateOrUpdateConsumer(ctx, analysisStream, jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", consumerName, err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		ing.handleMessage(msg)
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", consumerName, err)
	}
	ing.subs = append(ing.subs, cc)

	slog.Info("subscribed to stream", "stream", analysisStream, "consumer", consumerName)
	return nil
}

func (ing *Ingester) ensureStream(ctx context.Context) error {
	if _, err := ing.js.Stream(ctx, analysisStream); err == nil {
		return nil
	}

	_, err := ing.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:      analysisStream,
		Subjects:  []string{analysisSubjects},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", analysisStream, err)
	}

	slog.Info("created stream", "name", analysisStream, "subjects", analysisSubjects)
	return nil
}

func (ing *Ingester) handleMessage(msg jetstream.Msg) {
	ing.mu.Lock()
	if ing.stopped {
		ing.mu.Unlock()
		_ = msg.Nak()
		return
	}
	ing.inflight.Add(1)
	ing.mu.Unlock()
	defer ing.inflight.Done()

	var m AnalysisMessage
	if err := json.Unmarshal(msg.Data(), &m); err != nil || !validCallID(m.CallID) || len(m.Analysis) == 0 {
		slog.Warn("malformed analysis message, skipping", "subject", msg.Subject(), "error", err)
		// Ack to avoid redelivery of permanently broken messages.
		_ = msg.Ack()
		return
	}

	ctx, cancel := context.WithTimeout(ing.ctx, 10*time.Second)
	defer cancel()

	if err := ing.store.SetCallAnalysis(ctx, m.CallID, m.Analysis); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Warn("analysis for unknown call, skipping", "call_id", m.CallID)
			_ = msg.Ack()
			return
		}
		// Nak so JetStream redelivers, up to MaxDeliver.
		slog.Error("failed to store call analysis", "call_id", m.CallID, "error", err)
		_ = msg.Nak()
		return
	}

	if ing.audit != nil {
		ing.audit.Record(events.New("", events.EntityCall, m.CallID, events.ActionAnalysis,
			map[string]any{"subject": msg.Subject()}))
	}

	if err := msg.Ack(); err != nil {
		slog.Warn("failed to ack message", "subject", msg.Subject(), "error", err)
	}
}

func validCallID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Publish sends a message to NATS.
func (ing *Ingester) Publish(subject string, data []byte) error {
	return ing.nc.Publish(subject, data)
}

// Stop stops consuming and waits for in-flight messages to finish. Messages
// delivered afterwards are nak'd for redelivery. Publish keeps working.
func (ing *Ingester) Stop() {
	ing.mu.Lock()
	if ing.stopped {
		ing.mu.Unlock()
		return
	}
	ing.stopped = true
	ing.mu.Unlock()

	for _, cc := range ing.subs {
		cc.Stop()
	}
	ing.inflight.Wait()
}

// Close stops consumers and drains the NATS connection.
func (ing *Ingester) Close() {
	ing.Stop()
	ing.cancel()
	ing.nc.Drain()
}
