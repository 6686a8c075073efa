package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geoscatter/internal/core/domain"
)

const (
	// DurableName is the consumer shared by all worker replicas.
	DurableName = "map-renderer"
	// MaxDeliver bounds the attempts made for one job.
	MaxDeliver = 3
)

// Subscriber implements ports.JobSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewSubscriber connects to NATS and ensures the job streams exist.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := EnsureStreams(js); err != nil {
		conn.Close()
		return nil, err
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeJobs delivers every queued job to handler. Malformed messages are
// terminated; handler errors are nak'ed for redelivery, up to MaxDeliver attempts.
func (s *Subscriber) SubscribeJobs(ctx context.Context, handler func(ctx context.Context, job *domain.RenderJob) error) error {
	sub, err := s.js.QueueSubscribe(JobsSubject+".>", DurableName, func(msg *nats.Msg) {
		var job domain.RenderJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			slog.Warn("dropping malformed render job", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		job.FinalAttempt = finalAttempt(msg)
		if err := handler(ctx, &job); err != nil {
			slog.Warn("render job will be retried", "job_id", job.ID, "error", err)
			_ = msg.NakWithDelay(5 * time.Second)
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(DurableName),
		nats.ManualAck(),
		nats.MaxDeliver(MaxDeliver),
		nats.AckWait(2*time.Minute),
	)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = sub.Drain()
	}()
	return nil
}

// finalAttempt reports whether msg is on its last delivery. Messages without
// JetStream metadata are treated as final, since nothing will redeliver them.
func finalAttempt(msg *nats.Msg) bool {
	meta, err := msg.Metadata()
	if err != nil {
		return true
	}
	return isFinalDelivery(meta.NumDelivered)
}

func isFinalDelivery(numDelivered uint64) bool {
	return numDelivered >= MaxDeliver
}

// Close drains the connection. The durable consumer is kept so that pending
// jobs survive a restart.
func (s *Subscriber) Close() {
	_ = s.conn.Drain()
}
