// Package consumer ingests activity batches published to Kafka by desktop
// tracking agents, feeding the same bulk-save path as the HTTP API.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Reader exposes the minimal kafka.Reader interface needed by the processor.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Handler receives decoded batches from Kafka.
type Handler interface {
	Handle(context.Context, Message) error
}

// Message is the decoded representation of one published activity batch.
type Message struct {
	Topic      string
	Partition  int
	Offset     int64
	Timestamp  time.Time
	TenantID   string
	EmployeeID string
	Payload    json.RawMessage
}

// Option configures optional behaviour for the Processor.
type Option func(*Processor)

// WithLogger overrides the logger used to report errors.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Processor) {
		p.log = log
	}
}

// Processor pulls messages from Kafka, decodes them, and dispatches to a
// Handler. Messages are committed only after the handler succeeds, so a
// crashed consumer replays uncommitted batches (at-least-once).
type Processor struct {
	reader  Reader
	handler Handler
	log     zerolog.Logger
}

// NewProcessor constructs a Processor with the provided reader and handler.
func NewProcessor(reader Reader, handler Handler, opts ...Option) *Processor {
	p := &Processor{
		reader:  reader,
		handler: handler,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run starts a blocking loop that processes Kafka messages until the
// context is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			p.log.Error().Err(err).Msg("fetch error")
			continue
		}

		batch, decodeErr := decodeMessage(msg)
		if decodeErr != nil {
			p.log.Error().Err(decodeErr).
				Str("topic", msg.Topic).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("decode error")
			recordDecodeError(msg.Topic)
			// Commit malformed messages to avoid poison-pill loops.
			if commitErr := p.reader.CommitMessages(ctx, msg); commitErr != nil {
				p.log.Error().Err(commitErr).Msg("commit error after decode failure")
			}
			continue
		}

		if handleErr := p.handler.Handle(ctx, batch); handleErr != nil {
			p.log.Error().Err(handleErr).
				Str("tenantId", batch.TenantID).
				Str("employeeId", batch.EmployeeID).
				Msg("handler error")
			recordHandlerError(batch)
			continue
		}

		if commitErr := p.reader.CommitMessages(ctx, msg); commitErr != nil {
			p.log.Error().Err(commitErr).Msg("commit error")
		} else {
			recordProcessed(batch)
		}
	}
}

func decodeMessage(msg kafka.Message) (Message, error) {
	if len(msg.Value) == 0 {
		return Message{}, errors.New("empty payload")
	}

	tenantID, ok := headerValue(msg, "tenant_id")
	if !ok {
		return Message{}, errors.New("missing tenant_id header")
	}
	employeeID, _ := headerValue(msg, "employee_id")

	payload := json.RawMessage(append([]byte(nil), msg.Value...))

	return Message{
		Topic:      msg.Topic,
		Partition:  msg.Partition,
		Offset:     msg.Offset,
		Timestamp:  msg.Time,
		TenantID:   string(tenantID),
		EmployeeID: string(employeeID),
		Payload:    payload,
	}, nil
}

func headerValue(msg kafka.Message, key string) ([]byte, bool) {
	for _, header := range msg.Headers {
		if header.Key == key {
			return header.Value, true
		}
	}
	return nil, false
}
