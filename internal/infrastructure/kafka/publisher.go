// Package kafka publica los sobres de eventos de ciclo de vida en tópicos de Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/rebate-api/internal/application/events"
	"github.com/jhoicas/rebate-api/internal/application/ports"
	"github.com/jhoicas/rebate-api/pkg/logger"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// Publisher un Writer asíncrono por stream. La clave del mensaje es el correlation id
// (pedido o contrato), así los eventos de una misma entidad caen en la misma partición.
type Publisher struct {
	writers map[events.Stream]*kafka.Writer
	log     *logger.Logger
}

// Topics tópico por stream.
type Topics map[events.Stream]string

// NewPublisher crea los writers. No abre conexiones hasta el primer mensaje.
func NewPublisher(brokers []string, topics Topics, log *logger.Logger) *Publisher {
	l := log.Named("kafka")
	p := &Publisher{writers: make(map[events.Stream]*kafka.Writer, len(topics)), log: l}
	for stream, topic := range topics {
		topic := topic
		p.writers[stream] = &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
			Async:        true,
			Completion: func(msgs []kafka.Message, err error) {
				if err != nil {
					l.Error().Err(err).Str("topic", topic).Int("messages", len(msgs)).Msg("publicación fallida")
				}
			},
		}
	}
	return p
}

// Publish encola el sobre. Nunca falla la operación de negocio.
func (p *Publisher) Publish(ctx context.Context, stream events.Stream, env events.Envelope) {
	w, ok := p.writers[stream]
	if !ok {
		p.log.Warn().Str("stream", string(stream)).Str("event_type", env.EventType).Msg("stream sin tópico")
		return
	}
	value, err := json.Marshal(env)
	if err != nil {
		p.log.Error().Err(err).Str("event_type", env.EventType).Msg("serializar evento")
		return
	}
	msg := kafka.Message{
		Key:   []byte(env.CorrelationID),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
		},
	}
	// Async: WriteMessages solo encola; los errores llegan por Completion.
	if err := w.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		p.log.Error().Err(err).Str("event_type", env.EventType).Msg("encolar evento")
	}
}

// Close vacía los buffers y cierra los writers.
func (p *Publisher) Close() error {
	var first error
	for _, w := range p.writers {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LogPublisher registra los eventos en el log cuando Kafka no está configurado.
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher construye el publicador de respaldo.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log.Named("events")}
}

// Publish escribe el evento a nivel debug.
func (p *LogPublisher) Publish(_ context.Context, stream events.Stream, env events.Envelope) {
	p.log.Debug().
		Str("stream", string(stream)).
		Str("event_type", env.EventType).
		Str("event_id", env.EventID).
		Str("correlation_id", env.CorrelationID).
		RawJSON("payload", env.Payload).
		Msg("evento")
}
