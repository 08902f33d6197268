// Package nats bridges domain events onto a NATS subject per event name so
// out-of-process consumers (sales-history ingestion, dashboards) can follow
// the marketplace without coupling to it.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	domain "github.com/krishibazaar/marketplace/internal/domain/outbox"
	"github.com/krishibazaar/marketplace/internal/observability"
)

const (
	connectAttempts = 3
	connectBackoff  = 2 * time.Second
	flushTimeout    = 2 * time.Second
)

type Publisher struct {
	nc  *nats.Conn
	log observability.Logger
}

func NewPublisher(url string, tel observability.Observability) (*Publisher, error) {
	if tel == nil {
		tel = observability.Nop()
	}
	log := tel.Logger().With(observability.F("component", "nats_publisher"))

	var nc *nats.Conn
	var err error
	for i := 0; i < connectAttempts; i++ {
		nc, err = nats.Connect(url,
			nats.Name("krishibazaar-marketplace"),
			nats.MaxReconnects(5),
			nats.ReconnectWait(connectBackoff),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Warn("nats_disconnected", observability.F("error", err))
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				log.Info("nats_reconnected", observability.F("url", nc.ConnectedUrl()))
			}),
		)
		if err == nil {
			log.Info("nats_connected", observability.F("url", url))
			return &Publisher{nc: nc, log: log}, nil
		}
		log.Warn("nats_connect_failed",
			observability.F("attempt", i+1),
			observability.F("error", err.Error()),
		)
		time.Sleep(connectBackoff)
	}
	return nil, fmt.Errorf("nats: connect: %w", err)
}

// Publish sends the event as a JSON envelope on a subject named after the
// event. Implements the outbox Publisher port.
func (p *Publisher) Publish(ctx context.Context, e domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	envelope := struct {
		Event      string       `json:"event"`
		Payload    domain.Event `json:"payload"`
		OccurredAt string       `json:"occurred_at"`
	}{
		Event:      e.EventName(),
		Payload:    e,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("nats: marshal event: %w", err)
	}

	if err := p.nc.Publish(e.EventName(), data); err != nil {
		return fmt.Errorf("nats: publish %s: %w", e.EventName(), err)
	}
	if err := p.nc.FlushTimeout(flushTimeout); err != nil {
		return fmt.Errorf("nats: flush: %w", err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.nc != nil && p.nc.IsConnected() {
		p.nc.Close()
		p.log.Info("nats_connection_closed")
	}
}
