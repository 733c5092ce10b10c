package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/metrics"
)

// DefaultWriteTimeout bounds a single send when none is configured.
const DefaultWriteTimeout = 5 * time.Second

// Broadcaster delivers payloads to connections one by one.
// A failing connection never affects the others and never surfaces to the caller.
type Broadcaster struct {
	writeTimeout time.Duration
	log          *zerolog.Logger
}

// NewBroadcaster builds a broadcaster with a per-send timeout.
func NewBroadcaster(writeTimeout time.Duration, logger *zerolog.Logger) *Broadcaster {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Broadcaster{writeTimeout: writeTimeout, log: logger}
}

// Send writes payload to every connection and returns how many succeeded.
// Sends outlive cancellation of ctx so that a departing sender does not cut
// delivery short for everyone else.
func (b *Broadcaster) Send(ctx context.Context, conns []Conn, payload []byte) int {
	base := context.WithoutCancel(ctx)

	delivered := 0
	for _, c := range conns {
		if err := b.sendOne(base, c, payload); err != nil {
			metrics.BroadcastDeliveriesTotal.WithLabelValues("failed").Inc()
			b.log.Warn().Err(err).Str("conn_id", c.ID()).Msg("broadcast delivery failed")
			continue
		}
		metrics.BroadcastDeliveriesTotal.WithLabelValues("ok").Inc()
		delivered++
	}
	return delivered
}

func (b *Broadcaster) sendOne(ctx context.Context, c Conn, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("send panicked: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, b.writeTimeout)
	defer cancel()
	return c.Send(ctx, payload)
}
