package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"crowd-pulse-lab/internal/domain"
)

// WSConfig configures the websocket feed client.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// HandshakeTimeout bounds the websocket handshake.
	HandshakeTimeout time.Duration
	// ReadTimeout is the longest silence tolerated before reconnecting. Zero disables it.
	ReadTimeout time.Duration
	// PingInterval is interval for sending ping frames. Zero disables pings.
	PingInterval time.Duration
	// Buffer is the capacity of the event channel.
	Buffer int
}

// DefaultWSConfig returns default websocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		ReadTimeout:       90 * time.Second,
		PingInterval:      30 * time.Second,
		Buffer:            256,
	}
}

// WSOptions contains configuration for creating a WSEventSource.
type WSOptions struct {
	Endpoint string
	Assets   []string // sent in the subscribe message; empty subscribes to everything
	Config   *WSConfig
	Logger   zerolog.Logger
	Recorder Recorder
}

// WSEventSource streams engagement events from a websocket feed and
// reconnects with exponential backoff when the connection drops.
type WSEventSource struct {
	endpoint string
	assets   []string
	cfg      WSConfig
	log      zerolog.Logger
	recorder Recorder
}

var _ EventSource = (*WSEventSource)(nil)

// NewWSEventSource creates a websocket event source.
func NewWSEventSource(opts WSOptions) *WSEventSource {
	cfg := DefaultWSConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}
	if cfg.MaxReconnectDelay < cfg.ReconnectDelay {
		cfg.MaxReconnectDelay = cfg.ReconnectDelay
	}

	rec := opts.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}

	return &WSEventSource{
		endpoint: opts.Endpoint,
		assets:   opts.Assets,
		cfg:      cfg,
		log:      opts.Logger,
		recorder: rec,
	}
}

// Subscribe connects to the feed and returns its events.
// The first dial is synchronous so a bad endpoint fails fast; later
// disconnects are retried until ctx is done.
func (s *WSEventSource) Subscribe(ctx context.Context) (<-chan *domain.Event, error) {
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan *domain.Event, s.cfg.Buffer)
	go s.run(ctx, conn, out)
	return out, nil
}

func (s *WSEventSource) run(ctx context.Context, conn *websocket.Conn, out chan<- *domain.Event) {
	defer close(out)

	delay := s.cfg.ReconnectDelay
	for {
		received, err := s.readLoop(ctx, conn, out)
		if ctx.Err() != nil {
			return
		}

		// Reset delay once a connection has delivered data
		if received > 0 {
			delay = s.cfg.ReconnectDelay
		}
		s.log.Warn().Err(err).Dur("delay", delay).Int("received", received).Msg("feed disconnected, reconnecting")

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}

			s.recorder.RecordReconnect()
			conn, err = s.dial(ctx)
			if err == nil {
				break
			}
			s.recorder.RecordIngestError(ErrorTypeDial)
			s.log.Warn().Err(err).Msg("feed reconnect failed")

			// Exponential backoff
			delay *= 2
			if delay > s.cfg.MaxReconnectDelay {
				delay = s.cfg.MaxReconnectDelay
			}
		}
		s.log.Info().Str("endpoint", s.endpoint).Msg("feed reconnected")
	}
}

// readLoop reads until the connection fails or ctx is done, and closes conn.
func (s *WSEventSource) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- *domain.Event) (int, error) {
	defer conn.Close()

	// Unblock ReadMessage on shutdown
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	done := make(chan struct{})
	defer close(done)
	if s.cfg.PingInterval > 0 {
		go s.pingLoop(conn, done)
	}
	if s.cfg.ReadTimeout > 0 {
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		})
	}

	received := 0
	for {
		if s.cfg.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return received, err
		}

		event, err := DecodeEvent(data)
		if err != nil {
			s.recorder.RecordIngestError(ErrorTypeDecode)
			s.log.Debug().Err(err).Msg("skipping feed message")
			continue
		}

		select {
		case out <- event:
			received++
		case <-ctx.Done():
			return received, ctx.Err()
		}
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (s *WSEventSource) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(s.cfg.HandshakeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				// The reader sees the failure and reconnects
				return
			}
		}
	}
}

// dial connects and sends the subscribe message.
func (s *WSEventSource) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: s.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	if err := conn.WriteJSON(subscribeMessage{Op: "subscribe", Assets: s.assets}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("websocket subscribe: %w", err)
	}
	return conn, nil
}
