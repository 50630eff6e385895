package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"dronewatch/internal/models"
	"dronewatch/internal/service"
)

const (
	readLimit      = 1024 * 1024
	readTimeout    = 60 * time.Second
	writeTimeout   = 10 * time.Second
	pingInterval   = 30 * time.Second
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Ingestor accepts one telemetry report.
type Ingestor interface {
	Ingest(ctx context.Context, input service.TelemetryInput) (*models.Drone, *models.Telemetry, error)
}

// envelope is the wire frame the telemetry feed publishes. The topic
// ends with the drone serial, e.g. drones/telemetry/DJI-001.
type envelope struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

type subscribeRequest struct {
	Action   string `json:"action"`
	Topic    string `json:"topic"`
	ClientID string `json:"client_id"`
}

// Subscriber consumes the external telemetry feed over a WebSocket
// connection and pushes every report through the ingestion pipeline.
type Subscriber struct {
	url      string
	topic    string
	clientID string
	ingest   Ingestor
	logger   *zap.Logger
	dialer   *websocket.Dialer
}

// NewSubscriber builds a feed subscriber for the given feed URL and
// topic pattern.
func NewSubscriber(url, topic string, ingest Ingestor, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		url:      url,
		topic:    topic,
		clientID: uuid.NewString(),
		ingest:   ingest,
		logger:   logger,
		dialer:   websocket.DefaultDialer,
	}
}

// Run connects to the feed and consumes it until ctx is cancelled,
// reconnecting with capped backoff after every connection failure.
func (s *Subscriber) Run(ctx context.Context) error {
	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("feed connection lost, reconnecting",
				zap.String("url", s.url), zap.Duration("backoff", backoff), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (s *Subscriber) consume(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial feed: %w", err)
	}
	defer conn.Close()

	sub := subscribeRequest{Action: "subscribe", Topic: s.topic, ClientID: s.clientID}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.topic, err)
	}
	s.logger.Info("subscribed to telemetry feed",
		zap.String("url", s.url), zap.String("topic", s.topic), zap.String("client_id", s.clientID))

	go s.pingLoop(ctx, conn)

	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if err := s.handleMessage(ctx, message); err != nil {
			s.logger.Warn("failed to process feed message", zap.Error(err))
		}
	}
}

func (s *Subscriber) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage decodes one feed envelope and ingests its payload.
// When the payload omits the serial it is taken from the topic.
func (s *Subscriber) handleMessage(ctx context.Context, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if len(env.Payload) == 0 {
		return fmt.Errorf("envelope on topic %q has no payload", env.Topic)
	}

	var input service.TelemetryInput
	if err := json.Unmarshal(env.Payload, &input); err != nil {
		return fmt.Errorf("decode payload on topic %q: %w", env.Topic, err)
	}
	if input.Serial == "" {
		input.Serial = serialFromTopic(env.Topic)
	}

	drone, sample, err := s.ingest.Ingest(ctx, input)
	if err != nil {
		return fmt.Errorf("ingest from topic %q: %w", env.Topic, err)
	}
	s.logger.Debug("feed telemetry ingested",
		zap.String("serial", drone.Serial), zap.Int64("telemetry_id", sample.ID))
	return nil
}

// serialFromTopic returns the last topic segment, or "" when the topic
// carries no usable serial (empty, trailing slash, wildcard).
func serialFromTopic(topic string) string {
	idx := strings.LastIndex(topic, "/")
	if idx < 0 {
		return ""
	}
	serial := topic[idx+1:]
	if serial == "#" || serial == "+" {
		return ""
	}
	return serial
}
