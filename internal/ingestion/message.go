package ingestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"crowd-pulse-lab/internal/domain"
)

// ErrMalformedMessage is returned for feed messages that cannot become events.
var ErrMalformedMessage = errors.New("malformed event message")

// eventMessage is the feed's JSON wire format.
type eventMessage struct {
	ID              string          `json:"id"`
	Asset           string          `json:"asset"`
	Author          string          `json:"author"`
	Timestamp       json.RawMessage `json:"timestamp"`
	Likes           int64           `json:"likes"`
	Comments        int64           `json:"comments"`
	Retweets        int64           `json:"retweets"`
	Impressions     int64           `json:"impressions"`
	AuthorFollowers int64           `json:"author_followers"`
	Sentiment       *float64        `json:"sentiment"`
}

// subscribeMessage is sent after every (re)connect.
type subscribeMessage struct {
	Op     string   `json:"op"`
	Assets []string `json:"assets,omitempty"`
}

// DecodeEvent parses one feed message.
// Messages without id or asset are rejected. A missing or malformed
// timestamp decodes to 0 and is substituted at analysis time. Negative
// counters read 0; sentiment outside [-1, 1] is dropped.
func DecodeEvent(data []byte) (*domain.Event, error) {
	var msg eventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	msg.ID = strings.TrimSpace(msg.ID)
	msg.Asset = strings.TrimSpace(msg.Asset)
	if msg.ID == "" || msg.Asset == "" {
		return nil, fmt.Errorf("%w: id and asset are required", ErrMalformedMessage)
	}

	e := &domain.Event{
		ID:              msg.ID,
		Asset:           msg.Asset,
		Author:          msg.Author,
		TimestampMs:     ParseTimestamp(msg.Timestamp),
		Likes:           nonNegative(msg.Likes),
		Comments:        nonNegative(msg.Comments),
		Retweets:        nonNegative(msg.Retweets),
		Impressions:     nonNegative(msg.Impressions),
		AuthorFollowers: nonNegative(msg.AuthorFollowers),
	}
	if s := msg.Sentiment; s != nil && !math.IsNaN(*s) && *s >= -1 && *s <= 1 {
		v := *s
		e.Sentiment = &v
	}
	return e, nil
}

// ParseTimestamp accepts epoch milliseconds (number or numeric string) and
// RFC 3339 strings. Anything else, including non-positive values, returns 0.
func ParseTimestamp(raw json.RawMessage) int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		s = strings.TrimSpace(s)
	} else {
		s = string(raw)
	}

	if ms, ok := parseEpochMs(s); ok {
		return ms
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		if ms := t.UnixMilli(); ms > 0 {
			return ms
		}
	}
	return 0
}

func parseEpochMs(s string) (int64, bool) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return 0, true
		}
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f <= 0 || f > math.MaxInt64 {
		return 0, true
	}
	return int64(f), true
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
