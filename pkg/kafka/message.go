package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/laurel/pkg/models"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Trace context (extracted from Kafka headers)
	TraceParent string
	TraceState  string

	// Parsed content
	Candidate models.RawRecord
}

// ParseCandidate parses the message value as a candidate record. Candidate
// messages carry one raw record per message.
func (m *IncomingMessage) ParseCandidate() error {
	var candidate models.RawRecord
	if err := json.Unmarshal(m.Value, &candidate); err != nil {
		return fmt.Errorf("decode candidate message: %w", err)
	}
	if len(candidate) == 0 {
		return fmt.Errorf("empty candidate message")
	}
	m.Candidate = candidate
	return nil
}

// GetFeed returns the feed name from the message headers.
func (m *IncomingMessage) GetFeed() string {
	return m.Headers["feed"]
}

// IsFlushMessage reports whether this message asks the service to run the
// aggregation over the candidates buffered so far.
func (m *IncomingMessage) IsFlushMessage() bool {
	return m.Headers["message_type"] == "flush"
}
