// Package notification delivers user-facing engine events (order placed,
// executed, rejected, watchlist changed) to one or more sinks: the log, the
// WebSocket gateway, Redis pub/sub.
package notification

import (
	"context"
	"log"
	"time"
)

// Level represents the severity of an alert.
type Level string

const (
	LevelInfo     Level = "INFO"
	LevelWarning  Level = "WARNING"
	LevelCritical Level = "CRITICAL"
)

// Alert is one user-facing notification event.
type Alert struct {
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier is the interface for all notification sinks.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier logs alerts (useful for development and as the default sink).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Multi fans one alert out to several sinks. Delivery errors are logged per
// sink and do not stop the remaining sinks.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, alert Alert) error {
	for _, n := range m {
		if err := n.Send(ctx, alert); err != nil {
			log.Printf("[notify] sink error: %v", err)
		}
	}
	return nil
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, alert Alert) error

func (f Func) Send(ctx context.Context, alert Alert) error {
	return f(ctx, alert)
}
