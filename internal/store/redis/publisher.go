// Package redis publishes live quotes and notification alerts so external
// dashboards can subscribe without touching the engine. Latest quotes are
// kept under TTL'd keys; every update is also fanned out over pub/sub.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"papertradev1/internal/model"
	"papertradev1/internal/notification"
)

const (
	defaultLatestTTL = 30 * time.Minute
	alertChannel     = "pub:alerts"
)

// Config configures the Redis publisher.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher writes quote snapshots and alerts to Redis.
// It implements notification.Notifier.
type Publisher struct {
	client *goredis.Client
}

var _ notification.Notifier = (*Publisher)(nil)

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// New creates a new Publisher and pings the server.
func New(cfg Config) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Publisher{client: client}, nil
}

// PublishQuotes writes all instrument quotes in a single pipeline:
// SET quote:latest:<exchange>:<symbol> with TTL, plus PUBLISH per instrument.
func (p *Publisher) PublishQuotes(ctx context.Context, quotes []model.Instrument) {
	if len(quotes) == 0 {
		return
	}

	pipe := p.client.Pipeline()
	for i := range quotes {
		q := &quotes[i]
		data, err := json.Marshal(q)
		if err != nil {
			continue
		}
		jsonData := string(data)
		latestKey := "quote:latest:" + q.Key()
		pubsubCh := "pub:quote:" + q.Key()

		pipe.Set(ctx, latestKey, jsonData, defaultLatestTTL)
		pipe.Publish(ctx, pubsubCh, jsonData)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[redis] quote pipeline error (%d quotes): %v", len(quotes), err)
	}
}

// Send publishes a notification alert to the shared alerts channel.
func (p *Publisher) Send(ctx context.Context, alert notification.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	if err := p.client.Publish(ctx, alertChannel, string(data)).Err(); err != nil {
		return fmt.Errorf("redis publish alert: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
