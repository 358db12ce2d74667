package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Handler processes one event payload. Returning an error leaves the entry pending for redelivery.
type Handler func(ctx context.Context, payload []byte) error

// StreamConsumer reads a Redis stream as a member of a consumer group.
type StreamConsumer struct {
	client   redis.UniversalClient
	stream   string
	group    string
	consumer string
	batch    int64
	block    time.Duration
	minIdle  time.Duration
	logger   *zap.Logger
}

// ConsumerConfig names the stream position of a consumer. Consumer should be stable across
// restarts; entries left pending by any other member are adopted once idle for ClaimMinIdle.
type ConsumerConfig struct {
	Stream       string
	Group        string
	Consumer     string
	Batch        int64
	Block        time.Duration
	ClaimMinIdle time.Duration
}

func NewStreamConsumer(client redis.UniversalClient, cfg ConsumerConfig, logger *zap.Logger) *StreamConsumer {
	if cfg.Batch <= 0 {
		cfg.Batch = 10
	}
	if cfg.Block <= 0 {
		cfg.Block = 5 * time.Second
	}
	if cfg.ClaimMinIdle <= 0 {
		cfg.ClaimMinIdle = time.Minute
	}
	return &StreamConsumer{
		client:   client,
		stream:   cfg.Stream,
		group:    cfg.Group,
		consumer: cfg.Consumer,
		batch:    cfg.Batch,
		block:    cfg.Block,
		minIdle:  cfg.ClaimMinIdle,
		logger:   logger,
	}
}

// EnsureGroup creates the stream and group if needed, starting from the beginning of the stream.
func (c *StreamConsumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s on %s: %w", c.group, c.stream, err)
	}
	return nil
}

// Run first retries this consumer's unacknowledged entries and adopts idle ones from other
// members, then processes new entries until ctx is done. Idle entries are swept again every
// ClaimMinIdle.
func (c *StreamConsumer) Run(ctx context.Context, handle Handler) error {
	if err := c.EnsureGroup(ctx); err != nil {
		return err
	}

	if _, err := c.read(ctx, "0", -1, handle); err != nil && ctx.Err() == nil {
		c.logger.Warn("Failed to replay pending events", zap.Error(err))
	}

	lastSweep := time.Time{}
	for {
		if ctx.Err() != nil {
			return nil
		}
		if time.Since(lastSweep) >= c.minIdle {
			if _, err := c.ClaimStale(ctx, handle); err != nil && ctx.Err() == nil {
				c.logger.Warn("Failed to claim idle events", zap.String("stream", c.stream), zap.Error(err))
			}
			lastSweep = time.Now()
		}
		if _, err := c.read(ctx, ">", c.block, handle); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to read events", zap.String("stream", c.stream), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
	}
}

// ProcessAvailable handles whatever new entries are ready without blocking and returns how many were acked.
func (c *StreamConsumer) ProcessAvailable(ctx context.Context, handle Handler) (int, error) {
	return c.read(ctx, ">", -1, handle)
}

// ClaimStale takes over entries that have been pending on any member for at least ClaimMinIdle,
// handles them and returns how many were acked. This is how entries survive a renamed or dead consumer.
func (c *StreamConsumer) ClaimStale(ctx context.Context, handle Handler) (int, error) {
	acked := 0
	start := "0-0"
	for {
		msgs, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.stream,
			Group:    c.group,
			Consumer: c.consumer,
			MinIdle:  c.minIdle,
			Start:    start,
			Count:    c.batch,
		}).Result()
		if err != nil {
			return acked, fmt.Errorf("failed to claim idle entries on %s: %w", c.stream, err)
		}

		for _, msg := range msgs {
			if c.handle(ctx, msg, handle) {
				acked++
			}
		}

		if next == "" || next == "0-0" || len(msgs) == 0 {
			return acked, nil
		}
		start = next
	}
}

func (c *StreamConsumer) read(ctx context.Context, from string, block time.Duration, handle Handler) (int, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, from},
		Count:    c.batch,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	acked := 0
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			if c.handle(ctx, msg, handle) {
				acked++
			}
		}
	}
	return acked, nil
}

func (c *StreamConsumer) handle(ctx context.Context, msg redis.XMessage, handle Handler) bool {
	payload, _ := msg.Values[PayloadField].(string)

	if err := handle(ctx, []byte(payload)); err != nil {
		c.logger.Error("Event handler failed, leaving entry pending",
			zap.String("stream", c.stream),
			zap.String("id", msg.ID),
			zap.Error(err),
		)
		return false
	}

	if err := c.client.XAck(ctx, c.stream, c.group, msg.ID).Err(); err != nil {
		c.logger.Error("Failed to ack event", zap.String("id", msg.ID), zap.Error(err))
		return false
	}
	return true
}
