package server

import (
	"context"
	"fmt"

	"artify-catalog/internal/config"
	"artify-catalog/internal/events"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"
)

// NewPublisher picks the event channel named by EVENTS_DRIVER.
func NewPublisher(ctx context.Context, cfg config.EventsConfig, redisClient redis.UniversalClient) (events.Publisher, error) {
	switch cfg.Driver {
	case "", "redis":
		return events.NewRedisStreamPublisher(redisClient, cfg.StreamMaxLen), nil
	case "sqs":
		if cfg.SQSQueueURL == "" {
			return nil, fmt.Errorf("SQS_QUEUE_URL is required for the sqs events driver")
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.SQSQueueURL), nil
	case "none":
		return events.NopPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}
