package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"leadrouter_backend/platform/config"
	"leadrouter_backend/platform/logger"
)

// FollowupScheduler enqueues delayed follow-up checks for contacts.
// Modules hold the interface so a nil scheduler can be wired when Redis
// is not configured.
type FollowupScheduler interface {
	ScheduleContactFollowup(ctx context.Context, payload ContactFollowupPayload, delay time.Duration) error
}

// Client wraps an asynq client bound to the configured queue.
type Client struct {
	client *asynq.Client
	queue  string
	logger *logger.Logger
}

func NewClient(cfg config.SchedulerConfig, log *logger.Logger) (*Client, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("scheduler: parse redis url: %w", err)
	}
	return &Client{
		client: asynq.NewClient(opt),
		queue:  cfg.GetAsynqQueueName(),
		logger: log,
	}, nil
}

func (c *Client) ScheduleContactFollowup(ctx context.Context, payload ContactFollowupPayload, delay time.Duration) error {
	task, err := NewContactFollowupTask(payload)
	if err != nil {
		return fmt.Errorf("scheduler: build followup task: %w", err)
	}
	info, err := c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.ProcessIn(delay))
	if err != nil {
		return fmt.Errorf("scheduler: enqueue followup: %w", err)
	}
	c.logger.Info("followup scheduled",
		"task_id", info.ID,
		"contact_id", payload.ContactID,
		"process_in", delay.String(),
	)
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:     opt.Addr,
		Username: opt.Username,
		Password: opt.Password,
		DB:       opt.DB,
	}, nil
}
