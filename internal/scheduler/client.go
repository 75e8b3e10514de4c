package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"talenttrack_backend/internal/candidates/ports"
	"talenttrack_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleFollowUp enqueues a reminder for a placement approaching the end of
// its guarantee period. Implements the candidates module's FollowUpScheduler
// port. Reminders already in the past are delivered immediately.
func (c *Client) ScheduleFollowUp(ctx context.Context, req ports.FollowUpRequest) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewPlacementFollowUpDueTask(PlacementFollowUpDuePayload{
		CandidateID:   req.CandidateID.String(),
		CandidateName: req.CandidateName,
		RecruiterID:   req.RecruiterID.String(),
		GuaranteeEnds: req.GuaranteeEnds,
	})
	if err != nil {
		return err
	}

	runAt := req.RemindAt
	if runAt.Before(time.Now()) {
		runAt = time.Now()
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.ProcessAt(runAt), asynq.Queue(c.queue))
	return err
}

var _ ports.FollowUpScheduler = (*Client)(nil)

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
