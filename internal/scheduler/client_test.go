package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

type testSchedulerConfig struct {
	redisURL string
}

func (c testSchedulerConfig) GetRedisURL() string                    { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool              { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string              { return "leadflow" }
func (c testSchedulerConfig) GetAsynqConcurrency() int               { return 2 }
func (c testSchedulerConfig) GetFollowUpTickInterval() time.Duration { return time.Minute }

func TestClientEnqueue(t *testing.T) {
	redis := miniredis.RunT(t)

	client, err := NewClient(testSchedulerConfig{redisURL: "redis://" + redis.Addr()})
	require.NoError(t, err)
	defer func() {
		require.NoError(t, client.Close())
	}()

	ctx := context.Background()
	require.NoError(t, client.EnqueueFollowUpTick(ctx))
	require.NoError(t, client.EnqueueFollowUpLead(ctx, FollowUpLeadPayload{
		LeadID: "8b9f0b54-8b5d-4b2e-b9f7-85a79c4dca01",
		Step:   2,
	}))

	// Same lead+step within the uniqueness window is dropped, not queued twice.
	err = client.EnqueueFollowUpLead(ctx, FollowUpLeadPayload{
		LeadID: "8b9f0b54-8b5d-4b2e-b9f7-85a79c4dca01",
		Step:   2,
	})
	require.Error(t, err)
}

func TestClientRequiresRedisURL(t *testing.T) {
	_, err := NewClient(testSchedulerConfig{redisURL: ""})
	require.Error(t, err)
}

func TestNilClientIsNoop(t *testing.T) {
	var client *Client
	require.NoError(t, client.EnqueueFollowUpTick(context.Background()))
	require.NoError(t, client.EnqueueFollowUpLead(context.Background(), FollowUpLeadPayload{}))
	require.NoError(t, client.Close())
}
