package rabbitmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/course-platform/internal/models"
)

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "subscription.active", RoutingKey(models.StatusActive))
	assert.Equal(t, "subscription.cancelled", RoutingKey(models.StatusCancelled))
}

func TestSubscriptionQueues(t *testing.T) {
	queues := SubscriptionQueues()
	require.Len(t, queues, 2)

	assert.Equal(t, QueueConfig{QueueName: "subscription.activated", RoutingKey: "subscription.active"}, queues[0])
	assert.Equal(t, QueueConfig{QueueName: "subscription.cancelled", RoutingKey: "subscription.cancelled"}, queues[1])

	seen := map[string]bool{}
	for _, q := range queues {
		assert.Falsef(t, seen[q.QueueName], "duplicate queue name: %s", q.QueueName)
		seen[q.QueueName] = true
	}
}
