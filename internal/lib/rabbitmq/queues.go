package rabbitmq

import "github.com/magabrotheeeer/course-platform/internal/models"

// QueueConfig имя очереди и ключ маршрутизации, по которому она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// RoutingKey ключ маршрутизации события о переходе подписки в статус.
func RoutingKey(status models.SubscriptionStatus) string {
	return "subscription." + string(status)
}

// SubscriptionQueues очереди, которые слушает notification-sender.
func SubscriptionQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "subscription.activated", RoutingKey: RoutingKey(models.StatusActive)},
		{QueueName: "subscription.cancelled", RoutingKey: RoutingKey(models.StatusCancelled)},
	}
}
