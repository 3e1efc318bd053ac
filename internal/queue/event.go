// Package queue defines message payloads exchanged over the message broker.
package queue

// NotificationQueueName is the durable queue carrying notification
// events from request handlers to the background consumer.
const NotificationQueueName = "notification.events"

// NotificationEvent is published whenever a state change should reach
// a user: someone joined or left their event, a followed user created
// an event, a rating arrived.  It carries everything the consumer
// needs to persist the notification without querying back into the
// request path.
type NotificationEvent struct {
	UserID  uint64  `json:"user_id"`
	Type    string  `json:"type"`
	Title   string  `json:"title"`
	Message string  `json:"message"`
	Link    *string `json:"link,omitempty"`
	SentAt  string  `json:"sent_at"`
}
