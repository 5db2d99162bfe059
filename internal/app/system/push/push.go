// Package push delivers notifications to browser push endpoints.
//
// The Web Push transport (VAPID signing, payload encryption) lives behind
// Sender. LogSender is the default and records deliveries with zap.
package push

import (
	"context"
	"errors"

	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.uber.org/zap"
)

// ErrGone means the endpoint no longer exists and the subscription should
// be removed.
var ErrGone = errors.New("push endpoint gone")

// Message is what the browser shows.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// Sender delivers one message to one subscription.
type Sender interface {
	Send(ctx context.Context, sub models.PushSubscription, msg Message) error
}

// LogSender logs every delivery instead of sending it.
type LogSender struct {
	Log *zap.Logger
}

// Send implements Sender.
func (s LogSender) Send(ctx context.Context, sub models.PushSubscription, msg Message) error {
	if s.Log == nil {
		return nil
	}
	s.Log.Info("push notification",
		zap.String("user_id", sub.UserID.Hex()),
		zap.String("endpoint", sub.Endpoint),
		zap.String("title", msg.Title),
		zap.String("url", msg.URL))
	return nil
}

// FromNotification builds the message for n.
func FromNotification(n models.Notification) Message {
	return Message{Title: n.Title, Body: n.Body, URL: n.URL}
}
