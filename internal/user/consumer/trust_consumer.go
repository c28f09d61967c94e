package consumer

import (
	"context"
	"encoding/json"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/okovalenko/hotel-microservice/internal/user/service"
	"github.com/okovalenko/hotel-microservice/pkg/rabbitmq"
)

// TrustConsumer applies booking-completed events to user trust levels.
type TrustConsumer struct {
	users service.UserService
}

func NewTrustConsumer(users service.UserService) *TrustConsumer {
	return &TrustConsumer{users: users}
}

// Start drains the delivery channel until it closes.
func (c *TrustConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			c.handleMessage(context.Background(), msg)
		}
		log.Warn().Msg("booking event channel closed")
	}()
}

func (c *TrustConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var event rabbitmq.BookingCompleted
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Error().Err(err).Msg("malformed booking event, dropping")
		msg.Nack(false, false)
		return
	}

	err := c.users.ApplyCompletion(ctx, event.UserID, event.CompletedCount)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			// Nothing to apply the event to; requeueing would loop forever.
			log.Warn().Uint("user_id", event.UserID).Msg("booking event for unknown user, dropping")
			msg.Ack(false)
			return
		}
		log.Error().Err(err).Uint("user_id", event.UserID).Msg("trust update failed, requeueing")
		msg.Nack(false, true)
		return
	}

	log.Info().
		Uint("user_id", event.UserID).
		Uint("booking_id", event.BookingID).
		Int64("completed_count", event.CompletedCount).
		Msg("trust level recomputed")
	msg.Ack(false)
}
