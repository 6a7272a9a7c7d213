package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/zahran001/e-commerce/email-service/internal/render"
	"github.com/zahran001/e-commerce/email-service/internal/repository"
	"github.com/zahran001/e-commerce/internal/events"
)

// errMalformed marks payloads that can never be processed. Retrying them is
// pointless, so they go straight to the poison topic.
var errMalformed = errors.New("malformed payload")

// Consumer subscribes to the notification topics and records every rendered
// email in the notification log. A message is acked only after its log row is
// written; a crash between the write and the ack yields a duplicate row on
// redelivery, which the append-only log tolerates.
type Consumer struct {
	router *message.Router
	repo   repository.NotificationRepository
	logger zerolog.Logger
}

func New(
	sub message.Subscriber,
	poisonPub message.Publisher,
	repo repository.NotificationRepository,
	wmLogger watermill.LoggerAdapter,
	logger zerolog.Logger,
) (*Consumer, error) {
	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	poison, err := middleware.PoisonQueue(poisonPub, events.TopicPoison)
	if err != nil {
		return nil, fmt.Errorf("failed to create poison queue: %w", err)
	}

	retry := middleware.Retry{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2,
		ShouldRetry: func(params middleware.RetryParams) bool {
			return !errors.Is(params.Err, errMalformed)
		},
		Logger: wmLogger,
	}

	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
		poison,
		retry.Middleware,
	)

	c := &Consumer{router: router, repo: repo, logger: logger}

	router.AddNoPublisherHandler("cart_email", events.TopicCartEmail, sub, c.handleCartEmail)
	router.AddNoPublisherHandler("user_registered", events.TopicUserRegistered, sub, c.handleUserRegistered)

	return c, nil
}

// Run blocks until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

// Running closes once the router is up. Tests use it to avoid publishing
// before the subscribers are attached.
func (c *Consumer) Running() chan struct{} {
	return c.router.Running()
}

func (c *Consumer) Close() error {
	return c.router.Close()
}

func (c *Consumer) handleCartEmail(msg *message.Message) error {
	var event events.CartEmailRequested
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if event.CartHeader.Email == "" {
		return fmt.Errorf("%w: cart email event without recipient", errMalformed)
	}

	entry := &repository.NotificationLog{
		Email:   event.CartHeader.Email,
		Subject: render.CartSubject,
		Message: render.CartEmail(&event),
		SentAt:  time.Now().UTC(),
	}

	id, err := c.repo.Append(msg.Context(), entry)
	if err != nil {
		return fmt.Errorf("failed to log cart email: %w", err)
	}

	c.logger.Info().
		Int64("log_id", id).
		Str("email", event.CartHeader.Email).
		Str("correlation_id", middleware.MessageCorrelationID(msg)).
		Msg("cart email recorded")
	return nil
}

func (c *Consumer) handleUserRegistered(msg *message.Message) error {
	var event events.UserRegistered
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if event.Email == "" {
		return fmt.Errorf("%w: registration event without email", errMalformed)
	}

	entry := &repository.NotificationLog{
		Email:   event.Email,
		Subject: render.RegistrationSubject,
		Message: render.RegistrationEmail(&event),
		SentAt:  time.Now().UTC(),
	}

	id, err := c.repo.Append(msg.Context(), entry)
	if err != nil {
		return fmt.Errorf("failed to log registration email: %w", err)
	}

	c.logger.Info().
		Int64("log_id", id).
		Str("email", event.Email).
		Str("correlation_id", middleware.MessageCorrelationID(msg)).
		Msg("registration email recorded")
	return nil
}
