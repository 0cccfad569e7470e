package service

import (
	"context"
	"encoding/json"

	"projectx-be/internal/dto"
	"projectx-be/internal/pkg/logger"
	"projectx-be/internal/pkg/mailer"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber   message.Subscriber
	topicName    string
	emailService mailer.IEmailService
	logger       logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	emailService mailer.IEmailService,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:   subscriber,
		topicName:    topicName,
		emailService: emailService,
		logger:       logger,
	}
}

// Consume starts a goroutine that drains the email topic until ctx is done.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

// processMessage always acks. A failed send is logged and the user can ask
// for a new code, so redelivery would only spin on a broken SMTP server.
func (cs *consumerService) processMessage(msg *message.Message) {
	defer msg.Ack()

	var job dto.VerificationEmailMessage
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		cs.logger.Error("EMAIL_QUEUE", "Failed to unmarshal email job", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	if err := cs.emailService.SendVerificationCode(job.Email, job.Name, job.Code, job.TTL); err != nil {
		cs.logger.Error("EMAIL_QUEUE", "Failed to send verification email", map[string]interface{}{
			"message_id": msg.UUID,
			"email":      job.Email,
			"error":      err.Error(),
		})
		return
	}

	cs.logger.Info("EMAIL_QUEUE", "Verification email sent", map[string]interface{}{
		"message_id": msg.UUID,
		"email":      job.Email,
	})
}
