package service

import (
	"context"
	"encoding/json"
	"fmt"

	"projectx-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// IEmailJobPublisher queues outbound emails so sign-up never waits on SMTP.
type IEmailJobPublisher interface {
	EnqueueVerificationEmail(ctx context.Context, job dto.VerificationEmailMessage) error
}

type emailJobPublisher struct {
	publisher message.Publisher
	topicName string
}

func NewEmailJobPublisher(publisher message.Publisher, topicName string) IEmailJobPublisher {
	return &emailJobPublisher{
		publisher: publisher,
		topicName: topicName,
	}
}

func (p *emailJobPublisher) EnqueueVerificationEmail(ctx context.Context, job dto.VerificationEmailMessage) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal email job: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topicName, msg); err != nil {
		return fmt.Errorf("failed to publish email job: %w", err)
	}
	return nil
}
