// Package notify publishes job offer lifecycle events.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"

	awsclient "job-offer-pipeline/internal/common/aws"
	apperrors "job-offer-pipeline/internal/common/errors"
	"job-offer-pipeline/internal/common/logger"
	"job-offer-pipeline/internal/models"
)

type Publisher interface {
	Publish(ctx context.Context, event models.JobOfferEvent) error
}

// NewEvent stamps an event for a job offer with a fresh ID and time.
func NewEvent(eventType string, jobOfferID, ownerID int64, title string, active bool) models.JobOfferEvent {
	return models.JobOfferEvent{
		EventID:    uuid.New().String(),
		Type:       eventType,
		JobOfferID: jobOfferID,
		OwnerID:    ownerID,
		Title:      title,
		Active:     active,
		OccurredAt: time.Now().UTC(),
	}
}

// SNSPublisher sends events as JSON to an SNS topic.
type SNSPublisher struct {
	client   awsclient.SNSAPI
	topicARN string
	logger   logger.Logger
}

func NewSNSPublisher(client awsclient.SNSAPI, topicARN string, log logger.Logger) *SNSPublisher {
	return &SNSPublisher{
		client:   client,
		topicARN: topicARN,
		logger:   log.WithFields(map[string]interface{}{"component": "sns-publisher"}),
	}
}

func (p *SNSPublisher) Publish(ctx context.Context, event models.JobOfferEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrSerialization, err)
	}

	out, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {DataType: aws.String("String"), StringValue: aws.String(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	p.logger.Debug("event published", map[string]interface{}{
		"eventId":    event.EventID,
		"eventType":  event.Type,
		"jobOfferId": event.JobOfferID,
		"messageId":  aws.ToString(out.MessageId),
	})
	return nil
}

// LogPublisher only logs events. It is used when SNS is disabled.
type LogPublisher struct {
	logger logger.Logger
}

func NewLogPublisher(log logger.Logger) *LogPublisher {
	return &LogPublisher{logger: log.WithFields(map[string]interface{}{"component": "event-log"})}
}

func (p *LogPublisher) Publish(_ context.Context, event models.JobOfferEvent) error {
	p.logger.Debug("job offer event", map[string]interface{}{
		"eventId":    event.EventID,
		"eventType":  event.Type,
		"jobOfferId": event.JobOfferID,
	})
	return nil
}
