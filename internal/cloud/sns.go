package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/service"
)

type messagePublisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// EventPublisher sends ingest events and maintenance alerts to an SNS topic.
type EventPublisher struct {
	svc      messagePublisher
	topicArn string
}

func NewEventPublisher(cfg aws.Config, topicArn string) *EventPublisher {
	return &EventPublisher{svc: sns.NewFromConfig(cfg), topicArn: topicArn}
}

func (p *EventPublisher) send(ctx context.Context, subject, message string) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(p.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	}
	result, err := p.svc.Publish(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}
	log.Debug().Str("message_id", aws.ToString(result.MessageId)).Str("subject", subject).Msg("sns published")
	return nil
}

func (p *EventPublisher) ReadingsIngested(ctx context.Context, owner *domain.User, readings []domain.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	var total float64
	for _, rd := range readings {
		total += rd.Consumption
	}
	first, last := readings[0].Timestamp, readings[0].Timestamp
	for _, rd := range readings[1:] {
		if rd.Timestamp < first {
			first = rd.Timestamp
		}
		if rd.Timestamp > last {
			last = rd.Timestamp
		}
	}
	message := fmt.Sprintf(
		"Readings Ingested\n\n"+
			"User: %d\n"+
			"Count: %d\n"+
			"Total Consumption: %.4f kWh\n"+
			"From: %s\n"+
			"To: %s",
		owner.ID, len(readings), total, first, last,
	)
	return p.send(ctx, "SmartEnergy: readings ingested", message)
}

func (p *EventPublisher) MaintenanceDue(ctx context.Context, owner *domain.User, m *service.MaintenancePrediction) error {
	message := fmt.Sprintf(
		"Appliance Maintenance Required\n\n"+
			"User: %d\n"+
			"Appliance: %s (#%d)\n"+
			"Failure Risk (30 days): %.2f%%\n"+
			"Next Service Date: %s\n\n"+
			"%s",
		owner.ID, m.ApplianceName, m.ApplianceID, m.FailureRisk30Days,
		m.NextServiceDate.Format("2006-01-02"), m.Recommendation,
	)
	return p.send(ctx, "SmartEnergy: maintenance alert", message)
}
