package sns

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/donkcry/B--Blog/internal/config"
)

// EventPublisher publishes account lifecycle events for downstream consumers
// (analytics, moderation tooling). Publishing is best-effort; callers log
// failures but never fail the request over them.
type EventPublisher interface {
	PublishAccountEvent(ctx context.Context, event, accountID string) error
}

type publisher struct {
	client   *sns.Client
	topicARN string
}

type accountEvent struct {
	Event     string `json:"event"`
	AccountID string `json:"account_id"`
	At        string `json:"at"`
}

func NewPublisher(cfg *config.Config) (EventPublisher, error) {
	if cfg.SNSTopicARN == "" {
		return nil, errors.New("no SNS topic configured")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &publisher{client: sns.NewFromConfig(awsCfg), topicARN: cfg.SNSTopicARN}, nil
}

func (p *publisher) PublishAccountEvent(ctx context.Context, event, accountID string) error {
	body, err := json.Marshal(accountEvent{
		Event:     event,
		AccountID: accountID,
		At:        time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	msg := string(body)
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  &msg,
	})
	return err
}
