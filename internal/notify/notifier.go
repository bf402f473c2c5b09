// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"
	"strings"

	"agent-builder/internal/common/config"
	"agent-builder/internal/common/errors"
	"agent-builder/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// EmailSender is satisfied by aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SMSPublisher is satisfied by aws.SNSClient.
type SMSPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// BuildEvent describes a finished build for notification purposes.
type BuildEvent struct {
	SessionID string
	AgentName string
	Status    string
	Source    string
	OutputDir string
	Error     string
	Warnings  []string
}

// Notifier sends build completion notices over SES email and SNS. Channels
// are independent; a disabled channel is skipped silently.
type Notifier struct {
	email  EmailSender
	sms    SMSPublisher
	config config.NotificationConfig
	logger logger.Logger
}

func NewNotifier(email EmailSender, sms SMSPublisher, cfg config.NotificationConfig, log logger.Logger) *Notifier {
	return &Notifier{
		email:  email,
		sms:    sms,
		config: cfg,
		logger: log,
	}
}

// NotifyBuildFinished announces a terminal build state on every enabled
// channel. Channel failures are collected, not short-circuited.
func (n *Notifier) NotifyBuildFinished(ctx context.Context, event BuildEvent) error {
	var failures []string

	if n.config.Email.Enabled && n.email != nil {
		if err := n.sendEmail(ctx, event); err != nil {
			n.logger.Error("Email notification failed", map[string]interface{}{
				"session_id": event.SessionID,
				"error":      err.Error(),
			})
			failures = append(failures, "email")
		}
	}

	if n.config.SMS.Enabled && n.sms != nil {
		if err := n.publishSNS(ctx, event); err != nil {
			n.logger.Error("SNS notification failed", map[string]interface{}{
				"session_id": event.SessionID,
				"error":      err.Error(),
			})
			failures = append(failures, "sns")
		}
	}

	if len(failures) > 0 {
		return errors.NewNotificationError(strings.Join(failures, ","),
			fmt.Errorf("%d notification channel(s) failed", len(failures)))
	}

	return nil
}

func (n *Notifier) sendEmail(ctx context.Context, event BuildEvent) error {
	subject := fmt.Sprintf("Agent build %s: %s", event.Status, event.AgentName)

	_, err := n.email.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.config.Email.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{n.config.Email.ToEmail},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(buildMessageBody(event))},
			},
		},
	})
	return err
}

func (n *Notifier) publishSNS(ctx context.Context, event BuildEvent) error {
	_, err := n.sms.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.config.SMS.TopicARN),
		Subject:  aws.String(fmt.Sprintf("Agent build %s", event.Status)),
		Message:  aws.String(buildMessageBody(event)),
	})
	return err
}

func buildMessageBody(event BuildEvent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Agent: %s\nSession: %s\nStatus: %s\n", event.AgentName, event.SessionID, event.Status)
	if event.Source != "" {
		fmt.Fprintf(&sb, "Generation source: %s\n", event.Source)
	}
	if event.OutputDir != "" {
		fmt.Fprintf(&sb, "Output: %s\n", event.OutputDir)
	}
	if event.Error != "" {
		fmt.Fprintf(&sb, "Error: %s\n", event.Error)
	}
	if len(event.Warnings) > 0 {
		fmt.Fprintf(&sb, "Warnings:\n")
		for _, warning := range event.Warnings {
			fmt.Fprintf(&sb, "  - %s\n", warning)
		}
	}
	return sb.String()
}
