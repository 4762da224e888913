// Package notify hands large-group requests off to a human manager.
package notify

import (
	"context"
	"fmt"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"tourchat/internal/common/aws"
	"tourchat/internal/common/config"
	"tourchat/internal/common/logger"
	"tourchat/internal/models"
)

// Notifier delivers an escalation to the manager channel(s).
type Notifier interface {
	EscalateGroup(ctx context.Context, conv *models.Conversation) error
}

type managerNotifier struct {
	cfg    config.NotificationConfig
	ses    *aws.SESClient
	sns    *aws.SNSClient
	logger logger.Logger
}

// NewManagerNotifier wires email and SMS escalation. Channels are
// independent; a failure on one does not suppress the other.
func NewManagerNotifier(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (Notifier, error) {
	n := &managerNotifier{cfg: cfg, logger: log}

	if cfg.Email.Enabled {
		client, err := aws.NewSESClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to init SES client: %w", err)
		}
		n.ses = client
	}
	if cfg.SMS.Enabled {
		client, err := aws.NewSNSClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to init SNS client: %w", err)
		}
		n.sns = client
	}

	return n, nil
}

func (n *managerNotifier) EscalateGroup(ctx context.Context, conv *models.Conversation) error {
	subject := fmt.Sprintf("Групповая заявка: %d человек", conv.Params.TotalPax())
	body := buildEscalationBody(conv)

	var errs []string

	if n.ses != nil {
		_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
			Source: awssdk.String(n.cfg.Email.FromEmail),
			Destination: &sestypes.Destination{
				ToAddresses: []string{n.cfg.Email.ToEmail},
			},
			Message: &sestypes.Message{
				Subject: &sestypes.Content{Data: awssdk.String(subject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: awssdk.String(body)},
				},
			},
		})
		if err != nil {
			n.logger.Error("Escalation email failed", map[string]interface{}{
				"conversation_id": conv.ID,
				"error":           err.Error(),
			})
			errs = append(errs, err.Error())
		}
	}

	if n.sns != nil {
		_, err := n.sns.Publish(ctx, &sns.PublishInput{
			PhoneNumber: awssdk.String(n.cfg.SMS.Phone),
			Message:     awssdk.String(subject),
		})
		if err != nil {
			n.logger.Error("Escalation SMS failed", map[string]interface{}{
				"conversation_id": conv.ID,
				"error":           err.Error(),
			})
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("escalation delivery failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func buildEscalationBody(conv *models.Conversation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Диалог: %s\n", conv.ID)
	fmt.Fprintf(&b, "Взрослых: %d, детей: %d\n", conv.Params.Adults, conv.Params.ChildCount)
	if conv.Params.Country != "" {
		fmt.Fprintf(&b, "Направление: %s\n", conv.Params.Country)
	}
	if conv.Params.DepartureCity != "" {
		fmt.Fprintf(&b, "Вылет из: %s\n", conv.Params.DepartureCity)
	}
	if conv.Params.DateFrom != nil {
		fmt.Fprintf(&b, "Даты: с %s\n", conv.Params.DateFrom.Format("02.01.2006"))
	}
	if len(conv.Turns) > 0 {
		fmt.Fprintf(&b, "Последнее сообщение: %s\n", conv.Turns[len(conv.Turns)-1].UserText)
	}
	return b.String()
}

// NoOpNotifier is used when no manager channel is configured.
type NoOpNotifier struct{}

func (NoOpNotifier) EscalateGroup(ctx context.Context, conv *models.Conversation) error {
	return nil
}
