package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/BradenHooton/denuncias/internal/models"
	pkglogger "github.com/BradenHooton/denuncias/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Notifier tells a submitter that their complaint changed state
type Notifier interface {
	NotifyStateChange(ctx context.Context, complaint *models.Complaint, entry *models.FollowUp) error
}

// sesSender is the part of the SES client the notifier uses
type sesSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESNotifier sends state change emails using AWS SES
type SESNotifier struct {
	client      sesSender
	fromAddress string
	baseURL     string
	logger      *slog.Logger
}

// NewSESNotifier loads the default AWS configuration for region
func NewSESNotifier(region, fromAddress, baseURL string, logger *slog.Logger) (*SESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESNotifier{
		client:      ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		baseURL:     baseURL,
		logger:      logger,
	}, nil
}

var stateLabels = map[models.State]string{
	models.StatePending:    "Pending",
	models.StateInProgress: "In progress",
	models.StateResolved:   "Resolved",
}

// NotifyStateChange emails the submitter of complaint about entry
func (s *SESNotifier) NotifyStateChange(ctx context.Context, complaint *models.Complaint, entry *models.FollowUp) error {
	link := fmt.Sprintf("%s/complaints/%s", s.baseURL, complaint.ID)
	state := stateLabels[entry.StateAfter]

	textBody := fmt.Sprintf(`Hello %s,

Your complaint "%s" is now: %s.
`, complaint.SubmitterName, complaint.Title, state)
	if entry.Comment != "" {
		textBody += fmt.Sprintf("\nComment from the authority:\n%s\n", entry.Comment)
	}
	textBody += fmt.Sprintf("\nFollow it here: %s\n\nThis is an automated message. Please do not reply to this email.\n", link)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <p>Hello %s,</p>
    <p>Your complaint <strong>%s</strong> is now: <strong>%s</strong>.</p>
    %s
    <p><a href="%s">Follow your complaint</a></p>
    <p style="color: #666; font-size: 12px;">This is an automated message. Please do not reply to this email.</p>
</body>
</html>
`,
		html.EscapeString(complaint.SubmitterName),
		html.EscapeString(complaint.Title),
		state,
		commentBlock(entry.Comment),
		html.EscapeString(link),
	)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{complaint.SubmitterEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(fmt.Sprintf("Your complaint is now %s", state)),
			},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(htmlBody)},
				Text: &types.Content{Data: aws.String(textBody)},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("state change email sent",
		slog.String("complaint_id", complaint.ID),
		slog.String("email", pkglogger.SanitizedEmail(complaint.SubmitterEmail)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}

func commentBlock(comment string) string {
	if comment == "" {
		return ""
	}
	return "<p>Comment from the authority:<br>" + html.EscapeString(comment) + "</p>"
}

// NoopNotifier is used when email delivery is disabled
type NoopNotifier struct{}

func (NoopNotifier) NotifyStateChange(ctx context.Context, complaint *models.Complaint, entry *models.FollowUp) error {
	return nil
}
