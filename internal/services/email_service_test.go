package services

import (
	"context"
	"errors"
	"testing"

	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSESSender struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSESSender) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESNotifier_NotifyStateChange(t *testing.T) {
	sender := &fakeSESSender{}
	n := &SESNotifier{client: sender, fromAddress: "no-reply@muni.com", baseURL: "https://denuncias.example.com", logger: newTestLogger()}

	complaint := NewTestComplaint("c1", "citizen-1")
	complaint.Title = "Lamp <off>"
	entry := &models.FollowUp{StateBefore: models.StatePending, StateAfter: models.StateResolved, Comment: "Replaced the bulb"}

	err := n.NotifyStateChange(context.Background(), complaint, entry)

	require.NoError(t, err)
	require.NotNil(t, sender.input)
	assert.Equal(t, []string{"ana@example.com"}, sender.input.Destination.ToAddresses)
	assert.Equal(t, "no-reply@muni.com", aws.ToString(sender.input.Source))
	assert.Equal(t, "Your complaint is now Resolved", aws.ToString(sender.input.Message.Subject.Data))

	text := aws.ToString(sender.input.Message.Body.Text.Data)
	assert.Contains(t, text, "Replaced the bulb")
	assert.Contains(t, text, "https://denuncias.example.com/complaints/c1")

	html := aws.ToString(sender.input.Message.Body.Html.Data)
	assert.Contains(t, html, "Lamp &lt;off&gt;")
	assert.NotContains(t, html, "<off>")
}

func TestSESNotifier_SendFailure(t *testing.T) {
	sender := &fakeSESSender{err: errors.New("throttled")}
	n := &SESNotifier{client: sender, fromAddress: "no-reply@muni.com", logger: newTestLogger()}

	err := n.NotifyStateChange(context.Background(), NewTestComplaint("c1", "citizen-1"), &models.FollowUp{StateAfter: models.StateInProgress})

	assert.Error(t, err)
}
