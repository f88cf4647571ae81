// internal/notify/ses.go
package notify

import (
	"context"
	"fmt"

	"admission-engine/internal/common/logger"
	"admission-engine/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESService is the subset of the SES client the notifier uses, split
// out for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESNotifier sends applicant emails through AWS SES.
type SESNotifier struct {
	client    SESService
	fromEmail string
	logger    logger.Logger
}

func NewSESNotifier(ctx context.Context, region, fromEmail string, log logger.Logger) (*SESNotifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &SESNotifier{
		client:    ses.NewFromConfig(awsCfg),
		fromEmail: fromEmail,
		logger:    log.WithFields(map[string]interface{}{"notifier": "ses"}),
	}, nil
}

// NewSESNotifierWithClient wires an explicit client. Used by tests.
func NewSESNotifierWithClient(client SESService, fromEmail string, log logger.Logger) *SESNotifier {
	return &SESNotifier{
		client:    client,
		fromEmail: fromEmail,
		logger:    log.WithFields(map[string]interface{}{"notifier": "ses"}),
	}
}

func (n *SESNotifier) Notify(ctx context.Context, kind Kind, app *models.Application, extra map[string]interface{}) error {
	subject, body, err := Render(kind, app, extra)
	if err != nil {
		return err
	}

	_, err = n.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{app.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.fromEmail),
	})
	if err != nil {
		n.logger.Error("email send failed", map[string]interface{}{
			"error": err,
			"kind":  string(kind),
			"email": app.Email,
		})
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("email sent", map[string]interface{}{
		"kind":          string(kind),
		"email":         app.Email,
		"applicationId": app.ID,
	})
	return nil
}
