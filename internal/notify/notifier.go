// internal/notify/notifier.go

// Package notify delivers applicant-facing emails for submission and
// status events. Delivery failures are reported to the caller but are
// never allowed to fail the operation that triggered them.
package notify

import (
	"context"
	"fmt"
	"strings"

	"admission-engine/internal/common/logger"
	"admission-engine/internal/models"
)

// Kind selects the message template.
type Kind string

const (
	KindConfirmation Kind = "submission-confirmation"
	KindAcceptance   Kind = "status-accepted"
	KindRejection    Kind = "status-rejected"
)

// Notifier sends one message of the given kind to the applicant on the
// application. Extra values are merged into the template data and win
// over the derived fields on key collision.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, app *models.Application, extra map[string]interface{}) error
}

type template struct {
	subject string
	body    string
}

// Placeholders use {{name}} and render to empty string when no value is
// supplied, so a missing username never leaks braces into a sent mail.
var templates = map[Kind]template{
	KindConfirmation: {
		subject: "Application received - {{courseTitle}}",
		body: "Dear {{firstName}},\n\n" +
			"Your application for {{courseTitle}} has been received and is pending review.\n" +
			"Your application id is {{applicationId}}.\n\n" +
			"Admissions Office",
	},
	KindAcceptance: {
		subject: "Admission confirmed - {{courseTitle}}",
		body: "Dear {{firstName}},\n\n" +
			"Congratulations! Your admission to {{courseTitle}} has been confirmed.\n" +
			"Your student portal username is {{username}}.\n" +
			"{{remarks}}\n\n" +
			"Admissions Office",
	},
	KindRejection: {
		subject: "Application update - {{courseTitle}}",
		body: "Dear {{firstName}},\n\n" +
			"We regret to inform you that your application for {{courseTitle}} was not successful.\n" +
			"{{remarks}}\n\n" +
			"Admissions Office",
	},
}

// Render produces the subject and body for a kind. Returns an error for
// an unknown kind so misconfigured callers fail loudly in tests.
func Render(kind Kind, app *models.Application, extra map[string]interface{}) (string, string, error) {
	tmpl, ok := templates[kind]
	if !ok {
		return "", "", fmt.Errorf("no template for notification kind %q", kind)
	}

	data := map[string]interface{}{
		"firstName":     app.FirstName,
		"lastName":      app.LastName,
		"courseTitle":   app.CourseTitle,
		"applicationId": app.ID,
		"username":      app.GeneratedUsername,
		"remarks":       app.AdminRemarks,
	}
	for k, v := range extra {
		data[k] = v
	}

	return renderTemplate(tmpl.subject, data), renderTemplate(tmpl.body, data), nil
}

func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if i, ok := v.(int); ok {
			value = fmt.Sprintf("%d", i)
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Strip placeholders that had no value
	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}

	return strings.TrimSpace(result)
}

// ConsoleNotifier logs the rendered message instead of sending it. Used
// when email delivery is disabled, so every environment still records
// what would have gone out.
type ConsoleNotifier struct {
	logger logger.Logger
}

func NewConsoleNotifier(log logger.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{logger: log.WithFields(map[string]interface{}{"notifier": "console"})}
}

func (n *ConsoleNotifier) Notify(_ context.Context, kind Kind, app *models.Application, extra map[string]interface{}) error {
	subject, body, err := Render(kind, app, extra)
	if err != nil {
		return err
	}

	n.logger.Info("notification rendered", map[string]interface{}{
		"kind":          string(kind),
		"to":            app.Email,
		"subject":       subject,
		"bodyLength":    len(body),
		"applicationId": app.ID,
	})
	return nil
}
