// Package notify tells crew members about admin decisions by email and SMS.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	awsclient "crew-portal/internal/common/aws"
	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/common/logger"
	"crew-portal/internal/models"
	"crew-portal/internal/services"
)

const sendTimeout = 10 * time.Second

type Options struct {
	EmailEnabled bool
	FromEmail    string
	SMSEnabled   bool
}

// Notifier implements services.Observer. Deliveries run in the background
// so a slow provider never delays the admin's request.
type Notifier struct {
	opts   Options
	email  awsclient.EmailSender
	sms    awsclient.SMSPublisher
	logger logger.Logger
	wg     sync.WaitGroup
}

func New(opts Options, email awsclient.EmailSender, sms awsclient.SMSPublisher, log logger.Logger) *Notifier {
	return &Notifier{opts: opts, email: email, sms: sms, logger: logger.Component(log, "notifier")}
}

// Message is a rendered notification.
type Message struct {
	Subject string
	Body    string
	SMS     string
}

func (n *Notifier) Observe(ctx context.Context, ev services.Event) {
	if _, ok := Compose(ev); !ok {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		defer cancel()
		if err := n.Deliver(sendCtx, ev); err != nil {
			n.logger.Warn("decision notification failed", map[string]interface{}{
				"resource":   ev.Resource,
				"resourceId": string(ev.ResourceID),
				"error":      err,
			})
		}
	}()
}

// Wait blocks until background deliveries finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// Deliver sends the notification for ev on every enabled channel with a
// known address. The first failure is returned after all channels ran.
func (n *Notifier) Deliver(ctx context.Context, ev services.Event) error {
	msg, ok := Compose(ev)
	if !ok || ev.Crew == nil {
		return nil
	}

	var firstErr error
	if n.opts.EmailEnabled && n.email != nil && ev.Crew.Email != "" {
		input := awsclient.PlainEmail(n.opts.FromEmail, ev.Crew.Email, msg.Subject, msg.Body)
		out, err := n.email.SendEmail(ctx, input)
		if err != nil {
			firstErr = apperrors.NewNotificationSendFailedError("email", err)
		} else {
			n.logger.Info("decision email sent", map[string]interface{}{
				"resource":  ev.Resource,
				"messageId": aws.ToString(out.MessageId),
			})
		}
	}

	sendSMS := ev.Resource == services.ResourceAppointment && msg.SMS != ""
	if sendSMS && n.opts.SMSEnabled && n.sms != nil && ev.Crew.Phone != "" {
		if _, err := n.sms.Publish(ctx, awsclient.TransactionalSMS(ev.Crew.Phone, msg.SMS)); err != nil && firstErr == nil {
			firstErr = apperrors.NewNotificationSendFailedError("sms", err)
		}
	}
	return firstErr
}

var resourceNames = map[string]string{
	services.ResourceTravelDocument:     "travel document",
	services.ResourceEmploymentDocument: "employment document",
	services.ResourceCertificate:        "certificate",
	services.ResourceDebriefing:         "debriefing form",
	services.ResourceProfileRequest:     "profile update request",
}

// Compose renders the message for ev. ok is false for events crew members
// are not notified about.
func Compose(ev services.Event) (Message, bool) {
	name := displayName(ev.Crew)
	switch ev.Action {
	case services.ActionReview:
		what, known := resourceNames[ev.Resource]
		if !known {
			return Message{}, false
		}
		var body strings.Builder
		fmt.Fprintf(&body, "Hello %s,\n\nYour %s has been %s.\n", name, what, ev.Status)
		if ev.Remarks != "" {
			fmt.Fprintf(&body, "\nRemarks: %s\n", ev.Remarks)
		}
		body.WriteString("\nYou can review the details in the crew portal.\n")
		return Message{
			Subject: fmt.Sprintf("Your %s was %s", what, ev.Status),
			Body:    body.String(),
		}, true

	case services.ActionStatus:
		if ev.Resource != services.ResourceAppointment {
			return Message{}, false
		}
		when := strings.TrimSpace(ev.Details["date"] + " " + ev.Details["startTime"])
		switch ev.Status {
		case models.AppointmentConfirmed:
			return Message{
				Subject: "Appointment confirmed",
				Body:    fmt.Sprintf("Hello %s,\n\nYour appointment on %s is confirmed.\n", name, when),
				SMS:     fmt.Sprintf("Your appointment on %s is confirmed.", when),
			}, true
		case models.AppointmentCancelled:
			body := fmt.Sprintf("Hello %s,\n\nYour appointment on %s has been cancelled.\n", name, when)
			if ev.Remarks != "" {
				body += "\nReason: " + ev.Remarks + "\n"
			}
			return Message{
				Subject: "Appointment cancelled",
				Body:    body,
				SMS:     fmt.Sprintf("Your appointment on %s has been cancelled.", when),
			}, true
		}
	}
	return Message{}, false
}

func displayName(c *models.CrewRef) string {
	if c == nil || c.Name == "" {
		return "crew member"
	}
	return c.Name
}
