package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/common/logger"
	"crew-portal/internal/models"
	"crew-portal/internal/services"
)

// ==========================
// Mock Services
// ==========================

type mockSES struct {
	mu     sync.Mutex
	inputs []*ses.SendEmailInput
	err    error
}

func (m *mockSES) SendEmail(_ context.Context, in *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func (m *mockSES) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inputs)
}

type mockSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (m *mockSNS) Publish(_ context.Context, in *sns.PublishInput) (*sns.PublishOutput, error) {
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{MessageId: aws.String("sms-1")}, nil
}

func reviewEvent(status, remarks string) services.Event {
	return services.Event{
		Action:     services.ActionReview,
		Resource:   services.ResourceTravelDocument,
		ResourceID: "4",
		Status:     status,
		Remarks:    remarks,
		Crew:       &models.CrewRef{ID: "7", Name: "Ana Silva", Email: "ana@fleet.test", Phone: "+4712345678"},
	}
}

func appointmentEvent(status string) services.Event {
	return services.Event{
		Action:     services.ActionStatus,
		Resource:   services.ResourceAppointment,
		ResourceID: "5",
		Status:     status,
		Crew:       &models.CrewRef{ID: "7", Name: "Ana Silva", Email: "ana@fleet.test", Phone: "+4712345678"},
		Details:    map[string]string{"date": "2026-03-02", "startTime": "11:00"},
	}
}

// ==========================
// Compose Tests
// ==========================

func TestCompose(t *testing.T) {
	msg, ok := Compose(reviewEvent(models.StatusRejected, "Scan is blurry"))
	require.True(t, ok)
	assert.Equal(t, "Your travel document was rejected", msg.Subject)
	assert.Contains(t, msg.Body, "Hello Ana Silva")
	assert.Contains(t, msg.Body, "Remarks: Scan is blurry")
	assert.Empty(t, msg.SMS)

	msg, ok = Compose(appointmentEvent(models.AppointmentConfirmed))
	require.True(t, ok)
	assert.Equal(t, "Your appointment on 2026-03-02 11:00 is confirmed.", msg.SMS)

	_, ok = Compose(appointmentEvent(models.AppointmentCompleted))
	assert.False(t, ok)

	_, ok = Compose(services.Event{Action: services.ActionAssign, Resource: services.ResourceAdmin})
	assert.False(t, ok)

	_, ok = Compose(services.Event{Action: services.ActionReview, Resource: services.ResourceCertificate})
	assert.True(t, ok, "missing crew still renders")
}

// ==========================
// Deliver Tests
// ==========================

func TestDeliver_Channels(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		event     services.Event
		wantEmail int
		wantSMS   int
	}{
		{"review emails only", Options{EmailEnabled: true, FromEmail: "noreply@fleet.test", SMSEnabled: true}, reviewEvent(models.StatusApproved, ""), 1, 0},
		{"appointment emails and texts", Options{EmailEnabled: true, FromEmail: "noreply@fleet.test", SMSEnabled: true}, appointmentEvent(models.AppointmentCancelled), 1, 1},
		{"email disabled", Options{SMSEnabled: true}, appointmentEvent(models.AppointmentConfirmed), 0, 1},
		{"everything disabled", Options{}, appointmentEvent(models.AppointmentConfirmed), 0, 0},
		{"not a notifiable event", Options{EmailEnabled: true, SMSEnabled: true}, services.Event{Action: services.ActionClose}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mail, text := &mockSES{}, &mockSNS{}
			n := New(tt.opts, mail, text, logger.NewNoOpLogger())

			require.NoError(t, n.Deliver(context.Background(), tt.event))
			assert.Equal(t, tt.wantEmail, mail.count())
			assert.Len(t, text.inputs, tt.wantSMS)
		})
	}
}

func TestDeliver_SkipsMissingAddresses(t *testing.T) {
	mail, text := &mockSES{}, &mockSNS{}
	n := New(Options{EmailEnabled: true, SMSEnabled: true}, mail, text, logger.NewNoOpLogger())

	ev := appointmentEvent(models.AppointmentConfirmed)
	ev.Crew = &models.CrewRef{ID: "7"}
	require.NoError(t, n.Deliver(context.Background(), ev))
	assert.Equal(t, 0, mail.count())
	assert.Empty(t, text.inputs)
}

func TestDeliver_EmailPayload(t *testing.T) {
	mail := &mockSES{}
	n := New(Options{EmailEnabled: true, FromEmail: "noreply@fleet.test"}, mail, nil, logger.NewNoOpLogger())

	require.NoError(t, n.Deliver(context.Background(), reviewEvent(models.StatusApproved, "")))
	in := mail.inputs[0]
	assert.Equal(t, "noreply@fleet.test", aws.ToString(in.Source))
	assert.Equal(t, []string{"ana@fleet.test"}, in.Destination.ToAddresses)
}

func TestDeliver_Failure(t *testing.T) {
	mail := &mockSES{err: errors.New("throttled")}
	text := &mockSNS{err: errors.New("opted out")}
	n := New(Options{EmailEnabled: true, FromEmail: "noreply@fleet.test", SMSEnabled: true}, mail, text, logger.NewNoOpLogger())

	err := n.Deliver(context.Background(), appointmentEvent(models.AppointmentConfirmed))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotificationSendFailed))
	assert.Len(t, text.inputs, 1, "sms still attempted after email failure")
}

func TestObserve_RunsInBackground(t *testing.T) {
	mail := &mockSES{}
	n := New(Options{EmailEnabled: true, FromEmail: "noreply@fleet.test"}, mail, nil, logger.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	n.Observe(ctx, reviewEvent(models.StatusApproved, ""))
	cancel()
	n.Wait()

	assert.Equal(t, 1, mail.count())
}
