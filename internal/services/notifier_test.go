package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/testutil"
	"github.com/wellspring/maternal-backend/internal/types"
)

type stubEmailClient struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (c *stubEmailClient) Send(_ context.Context, to, _, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("transport down")
	}
	c.sent = append(c.sent, to)
	return nil
}

type stubSMSClient struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (c *stubSMSClient) SendSMS(_ context.Context, to, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("transport down")
	}
	c.sent = append(c.sent, to)
	return nil
}

type memNotificationLogRepo struct {
	mu   sync.Mutex
	rows []*types.NotificationLog
}

func (r *memNotificationLogRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.NotificationLog) ([]*types.NotificationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, rows...)
	return rows, nil
}

func (r *memNotificationLogRepo) GetByRecipientID(_ context.Context, _ *gorm.DB, recipientID uuid.UUID, _ int) ([]*types.NotificationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.NotificationLog
	for _, row := range r.rows {
		if row.RecipientID != nil && *row.RecipientID == recipientID {
			out = append(out, row)
		}
	}
	return out, nil
}

func TestNotifierDispatchSendsBothChannelsAndLogs(t *testing.T) {
	email := &stubEmailClient{}
	sms := &stubSMSClient{}
	logRepo := &memNotificationLogRepo{}
	ns := NewNotifierService(nil, testutil.Logger(t), email, sms, logRepo, 1).(*notifierService)

	ns.dispatch(context.Background(), Notification{
		Email:   "parent@example.test",
		Phone:   "+15550100",
		Type:    types.NotificationTypeReminder,
		Subject: "Immunization reminder",
		Message: "BCG is due today",
		SMSText: "BCG is due today",
	})

	if len(email.sent) != 1 || len(sms.sent) != 1 {
		t.Fatalf("email=%d sms=%d sends, want 1 each", len(email.sent), len(sms.sent))
	}
	if len(logRepo.rows) != 2 {
		t.Fatalf("log rows=%d, want 2", len(logRepo.rows))
	}
	for _, row := range logRepo.rows {
		if !row.Success {
			t.Fatalf("channel %s logged as failure", row.Channel)
		}
	}
}

func TestNotifierFailuresAreSwallowedAndLogged(t *testing.T) {
	email := &stubEmailClient{fail: true}
	sms := &stubSMSClient{fail: true}
	logRepo := &memNotificationLogRepo{}
	ns := NewNotifierService(nil, testutil.Logger(t), email, sms, logRepo, 1).(*notifierService)

	// dispatch returns nothing: a dead transport must never surface an
	// error to the mutation path.
	ns.dispatch(context.Background(), Notification{
		Email:   "parent@example.test",
		Phone:   "+15550100",
		Type:    types.NotificationTypeSchedule,
		Subject: "update",
	})

	if len(logRepo.rows) != 2 {
		t.Fatalf("log rows=%d, want 2", len(logRepo.rows))
	}
	for _, row := range logRepo.rows {
		if row.Success {
			t.Fatalf("channel %s logged success for a failed send", row.Channel)
		}
	}
}

func TestNotifierSendFallsBackWhenQueueFull(t *testing.T) {
	email := &stubEmailClient{}
	sms := &stubSMSClient{}
	logRepo := &memNotificationLogRepo{}
	// Queue of 1 with no worker running: the second Send must dispatch
	// synchronously instead of blocking.
	ns := NewNotifierService(nil, testutil.Logger(t), email, sms, logRepo, 1)

	first := Notification{Email: "a@example.test", Type: types.NotificationTypeReminder, Subject: "one"}
	second := Notification{Email: "b@example.test", Type: types.NotificationTypeReminder, Subject: "two"}
	ns.Send(context.Background(), first)
	ns.Send(context.Background(), second)

	if len(email.sent) != 1 {
		t.Fatalf("email sends=%d, want 1 (the overflow dispatched synchronously)", len(email.sent))
	}
	if email.sent[0] != "b@example.test" {
		t.Fatalf("synchronous send went to %s, want the overflowing notification", email.sent[0])
	}
}

func TestNotifierSkipsMissingChannels(t *testing.T) {
	email := &stubEmailClient{}
	sms := &stubSMSClient{}
	logRepo := &memNotificationLogRepo{}
	ns := NewNotifierService(nil, testutil.Logger(t), email, sms, logRepo, 1).(*notifierService)

	ns.dispatch(context.Background(), Notification{
		Email:   "parent@example.test",
		Type:    types.NotificationTypeReminder,
		Subject: "no phone on file",
	})

	if len(sms.sent) != 0 {
		t.Fatalf("sms sends=%d, want 0 without a phone number", len(sms.sent))
	}
	if len(logRepo.rows) != 1 {
		t.Fatalf("log rows=%d, want 1", len(logRepo.rows))
	}
}
