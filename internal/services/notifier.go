package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/clients/sendgrid"
	"github.com/wellspring/maternal-backend/internal/clients/twilio"
	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/types"
)

// Notification is one outbound message. Email and SMS are both
// attempted when an address is present; each outcome is logged
// separately.
type Notification struct {
	RecipientID *uuid.UUID
	Email       string
	Phone       string
	Type        string
	Subject     string
	Message     string
	SMSText     string
	Meta        map[string]any
}

// Notifier is the fire-and-forget boundary the engine talks to. A
// failed send must never fail or roll back the mutation that caused
// it, so Send returns nothing.
type Notifier interface {
	Send(ctx context.Context, n Notification)
}

type NotifierService interface {
	Notifier
	StartWorker(ctx context.Context)
}

type notifierService struct {
	db          *gorm.DB
	log         *logger.Logger
	emailClient sendgrid.Client
	smsClient   twilio.Client
	logRepo     repos.NotificationLogRepo
	queue       chan Notification
}

func NewNotifierService(db *gorm.DB, log *logger.Logger, emailClient sendgrid.Client, smsClient twilio.Client, logRepo repos.NotificationLogRepo, queueSize int) NotifierService {
	serviceLog := log.With("service", "NotifierService")
	if queueSize <= 0 {
		queueSize = 256
	}
	return &notifierService{
		db:          db,
		log:         serviceLog,
		emailClient: emailClient,
		smsClient:   smsClient,
		logRepo:     logRepo,
		queue:       make(chan Notification, queueSize),
	}
}

func (ns *notifierService) StartWorker(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-ns.queue:
				ns.dispatch(context.Background(), n)
			}
		}
	}()
}

// Send queues the notification for the worker; when the queue is full
// it falls back to dispatching synchronously. Dispatch failures are
// logged and swallowed either way.
func (ns *notifierService) Send(ctx context.Context, n Notification) {
	select {
	case ns.queue <- n:
	default:
		ns.log.Warn("Notification queue full, dispatching synchronously", "type", n.Type)
		ns.dispatch(ctx, n)
	}
}

func (ns *notifierService) dispatch(ctx context.Context, n Notification) {
	if n.Email != "" {
		err := ns.emailClient.Send(ctx, n.Email, n.Subject, n.Message)
		if err != nil {
			ns.log.Warn("Email send failed", "type", n.Type, "error", err)
		}
		ns.record(ctx, n, types.NotificationChannelEmail, n.Subject, err)
	}
	if n.Phone != "" {
		text := n.SMSText
		if text == "" {
			text = n.Subject
		}
		err := ns.smsClient.SendSMS(ctx, n.Phone, text)
		if err != nil {
			ns.log.Warn("SMS send failed", "type", n.Type, "error", err)
		}
		ns.record(ctx, n, types.NotificationChannelSMS, text, err)
	}
}

func (ns *notifierService) record(ctx context.Context, n Notification, channel, message string, sendErr error) {
	meta := map[string]any{}
	for k, v := range n.Meta {
		meta[k] = v
	}
	if sendErr != nil {
		meta["error"] = sendErr.Error()
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		raw = []byte(`{}`)
	}

	row := &types.NotificationLog{
		RecipientID: n.RecipientID,
		Channel:     channel,
		Type:        n.Type,
		Message:     message,
		Success:     sendErr == nil,
		Meta:        datatypes.JSON(raw),
	}
	if _, err := ns.logRepo.Create(ctx, nil, []*types.NotificationLog{row}); err != nil {
		ns.log.Warn("Failed to record notification outcome", "channel", channel, "error", err)
	}
}
