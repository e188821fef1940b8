package models

import (
	"time"

	"github.com/thedevsaddam/govalidator"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

type NotificationChannel string

const (
	NotificationChannelEmail   NotificationChannel = "email"
	NotificationChannelWebhook NotificationChannel = "webhook"
	NotificationChannelSMS     NotificationChannel = "sms"
)

type Notification struct {
	ID      string              `json:"id"`
	UserID  int                 `json:"user_id"`
	Channel NotificationChannel `json:"channel"`
	Subject string              `json:"subject"`
	Body    string              `json:"body"`
	Status  NotificationStatus  `json:"status"`
	Error   string              `json:"error,omitempty"`
	Created time.Time           `json:"created"`
	SentAt  *time.Time          `json:"sent_at,omitempty"`
}

type SendNotificationOpts struct {
	UserID     int    `json:"user_id"`
	Channel    string `json:"channel"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	WebhookURL string `json:"webhook_url"`
	EmailTo    string `json:"email_to"`
}

var SendNotificationRules = govalidator.MapData{
	"user_id": []string{"required", "numeric"},
	"channel": []string{"required", "in:email,webhook,sms"},
	"subject": []string{"required"},
	"body":    []string{"required"},
}
