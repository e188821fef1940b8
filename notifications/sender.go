package notifications

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"bitbucket.org/vecpay/backend/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

const SignatureHeader = "X-Vecpay-Signature"

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotPending           = errors.New("notification is not pending")
	ErrUnsupportedChannel   = errors.New("unsupported notification channel")
	ErrSMTPNotConfigured    = errors.New("smtp not configured")
)

// Store is the persistence contract for notifications: load by id and save.
type Store interface {
	GetNotification(id string) (*models.Notification, error)
	SaveNotification(*models.Notification) error
}

type MemoryStore struct {
	mu            sync.RWMutex
	notifications map[string]*models.Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notifications: make(map[string]*models.Notification),
	}
}

func (s *MemoryStore) GetNotification(id string) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, nil
	}
	clone := *n
	return &clone, nil
}

func (s *MemoryStore) SaveNotification(n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *n
	s.notifications[n.ID] = &clone
	return nil
}

// Sender creates and delivers notifications. Each delivery moves a pending
// notification to sent or failed; re-sends of settled notifications are
// rejected.
type Sender struct {
	Store         Store
	Dialer        *gomail.Dialer
	EmailFrom     string
	NameFrom      string
	WebhookSecret string
	HTTPClient    *http.Client
}

func NewSender(store Store) *Sender {
	return &Sender{
		Store:      store,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *Sender) Create(userID int, channel models.NotificationChannel, subject string, body string) (*models.Notification, error) {
	switch channel {
	case models.NotificationChannelEmail, models.NotificationChannelWebhook, models.NotificationChannelSMS:
	default:
		return nil, ErrUnsupportedChannel
	}

	notification := &models.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Channel: channel,
		Subject: subject,
		Body:    body,
		Status:  models.NotificationStatusPending,
		Created: time.Now().UTC(),
	}

	if err := s.Store.SaveNotification(notification); err != nil {
		return nil, err
	}

	return notification, nil
}

func (s *Sender) SendEmail(notificationID string, emailTo string) (*models.Notification, error) {
	notification, err := s.pending(notificationID)
	if err != nil {
		return nil, err
	}

	if s.Dialer == nil {
		return s.fail(notification, ErrSMTPNotConfigured)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.EmailFrom, s.NameFrom))
	m.SetHeader("To", emailTo)
	m.SetHeader("Subject", notification.Subject)
	m.SetBody("text/html", notification.Body)

	if err := s.Dialer.DialAndSend(m); err != nil {
		return s.fail(notification, err)
	}

	return s.sent(notification)
}

func (s *Sender) SendWebhook(notificationID string, url string) (*models.Notification, error) {
	notification, err := s.pending(notificationID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"id":      notification.ID,
		"user_id": notification.UserID,
		"subject": notification.Subject,
		"body":    notification.Body,
	})
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")

	if s.WebhookSecret != "" {
		mac := hmac.New(sha256.New, []byte(s.WebhookSecret))
		mac.Write(payload)
		request.Header.Set(SignatureHeader, fmt.Sprintf("sha256=%s", hex.EncodeToString(mac.Sum(nil))))
	}

	response, err := s.HTTPClient.Do(request)
	if err != nil {
		return s.fail(notification, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 300 {
		return s.fail(notification, errors.Errorf("bad response %d", response.StatusCode))
	}

	return s.sent(notification)
}

func (s *Sender) pending(notificationID string) (*models.Notification, error) {
	notification, err := s.Store.GetNotification(notificationID)
	if err != nil {
		return nil, err
	}

	if notification == nil {
		return nil, ErrNotificationNotFound
	}

	if notification.Status != models.NotificationStatusPending {
		return nil, ErrNotPending
	}

	return notification, nil
}

func (s *Sender) sent(notification *models.Notification) (*models.Notification, error) {
	now := time.Now().UTC()
	notification.Status = models.NotificationStatusSent
	notification.SentAt = &now

	if err := s.Store.SaveNotification(notification); err != nil {
		return nil, err
	}

	return notification, nil
}

func (s *Sender) fail(notification *models.Notification, cause error) (*models.Notification, error) {
	notification.Status = models.NotificationStatusFailed
	notification.Error = cause.Error()

	if err := s.Store.SaveNotification(notification); err != nil {
		return nil, err
	}

	return nil, cause
}
