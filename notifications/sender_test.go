package notifications_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"bitbucket.org/vecpay/backend/models"
	"bitbucket.org/vecpay/backend/notifications"
)

func TestCreate_RejectsUnknownChannel(t *testing.T) {
	sender := notifications.NewSender(notifications.NewMemoryStore())

	_, err := sender.Create(1, "carrier-pigeon", "subject", "body")
	require.Equal(t, notifications.ErrUnsupportedChannel, err)
}

func TestCreate_StartsPending(t *testing.T) {
	sender := notifications.NewSender(notifications.NewMemoryStore())

	n, err := sender.Create(1, models.NotificationChannelEmail, "subject", "body")
	require.NoError(t, err)
	require.Equal(t, models.NotificationStatusPending, n.Status)
	require.NotEmpty(t, n.ID)
}

func TestSendEmail_WithoutSMTP_MarksFailed(t *testing.T) {
	store := notifications.NewMemoryStore()
	sender := notifications.NewSender(store)

	n, err := sender.Create(1, models.NotificationChannelEmail, "subject", "body")
	require.NoError(t, err)

	_, err = sender.SendEmail(n.ID, "client@example.com")
	require.Equal(t, notifications.ErrSMTPNotConfigured, err)

	failed, err := store.GetNotification(n.ID)
	require.NoError(t, err)
	require.Equal(t, models.NotificationStatusFailed, failed.Status)
	require.NotEmpty(t, failed.Error)
}

func TestSendWebhook_SignsPayload(t *testing.T) {
	var gotSignature string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get(notifications.SignatureHeader)
		gotBody, _ = ioutil.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := notifications.NewSender(notifications.NewMemoryStore())
	sender.WebhookSecret = "topsecret"

	n, err := sender.Create(1, models.NotificationChannelWebhook, "subject", "body")
	require.NoError(t, err)

	sent, err := sender.SendWebhook(n.ID, server.URL)
	require.NoError(t, err)
	require.Equal(t, models.NotificationStatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write(gotBody)
	require.Equal(t, fmt.Sprintf("sha256=%s", hex.EncodeToString(mac.Sum(nil))), gotSignature)
}

func TestSendWebhook_BadResponse_MarksFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	store := notifications.NewMemoryStore()
	sender := notifications.NewSender(store)

	n, err := sender.Create(1, models.NotificationChannelWebhook, "subject", "body")
	require.NoError(t, err)

	_, err = sender.SendWebhook(n.ID, server.URL)
	require.Error(t, err)

	failed, err := store.GetNotification(n.ID)
	require.NoError(t, err)
	require.Equal(t, models.NotificationStatusFailed, failed.Status)
}

func TestSend_NonPending_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := notifications.NewSender(notifications.NewMemoryStore())

	n, err := sender.Create(1, models.NotificationChannelWebhook, "subject", "body")
	require.NoError(t, err)

	_, err = sender.SendWebhook(n.ID, server.URL)
	require.NoError(t, err)

	_, err = sender.SendWebhook(n.ID, server.URL)
	require.Equal(t, notifications.ErrNotPending, err)
}

func TestSend_UnknownNotification(t *testing.T) {
	sender := notifications.NewSender(notifications.NewMemoryStore())

	_, err := sender.SendEmail("no-such-notification", "client@example.com")
	require.Equal(t, notifications.ErrNotificationNotFound, err)
}
