package api

import (
	"net/http"

	"bitbucket.org/vecpay/backend/config"
	"bitbucket.org/vecpay/backend/middlewares"
	"bitbucket.org/vecpay/backend/models"
	"bitbucket.org/vecpay/backend/notifications"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/thedevsaddam/govalidator"
)

// SendNotification creates a notification and dispatches it on its channel.
// Delivery failures still return the persisted notification state so the
// caller can inspect it.
func SendNotification(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsAdmin && !userInfo.IsAPI {
		w.WriteJSON(http.StatusForbidden, nil, nil, "invalid roles")
		return
	}

	var opts models.SendNotificationOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.SendNotificationRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.WriteJSON(http.StatusBadRequest, errs, nil, "failed validations")
		return
	}

	channel := models.NotificationChannel(opts.Channel)

	notification, err := ctx.Notifier.Create(opts.UserID, channel, opts.Subject, opts.Body)
	if err != nil {
		w.WriteJSON(http.StatusBadRequest, nil, err, "failed creating notification")
		return
	}

	switch channel {
	case models.NotificationChannelEmail:
		if opts.EmailTo == "" {
			w.WriteJSON(http.StatusBadRequest, nil, nil, "email_to is required for the email channel")
			return
		}
		sent, err := ctx.Notifier.SendEmail(notification.ID, opts.EmailTo)
		if err != nil {
			w.WriteJSON(http.StatusBadGateway, notification, err, "failed sending email")
			return
		}
		notification = sent
	case models.NotificationChannelWebhook:
		if opts.WebhookURL == "" {
			w.WriteJSON(http.StatusBadRequest, nil, nil, "webhook_url is required for the webhook channel")
			return
		}
		sent, err := ctx.Notifier.SendWebhook(notification.ID, opts.WebhookURL)
		if err != nil {
			w.WriteJSON(http.StatusBadGateway, notification, err, "failed sending webhook")
			return
		}
		notification = sent
	case models.NotificationChannelSMS:
		// accepted for bookkeeping, no delivery backend yet
		w.WriteJSON(http.StatusBadRequest, notification, errors.Wrap(notifications.ErrUnsupportedChannel, "sms"), "sms delivery is not available")
		return
	}

	w.WriteJSON(http.StatusOK, notification, nil, "")
}
