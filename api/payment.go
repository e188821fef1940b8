package api

import (
	"net/http"
	"strconv"

	"bitbucket.org/vecpay/backend/config"
	"bitbucket.org/vecpay/backend/middlewares"
	"bitbucket.org/vecpay/backend/models"
	"bitbucket.org/vecpay/backend/payments"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/thedevsaddam/govalidator"
)

// ChargePayment creates a payment intent for the authenticated user and
// charges it in one go, the way the checkout flow consumes it.
func ChargePayment(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsClient && !userInfo.IsAdmin {
		w.WriteJSON(http.StatusForbidden, nil, nil, "invalid roles")
		return
	}

	var opts models.ChargePaymentOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.ChargePaymentRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.WriteJSON(http.StatusBadRequest, errs, nil, "failed validations")
		return
	}

	intent, err := ctx.Payments.CreateIntent(userInfo.ID, decimal.NewFromFloat(opts.Amount), opts.Currency, opts.Metadata)
	if err == payments.ErrInvalidAmount {
		w.WriteJSON(http.StatusBadRequest, nil, err, "amount must be positive")
		return
	}
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed creating payment intent")
		return
	}

	charged, err := ctx.Payments.Charge(intent.ID)
	if err != nil {
		w.WriteJSON(http.StatusPaymentRequired, map[string]interface{}{
			"error":      err.Error(),
			"payment_id": intent.ID,
		}, err, "failed charging payment")
		return
	}

	// a charge placed for an order settles it
	if orderID, ok := charged.Metadata["order_id"]; ok && ctx.DB != nil {
		id, convErr := strconv.Atoi(orderID)
		if convErr == nil {
			if updErr := ctx.DB.UpdateOrderStatus(id, models.OrderStatusPaid); updErr != nil {
				config.GetLogger().WithField("order_id", id).Error(updErr)
			}
		}
	}

	w.WriteJSON(http.StatusOK, charged, nil, "")
}

func RefundPayment(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsClient && !userInfo.IsAdmin {
		w.WriteJSON(http.StatusForbidden, nil, nil, "invalid roles")
		return
	}

	var opts models.RefundPaymentOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.RefundPaymentRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.WriteJSON(http.StatusBadRequest, errs, nil, "failed validations")
		return
	}

	refunded, err := ctx.Payments.Refund(opts.PaymentID, decimal.NewFromFloat(opts.Amount))
	if err != nil {
		w.WriteJSON(paymentErrorStatus(err), nil, err, "failed refunding payment")
		return
	}

	w.WriteJSON(http.StatusOK, refunded, nil, "")
}

func GetPayment(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	vars := mux.Vars(r)
	paymentID := vars["payment_id"]

	intent, err := ctx.Payments.GetIntent(paymentID)
	if err != nil {
		w.WriteJSON(paymentErrorStatus(err), nil, err, "failed getting payment")
		return
	}

	if !userInfo.IsAdmin && intent.UserID != userInfo.ID {
		w.WriteJSON(http.StatusForbidden, nil, nil, "invalid user")
		return
	}

	w.WriteJSON(http.StatusOK, intent, nil, "")
}

func GetPayments(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	if !requireStorage(ctx, w) {
		return
	}

	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.GetPaymentsRules,
	}
	v := govalidator.New(validatorOpts)
	errs := v.Validate()
	if len(errs) > 0 {
		w.WriteJSON(http.StatusBadRequest, errs, nil, "failed validations")
		return
	}

	var opts models.GetPaymentsOpts
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	decoder.Decode(&opts, r.URL.Query())

	if !userInfo.IsAdmin {
		opts.UserIDs = []int{userInfo.ID}
	}

	list, err := ctx.DB.GetPayments(&opts)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting payments")
		return
	}

	w.WriteJSON(http.StatusOK, list, nil, "")
}

func paymentErrorStatus(err error) int {
	switch err {
	case payments.ErrPaymentNotFound:
		return http.StatusNotFound
	case payments.ErrInvalidAmount, payments.ErrInvalidState, payments.ErrRefundExceedsCharge:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
