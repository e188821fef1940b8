package api

import (
	"net/http"

	"bitbucket.org/vecpay/backend/config"
	"bitbucket.org/vecpay/backend/middlewares"
	"bitbucket.org/vecpay/backend/models"
	"github.com/gorilla/schema"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/thedevsaddam/govalidator"
)

func InsertOrder(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	if !requireStorage(ctx, w) {
		return
	}

	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsClient && !userInfo.IsAdmin {
		w.WriteJSON(http.StatusForbidden, nil, nil, "invalid roles")
		return
	}

	var opts models.InsertOrderOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.InsertOrderRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.WriteJSON(http.StatusBadRequest, errs, nil, "failed validations")
		return
	}

	totalAmount := decimal.NewFromFloat(opts.TotalAmount)
	if totalAmount.Sign() <= 0 {
		w.WriteJSON(http.StatusBadRequest, nil, nil, "total_amount must be positive")
		return
	}

	orderID, err := ctx.DB.InsertOrder(userInfo.ID, totalAmount)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed inserting order")
		return
	}

	order, err := ctx.DB.GetOrderByID(orderID)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting order")
		return
	}

	w.WriteJSON(http.StatusOK, order, nil, "")
}

func GetOrders(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	if !requireStorage(ctx, w) {
		return
	}

	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsAdmin && !userInfo.IsClient {
		w.WriteJSON(http.StatusForbidden, nil, nil, "invalid roles")
		return
	}

	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.GetOrdersRules,
	}
	v := govalidator.New(validatorOpts)
	errs := v.Validate()
	if len(errs) > 0 {
		w.WriteJSON(http.StatusBadRequest, errs, nil, "failed validations")
		return
	}

	var opts models.GetOrdersOpts
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	decoder.Decode(&opts, r.URL.Query())

	// clients only ever see their own orders
	if !userInfo.IsAdmin {
		opts.UserIDs = []int{userInfo.ID}
	}

	orders, err := ctx.DB.GetOrders(&opts)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting orders")
		return
	}

	w.WriteJSON(http.StatusOK, orders, nil, "")
}
