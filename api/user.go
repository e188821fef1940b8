package api

import (
	"net/http"
	"strconv"

	"bitbucket.org/vecpay/backend/config"
	"bitbucket.org/vecpay/backend/helpers"
	"bitbucket.org/vecpay/backend/middlewares"
	"bitbucket.org/vecpay/backend/models"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/mitchellh/mapstructure"
	"github.com/thedevsaddam/govalidator"
)

func InsertUser(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	if !requireStorage(ctx, w) {
		return
	}

	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsAdmin {
		w.WriteJSON(http.StatusForbidden, nil, nil, "invalid roles")
		return
	}

	var opts models.InsertUserOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.InsertUserRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.WriteJSON(http.StatusBadRequest, errs, nil, "failed validations")
		return
	}

	hashed, err := helpers.HashPassword(opts.Password)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed hashing password")
		return
	}
	opts.Password = hashed

	userID, err := ctx.DB.InsertUser(&opts)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed inserting user")
		return
	}

	user, err := ctx.DB.GetUserByID(userID)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting user")
		return
	}

	w.WriteJSON(http.StatusOK, user, nil, "")
}

func GetUsers(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	if !requireStorage(ctx, w) {
		return
	}

	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsAdmin {
		w.WriteJSON(http.StatusForbidden, nil, nil, "invalid roles")
		return
	}

	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.GetUsersRules,
	}
	v := govalidator.New(validatorOpts)
	errs := v.Validate()
	if len(errs) > 0 {
		w.WriteJSON(http.StatusBadRequest, errs, nil, "failed validations")
		return
	}

	var opts models.GetUsersOpts
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	decoder.Decode(&opts, r.URL.Query())

	users, err := ctx.DB.GetUsers(&opts)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting users")
		return
	}

	w.WriteJSON(http.StatusOK, users, nil, "")
}

func GetUser(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	if !requireStorage(ctx, w) {
		return
	}

	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	vars := mux.Vars(r)
	userID, err := strconv.Atoi(vars["user_id"])
	if err != nil {
		w.WriteJSON(http.StatusBadRequest, nil, err, "invalid user_id")
		return
	}

	if !userInfo.IsAdmin && userInfo.ID != userID {
		w.WriteJSON(http.StatusForbidden, nil, nil, "invalid roles")
		return
	}

	user, err := ctx.DB.GetUserByID(userID)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting user")
		return
	}
	if user == nil {
		w.WriteJSON(http.StatusNotFound, nil, nil, "user not found")
		return
	}

	w.WriteJSON(http.StatusOK, user, nil, "")
}

func DeactivateUser(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	if !requireStorage(ctx, w) {
		return
	}

	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsAdmin {
		w.WriteJSON(http.StatusForbidden, nil, nil, "invalid roles")
		return
	}

	vars := mux.Vars(r)
	userID, err := strconv.Atoi(vars["user_id"])
	if err != nil {
		w.WriteJSON(http.StatusBadRequest, nil, err, "invalid user_id")
		return
	}

	if err := ctx.DB.DeactivateUser(userID); err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed deactivating user")
		return
	}

	w.WriteJSON(http.StatusOK, nil, nil, "")
}
