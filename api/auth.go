package api

import (
	"net/http"
	"strings"

	"bitbucket.org/vecpay/backend/config"
	"bitbucket.org/vecpay/backend/helpers"
	"bitbucket.org/vecpay/backend/middlewares"
	"bitbucket.org/vecpay/backend/models"
	"github.com/mitchellh/mapstructure"
	"github.com/thedevsaddam/govalidator"
)

func Login(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	if !requireStorage(ctx, w) {
		return
	}

	var opts models.LoginOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.LoginRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.WriteJSON(http.StatusBadRequest, errs, nil, "failed validations")
		return
	}

	user, err := ctx.DB.GetUserLoginByEmail(opts.Email)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting user")
		return
	}

	if user == nil {
		w.WriteJSON(http.StatusUnauthorized, nil, nil, "invalid credentials")
		return
	}

	if !helpers.AuthenticateHashedPassword(user.Password, opts.Password) {
		w.WriteJSON(http.StatusUnauthorized, nil, nil, "invalid credentials")
		return
	}

	user.Token, err = helpers.GenerateToken(user, ctx.Config.JWTSecret)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed generating token")
		return
	}

	w.WriteJSON(http.StatusOK, user, nil, "")
}

// UpdateUserPassword changes the password of the authenticated user.
func UpdateUserPassword(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	if !requireStorage(ctx, w) {
		return
	}

	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if userInfo.ID == 0 {
		w.WriteJSON(http.StatusUnauthorized, nil, nil, "unauthorized")
		return
	}

	var opts models.UpdateUserPasswordOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.UpdateUserPasswordRules,
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

	if err := ctx.DB.UpdateUserPassword(&models.User{ID: userInfo.ID, Password: hashed}); err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed updating password")
		return
	}

	w.WriteJSON(http.StatusOK, nil, nil, "")
}

// Logout adds the presented bearer token to the revocation list.
func Logout(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	authorization := r.Header.Get("Authorization")
	parts := strings.Split(authorization, " ")
	if len(parts) != 2 {
		w.WriteJSON(http.StatusBadRequest, nil, nil, "missing bearer token")
		return
	}

	middlewares.Revocations.Revoke(parts[1])

	w.WriteJSON(http.StatusNoContent, nil, nil, "")
}
