package models

import (
	"github.com/thedevsaddam/govalidator"
)

type LoginOpts struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

var LoginRules = govalidator.MapData{
	"email":    []string{"required", "email"},
	"password": []string{"required"},
}

type UpdateUserPasswordOpts struct {
	Password string `json:"password"`
}

var UpdateUserPasswordRules = govalidator.MapData{
	"password": []string{"required"},
}
