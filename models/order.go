package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/thedevsaddam/govalidator"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID          int             `json:"id,omitempty"`
	User        *User           `json:"user,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      OrderStatus     `json:"status"`
	PaymentID   string          `json:"payment_id,omitempty"`
	Created     time.Time       `json:"created"`
	Updated     time.Time       `json:"updated"`
}

type InsertOrderOpts struct {
	TotalAmount float64 `json:"total_amount"`
}

var InsertOrderRules = govalidator.MapData{
	"total_amount": []string{"required", "float"},
}

type GetOrdersOpts struct {
	CreatedFrom string   `schema:"created_from"`
	CreatedTo   string   `schema:"created_to"`
	UserIDs     []int    `schema:"user_ids"`
	Statuses    []string `schema:"statuses"`
	LimitFrom   int      `schema:"limit_from"`
	LimitTo     int      `schema:"limit_to"`
}

var GetOrdersRules = govalidator.MapData{
	"created_from": []string{"date_ISO8601"},
	"created_to":   []string{"date_ISO8601"},
	"user_ids":     []string{"array_int"},
	"statuses":     []string{"array_string"},
	"limit_from":   []string{"numeric"},
	"limit_to":     []string{"numeric"},
}
