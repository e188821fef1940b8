package api

import (
	"net/http"

	"bitbucket.org/vecpay/backend/config"
	"bitbucket.org/vecpay/backend/middlewares"
	"bitbucket.org/vecpay/backend/server"
)

// HealthcheckHandler indicates the service's healthy
func HealthcheckHandler(_ *config.AppContext, w *middlewares.ResponseWriter, _ *http.Request) {
	w.String(http.StatusOK, "OK")
}

// requireStorage rejects requests needing persistent storage when the service
// runs on in-memory stores only.
func requireStorage(ctx *config.AppContext, w *middlewares.ResponseWriter) bool {
	if ctx.DB == nil {
		w.WriteJSON(http.StatusServiceUnavailable, nil, nil, "persistent storage is not configured")
		return false
	}
	return true
}

// GetRoutes ...
func GetRoutes() []*server.Route {
	return []*server.Route{
		{Path: "/healthcheck", Methods: []string{"GET", "HEAD"}, Handler: HealthcheckHandler, IsProtected: false},

		// Auth
		{Path: "/auth/login", Methods: []string{"POST", "HEAD"}, Handler: Login, IsProtected: false},
		{Path: "/auth/logout", Methods: []string{"POST", "HEAD"}, Handler: Logout, IsProtected: true},
		{Path: "/auth/password", Methods: []string{"PUT", "HEAD"}, Handler: UpdateUserPassword, IsProtected: true},

		// User
		{Path: "/user", Methods: []string{"POST", "HEAD"}, Handler: InsertUser, IsProtected: true},
		{Path: "/user", Methods: []string{"GET", "HEAD"}, Handler: GetUsers, IsProtected: true},
		{Path: "/user/{user_id}", Methods: []string{"GET", "HEAD"}, Handler: GetUser, IsProtected: true},
		{Path: "/user/{user_id}", Methods: []string{"DELETE", "HEAD"}, Handler: DeactivateUser, IsProtected: true},

		// Payment
		{Path: "/payment", Methods: []string{"GET", "HEAD"}, Handler: GetPayments, IsProtected: true},
		{Path: "/payment/charge", Methods: []string{"POST", "HEAD"}, Handler: ChargePayment, IsProtected: true},
		{Path: "/payment/refund", Methods: []string{"POST", "HEAD"}, Handler: RefundPayment, IsProtected: true},
		{Path: "/payment/{payment_id}", Methods: []string{"GET", "HEAD"}, Handler: GetPayment, IsProtected: true},

		// Invoice
		{Path: "/invoice", Methods: []string{"POST", "HEAD"}, Handler: InsertInvoice, IsProtected: true},
		{Path: "/invoice", Methods: []string{"GET", "HEAD"}, Handler: GetInvoices, IsProtected: true},
		{Path: "/invoice/{invoice_id}/issue", Methods: []string{"POST", "HEAD"}, Handler: IssueInvoice, IsProtected: true},
		{Path: "/invoice/{invoice_id}/paid", Methods: []string{"POST", "HEAD"}, Handler: MarkInvoicePaid, IsProtected: true},
		{Path: "/invoice/{invoice_id}/void", Methods: []string{"POST", "HEAD"}, Handler: VoidInvoice, IsProtected: true},
		{Path: "/invoice/{invoice_id}", Methods: []string{"GET", "HEAD"}, Handler: GetInvoice, IsProtected: true},

		// Order
		{Path: "/order", Methods: []string{"POST", "HEAD"}, Handler: InsertOrder, IsProtected: true},
		{Path: "/order", Methods: []string{"GET", "HEAD"}, Handler: GetOrders, IsProtected: true},

		// Notification
		{Path: "/notification", Methods: []string{"POST", "HEAD"}, Handler: SendNotification, IsProtected: true},
	}
}
