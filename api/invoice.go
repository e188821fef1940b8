package api

import (
	"fmt"
	"net/http"

	"bitbucket.org/vecpay/backend/config"
	"bitbucket.org/vecpay/backend/helpers"
	"bitbucket.org/vecpay/backend/middlewares"
	"bitbucket.org/vecpay/backend/models"
	"bitbucket.org/vecpay/backend/payments"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/thedevsaddam/govalidator"
)

func InsertInvoice(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsClient && !userInfo.IsAdmin {
		w.WriteJSON(http.StatusForbidden, nil, nil, "invalid roles")
		return
	}

	var opts models.InsertInvoiceOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.InsertInvoiceRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.WriteJSON(http.StatusBadRequest, errs, nil, "failed validations")
		return
	}

	lineItems := make([]models.LineItem, 0, len(opts.LineItems))
	for _, item := range opts.LineItems {
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		lineItems = append(lineItems, models.LineItem{
			Description: item.Description,
			Quantity:    quantity,
			UnitPrice:   decimal.NewFromFloat(item.UnitPrice),
		})
	}

	invoice, err := ctx.Invoices.CreateInvoice(userInfo.ID, opts.PaymentID, lineItems, opts.Currency, opts.Metadata)
	if err != nil {
		w.WriteJSON(invoiceErrorStatus(err), nil, err, "failed creating invoice")
		return
	}

	w.WriteJSON(http.StatusOK, invoice, nil, "")
}

func IssueInvoice(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsClient && !userInfo.IsAdmin {
		w.WriteJSON(http.StatusForbidden, nil, nil, "invalid roles")
		return
	}

	vars := mux.Vars(r)
	invoice, err := ctx.Invoices.Issue(vars["invoice_id"])
	if err != nil {
		w.WriteJSON(invoiceErrorStatus(err), nil, err, "failed issuing invoice")
		return
	}

	w.WriteJSON(http.StatusOK, invoice, nil, "")
}

// MarkInvoicePaid settles an issued invoice and kicks off the receipt flow:
// render a PDF, upload it, and email it to the client.
func MarkInvoicePaid(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsAdmin && !userInfo.IsAPI {
		w.WriteJSON(http.StatusForbidden, nil, nil, "invalid roles")
		return
	}

	vars := mux.Vars(r)
	invoice, err := ctx.Invoices.MarkPaid(vars["invoice_id"])
	if err != nil {
		w.WriteJSON(invoiceErrorStatus(err), nil, err, "failed marking invoice paid")
		return
	}

	if ctx.SMTP != nil && ctx.DB != nil {
		go sendReceipt(ctx, invoice)
	}

	w.WriteJSON(http.StatusOK, invoice, nil, "")
}

func sendReceipt(ctx *config.AppContext, invoice *models.Invoice) {
	logger := config.GetLogger()

	client, err := ctx.DB.GetUserByID(invoice.UserID)
	if err != nil || client == nil {
		logger.Error("receipt: failed getting client")
		return
	}

	pdfBuffer, err := helpers.GenerateReceiptPDF(invoice, client)
	if err != nil {
		logger.Error("receipt: failed generating PDF")
		return
	}

	if ctx.AwsS3 != nil {
		if _, err := helpers.AddFileToS3(ctx, pdfBuffer, fmt.Sprintf("%s/%s.pdf", ctx.Config.AwsS3.S3PathReceipt, invoice.ID)); err != nil {
			logger.Error("receipt: failed uploading PDF")
		}
	}

	ed := &helpers.EmailData{
		EmailTo:      client.Email,
		NameTo:       client.Firstname,
		EmailFrom:    ctx.Config.Mail.EmailFrom,
		NameFrom:     ctx.Config.Mail.NameFrom,
		Subject:      ctx.Config.Mail.InvoicePaid.Subject,
		TemplatePath: fmt.Sprintf("%s%s/%s", ctx.Config.Mail.Folder, ctx.Config.Mail.Path, ctx.Config.Mail.InvoicePaid.Template),
		FileName:     ctx.Config.Mail.InvoicePaid.FileName,
		FileContent:  pdfBuffer.Bytes(),
		SMTP:         ctx.SMTP,
	}

	if err := ed.SendEmail(map[string]interface{}{
		"InvoiceID": invoice.ID,
		"Firstname": client.Firstname,
		"Lastname":  client.Lastname,
		"Total":     helpers.FormatAmount(invoice.Total(), invoice.Currency),
	}); err != nil {
		logger.Error("receipt: failed sending email")
		return
	}

	logger.Info("receipt: success sending email")
}

func VoidInvoice(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsClient && !userInfo.IsAdmin {
		w.WriteJSON(http.StatusForbidden, nil, nil, "invalid roles")
		return
	}

	vars := mux.Vars(r)
	invoice, err := ctx.Invoices.Void(vars["invoice_id"])
	if err != nil {
		w.WriteJSON(invoiceErrorStatus(err), nil, err, "failed voiding invoice")
		return
	}

	w.WriteJSON(http.StatusOK, invoice, nil, "")
}

func GetInvoice(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	vars := mux.Vars(r)
	invoice, err := ctx.Invoices.GetInvoice(vars["invoice_id"])
	if err != nil {
		w.WriteJSON(invoiceErrorStatus(err), nil, err, "failed getting invoice")
		return
	}

	if !userInfo.IsAdmin && invoice.UserID != userInfo.ID {
		w.WriteJSON(http.StatusForbidden, nil, nil, "invalid user")
		return
	}

	w.WriteJSON(http.StatusOK, invoice, nil, "")
}

func GetInvoices(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	if !requireStorage(ctx, w) {
		return
	}

	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.GetInvoicesRules,
	}
	v := govalidator.New(validatorOpts)
	errs := v.Validate()
	if len(errs) > 0 {
		w.WriteJSON(http.StatusBadRequest, errs, nil, "failed validations")
		return
	}

	var opts models.GetInvoicesOpts
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	decoder.Decode(&opts, r.URL.Query())

	if !userInfo.IsAdmin {
		opts.UserIDs = []int{userInfo.ID}
	}

	list, err := ctx.DB.GetInvoices(&opts)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting invoices")
		return
	}

	w.WriteJSON(http.StatusOK, list, nil, "")
}

func invoiceErrorStatus(err error) int {
	switch err {
	case payments.ErrInvoiceNotFound, payments.ErrPaymentNotFound:
		return http.StatusNotFound
	case payments.ErrNoLineItems, payments.ErrInvalidState, payments.ErrPaymentNotCaptured:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
