package db

import (
	"database/sql"
	"encoding/json"

	"bitbucket.org/vecpay/backend/models"
	"github.com/pkg/errors"
)

// InvoiceStorage persists invoices together with their line items. GetInvoice
// and SaveInvoice satisfy payments.InvoiceStore.
type InvoiceStorage interface {
	GetInvoice(id string) (*models.Invoice, error)
	SaveInvoice(*models.Invoice) error
	GetInvoices(*models.GetInvoicesOpts) ([]models.Invoice, error)
}

const (
	getInvoice = `
	SELECT
		invoice.id,
		invoice.user_id,
		invoice.payment_id,
		invoice.currency,
		invoice.status,
		invoice.metadata,
		invoice.created,
		invoice.updated,
		invoice.issued_at,
		invoice.paid_at,
		invoice.voided_at
	FROM
		invoice
	WHERE
		invoice.id = :id
	`

	getInvoiceLineItems = `
	SELECT
		invoice_line_item.description,
		invoice_line_item.quantity,
		invoice_line_item.unit_price
	FROM
		invoice_line_item
	WHERE
		invoice_line_item.invoice_id = :invoice_id
	ORDER BY
		invoice_line_item.position ASC
	`

	saveInvoice = `
	INSERT INTO
		invoice (id, user_id, payment_id, currency, status, metadata, created, updated, issued_at, paid_at, voided_at)
	VALUES
		(:id, :user_id, :payment_id, :currency, :status, :metadata, :created, :updated, :issued_at, :paid_at, :voided_at)
	ON DUPLICATE KEY UPDATE
		status = :status,
		updated = :updated,
		issued_at = :issued_at,
		paid_at = :paid_at,
		voided_at = :voided_at
	`

	deleteInvoiceLineItems = `
	DELETE FROM
		invoice_line_item
	WHERE
		invoice_id = :invoice_id
	`

	insertInvoiceLineItem = `
	INSERT INTO
		invoice_line_item (invoice_id, position, description, quantity, unit_price)
	VALUES
		(:invoice_id, :position, :description, :quantity, :unit_price)
	`

	getInvoices = `
	SELECT
		invoice.id,
		invoice.user_id,
		invoice.payment_id,
		invoice.currency,
		invoice.status,
		invoice.metadata,
		invoice.created,
		invoice.updated,
		invoice.issued_at,
		invoice.paid_at,
		invoice.voided_at
	FROM
		invoice
	WHERE
		1 = 1
		#FILTERS#
	ORDER BY
		invoice.created DESC
	LIMIT :limit_to OFFSET :limit_from
	`
)

func (db *DB) GetInvoice(id string) (*models.Invoice, error) {
	stmt, err := db.PrepareNamed(getInvoice)
	if err != nil {
		return nil, err
	}

	args := map[string]interface{}{
		"id": id,
	}

	row := stmt.QueryRow(args)

	invoice, err := scanInvoice(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	invoice.LineItems, err = db.getInvoiceLineItems(invoice.ID)
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

func (db *DB) getInvoiceLineItems(invoiceID string) ([]models.LineItem, error) {
	stmt, err := db.PrepareNamed(getInvoiceLineItems)
	if err != nil {
		return nil, err
	}

	args := map[string]interface{}{
		"invoice_id": invoiceID,
	}

	rows, err := stmt.Queryx(args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.LineItem
	for rows.Next() {
		var item models.LineItem
		if err := rows.Scan(&item.Description, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (db *DB) SaveInvoice(invoice *models.Invoice) error {
	tx, err := db.NewTx()
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}

		tx.Commit()
	}()

	err = db.saveInvoiceTx(tx, invoice)
	if err != nil {
		return err
	}

	return nil
}

func (db *DB) saveInvoiceTx(tx Tx, invoice *models.Invoice) error {
	stmt, err := tx.PrepareNamed(saveInvoice)
	if err != nil {
		return err
	}

	metadata, err := json.Marshal(invoice.Metadata)
	if err != nil {
		return err
	}

	args := map[string]interface{}{
		"id":         invoice.ID,
		"user_id":    invoice.UserID,
		"payment_id": invoice.PaymentID,
		"currency":   invoice.Currency,
		"status":     string(invoice.Status),
		"metadata":   metadata,
		"created":    invoice.Created,
		"updated":    invoice.Updated,
		"issued_at":  invoice.IssuedAt,
		"paid_at":    invoice.PaidAt,
		"voided_at":  invoice.VoidedAt,
	}

	if _, err := stmt.Exec(args); err != nil {
		return err
	}

	deleteStmt, err := tx.PrepareNamed(deleteInvoiceLineItems)
	if err != nil {
		return err
	}

	if _, err := deleteStmt.Exec(map[string]interface{}{"invoice_id": invoice.ID}); err != nil {
		return err
	}

	insertStmt, err := tx.PrepareNamed(insertInvoiceLineItem)
	if err != nil {
		return err
	}

	for position, item := range invoice.LineItems {
		itemArgs := map[string]interface{}{
			"invoice_id":  invoice.ID,
			"position":    position,
			"description": item.Description,
			"quantity":    item.Quantity,
			"unit_price":  item.UnitPrice.String(),
		}
		if _, err := insertStmt.Exec(itemArgs); err != nil {
			return err
		}
	}

	return nil
}

func (db *DB) GetInvoices(opts *models.GetInvoicesOpts) ([]models.Invoice, error) {
	var filters []string
	args := map[string]interface{}{
		"limit_from": opts.LimitFrom,
		"limit_to":   opts.LimitTo,
	}

	if len(opts.UserIDs) > 0 {
		filters = append(filters, "invoice.user_id IN (:user_ids)")
		args["user_ids"] = opts.UserIDs
	}
	if len(opts.Statuses) > 0 {
		filters = append(filters, "invoice.status IN (:statuses)")
		args["statuses"] = opts.Statuses
	}

	rows, err := db.selectList(getInvoices, filters, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows.Scan)
		if err != nil {
			return nil, err
		}
		invoice.LineItems, err = db.getInvoiceLineItems(invoice.ID)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *invoice)
	}

	return invoices, rows.Err()
}

func scanInvoice(scan func(...interface{}) error) (*models.Invoice, error) {
	var invoice models.Invoice
	var paymentID sql.NullString
	var metadata []byte
	var issuedAt, paidAt, voidedAt sql.NullTime

	if err := scan(
		&invoice.ID,
		&invoice.UserID,
		&paymentID,
		&invoice.Currency,
		&invoice.Status,
		&metadata,
		&invoice.Created,
		&invoice.Updated,
		&issuedAt,
		&paidAt,
		&voidedAt,
	); err != nil {
		return nil, err
	}

	invoice.PaymentID = paymentID.String
	if issuedAt.Valid {
		invoice.IssuedAt = &issuedAt.Time
	}
	if paidAt.Valid {
		invoice.PaidAt = &paidAt.Time
	}
	if voidedAt.Valid {
		invoice.VoidedAt = &voidedAt.Time
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &invoice.Metadata); err != nil {
			return nil, err
		}
	}

	return &invoice, nil
}
