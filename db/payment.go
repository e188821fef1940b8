package db

import (
	"database/sql"
	"encoding/json"

	"bitbucket.org/vecpay/backend/models"
	"github.com/pkg/errors"
)

// PaymentStorage persists payment intents. GetPayment and SavePayment satisfy
// payments.PaymentStore so the processor can run SQL-backed.
type PaymentStorage interface {
	GetPayment(id string) (*models.Payment, error)
	SavePayment(*models.Payment) error
	GetPayments(*models.GetPaymentsOpts) ([]models.Payment, error)
}

const (
	getPayment = `
	SELECT
		payment.id,
		payment.user_id,
		payment.amount,
		payment.currency,
		payment.status,
		payment.refund_id,
		payment.metadata,
		payment.created,
		payment.updated,
		payment.captured_at,
		payment.refunded_at
	FROM
		payment
	WHERE
		payment.id = :id
	`

	savePayment = `
	INSERT INTO
		payment (id, user_id, amount, currency, status, refund_id, metadata, created, updated, captured_at, refunded_at)
	VALUES
		(:id, :user_id, :amount, :currency, :status, :refund_id, :metadata, :created, :updated, :captured_at, :refunded_at)
	ON DUPLICATE KEY UPDATE
		status = :status,
		refund_id = :refund_id,
		updated = :updated,
		captured_at = :captured_at,
		refunded_at = :refunded_at
	`

	getPayments = `
	SELECT
		payment.id,
		payment.user_id,
		payment.amount,
		payment.currency,
		payment.status,
		payment.refund_id,
		payment.metadata,
		payment.created,
		payment.updated,
		payment.captured_at,
		payment.refunded_at
	FROM
		payment
	WHERE
		1 = 1
		#FILTERS#
	ORDER BY
		payment.created DESC
	LIMIT :limit_to OFFSET :limit_from
	`
)

func (db *DB) GetPayment(id string) (*models.Payment, error) {
	stmt, err := db.PrepareNamed(getPayment)
	if err != nil {
		return nil, err
	}

	args := map[string]interface{}{
		"id": id,
	}

	row := stmt.QueryRow(args)

	payment, err := scanPayment(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return payment, nil
}

func (db *DB) SavePayment(payment *models.Payment) error {
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

	err = db.savePaymentTx(tx, payment)
	if err != nil {
		return err
	}

	return nil
}

func (db *DB) savePaymentTx(tx Tx, payment *models.Payment) error {
	stmt, err := tx.PrepareNamed(savePayment)
	if err != nil {
		return err
	}

	metadata, err := json.Marshal(payment.Metadata)
	if err != nil {
		return err
	}

	args := map[string]interface{}{
		"id":          payment.ID,
		"user_id":     payment.UserID,
		"amount":      payment.Amount.String(),
		"currency":    payment.Currency,
		"status":      string(payment.Status),
		"refund_id":   payment.RefundID,
		"metadata":    metadata,
		"created":     payment.Created,
		"updated":     payment.Updated,
		"captured_at": payment.CapturedAt,
		"refunded_at": payment.RefundedAt,
	}

	_, err = stmt.Exec(args)
	if err != nil {
		return err
	}

	return nil
}

func (db *DB) GetPayments(opts *models.GetPaymentsOpts) ([]models.Payment, error) {
	var filters []string
	args := map[string]interface{}{
		"limit_from": opts.LimitFrom,
		"limit_to":   opts.LimitTo,
	}

	if len(opts.UserIDs) > 0 {
		filters = append(filters, "payment.user_id IN (:user_ids)")
		args["user_ids"] = opts.UserIDs
	}
	if len(opts.Statuses) > 0 {
		filters = append(filters, "payment.status IN (:statuses)")
		args["statuses"] = opts.Statuses
	}

	rows, err := db.selectList(getPayments, filters, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows.Scan)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}

	return payments, rows.Err()
}

func scanPayment(scan func(...interface{}) error) (*models.Payment, error) {
	var payment models.Payment
	var refundID sql.NullString
	var metadata []byte
	var capturedAt, refundedAt sql.NullTime

	if err := scan(
		&payment.ID,
		&payment.UserID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&refundID,
		&metadata,
		&payment.Created,
		&payment.Updated,
		&capturedAt,
		&refundedAt,
	); err != nil {
		return nil, err
	}

	payment.RefundID = refundID.String
	if capturedAt.Valid {
		payment.CapturedAt = &capturedAt.Time
	}
	if refundedAt.Valid {
		payment.RefundedAt = &refundedAt.Time
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &payment.Metadata); err != nil {
			return nil, err
		}
	}

	return &payment, nil
}
