package db

import (
	"database/sql"

	"bitbucket.org/vecpay/backend/models"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type OrderStorage interface {
	InsertOrder(userID int, totalAmount decimal.Decimal) (int, error)
	GetOrderByID(orderID int) (*models.Order, error)
	GetOrders(*models.GetOrdersOpts) ([]models.Order, error)
	UpdateOrderStatus(orderID int, status models.OrderStatus) error
}

const (
	insertOrder = `
	INSERT
		` + "`order`" + `
	SET
		user_id = :user_id,
		total_amount = :total_amount,
		status = :status
	`

	getOrderByID = `
	SELECT
		` + "`order`" + `.id,
		` + "`order`" + `.total_amount,
		` + "`order`" + `.status,
		` + "`order`" + `.payment_id,
		` + "`order`" + `.created,
		` + "`order`" + `.updated,
		user.id,
		user.firstname,
		user.lastname,
		user.email
	FROM
		` + "`order`" + `
	INNER JOIN
		user ON (user.id = ` + "`order`" + `.user_id)
	WHERE
		` + "`order`" + `.id = :order_id
	`

	getOrders = `
	SELECT
		` + "`order`" + `.id,
		` + "`order`" + `.total_amount,
		` + "`order`" + `.status,
		` + "`order`" + `.payment_id,
		` + "`order`" + `.created,
		` + "`order`" + `.updated,
		user.id,
		user.firstname,
		user.lastname,
		user.email
	FROM
		` + "`order`" + `
	INNER JOIN
		user ON (user.id = ` + "`order`" + `.user_id)
	WHERE
		1 = 1
		#FILTERS#
	ORDER BY
		` + "`order`" + `.id DESC
	LIMIT :limit_to OFFSET :limit_from
	`

	updateOrderStatus = `
	UPDATE
		` + "`order`" + `
	SET
		status = :status,
		updated = current_timestamp()
	WHERE
		id = :order_id
	`
)

func (db *DB) InsertOrder(userID int, totalAmount decimal.Decimal) (int, error) {
	tx, err := db.NewTx()
	if err != nil {
		return 0, errors.Wrap(err, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}

		tx.Commit()
	}()

	id, newErr := db.insertOrderTx(tx, userID, totalAmount)
	if newErr != nil {
		err = newErr
		return 0, err
	}

	return id, nil
}

func (db *DB) insertOrderTx(tx Tx, userID int, totalAmount decimal.Decimal) (int, error) {
	stmt, err := tx.PrepareNamed(insertOrder)
	if err != nil {
		return 0, err
	}

	args := map[string]interface{}{
		"user_id":      userID,
		"total_amount": totalAmount.String(),
		"status":       string(models.OrderStatusPending),
	}

	result, err := stmt.Exec(args)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if int(rowsAffected) != 1 {
		return 0, errors.Errorf("expected %d and inserted %d", 1, rowsAffected)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	return int(id), nil
}

func (db *DB) GetOrderByID(orderID int) (*models.Order, error) {
	stmt, err := db.PrepareNamed(getOrderByID)
	if err != nil {
		return nil, err
	}

	args := map[string]interface{}{
		"order_id": orderID,
	}

	row := stmt.QueryRow(args)

	order, err := scanOrder(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return order, nil
}

func (db *DB) GetOrders(opts *models.GetOrdersOpts) ([]models.Order, error) {
	var filters []string
	args := map[string]interface{}{
		"limit_from": opts.LimitFrom,
		"limit_to":   opts.LimitTo,
	}

	if len(opts.UserIDs) > 0 {
		filters = append(filters, "`order`.user_id IN (:user_ids)")
		args["user_ids"] = opts.UserIDs
	}
	if len(opts.Statuses) > 0 {
		filters = append(filters, "`order`.status IN (:statuses)")
		args["statuses"] = opts.Statuses
	}
	if opts.CreatedFrom != "" {
		filters = append(filters, "`order`.created >= :created_from")
		args["created_from"] = opts.CreatedFrom
	}
	if opts.CreatedTo != "" {
		filters = append(filters, "`order`.created <= :created_to")
		args["created_to"] = opts.CreatedTo
	}

	rows, err := db.selectList(getOrders, filters, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}

	return orders, rows.Err()
}

func (db *DB) UpdateOrderStatus(orderID int, status models.OrderStatus) error {
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

	err = db.updateOrderStatusTx(tx, orderID, status)
	if err != nil {
		return err
	}

	return nil
}

func (db *DB) updateOrderStatusTx(tx Tx, orderID int, status models.OrderStatus) error {
	stmt, err := tx.PrepareNamed(updateOrderStatus)
	if err != nil {
		return err
	}

	args := map[string]interface{}{
		"status":   string(status),
		"order_id": orderID,
	}

	result, err := stmt.Exec(args)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if int(rowsAffected) != 1 {
		return errors.Errorf("expected %d and updated %d", 1, rowsAffected)
	}

	return nil
}

func scanOrder(scan func(...interface{}) error) (*models.Order, error) {
	var order models.Order
	var user models.User
	var paymentID sql.NullString

	if err := scan(
		&order.ID,
		&order.TotalAmount,
		&order.Status,
		&paymentID,
		&order.Created,
		&order.Updated,
		&user.ID,
		&user.Firstname,
		&user.Lastname,
		&user.Email,
	); err != nil {
		return nil, err
	}

	order.PaymentID = paymentID.String
	order.User = &user

	return &order, nil
}
