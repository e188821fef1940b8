package db

import (
	"database/sql"
	"encoding/json"

	"bitbucket.org/vecpay/backend/models"
	"github.com/pkg/errors"
)

type UserStorage interface {
	InsertUser(*models.InsertUserOpts) (int, error)
	GetUserByID(userID int) (*models.User, error)
	GetUsers(*models.GetUsersOpts) ([]models.User, error)
	UpdateUserPassword(*models.User) error
	DeactivateUser(userID int) error
}

const (
	insertUser = `
	INSERT
		user
	SET
		email = :email,
		password = :password,
		firstname = :firstname,
		lastname = :lastname
	`

	insertUserRoles = `
	INSERT INTO
		pivot_role_user (user_id, role_id)
	SELECT
		:user_id,
		role.id
	FROM
		role
	WHERE
		role.id IN (:role_ids)
	AND role.active = 1
	`

	getUserByID = `
	SELECT
		user.id,
		user.firstname,
		user.lastname,
		user.email,
		user.password,
		user.created,
		user.updated,
		user.active,
		COALESCE(CONCAT('[',GROUP_CONCAT(JSON_OBJECT('id', role.id, 'name', role.name)),']'), '[]')
	FROM
		user
	INNER JOIN
		pivot_role_user ON (pivot_role_user.user_id = user.id)
	INNER JOIN
		role ON (role.id = pivot_role_user.role_id AND role.active = 1)
	WHERE
		user.active = 1 AND
		user.id = :user_id
	GROUP BY
		user.id
	`

	getUsers = `
	SELECT
		user.id,
		user.firstname,
		user.lastname,
		user.email,
		user.password,
		user.created,
		user.updated,
		user.active,
		COALESCE(CONCAT('[',GROUP_CONCAT(JSON_OBJECT('id', role.id, 'name', role.name)),']'), '[]')
	FROM
		user
	INNER JOIN
		pivot_role_user ON (pivot_role_user.user_id = user.id)
	INNER JOIN
		role ON (role.id = pivot_role_user.role_id AND role.active = 1)
	WHERE
		user.active = 1
	#FILTERS#
	GROUP BY
		user.id
	ORDER BY
		user.id
	LIMIT :limit_to OFFSET :limit_from
	`

	updateUserPassword = `
	UPDATE
		user
	SET
		password = :password
	WHERE
		user.id = :user_id AND
		user.active = 1
	`

	deactivateUser = `
	UPDATE
		user
	SET
		active = 0
	WHERE
		user.id = :user_id
	`
)

func (db *DB) InsertUser(opts *models.InsertUserOpts) (int, error) {
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

	id, newErr := db.insertUserTx(tx, opts)
	if newErr != nil {
		err = newErr
		return 0, err
	}

	return id, nil
}

func (db *DB) insertUserTx(tx Tx, opts *models.InsertUserOpts) (int, error) {
	stmt, err := tx.PrepareNamed(insertUser)
	if err != nil {
		return 0, err
	}

	args := map[string]interface{}{
		"email":     opts.Email,
		"password":  opts.Password,
		"firstname": opts.Firstname,
		"lastname":  opts.Lastname,
	}

	result, err := stmt.Exec(args)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	query, params, err := sqlxNamedIn(insertUserRoles, map[string]interface{}{
		"user_id":  id,
		"role_ids": opts.Roles,
	})
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(tx.Rebind(query), params...); err != nil {
		return 0, err
	}

	return int(id), nil
}

func (db *DB) GetUserByID(userID int) (*models.User, error) {
	stmt, err := db.PrepareNamed(getUserByID)
	if err != nil {
		return nil, err
	}

	args := map[string]interface{}{
		"user_id": userID,
	}

	row := stmt.QueryRow(args)

	var user models.User
	var rolesBytes []byte

	if err := row.Scan(
		&user.ID,
		&user.Firstname,
		&user.Lastname,
		&user.Email,
		&user.Password,
		&user.Created,
		&user.Updated,
		&user.Active,
		&rolesBytes,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	var roles []models.Role
	if err := json.Unmarshal(rolesBytes, &roles); err != nil {
		return nil, err
	}
	user.Roles = roles

	return &user, nil
}

func (db *DB) GetUsers(opts *models.GetUsersOpts) ([]models.User, error) {
	var filters []string
	args := map[string]interface{}{
		"limit_from": opts.LimitFrom,
		"limit_to":   opts.LimitTo,
	}

	if len(opts.UserIDs) > 0 {
		filters = append(filters, "user.id IN (:user_ids)")
		args["user_ids"] = opts.UserIDs
	}
	if len(opts.RoleIDs) > 0 {
		filters = append(filters, "role.id IN (:role_ids)")
		args["role_ids"] = opts.RoleIDs
	}
	if len(opts.Emails) > 0 {
		filters = append(filters, "user.email IN (:emails)")
		args["emails"] = opts.Emails
	}
	if opts.CreatedFrom != "" {
		filters = append(filters, "user.created >= :created_from")
		args["created_from"] = opts.CreatedFrom
	}
	if opts.CreatedTo != "" {
		filters = append(filters, "user.created <= :created_to")
		args["created_to"] = opts.CreatedTo
	}

	rows, err := db.selectList(getUsers, filters, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		var rolesBytes []byte
		if err := rows.Scan(
			&user.ID,
			&user.Firstname,
			&user.Lastname,
			&user.Email,
			&user.Password,
			&user.Created,
			&user.Updated,
			&user.Active,
			&rolesBytes,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(rolesBytes, &user.Roles); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (db *DB) UpdateUserPassword(user *models.User) error {
	stmt, err := db.PrepareNamed(updateUserPassword)
	if err != nil {
		return err
	}

	args := map[string]interface{}{
		"password": user.Password,
		"user_id":  user.ID,
	}

	_, err = stmt.Exec(args)
	return err
}

func (db *DB) DeactivateUser(userID int) error {
	stmt, err := db.PrepareNamed(deactivateUser)
	if err != nil {
		return err
	}

	args := map[string]interface{}{
		"user_id": userID,
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
