package db

import (
	"database/sql"
	"encoding/json"

	"bitbucket.org/vecpay/backend/models"
)

type AuthStorage interface {
	GetUserLoginByEmail(string) (*models.User, error)
}

const (
	getUserLoginByEmail = `
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
	FROM user
	INNER JOIN pivot_role_user ON (pivot_role_user.user_id = user.id)
	INNER JOIN role ON (role.id = pivot_role_user.role_id AND role.active = 1)
	WHERE user.email IN (:email)
	AND user.active = 1
	GROUP BY user.id
	`
)

func (db *DB) GetUserLoginByEmail(email string) (*models.User, error) {
	stmt, err := db.PrepareNamed(getUserLoginByEmail)
	if err != nil {
		return nil, err
	}

	args := map[string]interface{}{
		"email": email,
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
