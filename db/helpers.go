package db

import (
	"strings"

	"github.com/jmoiron/sqlx"
)

const defaultListLimit = 50

// buildFilters joins optional WHERE clauses for queries carrying a #FILTERS#
// placeholder.
func buildFilters(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return "AND " + strings.Join(clauses, " AND ")
}

// sqlxNamedIn expands named args including IN lists; the caller rebinds.
func sqlxNamedIn(query string, args map[string]interface{}) (string, []interface{}, error) {
	q, params, err := sqlx.Named(query, args)
	if err != nil {
		return "", nil, err
	}
	return sqlx.In(q, params...)
}

// selectList expands named args (including IN lists) and runs the query.
func (db *DB) selectList(query string, filters []string, args map[string]interface{}) (*sqlx.Rows, error) {
	if _, ok := args["limit_to"]; ok {
		if limit, isInt := args["limit_to"].(int); isInt && limit <= 0 {
			args["limit_to"] = defaultListLimit
		}
	}

	query = strings.Replace(query, "#FILTERS#", buildFilters(filters), 1)

	q, params, err := sqlx.Named(query, args)
	if err != nil {
		return nil, err
	}

	q, params, err = sqlx.In(q, params...)
	if err != nil {
		return nil, err
	}

	return db.Queryx(db.Rebind(q), params...)
}
