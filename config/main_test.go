package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLDSN_IsMySQLForm(t *testing.T) {
	conf := database{
		URL:      "127.0.0.1",
		Name:     "vecpay",
		User:     "backend",
		Port:     3306,
		Password: "secret",
	}

	// the db layer speaks MySQL dialect, the DSN must match the mysql driver
	require.Equal(t, "backend:secret@tcp(127.0.0.1:3306)/vecpay?parseTime=true", sqlDSN(conf))
}
