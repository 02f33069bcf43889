package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-appointments-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "app",
		Password: "p@ss word",
		Name:     "school_appointments",
		SSLMode:  "disable",
	})
	assert.Equal(t, "postgres://app:p%40ss%20word@db:5432/school_appointments?sslmode=disable&timezone=UTC", dsn)
}
