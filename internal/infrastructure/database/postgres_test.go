package database

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeDSN(t *testing.T) {
	tests := map[string]string{
		"postgresql+asyncpg://u:p@h:5432/db": "postgresql://u:p@h:5432/db",
		"postgres+pgx://u:p@h/db":            "postgres://u:p@h/db",
		"  postgres://u@h/db  ":              "postgres://u@h/db",
		"":                                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeDSN(in), in)
	}
}

func TestWithMaxConns(t *testing.T) {
	cfg := &pgxpool.Config{}
	WithMaxConns(0)(cfg)
	assert.Zero(t, cfg.MaxConns)
	WithMaxConns(12)(cfg)
	assert.Equal(t, int32(12), cfg.MaxConns)
}
