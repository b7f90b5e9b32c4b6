package db

import (
	"testing"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		tls  bool
		want string
	}{
		{"tls off keeps dsn", "host=db sslmode=disable", false, "host=db sslmode=disable"},
		{"tls on replaces sslmode", "host=db sslmode=disable port=5432", true, "host=db sslmode=require port=5432"},
		{"tls on appends sslmode", "host=db", true, "host=db sslmode=require"},
		{"tls on case insensitive", "host=db SSLMode = prefer", true, "host=db sslmode=require"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Database: config.DatabaseCfg{DSN: tt.dsn, EnableTLS: tt.tls}}
			assert.Equal(t, tt.want, DSN(cfg))
		})
	}
}
