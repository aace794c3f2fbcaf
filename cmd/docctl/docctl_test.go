package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oneflow/backend/internal/domain/finance"
	"github.com/oneflow/backend/internal/infrastructure/auth"
	"github.com/oneflow/backend/internal/infrastructure/config"
)

func testCLI() *cli {
	return &cli{
		cfg: &config.Config{
			App: config.AppConfig{Env: "development"},
			JWT: config.JWTConfig{Secret: "docctl-test-secret-with-32-bytes!", AccessTokenExpiration: time.Hour, Issuer: "oneflow"},
		},
		log: zap.NewNop(),
	}
}

func TestTotals(t *testing.T) {
	in := strings.NewReader(`{"items":[
		{"product":"Consulting","quantity":"10","unit_price":"5000","tax_rate_percent":"18"},
		{"product":"Licence","quantity":1,"unit_price":5000,"tax_rate_percent":18}
	]}`)
	var out bytes.Buffer
	require.NoError(t, runTotals(testCLI(), in, &out))

	text := out.String()
	assert.Contains(t, text, "59000.00")
	assert.Regexp(t, `Subtotal\s+55000\.00`, text)
	assert.Regexp(t, `Tax\s+9900\.00`, text)
	assert.Regexp(t, `Total\s+64900\.00`, text)
}

func TestTotals_MalformedInput(t *testing.T) {
	var out bytes.Buffer
	err := runTotals(testCLI(), strings.NewReader("not json"), &out)
	assert.Error(t, err)
}

func TestTokenCmd(t *testing.T) {
	app := testCLI()

	t.Run("mints a verifiable token", func(t *testing.T) {
		cmd := newTokenCmd(app)
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--user", "pat", "--role", "project_manager"})
		require.NoError(t, cmd.Execute())

		actor, err := auth.NewJWTService(app.cfg.JWT).Authenticate(strings.TrimSpace(out.String()))
		require.NoError(t, err)
		assert.Equal(t, "pat", actor.Username)
		assert.Equal(t, finance.RoleProjectManager, actor.Role)
	})

	t.Run("unknown role", func(t *testing.T) {
		cmd := newTokenCmd(app)
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--user", "pat", "--role", "owner"})
		assert.Error(t, cmd.Execute())
	})

	t.Run("refused in production", func(t *testing.T) {
		prod := testCLI()
		prod.cfg.App.Env = "production"
		cmd := newTokenCmd(prod)
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--user", "pat"})
		assert.Error(t, cmd.Execute())
	})
}
