package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 7*24*time.Hour, cfg.Escrow.HoldWindow)
	assert.Equal(t, 30, cfg.Aggregates.WindowDays)
	assert.True(t, cfg.Telr.Sandbox())
	assert.Contains(t, cfg.Manual, "orange_money")
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "yar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
escrow:
  hold_window: 72h
manual:
  orange_money:
    account_name: Yar SARL
    account_number: "690000000"
`), 0o600))

	t.Setenv("PORT", "7070")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("COST_API_KEY", "legacy-key")
	t.Setenv("MANUAL_BINANCE_PAY_ID", "123456")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port, "environment wins over the file")
	assert.Equal(t, 72*time.Hour, cfg.Escrow.HoldWindow)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "legacy-key", cfg.Admin.APIKey)
	assert.Equal(t, "Yar SARL", cfg.Manual["orange_money"].AccountName)
	assert.Equal(t, "123456", cfg.Manual["binance"].PayID)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h user=u password=p dbname=n port=5432 sslmode=disable", d.DSN())

	d.URL = "postgres://x"
	assert.Equal(t, "postgres://x", d.DSN())
}

func TestValidateServe(t *testing.T) {
	cfg := &Config{Telr: TelrConfig{Mode: "live"}}
	err := cfg.ValidateServe()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
	assert.Contains(t, err.Error(), "telr.webhook_secret")

	cfg = &Config{
		JWT:    JWTConfig{Secret: "s"},
		Admin:  AdminConfig{APIKey: "k"},
		Telr:   TelrConfig{Mode: "sandbox"},
		Escrow: EscrowConfig{SweepInterval: time.Minute},
	}
	assert.NoError(t, cfg.ValidateServe())
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
