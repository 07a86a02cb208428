package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zahlentech/str8up_server/config"
	"github.com/zahlentech/str8up_server/internal/database"
	"github.com/zahlentech/str8up_server/internal/model"
	"github.com/zahlentech/str8up_server/internal/testutil"
)

func seed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "str8up.db")

	db, err := database.NewDB(&config.DatabaseConfig{Driver: "sqlite", Path: dbPath})
	require.NoError(t, err)

	expired := testutil.WithExpiresAt(time.Now().Add(-time.Hour))
	testutil.TestAssessment(t, db, expired)
	converted := testutil.TestAssessment(t, db, expired)
	testutil.TestLead(t, db, converted.SessionID)
	testutil.TestAssessment(t, db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	cfgPath := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("database:\n  driver: sqlite\n  path: %s\nlog:\n  level: error\n", dbPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0644))
	return cfgPath
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestCleanup_DryRunThenDelete(t *testing.T) {
	cfgPath := seed(t)

	out := execute(t, "--config", cfgPath)
	assert.Contains(t, out, "Expired sessions without leads: 1")
	assert.Contains(t, out, "DRY RUN")

	out = execute(t, "--config", cfgPath, "--dry-run=false")
	assert.Contains(t, out, "Deleted sessions: 1")

	out = execute(t, "--config", cfgPath)
	assert.Contains(t, out, "Expired sessions without leads: 0")

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	db, err := database.NewDB(&cfg.Database)
	require.NoError(t, err)
	var remaining int64
	require.NoError(t, db.Model(&model.Assessment{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)
}

func TestCleanup_Grace(t *testing.T) {
	cfgPath := seed(t)

	out := execute(t, "--config", cfgPath, "--grace", "2h")
	assert.Contains(t, out, "Expired sessions without leads: 0")
}

func TestCleanup_MissingConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, cmd.Execute())
}
