package tools

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSqlite(t *testing.T) {
	db, err := ConnectSqlite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("INSERT INTO sunlight (job_id, lux, raw, mode, mtreg) VALUES (?, ?, ?, ?, ?)", "job", 213.33, 256, 0x10, 69)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sunlight").Scan(&count))
	assert.Equal(t, 1, count)

	// Running again must not fail or drop data
	require.NoError(t, RunMigrations(db))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sunlight").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestEnsureCertificate(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "cert.pem")
	key := filepath.Join(dir, "key.pem")

	require.NoError(t, EnsureCertificate(cert, key))
	assert.FileExists(t, cert)
	assert.FileExists(t, key)

	// A valid pair is left alone
	require.NoError(t, EnsureCertificate(cert, key))
}
