package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneta-dev/moneta/internal/config"
	"github.com/moneta-dev/moneta/internal/filestore"
	"github.com/moneta-dev/moneta/internal/model"
	"github.com/moneta-dev/moneta/internal/store"
)

func TestRunInit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(dir))

	for _, d := range []string{"data", "imports", filepath.Join("imports", "processed"), "logs"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, d)
		assert.True(t, info.IsDir())
	}
	_, err := os.Stat(filepath.Join(dir, "moneta.yaml"))
	require.NoError(t, err)

	st, err := store.Open(filepath.Join(dir, "data", "moneta.db"))
	require.NoError(t, err)
	defer st.Close()

	categories, err := st.Categories()
	require.NoError(t, err)
	assert.NotEmpty(t, categories)

	rules, err := st.Rules()
	require.NoError(t, err)
	assert.NotEmpty(t, rules)

	accounts, err := st.Accounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "boursorama", accounts[0].SourceKey)
}

func TestSourceFromFileName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"boursorama-2025-01.csv", "boursorama"},
		{"revolut_january.csv", "revolut"},
		{"CreditAgricole-export.CSV", "creditagricole"},
		{"export.csv", "export"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sourceFromFileName(tt.name), tt.name)
	}
}

func TestNewFileStore(t *testing.T) {
	dir := t.TempDir()

	t.Run("local by default", func(t *testing.T) {
		cfg := &config.Config{}
		files, err := newFileStore(cfg, dir)
		require.NoError(t, err)
		assert.IsType(t, &filestore.Local{}, files)
	})

	t.Run("gcs requires a bucket", func(t *testing.T) {
		cfg := &config.Config{Storage: config.StorageConfig{Backend: config.StorageGCS}}
		_, err := newFileStore(cfg, dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires a bucket")
	})

	t.Run("unknown backend rejected", func(t *testing.T) {
		cfg := &config.Config{Storage: config.StorageConfig{Backend: "ftp"}}
		_, err := newFileStore(cfg, dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown storage backend "ftp"`)
	})
}

func TestOpenAppSyncsAccounts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(dir))

	a, err := openApp(filepath.Join(dir, "moneta.yaml"))
	require.NoError(t, err)
	defer a.Close()

	account, err := a.store.AccountBySourceKey("boursorama")
	require.NoError(t, err)
	assert.Equal(t, "checking", account.ID)
	assert.Equal(t, model.AccountTypeChecking, account.Type)
}
