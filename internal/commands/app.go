package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/moneta-dev/moneta/internal/auditlog"
	"github.com/moneta-dev/moneta/internal/categorize"
	"github.com/moneta-dev/moneta/internal/config"
	"github.com/moneta-dev/moneta/internal/filestore"
	"github.com/moneta-dev/moneta/internal/importer"
	"github.com/moneta-dev/moneta/internal/ledger"
	"github.com/moneta-dev/moneta/internal/logging"
	"github.com/moneta-dev/moneta/internal/model"
	"github.com/moneta-dev/moneta/internal/parser"
	"github.com/moneta-dev/moneta/internal/store"
)

// app wires config, storage, and the import pipeline for one CLI invocation.
// Paths in the config are resolved relative to the config file's directory.
type app struct {
	cfg    *config.Config
	root   string
	store  *store.Store
	files  filestore.Store
	engine *categorize.Engine
	orch   *importer.Orchestrator
	log    zerolog.Logger
}

func openApp(configPath string) (*app, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	cfg, err := config.Load(abs)
	if err != nil {
		return nil, err
	}
	root := filepath.Dir(abs)

	dataDir := resolve(root, cfg.DataDir)
	st, err := store.Open(filepath.Join(dataDir, "moneta.db"))
	if err != nil {
		return nil, err
	}
	if err := syncAccounts(st, cfg); err != nil {
		st.Close()
		return nil, err
	}

	files, err := newFileStore(cfg, dataDir)
	if err != nil {
		st.Close()
		return nil, err
	}

	log := logging.New()
	engine := categorize.NewEngine(st)
	orch := importer.New(
		st,
		files,
		parser.DefaultRegistry(),
		ledger.NewWriter(st),
		engine,
		auditlog.New(root),
		log,
	)
	return &app{cfg: cfg, root: root, store: st, files: files, engine: engine, orch: orch, log: log}, nil
}

// newFileStore selects the upload backend from the storage config: a
// directory under the data dir by default, or a GCS bucket.
func newFileStore(cfg *config.Config, dataDir string) (filestore.Store, error) {
	switch cfg.Storage.Backend {
	case "", config.StorageLocal:
		return filestore.NewLocal(dataDir), nil
	case config.StorageGCS:
		if cfg.Storage.Bucket == "" {
			return nil, fmt.Errorf("storage backend %q requires a bucket", config.StorageGCS)
		}
		return filestore.NewGCS(context.Background(), cfg.Storage.Bucket)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func (a *app) Close() error {
	if c, ok := a.files.(io.Closer); ok {
		c.Close()
	}
	return a.store.Close()
}

func (a *app) importDir() string { return resolve(a.root, a.cfg.ImportDir) }

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// syncAccounts upserts the configured accounts into the store, preserving
// any balance already computed for an existing account.
func syncAccounts(st *store.Store, cfg *config.Config) error {
	for _, ac := range cfg.Accounts {
		account := model.Account{
			ID:        ac.ID,
			Name:      ac.Name,
			Type:      model.AccountType(ac.Type),
			SourceKey: strings.ToLower(ac.SourceKey),
		}
		existing, err := st.GetAccount(ac.ID)
		switch {
		case err == nil:
			account.Balance = existing.Balance
		case !errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("loading account %s: %w", ac.ID, err)
		}
		if err := st.PutAccount(account); err != nil {
			return fmt.Errorf("syncing account %s: %w", ac.ID, err)
		}
	}
	return nil
}
