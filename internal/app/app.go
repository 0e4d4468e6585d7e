package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"

	"sentinel-go/internal/config"
	"sentinel-go/internal/encryption"
	"sentinel-go/internal/history"
	"sentinel-go/internal/prompt"
	"sentinel-go/internal/sentinel"
	"sentinel-go/internal/source"
	"sentinel-go/internal/store"
	"sentinel-go/internal/vault"
)

// App is the application layer between the CLI and the verification service.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string targets, and manages resource lifecycles on Close.
type App struct {
	cfg       *config.Config
	registry  *store.Registry
	service   *sentinel.Service
	runlog    history.RunLog
	mirror    vault.Vault // nil when mirroring is not configured
	encryptor encryption.Encryptor
	logger    sentinel.Logger
	logFile   *os.File
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "Check", "List").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	registry, err := store.Open(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("opening registry: %w", err)
	}

	runlog, err := history.NewRunLogFromConfig(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("opening run history: %w", err)
	}

	mirror, err := vault.NewVaultFromConfig(context.Background(), cfg.Mirror)
	if err != nil {
		runlog.Close()
		return nil, fmt.Errorf("creating mirror vault: %w", err)
	}

	encryptor, err := encryption.NewEncryptorFromConfig(cfg.Mirror)
	if err != nil {
		runlog.Close()
		return nil, fmt.Errorf("creating mirror encryptor: %w", err)
	}

	logger, logFile, err := newLogger(cfg.LogDir, operation)
	if err != nil {
		runlog.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	adapted := &slogAdapter{l: logger}
	svc := sentinel.NewService(
		registry,
		source.NewSelectorFromConfig(cfg.Hub),
		prompt.NewTerminalPrompt(),
		adapted,
		sentinel.RealClock{},
		sentinel.UUIDGenerator{},
		cfg.Files.Include,
	)

	return &App{
		cfg:       cfg,
		registry:  registry,
		service:   svc,
		runlog:    runlog,
		mirror:    mirror,
		encryptor: encryptor,
		logger:    adapted,
		logFile:   logFile,
	}, nil
}

// ResolveTarget interprets a raw CLI target: an existing directory becomes a
// local target, anything of the form org/model a hosted one.
func ResolveTarget(raw, revision string) (sentinel.TargetRecord, error) {
	if info, err := os.Stat(raw); err == nil && info.IsDir() {
		if revision != "" {
			return sentinel.TargetRecord{}, fmt.Errorf("--revision does not apply to local directory %s", raw)
		}
		return sentinel.NewLocalTarget(raw)
	}
	return sentinel.NewRemoteTarget(raw, revision)
}

// Check runs one verification session for a raw target and records the run
// in the history log. When a state mirror is configured, a session that
// wrote new state is pushed afterwards.
func (a *App) Check(ctx context.Context, rawTarget, revision string) (*sentinel.CheckResult, error) {
	target, err := ResolveTarget(rawTarget, revision)
	if err != nil {
		return nil, err
	}

	res, err := a.service.Check(ctx, target)
	a.recordRun(target, res, err)
	if err != nil {
		return nil, err
	}

	if res.Written && a.mirror != nil {
		if err := a.MirrorPush(); err != nil {
			// The local trust record is already durable; a failed mirror
			// upload must not fail the check.
			a.logger.Warn("mirror push failed", "error", err.Error())
		}
	}

	return res, nil
}

// recordRun appends a history row for a finished (or failed) session.
func (a *App) recordRun(target sentinel.TargetRecord, res *sentinel.CheckResult, checkErr error) {
	run := &history.Run{
		RunID:       uuidOrEmpty(res),
		StartedAt:   time.Now().UTC(),
		ToolVersion: sentinel.ToolVersion,
		TargetKey:   target.DisplayName(),
	}

	switch {
	case errors.Is(checkErr, sentinel.ErrAborted):
		run.Outcome = history.OutcomeAborted
	case checkErr != nil:
		run.Outcome = history.OutcomeError
	case !res.Written:
		run.Outcome = history.OutcomeUnchanged
		run.TargetKey = res.TargetKey
	case res.Verified:
		run.Outcome = history.OutcomeVerified
		run.TargetKey = res.TargetKey
	default:
		run.Outcome = history.OutcomeNeedsReview
		run.TargetKey = res.TargetKey
	}

	if res != nil {
		run.FilesTotal = res.FilesTotal
		run.FilesApproved = res.FilesApproved
		run.FilesRejected = res.FilesRejected
	}

	if err := a.runlog.Record(run); err != nil {
		a.logger.Warn("recording run history failed", "error", err.Error())
	}
}

func uuidOrEmpty(res *sentinel.CheckResult) string {
	if res == nil {
		return ""
	}
	return res.RunID
}

// List enumerates all registered targets.
func (a *App) List() iter.Seq2[store.ListEntry, error] {
	return a.service.List()
}

// DeleteAll removes all verification state. The CLI gates this behind an
// explicit --force confirmation.
func (a *App) DeleteAll() error {
	return a.service.DeleteAll()
}

// History returns the most recent verification runs.
func (a *App) History(limit int) ([]*history.Run, error) {
	return a.runlog.Recent(limit)
}

// MirrorPush archives the verification state and uploads it to the
// configured vault.
func (a *App) MirrorPush() error {
	if a.mirror == nil {
		return fmt.Errorf("no mirror configured")
	}

	var archive bytes.Buffer
	if err := vault.Pack(a.registry.Root(), &archive); err != nil {
		return err
	}

	var sealed bytes.Buffer
	if err := a.encryptor.Encrypt(&archive, &sealed); err != nil {
		return fmt.Errorf("encrypting state archive: %w", err)
	}

	if err := a.mirror.PutState(&sealed); err != nil {
		return err
	}

	a.logger.Info("state mirrored", "bytes", sealed.Len())
	return nil
}

// MirrorPull downloads the mirrored state archive and restores it into the
// base directory. Refuses to overwrite existing state unless force is set.
func (a *App) MirrorPull(force bool) error {
	if a.mirror == nil {
		return fmt.Errorf("no mirror configured")
	}

	registryPath := filepath.Join(a.registry.Root(), store.RegistryFileName)
	if _, err := os.Stat(registryPath); err == nil && !force {
		return fmt.Errorf("local state already exists at %s (use --force to overwrite)", a.registry.Root())
	}

	var sealed bytes.Buffer
	if err := a.mirror.GetState(&sealed); err != nil {
		return err
	}

	var archive bytes.Buffer
	if err := a.encryptor.Decrypt(&sealed, &archive); err != nil {
		return fmt.Errorf("decrypting state archive: %w", err)
	}

	if err := vault.Unpack(&archive, a.registry.Root()); err != nil {
		return err
	}

	a.logger.Info("state restored from mirror")
	return nil
}

// Close releases all resources.
func (a *App) Close() error {
	var firstErr error

	if err := a.runlog.Close(); err != nil {
		firstErr = fmt.Errorf("closing run history: %w", err)
	}
	if err := a.registry.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing registry: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
