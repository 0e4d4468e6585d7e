package sentinel

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"sentinel-go/internal/store"
)

// ToolVersion is recorded in every metadata document's run provenance.
const ToolVersion = "0.2.0"

// Service is the orchestration layer for verification sessions. It wires the
// source providers, the approval prompt, and the on-disk store together, and
// is strictly sequential: enumerate, hash, diff, decide per file, finalize,
// persist.
type Service struct {
	registry *store.Registry
	sources  SourceSelector
	prompt   ApprovalPrompt
	logger   Logger
	clock    Clock
	idgen    IDGenerator
	patterns []string
}

// NewService creates a Service with the provided dependencies. patterns is
// the supported-file suffix filter; nil means DefaultPatterns.
func NewService(registry *store.Registry, sources SourceSelector, prompt ApprovalPrompt, logger Logger, clock Clock, idgen IDGenerator, patterns []string) *Service {
	if patterns == nil {
		patterns = DefaultPatterns
	}
	return &Service{
		registry: registry,
		sources:  sources,
		prompt:   prompt,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
		patterns: patterns,
	}
}

// CheckResult is the outcome of one verification session.
type CheckResult struct {
	Target    TargetRecord
	TargetKey string
	RunID     string

	// Verified is true iff the overall status after the session is ok.
	Verified bool

	Diff DiffResult

	// Decision counts for files that required review this session.
	FilesTotal    int
	FilesApproved int
	FilesRejected int

	// Written is false when the session short-circuited and the on-disk
	// record was left untouched.
	Written bool
}

// Check runs one end-to-end verification session for a target. When changes
// require review, each modified or added file is presented to the approval
// prompt in deterministic order. A prompt error aborts the session with
// ErrAborted and leaves on-disk state byte-for-byte unchanged.
func (s *Service) Check(ctx context.Context, target TargetRecord) (*CheckResult, error) {
	provider, err := s.sources.ForTarget(target)
	if err != nil {
		return nil, fmt.Errorf("selecting source for %s: %w", target.DisplayName(), err)
	}

	target, revisionSHA, err := provider.Resolve(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", target.DisplayName(), err)
	}

	current, err := s.fetchFiles(ctx, provider, target)
	if err != nil {
		return nil, err
	}

	key, err := target.CanonicalKey(AggregateHashOf(current))
	if err != nil {
		return nil, fmt.Errorf("deriving key for %s: %w", target.DisplayName(), err)
	}

	modelDir, err := s.modelDir(key)
	if err != nil {
		return nil, err
	}

	stored, err := s.loadStored(target, modelDir)
	if err != nil {
		return nil, err
	}

	sess := NewSession(target, current, stored)
	diff, err := sess.Start()
	if err != nil {
		return nil, err
	}

	s.logger.Debug("diff computed", "target", key,
		"unchanged", len(diff.Unchanged), "modified", len(diff.Modified),
		"added", len(diff.Added), "removed", len(diff.Removed))

	result := &CheckResult{Target: target, TargetKey: key, Diff: diff}

	if diff.ShortCircuit {
		// Aggregate hash matched and the last session approved everything:
		// nothing to show, nothing to rewrite.
		s.logger.Info("model unchanged", "target", key)
		result.Verified = true
		return result, nil
	}

	for {
		path, ok := sess.AwaitingPath()
		if !ok {
			break
		}
		if err := s.decideFile(sess, modelDir, path, current[path]); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now().UTC()
	run := store.RunInfo{
		RunID:       s.idgen.New(),
		Timestamp:   now,
		ToolVersion: ToolVersion,
		Target:      target.Info(),
		RevisionSHA: revisionSHA,
	}

	doc, verified, err := sess.Finalize(run, now)
	if err != nil {
		return nil, err
	}

	if err := s.persist(target, key, modelDir, doc, sess, current); err != nil {
		return nil, err
	}

	result.RunID = run.RunID
	result.Verified = verified
	result.Written = true
	result.FilesTotal, result.FilesApproved, result.FilesRejected = sess.Summary()

	s.logger.Info("verification session complete", "target", key,
		"status", string(doc.OverallStatus), "approved", result.FilesApproved,
		"rejected", result.FilesRejected)

	return result, nil
}

// fetchFiles lists the target's files and reads the content of every
// supported one. Any read failure is fatal: a silently skipped file would
// let unreviewed content bypass verification.
func (s *Service) fetchFiles(ctx context.Context, provider SourceProvider, target TargetRecord) (FileSet, error) {
	paths, err := provider.ListFiles(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("listing files for %s: %w", target.DisplayName(), err)
	}

	current := make(FileSet)
	for _, path := range paths {
		if !SupportedFile(path, s.patterns) {
			continue
		}
		content, err := provider.ReadFile(ctx, target, path)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", target.DisplayName(), err)
		}
		current[path] = content
	}

	return current, nil
}

// modelDir resolves the storage location for a key, falling back to the
// key-derived default for targets not registered yet.
func (s *Service) modelDir(key string) (string, error) {
	loc, err := s.registry.Resolve(key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.registry.PathFor(key), nil
		}
		return "", fmt.Errorf("resolving storage for %s: %w", key, err)
	}
	return loc, nil
}

// loadStored loads the target's metadata document. A missing document means
// a first check and yields a fresh one. A corrupt document is treated the
// same way, but the failure is reported rather than swallowed. An
// unsupported schema version is a hard error.
func (s *Service) loadStored(target TargetRecord, modelDir string) (*store.MetadataDocument, error) {
	stored, err := store.LoadMetadata(modelDir)
	if err == nil {
		return stored, nil
	}

	if errors.Is(err, store.ErrNotFound) {
		s.logger.Info("no previous record, first check", "target", target.DisplayName())
		return store.Initial(), nil
	}

	var corrupt *store.CorruptionError
	if errors.As(err, &corrupt) {
		s.logger.Warn("stored metadata is corrupt, treating target as unverified",
			"target", target.DisplayName(), "error", corrupt.Error())
		return store.Initial(), nil
	}

	return nil, fmt.Errorf("loading metadata for %s: %w", target.DisplayName(), err)
}

// decideFile presents one file to the approval prompt and feeds the decision
// into the session.
func (s *Service) decideFile(sess *Session, modelDir, path string, newContent []byte) error {
	oldContent, err := store.LoadFileCopy(modelDir, path)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("loading previous copy of %s: %w", path, err)
		}
		oldContent = nil
	}

	decision, err := s.prompt.PresentDiff(path, oldContent, newContent)
	if err != nil {
		sess.Abort()
		return fmt.Errorf("prompt for %s failed: %w: %w", path, ErrAborted, err)
	}

	switch decision {
	case DecisionApprove:
		s.logger.Info("file approved", "path", path)
		return sess.Approve()
	default:
		s.logger.Info("file rejected", "path", path)
		return sess.Reject()
	}
}

// persist writes the session outcome: approved file copies first, then the
// metadata document (atomically), then the registry entry. The metadata
// rename is the durable state transition; everything before it is
// reconstructible and everything after it is an index update.
func (s *Service) persist(target TargetRecord, key, modelDir string, doc *store.MetadataDocument, sess *Session, current FileSet) error {
	keep := make(map[string]bool, len(doc.ApprovedFiles))
	for _, rec := range doc.ApprovedFiles {
		keep[rec.Path] = true
	}

	for _, path := range sess.pending {
		if !sess.approved[path] {
			continue
		}
		if err := store.SaveFileCopy(modelDir, path, current[path]); err != nil {
			return fmt.Errorf("saving approved copy for %s: %w", key, err)
		}
	}

	if err := store.PruneFileCopies(modelDir, keep); err != nil {
		return fmt.Errorf("pruning copies for %s: %w", key, err)
	}

	if target.Kind == KindLocal {
		if err := store.SaveOriginalPath(modelDir, target.ID); err != nil {
			return fmt.Errorf("recording original path for %s: %w", key, err)
		}
	}

	if err := store.SaveMetadata(modelDir, doc); err != nil {
		return fmt.Errorf("saving metadata for %s: %w", key, err)
	}

	if err := s.registry.Register(key, key); err != nil {
		return fmt.Errorf("registering %s: %w", key, err)
	}

	return nil
}

// List enumerates all registered targets.
func (s *Service) List() iter.Seq2[store.ListEntry, error] {
	return s.registry.List()
}

// DeleteAll removes all verification state. The caller is responsible for
// confirming the reset with the user first.
func (s *Service) DeleteAll() error {
	return s.registry.DeleteAll()
}
