package sentinel

import (
	"fmt"
	"sort"
	"time"

	"sentinel-go/internal/store"
)

// SessionState is the current state of an approval session.
type SessionState int

const (
	StateInitial SessionState = iota
	StateAwaitingDecision
	StateFinalizing
	StateCompleted
	StateAborted
)

func (s SessionState) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateAwaitingDecision:
		return "awaiting_decision"
	case StateFinalizing:
		return "finalizing"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is the state machine driving one verification attempt. It performs
// no I/O itself: the caller computes the diff by calling Start, feeds human
// decisions through Approve and Reject, and persists the document returned
// by Finalize. Aborting at any point before Finalize leaves the caller with
// nothing to write, which is the abort-safety guarantee.
type Session struct {
	target  TargetRecord
	current FileSet
	stored  *store.MetadataDocument

	state    SessionState
	diff     DiffResult
	pending  []string // modified ∪ added, sorted, decided in order
	idx      int
	approved map[string]bool
}

// NewSession creates a session for a target's current files against its
// stored metadata.
func NewSession(target TargetRecord, current FileSet, stored *store.MetadataDocument) *Session {
	return &Session{
		target:   target,
		current:  current,
		stored:   stored,
		state:    StateInitial,
		approved: make(map[string]bool),
	}
}

// State returns the session's current state.
func (s *Session) State() SessionState { return s.state }

// Diff returns the diff computed by Start.
func (s *Session) Diff() DiffResult { return s.diff }

// Start runs the diff engine and advances the session: to AwaitingDecision
// when any file requires review, directly to Finalizing otherwise.
func (s *Session) Start() (DiffResult, error) {
	if s.state != StateInitial {
		return DiffResult{}, fmt.Errorf("session for %s already started (state %s)", s.target.DisplayName(), s.state)
	}

	s.diff = Diff(s.current, s.stored)

	if s.diff.NeedsReview {
		s.pending = make([]string, 0, len(s.diff.Modified)+len(s.diff.Added))
		s.pending = append(s.pending, s.diff.Modified...)
		s.pending = append(s.pending, s.diff.Added...)
		sort.Strings(s.pending)
		s.state = StateAwaitingDecision
	} else {
		s.state = StateFinalizing
	}

	return s.diff, nil
}

// AwaitingPath returns the file currently awaiting a decision. ok is false
// when the session is not awaiting one.
func (s *Session) AwaitingPath() (path string, ok bool) {
	if s.state != StateAwaitingDecision {
		return "", false
	}
	return s.pending[s.idx], true
}

// Approve records approval for the file currently awaiting a decision and
// advances the session.
func (s *Session) Approve() error { return s.decide(true) }

// Reject records rejection for the file currently awaiting a decision and
// advances the session. A rejected file is excluded from the next approved
// set; absence is the rejection signal.
func (s *Session) Reject() error { return s.decide(false) }

func (s *Session) decide(approve bool) error {
	if s.state != StateAwaitingDecision {
		return fmt.Errorf("no decision pending for %s (state %s)", s.target.DisplayName(), s.state)
	}
	s.approved[s.pending[s.idx]] = approve
	s.idx++
	if s.idx == len(s.pending) {
		s.state = StateFinalizing
	}
	return nil
}

// Abort cancels the session. Allowed at any point before finalizing; once
// completed the durable state transition has already happened and abort is
// an error.
func (s *Session) Abort() error {
	if s.state == StateCompleted {
		return fmt.Errorf("session for %s already completed", s.target.DisplayName())
	}
	s.state = StateAborted
	return nil
}

// Summary returns the decision counts for this session.
func (s *Session) Summary() (total, approved, rejected int) {
	total = len(s.pending)
	for _, ok := range s.approved {
		if ok {
			approved++
		} else {
			rejected++
		}
	}
	return total, approved, rejected
}

// Finalize builds the next metadata document: the approved set is the
// unchanged files plus the files approved this session, restricted to paths
// still present at the source. The model hash is recomputed over the
// approved set only, so a partially approved run reflects exactly what was
// reviewed and unapproved changes are never counted as verified.
//
// Returns the document and whether the target is fully verified
// (overall status ok).
func (s *Session) Finalize(run store.RunInfo, now time.Time) (*store.MetadataDocument, bool, error) {
	if s.state != StateFinalizing {
		return nil, false, fmt.Errorf("session for %s not ready to finalize (state %s)", s.target.DisplayName(), s.state)
	}

	now = now.UTC()
	prior := s.stored.ApprovedMap()

	records := make([]store.FileRecord, 0, len(s.diff.Unchanged)+len(s.pending))
	for _, path := range s.diff.Unchanged {
		records = append(records, prior[path])
	}
	for _, path := range s.pending {
		if !s.approved[path] {
			continue
		}
		records = append(records, store.FileRecord{
			Path:       path,
			Hash:       s.diff.Hashes[path],
			Size:       int64(len(s.current[path])),
			VerifiedAt: now,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })

	allApproved := true
	for _, path := range s.pending {
		if !s.approved[path] {
			allApproved = false
			break
		}
	}

	status := store.StatusOk
	if !allApproved {
		status = store.StatusNeedsReview
	}

	pairs := make([]HashedFile, len(records))
	for i, r := range records {
		pairs[i] = HashedFile{Path: r.Path, Hash: r.Hash}
	}

	doc := &store.MetadataDocument{
		SchemaVersion: store.SchemaVersion,
		Run:           run,
		ModelHash:     AggregateHash(pairs),
		LastVerified:  &now,
		OverallStatus: status,
		ApprovedFiles: records,
	}

	s.state = StateCompleted
	return doc, status == store.StatusOk, nil
}
