package sentinel

// Decision is a human reviewer's verdict on a single file.
type Decision int

const (
	DecisionReject Decision = iota
	DecisionApprove
)

// ApprovalPrompt presents a changed or new file to a human reviewer and
// blocks until a decision is supplied. oldContent is nil for files with no
// previously approved version. A returned error aborts the session without
// writing any state.
type ApprovalPrompt interface {
	PresentDiff(path string, oldContent, newContent []byte) (Decision, error)
}
