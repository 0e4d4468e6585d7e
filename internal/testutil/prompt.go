package testutil

import (
	"fmt"
	"sync"

	"sentinel-go/internal/sentinel"
)

// PromptCall records one file presented for review.
type PromptCall struct {
	Path       string
	OldContent []byte
	NewContent []byte
}

// ScriptedPrompt answers approval prompts from a per-path script and records
// every call. Paths without a scripted decision are rejected.
type ScriptedPrompt struct {
	mu        sync.Mutex
	decisions map[string]sentinel.Decision
	errs      map[string]error
	calls     []PromptCall
}

func NewScriptedPrompt() *ScriptedPrompt {
	return &ScriptedPrompt{
		decisions: make(map[string]sentinel.Decision),
		errs:      make(map[string]error),
	}
}

// ApproveAll scripts approval for every path.
func ApproveAll() *ScriptedPrompt {
	p := NewScriptedPrompt()
	p.decisions["*"] = sentinel.DecisionApprove
	return p
}

// RejectAll scripts rejection for every path.
func RejectAll() *ScriptedPrompt {
	return NewScriptedPrompt()
}

// Approve scripts approval for the given paths.
func (p *ScriptedPrompt) Approve(paths ...string) *ScriptedPrompt {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, path := range paths {
		p.decisions[path] = sentinel.DecisionApprove
	}
	return p
}

// Reject scripts rejection for the given paths.
func (p *ScriptedPrompt) Reject(paths ...string) *ScriptedPrompt {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, path := range paths {
		p.decisions[path] = sentinel.DecisionReject
	}
	return p
}

// FailOn makes the prompt return an error for the given path.
func (p *ScriptedPrompt) FailOn(path string, err error) *ScriptedPrompt {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		err = fmt.Errorf("prompt failure for %s", path)
	}
	p.errs[path] = err
	return p
}

func (p *ScriptedPrompt) PresentDiff(path string, oldContent, newContent []byte) (sentinel.Decision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, PromptCall{Path: path, OldContent: oldContent, NewContent: newContent})
	if err := p.errs[path]; err != nil {
		return sentinel.DecisionReject, err
	}
	if d, ok := p.decisions[path]; ok {
		return d, nil
	}
	if d, ok := p.decisions["*"]; ok {
		return d, nil
	}
	return sentinel.DecisionReject, nil
}

// Calls returns the files presented so far, in order.
func (p *ScriptedPrompt) Calls() []PromptCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PromptCall(nil), p.calls...)
}
