package prompt_test

import (
	"bytes"
	"strings"
	"testing"

	"sentinel-go/internal/prompt"
	"sentinel-go/internal/sentinel"
)

func TestPresentDiff(t *testing.T) {
	t.Parallel()

	t.Run("y approves", func(t *testing.T) {
		var out bytes.Buffer
		p := prompt.NewPrompt(strings.NewReader("y\n"), &out, true)

		decision, err := p.PresentDiff("model.py", nil, []byte("new\n"))
		if err != nil {
			t.Fatalf("PresentDiff() error = %v", err)
		}
		if decision != sentinel.DecisionApprove {
			t.Errorf("decision = %v, want approve", decision)
		}
	})

	t.Run("yes approves case-insensitively", func(t *testing.T) {
		var out bytes.Buffer
		p := prompt.NewPrompt(strings.NewReader("YES\n"), &out, true)

		decision, err := p.PresentDiff("model.py", nil, []byte("new\n"))
		if err != nil {
			t.Fatalf("PresentDiff() error = %v", err)
		}
		if decision != sentinel.DecisionApprove {
			t.Errorf("decision = %v, want approve", decision)
		}
	})

	t.Run("empty input rejects", func(t *testing.T) {
		var out bytes.Buffer
		p := prompt.NewPrompt(strings.NewReader("\n"), &out, true)

		decision, err := p.PresentDiff("model.py", nil, []byte("new\n"))
		if err != nil {
			t.Fatalf("PresentDiff() error = %v", err)
		}
		if decision != sentinel.DecisionReject {
			t.Errorf("decision = %v, want reject", decision)
		}
	})

	t.Run("EOF rejects", func(t *testing.T) {
		var out bytes.Buffer
		p := prompt.NewPrompt(strings.NewReader(""), &out, true)

		decision, err := p.PresentDiff("model.py", nil, []byte("new\n"))
		if err != nil {
			t.Fatalf("PresentDiff() error = %v", err)
		}
		if decision != sentinel.DecisionReject {
			t.Errorf("decision = %v, want reject", decision)
		}
	})

	t.Run("non-interactive session rejects without reading input", func(t *testing.T) {
		var out bytes.Buffer
		p := prompt.NewPrompt(strings.NewReader("y\n"), &out, false)

		decision, err := p.PresentDiff("model.py", nil, []byte("new\n"))
		if err != nil {
			t.Fatalf("PresentDiff() error = %v", err)
		}
		if decision != sentinel.DecisionReject {
			t.Errorf("decision = %v, want reject", decision)
		}
		if !strings.Contains(out.String(), "Non-interactive") {
			t.Error("output does not mention the non-interactive rejection")
		}
	})

	t.Run("new file shows only current content", func(t *testing.T) {
		var out bytes.Buffer
		p := prompt.NewPrompt(strings.NewReader("y\n"), &out, true)

		if _, err := p.PresentDiff("model.py", nil, []byte("current\n")); err != nil {
			t.Fatalf("PresentDiff() error = %v", err)
		}

		s := out.String()
		if !strings.Contains(s, "New file: model.py") {
			t.Errorf("output missing new-file marker:\n%s", s)
		}
		if strings.Contains(s, "previously approved") {
			t.Errorf("output shows old-content section for a new file:\n%s", s)
		}
	})

	t.Run("changed file shows both sides", func(t *testing.T) {
		var out bytes.Buffer
		p := prompt.NewPrompt(strings.NewReader("y\n"), &out, true)

		if _, err := p.PresentDiff("model.py", []byte("old\n"), []byte("new\n")); err != nil {
			t.Fatalf("PresentDiff() error = %v", err)
		}

		s := out.String()
		if !strings.Contains(s, "Changed file: model.py") {
			t.Errorf("output missing changed-file marker:\n%s", s)
		}
		if !strings.Contains(s, "old\n") || !strings.Contains(s, "new\n") {
			t.Errorf("output missing content:\n%s", s)
		}
	})

	t.Run("content without trailing newline keeps markers on their own lines", func(t *testing.T) {
		var out bytes.Buffer
		p := prompt.NewPrompt(strings.NewReader("\n"), &out, true)

		if _, err := p.PresentDiff("model.py", nil, []byte("no newline")); err != nil {
			t.Fatalf("PresentDiff() error = %v", err)
		}
		if !strings.Contains(out.String(), "no newline\n--- end of model.py ---") {
			t.Errorf("end marker not on its own line:\n%s", out.String())
		}
	})
}
