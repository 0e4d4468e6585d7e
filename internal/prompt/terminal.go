package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"sentinel-go/internal/sentinel"
)

// TerminalPrompt presents file diffs on a terminal and reads y/N decisions
// from standard input. On a non-interactive stdin every file is rejected:
// approval requires a human, never a pipe.
type TerminalPrompt struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// NewTerminalPrompt creates a prompt bound to the process's stdin/stdout.
func NewTerminalPrompt() *TerminalPrompt {
	return &TerminalPrompt{
		in:          bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
}

// NewPrompt creates a prompt over arbitrary streams. interactive controls
// whether decisions are read at all; tests use this.
func NewPrompt(in io.Reader, out io.Writer, interactive bool) *TerminalPrompt {
	return &TerminalPrompt{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive,
	}
}

var _ sentinel.ApprovalPrompt = (*TerminalPrompt)(nil)

// PresentDiff shows a changed or new file and asks for a trust decision.
// An abandoned prompt (EOF) counts as rejection.
func (p *TerminalPrompt) PresentDiff(path string, oldContent, newContent []byte) (sentinel.Decision, error) {
	if oldContent == nil {
		fmt.Fprintf(p.out, "\n=== New file: %s ===\n", path)
	} else {
		fmt.Fprintf(p.out, "\n=== Changed file: %s ===\n", path)
		fmt.Fprintf(p.out, "--- previously approved content ---\n")
		p.writeContent(oldContent)
	}
	fmt.Fprintf(p.out, "--- current content ---\n")
	p.writeContent(newContent)
	fmt.Fprintf(p.out, "--- end of %s ---\n", path)

	if !p.interactive {
		fmt.Fprintf(p.out, "Non-interactive session: rejecting %s.\n", path)
		return sentinel.DecisionReject, nil
	}

	fmt.Fprintf(p.out, "Do you trust %s? [y/N]: ", path)

	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return sentinel.DecisionReject, fmt.Errorf("reading decision: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return sentinel.DecisionApprove, nil
	default:
		return sentinel.DecisionReject, nil
	}
}

// writeContent prints file content, ensuring a trailing newline so the
// surrounding markers stay on their own lines.
func (p *TerminalPrompt) writeContent(content []byte) {
	p.out.Write(content)
	if len(content) > 0 && content[len(content)-1] != '\n' {
		fmt.Fprintln(p.out)
	}
}
