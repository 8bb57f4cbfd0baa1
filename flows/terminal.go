package flows

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"verinest-onboarding/wizard"
)

// TerminalPrompter asks for field values on a line-oriented terminal.
// Typing "back" returns to the previous step and "quit" abandons the wizard.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out}
}

func (p *TerminalPrompter) Begin(step StepSpec, data wizard.Data) {
	fmt.Fprintf(p.out, "\n=== %s ===\n", step.Title)
	if step.Description != "" {
		fmt.Fprintln(p.out, step.Description)
	}
	if step.Key == StepReview {
		for _, k := range sortedKeys(data) {
			fmt.Fprintf(p.out, "  %s: %s\n", k, data[k])
		}
	}
}

func (p *TerminalPrompter) Ask(ctx context.Context, field Field, current string) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Fprint(p.out, prompt(field, current))
		line, err := p.in.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		input := strings.TrimSpace(line)

		switch strings.ToLower(input) {
		case "back":
			return "", wizard.ErrBack
		case "quit", "abandon":
			return "", wizard.ErrAbandon
		}
		if input == "" {
			input = current
		}
		if input == "" {
			if field.Required {
				fmt.Fprintln(p.out, "This field is required.")
				continue
			}
			return "", nil
		}

		switch field.Kind {
		case KindChoice:
			if !slices.Contains(field.Choices, input) {
				fmt.Fprintf(p.out, "Choose one of: %s\n", strings.Join(field.Choices, ", "))
				continue
			}
		case KindConfirm:
			switch strings.ToLower(input) {
			case "y", "yes", "true":
				input = "true"
			case "n", "no", "false":
				input = "false"
			default:
				fmt.Fprintln(p.out, "Answer yes or no.")
				continue
			}
		}
		return input, nil
	}
}

func prompt(field Field, current string) string {
	var b strings.Builder
	b.WriteString(field.Label)
	switch field.Kind {
	case KindChoice:
		fmt.Fprintf(&b, " (%s)", strings.Join(field.Choices, "/"))
	case KindConfirm:
		b.WriteString(" (yes/no)")
	case KindFile:
		b.WriteString(" (path to image)")
	}
	if current != "" {
		fmt.Fprintf(&b, " [%s]", current)
	}
	b.WriteString(": ")
	return b.String()
}

func sortedKeys(d wizard.Data) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
