package candidate

import (
	"context"
	"errors"

	"github.com/manifoldco/promptui"
)

// Prompt reads utterances interactively from the terminal.
type Prompt struct {
	label string
}

func NewPrompt(label string) *Prompt {
	if label == "" {
		label = "Your answer"
	}
	return &Prompt{label: label}
}

func (p *Prompt) NextUtterance(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	prompt := promptui.Prompt{Label: p.label}

	answer, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrEOF) {
			return "", ErrExhausted
		}
		// Ctrl-C and other terminal failures abort the session upstream.
		return "", err
	}

	return answer, nil
}
