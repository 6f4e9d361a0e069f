// Package candidate supplies the interview core with candidate utterances.
// Sources own the input modality; the core only ever sees text.
package candidate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrExhausted is returned when a source has no more utterances to give.
var ErrExhausted = errors.New("candidate input exhausted")

// Source yields the candidate's next utterance.
type Source interface {
	NextUtterance(ctx context.Context) (string, error)
}

// Reader yields one utterance per line from an io.Reader. It serves piped
// stdin and scripted answer files.
type Reader struct {
	scanner *bufio.Scanner
}

const maxUtteranceSize = 1024 * 1024

func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxUtteranceSize)
	return &Reader{scanner: scanner}
}

func (r *Reader) NextUtterance(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", fmt.Errorf("read candidate input: %w", err)
		}
		return "", ErrExhausted
	}

	return r.scanner.Text(), nil
}

// Script yields a fixed list of utterances in order. It backs simulated
// interview runs.
type Script struct {
	answers []string
	next    int
}

func NewScript(answers []string) *Script {
	return &Script{answers: append([]string(nil), answers...)}
}

func (s *Script) NextUtterance(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if s.next >= len(s.answers) {
		return "", ErrExhausted
	}

	answer := s.answers[s.next]
	s.next++
	return answer, nil
}
