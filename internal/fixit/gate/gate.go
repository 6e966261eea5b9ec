// SPDX-License-Identifier: Apache-2.0

package gate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrNoInput is returned when the input closes before an answer is given
var ErrNoInput = errors.New("no more input: confirmation unanswered")

// Confirmer asks the user a yes/no question
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type line struct {
	text string
	err  error
}

// Gate is a blocking console yes/no prompt. A single background reader feeds
// lines to Confirm so that a cancelled context can interrupt the wait.
type Gate struct {
	in   io.Reader
	out  io.Writer
	once sync.Once
	// lines is closed after the reader hits EOF or an error
	lines chan line
}

// New creates a gate reading answers from in and writing prompts to out
func New(in io.Reader, out io.Writer) *Gate {
	return &Gate{
		in:    in,
		out:   out,
		lines: make(chan line),
	}
}

func (g *Gate) start() {
	go func() {
		defer close(g.lines)
		reader := bufio.NewReader(g.in)
		for {
			text, err := reader.ReadString('\n')
			if text != "" {
				g.lines <- line{text: text}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					g.lines <- line{err: err}
				}
				return
			}
		}
	}()
}

// Confirm repeats the prompt until the answer is yes/y or no/n, in any case
func (g *Gate) Confirm(ctx context.Context, prompt string) (bool, error) {
	g.once.Do(g.start)

	for {
		fmt.Fprint(g.out, Question(prompt))

		var l line
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(g.out)
			return false, ctx.Err()
		case l, ok = <-g.lines:
		}

		if !ok {
			fmt.Fprintln(g.out)
			return false, ErrNoInput
		}
		if l.err != nil {
			return false, fmt.Errorf("error reading answer: %w", l.err)
		}

		if answer, valid := ParseAnswer(l.text); valid {
			return answer, nil
		}
		fmt.Fprintln(g.out, "Please answer with 'yes' or 'no'")
	}
}

// Question formats the text shown for a prompt
func Question(prompt string) string {
	if strings.HasSuffix(prompt, "?") {
		return fmt.Sprintf("\n%s (yes/no): ", prompt)
	}
	return fmt.Sprintf("\nShould I proceed with: %s? (yes/no): ", prompt)
}

// ParseAnswer interprets one line of input; valid is false for anything
// other than yes, y, no or n (case-insensitive). Only the line ending is
// stripped; " y " is rejected.
func ParseAnswer(text string) (answer bool, valid bool) {
	switch strings.ToLower(strings.TrimRight(text, "\r\n")) {
	case "yes", "y":
		return true, true
	case "no", "n":
		return false, true
	}
	return false, false
}

// Func adapts a plain function to the Confirmer interface
type Func func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f
func (f Func) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}
