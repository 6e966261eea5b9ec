// SPDX-License-Identifier: Apache-2.0

package gate_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/kusari-oss/fixit/internal/fixit/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestConfirmAcceptedTokens(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"y\n", true},
		{"YES\n", true},
		{"Y\n", true},
		{"yEs\r\n", true},
		{"no\n", false},
		{"n\n", false},
		{"NO\n", false},
		{"N\n", false},
		{"no", false}, // final line without newline
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			g := gate.New(strings.NewReader(tt.input), &out)

			got, err := g.Confirm(context.Background(), "Check disk usage")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, strings.Count(out.String(), "(yes/no)"))
			assert.NotContains(t, out.String(), "Please answer")
		})
	}
}

func TestConfirmRepromptsOnInvalidInput(t *testing.T) {
	var out bytes.Buffer
	input := "maybe\n\nyeah\nnope\nyess\n y \ny\n"
	g := gate.New(strings.NewReader(input), &out)

	got, err := g.Confirm(context.Background(), "Check disk usage")
	require.NoError(t, err)
	assert.True(t, got)

	assert.Equal(t, 7, strings.Count(out.String(), "Should I proceed with: Check disk usage? (yes/no): "))
	assert.Equal(t, 6, strings.Count(out.String(), "Please answer with 'yes' or 'no'"))
}

func TestConfirmSequentialPrompts(t *testing.T) {
	var out bytes.Buffer
	g := gate.New(strings.NewReader("y\nn\n"), &out)

	first, err := g.Confirm(context.Background(), "Check disk usage")
	require.NoError(t, err)
	second, err := g.Confirm(context.Background(), "Continue to next step?")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	assert.Contains(t, out.String(), "\nContinue to next step? (yes/no): ")
}

func TestConfirmNoInput(t *testing.T) {
	g := gate.New(strings.NewReader("what\n"), io.Discard)

	got, err := g.Confirm(context.Background(), "Check disk usage")
	assert.False(t, got)
	assert.ErrorIs(t, err, gate.ErrNoInput)

	// The reader is exhausted for good
	_, err = g.Confirm(context.Background(), "again")
	assert.ErrorIs(t, err, gate.ErrNoInput)
}

func TestConfirmReadError(t *testing.T) {
	pr, pw := io.Pipe()
	pw.CloseWithError(errors.New("terminal hung up"))
	g := gate.New(pr, io.Discard)

	_, err := g.Confirm(context.Background(), "Check disk usage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal hung up")
}

func TestConfirmCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })
	g := gate.New(pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	got, err := g.Confirm(ctx, "Check disk usage")
	assert.False(t, got)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQuestion(t *testing.T) {
	assert.Equal(t, "\nShould I proceed with: Check CPU? (yes/no): ", gate.Question("Check CPU"))
	assert.Equal(t, "\nContinue despite error? (yes/no): ", gate.Question("Continue despite error?"))
}

func TestParseAnswer(t *testing.T) {
	for _, in := range []string{"", "yess", "ye", "nah", "0", "1", "true", " y ", "y ", "\tyes", " no\n"} {
		_, valid := gate.ParseAnswer(in)
		assert.False(t, valid, "input %q should be rejected", in)
	}
}
