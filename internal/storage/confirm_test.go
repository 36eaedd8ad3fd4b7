package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTerminalConfirmer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"enter continues", "\n", nil},
		{"anything else continues", "yes\n", nil},
		{"q aborts", "q\n", ErrAborted},
		{"quit aborts", "  QUIT \n", ErrAborted},
		{"stop aborts", "stop\n", ErrAborted},
		{"exit without newline aborts", "exit", ErrAborted},
		{"end of input continues", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := NewTerminalConfirmer(strings.NewReader(tt.input), &out, true, false)
			err := c.Confirm(context.Background(), Checkpoint{Batch: 2, BatchInserted: 1000, TotalInserted: 2000, Processed: 2400})
			assert.Equal(t, tt.want, err)
			assert.Contains(t, out.String(), "Batch 2 complete")
		})
	}
}

func TestTerminalConfirmer_Disabled(t *testing.T) {
	for _, c := range []*TerminalConfirmer{
		NewTerminalConfirmer(strings.NewReader("q\n"), io.Discard, false, false),
		NewTerminalConfirmer(strings.NewReader("q\n"), io.Discard, true, true),
	} {
		assert.NoError(t, c.Confirm(context.Background(), Checkpoint{Batch: 1}))
	}
}

func TestTerminalConfirmer_ContextCancelled(t *testing.T) {
	r, w := io.Pipe()
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewTerminalConfirmer(r, io.Discard, true, false).Confirm(ctx, Checkpoint{Batch: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTerminalConfirmer_ReusesReadAfterCancel(t *testing.T) {
	r, w := io.Pipe()
	defer func() { _ = w.Close() }()
	c := NewTerminalConfirmer(r, io.Discard, true, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Confirm(ctx, Checkpoint{Batch: 1}), context.Canceled)

	go func() { _, _ = w.Write([]byte("q\n")) }()

	done := make(chan error, 1)
	go func() { done <- c.Confirm(context.Background(), Checkpoint{Batch: 2}) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrAborted, "the answer must reach the live prompt")
	case <-time.After(5 * time.Second):
		t.Fatal("second prompt never received the answer")
	}
}
