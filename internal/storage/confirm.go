package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

var abortWords = map[string]bool{"q": true, "quit": true, "stop": true, "exit": true}

// TerminalConfirmer prompts an operator between batches.
// End of input continues, so non-interactive runs never block.
// A prompt abandoned on cancellation keeps its pending read; the next prompt
// takes the answer from it, so at most one goroutine reads the input.
// It is not safe for concurrent use.
type TerminalConfirmer struct {
	in      *bufio.Reader
	out     io.Writer
	enabled bool
	pending <-chan string
}

// NewTerminalConfirmer creates a confirmer reading answers from in.
// The prompt is skipped unless pause is set and autoContinue is not.
func NewTerminalConfirmer(in io.Reader, out io.Writer, pause, autoContinue bool) *TerminalConfirmer {
	return &TerminalConfirmer{
		in:      bufio.NewReader(in),
		out:     out,
		enabled: pause && !autoContinue,
	}
}

// Confirm implements Confirmer.
func (c *TerminalConfirmer) Confirm(ctx context.Context, cp Checkpoint) error {
	if !c.enabled {
		return nil
	}
	_, _ = fmt.Fprintf(c.out,
		"\nBatch %d complete (%d new this batch, %d new total, %d processed). Press Enter to continue or type 'q' to abort: ",
		cp.Batch, cp.BatchInserted, cp.TotalInserted, cp.Processed)

	if c.pending == nil {
		c.pending = c.readLine()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case line, ok := <-c.pending:
		c.pending = nil
		if !ok {
			return nil
		}
		if abortWords[strings.ToLower(strings.TrimSpace(line))] {
			return ErrAborted
		}
		return nil
	}
}

// readLine reads one answer in the background. The channel is closed on end of input.
func (c *TerminalConfirmer) readLine() <-chan string {
	answer := make(chan string, 1)
	go func() {
		line, err := c.in.ReadString('\n')
		if err != nil && line == "" {
			close(answer)
			return
		}
		answer <- line
	}()
	return answer
}
