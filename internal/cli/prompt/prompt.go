// Package prompt reads interactive input for the CLI.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// getState and restoreState are test seams for term.GetState and term.Restore.
var (
	getState     = term.GetState
	restoreState = term.Restore
)

type readResult struct {
	s   string
	err error
}

// await runs read on its own goroutine and returns early when ctx is done.
// An abandoned read keeps the reader; callers must not reuse it after a
// cancellation.
func await(ctx context.Context, read func() (string, error)) (string, error) {
	done := make(chan readResult, 1)
	go func() {
		s, err := read()
		done <- readResult{s, err}
	}()
	select {
	case r := <-done:
		return r.s, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Text prints label to w and reads one trimmed line from reader. A final
// line without newline is accepted. It returns ctx.Err() if ctx is done
// first.
func Text(ctx context.Context, reader *bufio.Reader, w io.Writer, label string) (string, error) {
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return "", err
	}
	return await(ctx, func() (string, error) {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && len(line) > 0 {
				return strings.TrimSpace(line), nil
			}
			return "", err
		}
		return strings.TrimSpace(line), nil
	})
}

// Password reads a password without echo when stdin is a terminal, and
// falls back to a plain line read otherwise (pipes, tests). If ctx is done
// while waiting, echo is switched back on before returning.
func Password(ctx context.Context, reader *bufio.Reader, w io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return Text(ctx, reader, w, label)
	}

	state, err := getState(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read terminal state: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return "", err
	}
	read := readPassword
	pw, err := await(ctx, func() (string, error) {
		b, err := read(fd)
		return string(b), err
	})
	fmt.Fprintln(w)
	if err != nil {
		if ctx.Err() != nil {
			if rerr := restoreState(fd, state); rerr != nil {
				return "", errors.Join(err, rerr)
			}
		}
		return "", err
	}
	return pw, nil
}
