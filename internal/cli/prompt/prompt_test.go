package prompt

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"
)

func TestText(t *testing.T) {
	var out bytes.Buffer
	r := bufio.NewReader(strings.NewReader("  alice \nlast"))

	got, err := Text(context.Background(), r, &out, "Username")
	require.NoError(t, err)
	assert.Equal(t, "alice", got)
	assert.Equal(t, "Username: ", out.String())

	got, err = Text(context.Background(), r, &out, "Name")
	require.NoError(t, err)
	assert.Equal(t, "last", got)

	_, err = Text(context.Background(), r, &out, "More")
	require.Error(t, err)
}

func TestPassword_NotATerminal(t *testing.T) {
	origTerminal := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = origTerminal })

	got, err := Password(context.Background(), bufio.NewReader(strings.NewReader("s3cret\n")), &bytes.Buffer{}, "Password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
}

// fakeTerminal swaps the terminal seams for the length of the test.
func fakeTerminal(t *testing.T, read func(int) ([]byte, error)) *int {
	t.Helper()
	origTerminal, origRead, origGet, origRestore := isTerminal, readPassword, getState, restoreState
	restored := 0
	isTerminal = func(int) bool { return true }
	readPassword = read
	getState = func(int) (*term.State, error) { return &term.State{}, nil }
	restoreState = func(int, *term.State) error {
		restored++
		return nil
	}
	t.Cleanup(func() {
		isTerminal, readPassword, getState, restoreState = origTerminal, origRead, origGet, origRestore
	})
	return &restored
}

func TestText_ReturnsWhenCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	var out bytes.Buffer
	_, err := Text(ctx, bufio.NewReader(pr), &out, "Username")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "Username: ", out.String())
}

func TestPassword_RestoresTerminalWhenCancelled(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	restored := fakeTerminal(t, func(int) ([]byte, error) {
		<-release
		return nil, errors.New("closed")
	})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := Password(ctx, bufio.NewReader(strings.NewReader("")), &bytes.Buffer{}, "Password")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, *restored)
}

func TestPassword_Terminal(t *testing.T) {
	restored := fakeTerminal(t, func(int) ([]byte, error) { return []byte("hidden"), nil })

	var out bytes.Buffer
	got, err := Password(context.Background(), bufio.NewReader(strings.NewReader("")), &out, "Password")
	require.NoError(t, err)
	assert.Equal(t, "hidden", got)
	assert.Equal(t, "Password: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("tty gone") }
	_, err = Password(context.Background(), bufio.NewReader(strings.NewReader("")), &out, "Password")
	require.Error(t, err)
	assert.Zero(t, *restored)
}
