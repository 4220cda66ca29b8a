//go:build unix

package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ErrNotTerminal is returned when stdin is not a terminal
var ErrNotTerminal = errors.New("stdin is not a terminal")

const (
	// pollTimeoutMs bounds each wait so Read notices the stop channel
	pollTimeoutMs = 100
	readBufSize   = 256
	defaultRows   = 24
	defaultCols   = 80
)

// ttyBackend drives a tty through stdin and stdout
type ttyBackend struct {
	in, out *os.File
	saved   *term.State
	buf     [readBufSize]byte

	sigCh   chan os.Signal
	sigDone chan struct{}
}

// NewBackend returns the stdin/stdout backend
func NewBackend() Backend {
	return &ttyBackend{in: os.Stdin, out: os.Stdout}
}

func (b *ttyBackend) inFd() int  { return int(b.in.Fd()) }
func (b *ttyBackend) outFd() int { return int(b.out.Fd()) }

func (b *ttyBackend) Init() error {
	if !term.IsTerminal(b.inFd()) {
		return ErrNotTerminal
	}
	saved, err := term.MakeRaw(b.inFd())
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	b.saved = saved
	return nil
}

func (b *ttyBackend) Fini() {
	if b.sigCh != nil {
		signal.Stop(b.sigCh)
		close(b.sigCh)
		<-b.sigDone
		b.sigCh = nil
	}
	if b.saved != nil {
		term.Restore(b.inFd(), b.saved)
		b.saved = nil
	}
}

// Size asks the output tty first and falls back to the window ioctl on stdin
func (b *ttyBackend) Size() (int, int) {
	if cols, rows, err := term.GetSize(b.outFd()); err == nil && rows > 0 && cols > 0 {
		return rows, cols
	}
	ws, err := unix.IoctlGetWinsize(b.inFd(), unix.TIOCGWINSZ)
	if err != nil || ws.Row == 0 || ws.Col == 0 {
		return defaultRows, defaultCols
	}
	return int(ws.Row), int(ws.Col)
}

func (b *ttyBackend) Write(p []byte) error {
	for len(p) > 0 {
		n, err := b.out.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

// Read waits up to pollTimeoutMs for input, returning nil on timeout or stop
func (b *ttyBackend) Read(stopCh <-chan struct{}) ([]byte, error) {
	fds := []unix.PollFd{{Fd: int32(b.inFd()), Events: unix.POLLIN}}
	for {
		select {
		case <-stopCh:
			return nil, nil
		default:
		}

		ready, err := unix.Poll(fds, pollTimeoutMs)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return nil, fmt.Errorf("poll stdin: %w", err)
		case ready == 0:
			return nil, nil
		}

		n, err := unix.Read(b.inFd(), b.buf[:])
		switch {
		case errors.Is(err, unix.EINTR), errors.Is(err, unix.EAGAIN):
			continue
		case err != nil:
			return nil, fmt.Errorf("read stdin: %w", err)
		case n == 0:
			return nil, io.EOF
		}
		return append([]byte(nil), b.buf[:n]...), nil
	}
}

// SetResizeHandler calls handler with the new size on every SIGWINCH until Fini
func (b *ttyBackend) SetResizeHandler(handler func(rows, cols int)) {
	b.sigCh = make(chan os.Signal, 1)
	b.sigDone = make(chan struct{})
	signal.Notify(b.sigCh, syscall.SIGWINCH)

	go func() {
		defer close(b.sigDone)
		for range b.sigCh {
			handler(b.Size())
		}
	}()
}
