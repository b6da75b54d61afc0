package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/term"
)

// ErrInputClosed is returned when stdin can no longer be read. It is fatal:
// an unusable terminal is not something the user can fix by retyping.
var ErrInputClosed = errors.New("failed to read from stdin")

// InputError is a recoverable conversion failure. Its message is shown to
// the user and the prompt is repeated. It must never contain input bytes.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return e.Msg
}

func invalid(msg string) error {
	return &InputError{Msg: msg}
}

// Prompter asks questions on out and reads answers from in, one line each.
type Prompter struct {
	in  *bufio.Reader
	out *bufio.Writer

	// readMasked reads one line without echoing it, line ending excluded.
	// When nil, sensitive lines are read from in like any other line.
	readMasked func() ([]byte, error)
}

func newPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: bufio.NewWriter(out),
	}
}

// newTerminalPrompter prompts on stdout and reads stdin. Sensitive lines are
// read with echo disabled when stdin is a terminal.
func newTerminalPrompter() *Prompter {
	p := newPrompter(os.Stdin, os.Stdout)
	if term.IsTerminal(int(syscall.Stdin)) {
		p.readMasked = func() ([]byte, error) {
			return term.ReadPassword(int(syscall.Stdin))
		}
	}
	return p
}

// ask shows prompt until convert accepts the answer. Recoverable
// *InputError failures print their message and ask again; any other error
// from convert, and any read or write failure, is returned as fatal.
//
// The raw line is zeroed once convert returns, so converters must copy
// whatever they keep.
func ask[T any](p *Prompter, prompt string, sensitive bool, convert func(line []byte) (T, error)) (T, error) {
	var zero T
	for {
		if err := p.show(prompt); err != nil {
			return zero, err
		}

		raw, err := p.readLine(sensitive)
		if err != nil {
			return zero, err
		}

		v, err := convert(trimLineEnding(raw))
		zeroBytes(raw)
		if err == nil {
			return v, nil
		}

		var inputErr *InputError
		if !errors.As(err, &inputErr) {
			return zero, err
		}
		if err := p.println(inputErr.Msg); err != nil {
			return zero, err
		}
	}
}

// show writes the prompt and flushes it so it is visible before we block.
func (p *Prompter) show(prompt string) error {
	if _, err := p.out.WriteString(prompt); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}
	return p.flush()
}

func (p *Prompter) println(a ...any) error {
	if _, err := fmt.Fprintln(p.out, a...); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}
	return nil
}

func (p *Prompter) flush() error {
	if err := p.out.Flush(); err != nil {
		return fmt.Errorf("failed to flush stdout: %w", err)
	}
	return nil
}

// readLine returns one line including its line ending. The returned slice is
// owned by the caller.
func (p *Prompter) readLine(sensitive bool) ([]byte, error) {
	if sensitive && p.readMasked != nil {
		b, err := p.readMasked()
		if err != nil {
			zeroBytes(b)
			return nil, fmt.Errorf("%w: %w", ErrInputClosed, err)
		}
		// the user's Enter was not echoed
		if err := p.out.WriteByte('\n'); err != nil {
			zeroBytes(b)
			return nil, fmt.Errorf("failed to write to stdout: %w", err)
		}
		if err := p.flush(); err != nil {
			zeroBytes(b)
			return nil, err
		}
		return b, nil
	}

	var line []byte
	for {
		frag, err := p.in.ReadSlice('\n')
		line = appendZeroing(line, frag)
		// frag aliases the reader's buffer; clear what we consumed
		zeroBytes(frag)

		switch {
		case err == nil:
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && len(line) > 0:
			// last line without a newline
			return line, nil
		}
		zeroBytes(line)
		return nil, fmt.Errorf("%w: %w", ErrInputClosed, err)
	}
}

// appendZeroing appends src to dst. When dst has to grow, the old backing
// array is zeroed so no stale copy of the line is left behind.
func appendZeroing(dst, src []byte) []byte {
	if cap(dst)-len(dst) >= len(src) {
		return append(dst, src...)
	}
	grown := make([]byte, len(dst), 2*(len(dst)+len(src)))
	copy(grown, dst)
	zeroBytes(dst)
	return append(grown, src...)
}

// trimLineEnding strips one trailing "\n" and then one trailing "\r".
func trimLineEnding(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	return b
}
