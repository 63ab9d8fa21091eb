// Package term reads single keypresses for push-to-talk control.
package term

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// Keyboard blocks on stdin one key at a time. The terminal is switched
// to raw mode only for the duration of each read, so a crash between
// reads leaves the terminal usable.
type Keyboard struct {
	fd int
}

func NewKeyboard() *Keyboard {
	return &Keyboard{fd: int(os.Stdin.Fd())}
}

// ReadKey blocks until one key is pressed and returns its byte. In raw
// mode Ctrl+C arrives as byte 0x03 rather than a signal; the caller
// decides what to do with it.
func (k *Keyboard) ReadKey() (byte, error) {
	old, err := term.MakeRaw(k.fd)
	if err != nil {
		return 0, fmt.Errorf("raw mode: %w", err)
	}
	defer term.Restore(k.fd, old)

	var buf [1]byte
	if _, err := os.Stdin.Read(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}
