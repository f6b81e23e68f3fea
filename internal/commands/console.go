package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// errInterrupted is returned when Ctrl+C is pressed at a masked prompt.
var errInterrupted = errors.New("interrupted")

// Console reads answers to prompts. Passwords are masked with asterisks when
// input is a terminal and read as plain lines otherwise.
type Console struct {
	in       *bufio.Reader
	out      io.Writer
	fd       int
	terminal bool
}

// NewConsole creates a Console reading from in and prompting on out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	c := &Console{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.fd = int(f.Fd())
		c.terminal = true
	}
	return c
}

// Line prompts and returns one line of input without the line ending.
func (c *Console) Line(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("error reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Password prompts for a secret. With unmask set the input is echoed.
func (c *Console) Password(prompt string, unmask bool) (string, error) {
	if unmask || !c.terminal {
		return c.Line(prompt)
	}
	return c.readPasswordWithMask(prompt)
}

// readPasswordWithMask reads password input and displays asterisks
func (c *Console) readPasswordWithMask(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)

	// Set terminal to raw mode
	oldState, err := term.MakeRaw(c.fd)
	if err != nil {
		// Fallback to hidden input
		password, err := term.ReadPassword(c.fd)
		fmt.Fprintln(c.out)
		return string(password), err
	}
	defer term.Restore(c.fd, oldState)

	var password []rune
	for {
		char, _, err := c.in.ReadRune()
		if err != nil {
			fmt.Fprint(c.out, "\r\n")
			return string(password), nil
		}

		switch char {
		case '\n', '\r': // Enter key
			fmt.Fprint(c.out, "\r\n")
			return string(password), nil
		case 127, 8: // Backspace or Delete
			if len(password) > 0 {
				password = password[:len(password)-1]
				// Clear the asterisk: backspace, space, backspace
				fmt.Fprint(c.out, "\b \b")
			}
		case 3: // Ctrl+C
			fmt.Fprint(c.out, "\r\n")
			return "", errInterrupted
		default:
			if char >= 32 && char != 127 {
				password = append(password, char)
				fmt.Fprint(c.out, "*")
			}
		}
	}
}
