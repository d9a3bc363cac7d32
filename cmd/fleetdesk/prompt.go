package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var errPasswordMismatch = errors.New("passwords do not match")

// readNewPassword reads a password from the first line of in when fromStdin
// is set, and otherwise prompts on the terminal twice without echo.
func readNewPassword(in io.Reader, w io.Writer, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read password from stdin: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return "", errors.New("stdin is not a terminal; use --password-stdin")
	}

	first, err := promptPassword(w, fd, "New password: ")
	if err != nil {
		return "", err
	}
	second, err := promptPassword(w, fd, "Repeat password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errPasswordMismatch
	}
	return first, nil
}

func promptPassword(w io.Writer, fd int, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
