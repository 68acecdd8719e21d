package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// promptPassword reads a secret without echoing. Falls back to a plain
// line read when stdin is not a terminal (piped input in scripts/tests).
func promptPassword(msg string) (string, error) {
	fmt.Print(msg)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("[promptPassword] failed to read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("[promptPassword] failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
