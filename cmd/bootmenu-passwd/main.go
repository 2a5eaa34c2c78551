// Command bootmenu-passwd hashes a password for a menu file.
//
// Usage:
//
//	bootmenu-passwd [-scheme sha1|bcrypt|plain]
//	bootmenu-passwd -verify '$4$salt$hash'
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/stlalpha/bootmenu/internal/passwd"
)

func main() {
	schemeName := flag.String("scheme", "sha1", "Hash scheme: sha1, bcrypt or plain")
	verify := flag.String("verify", "", "Check the password against this stored value instead of hashing it")
	flag.Parse()

	if *verify != "" {
		pw, err := readPassword("Password: ", false)
		if err != nil {
			fail(err)
		}
		if !passwd.Verify(*verify, pw) {
			fmt.Fprintln(os.Stderr, "Password does not match")
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "Password matches")
		return
	}

	scheme, err := passwd.ParseScheme(*schemeName)
	if err != nil {
		fail(err)
	}
	pw, err := readPassword("New password: ", true)
	if err != nil {
		fail(err)
	}
	if pw == "" {
		fail(errors.New("empty password"))
	}
	hashed, err := passwd.Hash(scheme, pw)
	if err != nil {
		fail(err)
	}
	fmt.Println(hashed)
}

// readPassword prompts on a terminal without echo, asking twice when
// confirm is set. Piped input is read as one line.
func readPassword(prompt string, confirm bool) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if !confirm {
		return string(pw), nil
	}

	fmt.Fprint(os.Stderr, "Again: ")
	again, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if string(again) != string(pw) {
		return "", errors.New("passwords do not match")
	}
	return string(pw), nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
