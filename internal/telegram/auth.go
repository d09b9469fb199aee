package telegram

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"golang.org/x/term"
)

// TerminalAuth drives the phone-code login flow interactively.
// It implements auth.UserAuthenticator.
type TerminalAuth struct {
	phone   string
	in      *bufio.Reader
	out     io.Writer
	stdinFD int
}

var _ auth.UserAuthenticator = (*TerminalAuth)(nil)

func NewTerminalAuth(phone string) *TerminalAuth {
	return &TerminalAuth{
		phone:   phone,
		in:      bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		stdinFD: int(os.Stdin.Fd()),
	}
}

func (t *TerminalAuth) Phone(_ context.Context) (string, error) {
	return t.phone, nil
}

func (t *TerminalAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	fmt.Fprint(t.out, "Enter code: ")
	code, err := t.in.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read code: %w", err)
	}
	return strings.TrimSpace(code), nil
}

func (t *TerminalAuth) Password(_ context.Context) (string, error) {
	fmt.Fprint(t.out, "Enter 2FA password: ")
	pwd, err := term.ReadPassword(t.stdinFD)
	fmt.Fprintln(t.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pwd), nil
}

func (t *TerminalAuth) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

// SignUp is rejected: scraping accounts are registered out of band.
func (t *TerminalAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, errors.New("sign up of new accounts is not supported")
}
