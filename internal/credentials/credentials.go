// Package credentials provides secure storage and retrieval of the remote
// sync token using the OS-native keyring with fallback to an environment
// variable.
package credentials

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// service is the keyring service name all accounts are stored under.
const service = "taskdeck"

// EnvToken is the environment variable checked when the keyring has no
// token for the account.
const EnvToken = "TASKDECK_TOKEN"

// Source indicates where a token was retrieved from
type Source string

const (
	SourceKeyring     Source = "keyring"
	SourceEnvironment Source = "environment"
	SourceNone        Source = "none"
)

// TokenInfo contains token information returned by Get()
type TokenInfo struct {
	Source  Source
	Account string
	Token   string
	Found   bool
}

// Keyring is the interface for keyring operations
type Keyring interface {
	Set(service, account, password string) error
	Get(service, account string) (string, error)
	Delete(service, account string) error
}

// Manager handles token operations
type Manager struct {
	keyring Keyring
}

// ManagerOption is a functional option for Manager
type ManagerOption func(*Manager)

// WithKeyring sets a custom keyring implementation
func WithKeyring(k Keyring) ManagerOption {
	return func(m *Manager) {
		m.keyring = k
	}
}

// NewManager creates a new credential manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		keyring: &systemKeyring{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Set stores the token for an account in the keyring
func (m *Manager) Set(ctx context.Context, account, token string) error {
	return m.keyring.Set(service, account, token)
}

// Get retrieves the token for an account, checking the keyring first and
// then the TASKDECK_TOKEN environment variable.
func (m *Manager) Get(ctx context.Context, account string) (*TokenInfo, error) {
	token, err := m.keyring.Get(service, account)
	if err == nil && token != "" {
		return &TokenInfo{
			Source:  SourceKeyring,
			Account: account,
			Token:   token,
			Found:   true,
		}, nil
	}

	if envToken := os.Getenv(EnvToken); envToken != "" {
		return &TokenInfo{
			Source:  SourceEnvironment,
			Account: account,
			Token:   envToken,
			Found:   true,
		}, nil
	}

	return &TokenInfo{
		Source:  SourceNone,
		Account: account,
		Found:   false,
	}, nil
}

// Delete removes the token for an account from the keyring. Deleting a
// token that does not exist is not an error.
func (m *Manager) Delete(ctx context.Context, account string) error {
	err := m.keyring.Delete(service, account)
	if err != nil && strings.Contains(err.Error(), "not found") {
		return nil
	}
	return err
}

// PromptToken prompts for a token. When reader is a terminal the input is
// hidden; otherwise a line is read, which keeps tests non-interactive.
func PromptToken(reader io.Reader, writer io.Writer, account string) (string, error) {
	_, _ = fmt.Fprintf(writer, "Enter sync token for %s: ", account)

	if f, ok := reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(writer)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}

	scanner := bufio.NewScanner(reader)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no input received")
}
