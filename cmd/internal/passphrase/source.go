package passphrase

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// fileSuffix names the companion variable pointing at a file that holds the
// passphrase, e.g. LAUNCHPAD_OPERATOR_PASS_FILE.
const fileSuffix = "_FILE"

// Source resolves the operator keystore passphrase once and caches the result.
// Lookup order: the environment variable, a file named by <var>_FILE, then an
// interactive prompt.
type Source struct {
	envVar string
	prompt func() (string, error)

	once  sync.Once
	value string
	err   error
}

// NewSource constructs a passphrase source backed by envVar, falling back to
// the terminal.
func NewSource(envVar string) *Source {
	return &Source{envVar: strings.TrimSpace(envVar), prompt: promptTerminal}
}

// Get returns the cached passphrase or resolves it on the first call.
// Whitespace-only passphrases are rejected in every mode.
func (s *Source) Get() (string, error) {
	s.once.Do(func() {
		s.value, s.err = s.resolve()
		if s.err == nil && strings.TrimSpace(s.value) == "" {
			s.value, s.err = "", errors.New("operator keystore passphrase cannot be empty")
		}
	})
	return s.value, s.err
}

func (s *Source) resolve() (string, error) {
	if s.envVar != "" {
		if value, ok := os.LookupEnv(s.envVar); ok {
			if strings.TrimSpace(value) == "" {
				return "", fmt.Errorf("%s is set but empty", s.envVar)
			}
			return value, nil
		}
		if path, ok := os.LookupEnv(s.envVar + fileSuffix); ok && strings.TrimSpace(path) != "" {
			raw, err := os.ReadFile(strings.TrimSpace(path))
			if err != nil {
				return "", fmt.Errorf("read %s%s: %w", s.envVar, fileSuffix, err)
			}
			return strings.TrimRight(string(raw), "\r\n"), nil
		}
	}
	value, err := s.prompt()
	if errors.Is(err, errNoTerminal) && s.envVar != "" {
		return "", fmt.Errorf("operator keystore passphrase required; set %s or run interactively", s.envVar)
	}
	return value, err
}

var errNoTerminal = errors.New("operator keystore passphrase required and no terminal available")

func promptTerminal() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNoTerminal
	}
	fmt.Fprint(os.Stderr, "Enter operator keystore passphrase: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return string(raw), nil
}
