package provision

import (
	"fmt"
	"os"

	"github.com/davprov/davprov/internal/cli/prompt"
)

// CredentialResolver resolves the password for a remote account. The two
// implementations mirror the two ways a password can reach the
// provisioner: from a declared environment variable, or interactively from
// the operator.
type CredentialResolver interface {
	Resolve(remoteUser string) (string, error)
}

// EnvCredentials resolves passwords from environment variables declared
// via credential sources. A remote user without a declared source falls
// back to the next resolver.
type EnvCredentials struct {
	// Sources maps remote user to environment variable name. Later
	// declarations for the same remote user overwrite earlier ones.
	Sources map[string]string

	// Fallback handles remote users without a declared source.
	Fallback CredentialResolver
}

// BuildSourceMap folds an ordered source list into a lookup table, last
// declaration per remote user winning.
func BuildSourceMap(sources []CredentialSource) map[string]string {
	m := make(map[string]string, len(sources))
	for _, s := range sources {
		m[s.RemoteUser] = s.EnvVar
	}
	return m
}

func (e *EnvCredentials) Resolve(remoteUser string) (string, error) {
	envVar, ok := e.Sources[remoteUser]
	if !ok {
		if e.Fallback == nil {
			return "", configf("no credential source for remote user %s", remoteUser)
		}
		return e.Fallback.Resolve(remoteUser)
	}

	password := os.Getenv(envVar)
	if password == "" {
		return "", configf("environment variable %s for remote user %s is unset or empty", envVar, remoteUser)
	}
	return password, nil
}

// PromptCredentials asks the operator for a password with echo disabled.
type PromptCredentials struct {
	// Prompt is swapped out in tests; defaults to the masked terminal
	// prompt.
	Prompt func(label string) (string, error)
}

func (p *PromptCredentials) Resolve(remoteUser string) (string, error) {
	ask := p.Prompt
	if ask == nil {
		ask = prompt.Password
	}

	password, err := ask(fmt.Sprintf("Password for remote user %s", remoteUser))
	if err != nil {
		return "", fmt.Errorf("read password for %s: %w", remoteUser, err)
	}
	if password == "" {
		return "", configf("empty password entered for remote user %s", remoteUser)
	}
	return password, nil
}
