package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvSource reads secrets from environment variables. The secret
// "openai-api-key" maps to <Prefix>OPENAI_API_KEY.
type EnvSource struct {
	Prefix string

	lookup func(string) (string, bool)
}

// NewEnvSource creates an environment source with the given prefix.
func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{Prefix: prefix, lookup: os.LookupEnv}
}

// Lookup implements Source. An empty variable counts as missing.
func (s *EnvSource) Lookup(_ context.Context, name string) (string, error) {
	key := s.Variable(name)
	v, ok := s.lookup(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s not set", ErrNotFound, key)
	}
	return v, nil
}

// Name implements Source.
func (s *EnvSource) Name() string { return "env" }

// Variable returns the environment variable holding name.
func (s *EnvSource) Variable(name string) string {
	return s.Prefix + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name))
}
