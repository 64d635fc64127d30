package env

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/ports"
)

var errReadOnly = errors.New("environment secret store is read-only")

// Store resolves secrets from environment variables. The key
// "reasoning/api_key" with prefix "HDA" reads HDA_REASONING_API_KEY.
type Store struct {
	prefix string
	lookup func(string) (string, bool)
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore(prefix string) *Store {
	return &Store{prefix: prefix, lookup: os.LookupEnv}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := s.VariableName(key)
	value, ok := s.lookup(name)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: %s is not set", domain.ErrSecretNotFound, name)
	}

	return strings.TrimSpace(value), nil
}

func (s *Store) Put(context.Context, string, string) error {
	return errReadOnly
}

func (s *Store) Delete(context.Context, string) error {
	return errReadOnly
}

func (s *Store) VariableName(key string) string {
	name := strings.ToUpper(strings.NewReplacer("/", "_", "-", "_", ".", "_").Replace(strings.TrimSpace(key)))
	if s.prefix == "" {
		return name
	}

	return strings.ToUpper(s.prefix) + "_" + name
}
