package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	envstore "github.com/bnema/helpdesk-agent/internal/adapters/secrets/env"
	filestore "github.com/bnema/helpdesk-agent/internal/adapters/secrets/file"
	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/ports"
)

const (
	LayerEnv  = "env"
	LayerFile = "file"
)

// Layer is one named backend in a resolution chain.
type Layer struct {
	Name  string
	Store ports.SecretStore
}

// Store resolves a key through its layers in order. Only a not-found miss
// moves on to the next layer; any other failure stops the lookup. Put and
// Delete go to the writable backend alone.
type Store struct {
	layers   []Layer
	writable ports.SecretStore
}

var _ ports.SecretStore = (*Store)(nil)

var (
	errNoLayers   = errors.New("secret chain has no layers")
	errNoWritable = errors.New("secret chain has no writable backend")
)

func New(writable ports.SecretStore, layers ...Layer) (*Store, error) {
	if len(layers) == 0 {
		return nil, errNoLayers
	}
	for _, layer := range layers {
		if layer.Store == nil {
			return nil, fmt.Errorf("secret layer %q is nil", layer.Name)
		}
	}
	if writable == nil {
		return nil, errNoWritable
	}

	return &Store{layers: append([]Layer(nil), layers...), writable: writable}, nil
}

// NewEnvFirstWithFileFallback reads HDA_* variables first and falls back to
// one file per key under fileRoot. Writes always land in the file store.
func NewEnvFirstWithFileFallback(prefix string, fileRoot string) *Store {
	files := filestore.NewStore(fileRoot)

	return &Store{
		layers: []Layer{
			{Name: LayerEnv, Store: envstore.NewStore(prefix)},
			{Name: LayerFile, Store: files},
		},
		writable: files,
	}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, _, err := s.Lookup(ctx, key)
	return value, err
}

// Lookup is Get that also names the layer the value came from.
func (s *Store) Lookup(ctx context.Context, key string) (string, string, error) {
	searched := make([]string, 0, len(s.layers))
	for _, layer := range s.layers {
		value, err := layer.Store.Get(ctx, key)
		if err == nil {
			return value, layer.Name, nil
		}
		if !errors.Is(err, domain.ErrSecretNotFound) {
			return "", "", fmt.Errorf("%s secret layer: %w", layer.Name, err)
		}
		searched = append(searched, layer.Name)
	}

	return "", "", fmt.Errorf("%w: %q not in %s", domain.ErrSecretNotFound, key, strings.Join(searched, " or "))
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.writable.Put(ctx, key, value)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.writable.Delete(ctx, key)
}
