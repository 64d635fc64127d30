package env

import (
	"context"
	"testing"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEnv(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestStoreVariableName(t *testing.T) {
	t.Parallel()

	store := NewStore("hda")
	assert.Equal(t, "HDA_REASONING_API_KEY", store.VariableName("reasoning_api_key"))
	assert.Equal(t, "HDA_COMMERCE_API_KEY", store.VariableName("commerce/api-key"))
	assert.Equal(t, "TOKEN", NewStore("").VariableName("token"))
}

func TestStoreGet(t *testing.T) {
	t.Parallel()

	store := NewStore("HDA")
	store.lookup = fakeEnv(map[string]string{
		"HDA_REASONING_API_KEY": "  sk-test\n",
		"HDA_EMPTY":             "   ",
	})

	value, err := store.Get(context.Background(), "reasoning_api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", value)

	_, err = store.Get(context.Background(), "empty")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)

	_, err = store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
	assert.ErrorContains(t, err, "HDA_MISSING")
}

func TestStoreIsReadOnly(t *testing.T) {
	t.Parallel()

	store := NewStore("HDA")
	require.Error(t, store.Put(context.Background(), "key", "value"))
	require.Error(t, store.Delete(context.Background(), "key"))
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStore("HDA").Get(ctx, "reasoning_api_key")
	require.ErrorIs(t, err, context.Canceled)
}
