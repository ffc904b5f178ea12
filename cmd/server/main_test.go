package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSchemaStore struct {
	name  string
	err   error
	calls *[]string
}

func (f *fakeSchemaStore) EnsureSchema(_ context.Context) error {
	*f.calls = append(*f.calls, f.name)
	return f.err
}

func TestEnsureSchemas(t *testing.T) {
	t.Run("runs every store in order", func(t *testing.T) {
		var calls []string
		err := ensureSchemas(context.Background(),
			&fakeSchemaStore{name: "audit", calls: &calls},
			&fakeSchemaStore{name: "registry", calls: &calls},
			&fakeSchemaStore{name: "ledger", calls: &calls},
		)
		require.NoError(t, err)
		assert.Equal(t, []string{"audit", "registry", "ledger"}, calls)
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		var calls []string
		boom := errors.New("relation already owned")
		err := ensureSchemas(context.Background(),
			&fakeSchemaStore{name: "audit", calls: &calls},
			&fakeSchemaStore{name: "registry", err: boom, calls: &calls},
			&fakeSchemaStore{name: "ledger", calls: &calls},
		)
		require.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"audit", "registry"}, calls)
	})
}
