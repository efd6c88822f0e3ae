package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/capsid/pkg/adapters/memory"
	"github.com/aretw0/capsid/pkg/domain"
	"github.com/aretw0/capsid/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	rec := domain.HistoryRecord{
		ID:     "iso",
		Kind:   domain.KindRun,
		Status: domain.StatusFinished,
		Params: map[string]any{"output_name": "phage_project"},
	}
	require.NoError(t, store.Save(ctx, rec))

	// Mutating the caller's map after Save must not leak into the store.
	rec.Params["output_name"] = "mutated"

	loaded, err := store.Load(ctx, "iso")
	require.NoError(t, err)
	assert.Equal(t, "phage_project", loaded.Params["output_name"])

	// Nor may mutating a loaded copy change what the next Load sees.
	loaded.Params["output_name"] = "mutated again"
	again, err := store.Load(ctx, "iso")
	require.NoError(t, err)
	assert.Equal(t, "phage_project", again.Params["output_name"])
}
