package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/capsid/pkg/domain"
)

// RunStoreContract runs a suite of tests verifying that a RunStore
// implementation adheres to the interface contract. Adapter tests call this
// against their concrete store.
func RunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()

	mkRecord := func(id string, finished time.Time) domain.HistoryRecord {
		return domain.HistoryRecord{
			ID:         id,
			Kind:       domain.KindRun,
			Status:     domain.StatusFinished,
			Message:    "Completed successfully",
			Params:     map[string]any{"output_name": "phage_project"},
			StartedAt:  finished.Add(-2 * time.Minute),
			FinishedAt: finished,
			LogBytes:   4096,
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		rec := mkRecord("contract-save-load", time.Now().UTC().Truncate(time.Second))
		rec.ArtifactPath = "/tmp/phage_project_results.zip"

		require.NoError(t, store.Save(ctx, rec))

		loaded, err := store.Load(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, loaded.ID)
		assert.Equal(t, rec.Status, loaded.Status)
		assert.Equal(t, rec.Message, loaded.Message)
		assert.Equal(t, rec.ArtifactPath, loaded.ArtifactPath)
		assert.Equal(t, rec.LogBytes, loaded.LogBytes)
		assert.NotNil(t, loaded.Params["output_name"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "contract-missing")
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		rec := mkRecord("contract-delete", time.Now().UTC())
		require.NoError(t, store.Save(ctx, rec))

		require.NoError(t, store.Delete(ctx, rec.ID))

		_, err := store.Load(ctx, rec.ID)
		assert.ErrorIs(t, err, domain.ErrRecordNotFound, "Load after Delete should return ErrRecordNotFound")
	})

	t.Run("List Newest First", func(t *testing.T) {
		base := time.Now().UTC().Truncate(time.Second)
		older := mkRecord("contract-list-older", base.Add(-time.Hour))
		newer := mkRecord("contract-list-newer", base)
		require.NoError(t, store.Save(ctx, older))
		require.NoError(t, store.Save(ctx, newer))

		defer func() {
			_ = store.Delete(ctx, older.ID)
			_ = store.Delete(ctx, newer.ID)
		}()

		records, err := store.List(ctx)
		require.NoError(t, err)

		positions := map[string]int{}
		for i, r := range records {
			positions[r.ID] = i
		}
		require.Contains(t, positions, older.ID)
		require.Contains(t, positions, newer.ID)
		assert.Less(t, positions[newer.ID], positions[older.ID], "newer record should come first")
	})
}
