package family

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/famtree/internal/models"
	"github.com/your-org/famtree/internal/storage"
)

func TestPurgerDeletesOnlyOwnedKeys(t *testing.T) {
	ctx := context.Background()
	objects := storage.NewMemoryObjects()
	for _, k := range []string{"media/u1/a.png", "media/u1/b.png", "media/u2/c.png"} {
		require.NoError(t, objects.PutObject(ctx, k, pngBytes, "image/png"))
	}

	err := NewPurger(objects).Purge(ctx, models.PurgeTask{
		UserID: "u1",
		Keys:   []string{"media/u1/a.png", "media/u2/c.png", "media/u1/../u2/c.png", "media/u1/missing.png"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, objects.Len())
	_, _, err = objects.GetObject(ctx, "media/u1/b.png")
	assert.NoError(t, err)
	_, _, err = objects.GetObject(ctx, "media/u2/c.png")
	assert.NoError(t, err)
}

func TestPurgerIgnoresTasksWithoutOwner(t *testing.T) {
	ctx := context.Background()
	objects := storage.NewMemoryObjects()
	require.NoError(t, objects.PutObject(ctx, "media//a.png", pngBytes, "image/png"))

	require.NoError(t, NewPurger(objects).Purge(ctx, models.PurgeTask{Keys: []string{"media//a.png"}}))
	assert.Equal(t, 1, objects.Len())
}
