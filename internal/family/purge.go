package family

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/your-org/famtree/internal/models"
	"github.com/your-org/famtree/internal/observability"
)

// purgeBatch caps the keys sent in one DeleteObjects call.
const purgeBatch = 500

// Purger deletes the objects named by purge tasks. Keys outside the task
// owner's prefix are skipped.
type Purger struct {
	objects ObjectStore
}

func NewPurger(objects ObjectStore) *Purger {
	return &Purger{objects: objects}
}

func (p *Purger) Purge(ctx context.Context, task models.PurgeTask) error {
	prefix := ObjectPrefix(task.UserID)
	keys := make([]string, 0, len(task.Keys))
	for _, k := range task.Keys {
		if task.UserID == "" || !strings.HasPrefix(k, prefix) || strings.Contains(k, "..") {
			slog.Warn("skip foreign purge key", "user_id", task.UserID, "key", k)
			continue
		}
		keys = append(keys, k)
	}

	for start := 0; start < len(keys); start += purgeBatch {
		end := min(start+purgeBatch, len(keys))
		if err := p.objects.DeleteObjects(ctx, keys[start:end]); err != nil {
			return fmt.Errorf("delete %d objects: %w", end-start, err)
		}
		observability.MediaObjectsPurged.Add(float64(end - start))
	}
	slog.Info("media purged", "user_id", task.UserID, "keys", len(keys))
	return nil
}
