// Package family implements the family tree operations: role-keyed members,
// relationships, partner links, profiles and media attachments.
package family

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/famtree/internal/cache"
	"github.com/your-org/famtree/internal/models"
	"github.com/your-org/famtree/internal/observability"
)

type Options struct {
	Objects   ObjectStore
	Publisher Publisher
	// CacheEnabled turns on the role-keyed read caches.
	CacheEnabled bool
	// MediaBaseURL prefixes object keys to form public media urls.
	MediaBaseURL string
	Now          func() time.Time
}

type Service struct {
	store     Store
	objects   ObjectStore
	publisher Publisher
	members   *cache.RoleCache[*models.FamilyMember]
	profiles  *cache.RoleCache[*models.MemberProfile]
	mediaBase string
	now       func() time.Time
}

func NewService(store Store, opts Options) *Service {
	s := &Service{
		store:     store,
		objects:   opts.Objects,
		publisher: opts.Publisher,
		mediaBase: opts.MediaBaseURL,
		now:       opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.mediaBase == "" {
		s.mediaBase = "/v1/media/files"
	}
	if opts.CacheEnabled {
		s.members = cache.NewRoleCache[*models.FamilyMember]("members")
		s.profiles = cache.NewRoleCache[*models.MemberProfile]("profiles")
	}
	return s
}

func (s *Service) emit(ctx context.Context, typ models.EventType, userID string, role models.Role, ids ...uuid.UUID) {
	if s.publisher == nil {
		return
	}
	ev := models.TreeEvent{Type: typ, UserID: userID, MemberIDs: ids, Role: role, At: s.now().UTC()}
	if err := s.publisher.PublishTreeEvent(ctx, ev); err != nil {
		observability.EventsPublishFailed.WithLabelValues(string(typ)).Inc()
		slog.Warn("publish tree event", "type", typ, "user_id", userID, "error", err)
	}
}

func (s *Service) purge(ctx context.Context, userID string, keys []string) {
	if len(keys) == 0 {
		return
	}
	if s.publisher == nil {
		if s.objects != nil {
			if err := s.objects.DeleteObjects(ctx, keys); err != nil {
				slog.Warn("delete media objects", "user_id", userID, "keys", len(keys), "error", err)
			}
		}
		return
	}
	if err := s.publisher.PublishPurge(ctx, models.PurgeTask{UserID: userID, Keys: keys}); err != nil {
		observability.EventsPublishFailed.WithLabelValues("media.purge").Inc()
		slog.Warn("publish purge task", "user_id", userID, "keys", len(keys), "error", err)
	}
}
