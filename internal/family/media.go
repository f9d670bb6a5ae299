package family

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/your-org/famtree/internal/apperr"
	"github.com/your-org/famtree/internal/models"
	"github.com/your-org/famtree/internal/observability"
)

// Upload is one media file sent by a user.
type Upload struct {
	Data     []byte
	Filename string
	// Role attaches the file to that member when set.
	Role    string
	Caption string
	// SetPhoto makes the uploaded image the member's photo.
	SetPhoto bool
}

type UploadResult struct {
	URL  string
	Item *models.MediaItem
}

// ObjectPrefix is the key prefix under which all of userID's objects live.
func ObjectPrefix(userID string) string {
	return "media/" + userID + "/"
}

func (s *Service) mediaURL(key string) string {
	return strings.TrimRight(s.mediaBase, "/") + "/" + key
}

// KeyFromURL strips the public media base from url. ok is false for foreign urls.
func (s *Service) KeyFromURL(url string) (string, bool) {
	base := strings.TrimRight(s.mediaBase, "/") + "/"
	if !strings.HasPrefix(url, base) {
		return "", false
	}
	key := strings.TrimPrefix(url, base)
	return key, key != ""
}

// UploadMedia sniffs the content type, stores the bytes and records a media item
// when the upload names a member.
func (s *Service) UploadMedia(ctx context.Context, userID string, up Upload) (*UploadResult, error) {
	if s.objects == nil {
		return nil, apperr.Storage(nil, "media storage is not configured")
	}
	if len(up.Data) == 0 {
		return nil, apperr.Validation("file", "is empty")
	}
	mt := mimetype.Detect(up.Data)
	mediaType, ok := models.MediaTypeFor(mt.String())
	if !ok {
		return nil, apperr.Validation("file", "unsupported content type %s", mt.String())
	}

	var member *models.FamilyMember
	if up.Role != "" {
		m, err := s.mustGetByRole(ctx, userID, up.Role)
		if err != nil {
			return nil, err
		}
		member = m
	}
	if up.SetPhoto && member == nil {
		return nil, apperr.Validation("role", "is required to set a photo")
	}
	if up.SetPhoto && mediaType != models.MediaImage {
		return nil, apperr.Validation("file", "photo must be an image")
	}

	ext := mt.Extension()
	if ext == "" {
		ext = strings.ToLower(path.Ext(up.Filename))
	}
	key := ObjectPrefix(userID) + uuid.NewString() + ext
	if err := s.objects.PutObject(ctx, key, up.Data, mt.String()); err != nil {
		return nil, apperr.Storage(err, "store media object")
	}
	observability.MediaUploadBytes.Observe(float64(len(up.Data)))
	res := &UploadResult{URL: s.mediaURL(key)}
	slog.Info("media uploaded", "user_id", userID, "key", key, "type", mt.String(), "size", len(up.Data))

	if member == nil {
		s.emit(ctx, models.EventMediaUploaded, userID, "")
		return res, nil
	}

	item := &models.MediaItem{
		ID:          uuid.New(),
		MemberID:    member.ID,
		UserID:      userID,
		URL:         res.URL,
		ObjectKey:   key,
		Type:        mediaType,
		ContentType: mt.String(),
		Size:        int64(len(up.Data)),
		Caption:     optional(up.Caption),
		UploadedAt:  s.now().UTC(),
	}
	if err := s.store.CreateMedia(ctx, item); err != nil {
		s.purge(ctx, userID, []string{key})
		return nil, fmt.Errorf("create media item: %w", err)
	}
	res.Item = item

	if up.SetPhoto {
		url := res.URL
		if _, err := s.UpdateByRole(ctx, userID, string(member.Role), MemberFields{PhotoURL: &url}); err != nil {
			// the upload fails as a whole: drop the row and the bytes
			if _, derr := s.store.DeleteMediaByURLs(ctx, userID, []string{url}); derr != nil {
				slog.Warn("roll back media item", "user_id", userID, "url", url, "error", derr)
			}
			s.purge(ctx, userID, []string{key})
			return nil, err
		}
	}
	s.emit(ctx, models.EventMediaUploaded, userID, member.Role, member.ID)
	return res, nil
}

// ListMedia returns the user's media items, optionally only those of one member.
func (s *Service) ListMedia(ctx context.Context, userID, role string) ([]models.MediaItem, error) {
	var ids []uuid.UUID
	if role != "" {
		m, err := s.mustGetByRole(ctx, userID, role)
		if err != nil {
			return nil, err
		}
		ids = []uuid.UUID{m.ID}
	}
	items, err := s.store.ListMedia(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	return items, nil
}

// DeleteMediaByURLs removes the user's media by url. Urls outside the user's
// namespace are rejected; urls without a row still have their objects purged.
func (s *Service) DeleteMediaByURLs(ctx context.Context, userID string, urls []string) (int, error) {
	keys := make([]string, 0, len(urls))
	for _, u := range urls {
		key, ok := s.KeyFromURL(u)
		if !ok || !strings.HasPrefix(key, ObjectPrefix(userID)) {
			return 0, apperr.Validation("urls", "url %q is not owned by the caller", u)
		}
		keys = append(keys, key)
	}

	deleted, err := s.store.DeleteMediaByURLs(ctx, userID, urls)
	if err != nil {
		return 0, fmt.Errorf("delete media: %w", err)
	}
	s.purge(ctx, userID, keys)

	ids := make([]uuid.UUID, 0, len(deleted))
	for _, it := range deleted {
		ids = append(ids, it.MemberID)
	}
	s.emit(ctx, models.EventMediaDeleted, userID, "", ids...)
	return len(deleted), nil
}

// OpenMedia returns the bytes and content type of one of the user's objects.
func (s *Service) OpenMedia(ctx context.Context, userID, key string) ([]byte, string, error) {
	key = strings.TrimPrefix(key, "/")
	if !strings.HasPrefix(key, ObjectPrefix(userID)) || strings.Contains(key, "..") {
		return nil, "", apperr.NotFound("media %q not found", key)
	}
	if s.objects == nil {
		return nil, "", apperr.Storage(nil, "media storage is not configured")
	}
	data, contentType, err := s.objects.GetObject(ctx, key)
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}
