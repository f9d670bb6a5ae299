package family

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/famtree/internal/models"
	"github.com/your-org/famtree/internal/storage"
)

// gatedStore holds the next armed member or profile read between the store
// lookup and its return, and can fail member updates.
type gatedStore struct {
	*storage.MemoryStore
	holdMember  atomic.Bool
	holdProfile atomic.Bool
	read        chan struct{}
	resume      chan struct{}
	failUpdate  atomic.Bool
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		MemoryStore: storage.NewMemoryStore(),
		read:        make(chan struct{}),
		resume:      make(chan struct{}),
	}
}

func (s *gatedStore) hold(armed *atomic.Bool) {
	if armed.CompareAndSwap(true, false) {
		s.read <- struct{}{}
		<-s.resume
	}
}

func (s *gatedStore) GetMemberByRole(ctx context.Context, userID string, role models.Role) (*models.FamilyMember, error) {
	m, err := s.MemoryStore.GetMemberByRole(ctx, userID, role)
	s.hold(&s.holdMember)
	return m, err
}

func (s *gatedStore) GetProfile(ctx context.Context, memberID uuid.UUID) (*models.MemberProfile, error) {
	p, err := s.MemoryStore.GetProfile(ctx, memberID)
	s.hold(&s.holdProfile)
	return p, err
}

func (s *gatedStore) UpdateMember(ctx context.Context, m *models.FamilyMember) error {
	if s.failUpdate.Load() {
		return errors.New("update rejected")
	}
	return s.MemoryStore.UpdateMember(ctx, m)
}

func TestGetByRoleDoesNotCacheValueReadBeforeUpdate(t *testing.T) {
	store := newGatedStore()
	svc := NewService(store, Options{CacheEnabled: true})
	ctx := context.Background()
	_, err := svc.CreateMember(ctx, "u1", person("mother", "Ana", "Ivanova"))
	require.NoError(t, err)

	store.holdMember.Store(true)
	done := make(chan *models.FamilyMember, 1)
	go func() {
		m, _ := svc.GetByRole(ctx, "u1", "mother")
		done <- m
	}()
	<-store.read

	_, err = svc.UpdateByRole(ctx, "u1", "mother", MemberFields{FirstName: ptr("Maria")})
	require.NoError(t, err)
	close(store.resume)

	old := <-done
	require.NotNil(t, old)
	assert.Equal(t, "Ana", old.FirstName)

	got, err := svc.GetByRole(ctx, "u1", "mother")
	require.NoError(t, err)
	assert.Equal(t, "Maria", got.FirstName)
}

func TestGetProfileByRoleDoesNotCacheValueReadBeforeUpsert(t *testing.T) {
	store := newGatedStore()
	svc := NewService(store, Options{CacheEnabled: true})
	ctx := context.Background()
	_, err := svc.CreateMember(ctx, "u1", person("mother", "Ana", "Ivanova"))
	require.NoError(t, err)
	_, err = svc.CreateProfileByRole(ctx, "u1", "mother", ProfileFields{Bio: ptr("nurse")})
	require.NoError(t, err)

	store.holdProfile.Store(true)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.GetProfileByRole(ctx, "u1", "mother")
	}()
	<-store.read

	_, err = svc.UpsertProfileByRole(ctx, "u1", "mother", ProfileFields{Bio: ptr("doctor")})
	require.NoError(t, err)
	close(store.resume)
	<-done

	p, err := svc.GetProfileByRole(ctx, "u1", "mother")
	require.NoError(t, err)
	require.NotNil(t, p.Bio)
	assert.Equal(t, "doctor", *p.Bio)
}

func TestUploadMediaRollsBackWhenPhotoUpdateFails(t *testing.T) {
	store := newGatedStore()
	objects := storage.NewMemoryObjects()
	svc := NewService(store, Options{Objects: objects, CacheEnabled: true})
	ctx := context.Background()
	_, err := svc.CreateMember(ctx, "u1", person("owner", "Ilya", "Ivanov"))
	require.NoError(t, err)

	store.failUpdate.Store(true)
	_, err = svc.UploadMedia(ctx, "u1", Upload{Data: pngBytes, Role: "owner", SetPhoto: true})
	require.Error(t, err)

	items, err := svc.ListMedia(ctx, "u1", "owner")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 0, objects.Len())
}
