package family

import (
	"context"

	"github.com/google/uuid"

	"github.com/your-org/famtree/internal/models"
	"github.com/your-org/famtree/internal/query"
)

// Store is the persistence contract for the family tree. Lookups return
// (nil, nil) when nothing matches. Unique violations surface as apperr conflicts.
type Store interface {
	MemberStore
	RelationshipStore
	ProfileStore
	MediaStore
}

type MemberStore interface {
	CreateMember(ctx context.Context, m *models.FamilyMember) error
	GetMember(ctx context.Context, userID string, id uuid.UUID) (*models.FamilyMember, error)
	GetMemberByRole(ctx context.Context, userID string, role models.Role) (*models.FamilyMember, error)
	UpdateMember(ctx context.Context, m *models.FamilyMember) error
	// DeleteMember removes the member with its profile, media rows and edges, clears
	// the counterpart's partner fields, and returns the object keys of removed media.
	DeleteMember(ctx context.Context, userID string, id uuid.UUID) ([]string, error)
	// ListMembers orders by dob ascending with nulls last, then id.
	ListMembers(ctx context.Context, userID string) ([]models.FamilyMember, error)
	// PageMembers returns one page and the user's total member count.
	PageMembers(ctx context.Context, userID string, p query.Page) ([]models.FamilyMember, int, error)
}

type RelationshipStore interface {
	// CreateRelationship returns the existing edge when (from, to, type) is already present.
	CreateRelationship(ctx context.Context, r *models.Relationship) (*models.Relationship, error)
	// ListRelationships returns every edge touching one of memberIDs.
	ListRelationships(ctx context.Context, memberIDs []uuid.UUID) ([]models.Relationship, error)
	// SetPartner links two members atomically and returns every member whose
	// partner fields changed.
	SetPartner(ctx context.Context, userID string, memberID, partnerID uuid.UUID, status models.PartnerStatus) ([]uuid.UUID, error)
	// ClearPartner unlinks memberID and its partner; it returns no ids when there was no partner.
	ClearPartner(ctx context.Context, userID string, memberID uuid.UUID) ([]uuid.UUID, error)
}

type ProfileStore interface {
	GetProfile(ctx context.Context, memberID uuid.UUID) (*models.MemberProfile, error)
	CreateProfile(ctx context.Context, p *models.MemberProfile) error
	UpdateProfile(ctx context.Context, p *models.MemberProfile) error
	ListProfiles(ctx context.Context, memberIDs []uuid.UUID) ([]models.MemberProfile, error)
}

type MediaStore interface {
	CreateMedia(ctx context.Context, item *models.MediaItem) error
	ListMedia(ctx context.Context, userID string, memberIDs []uuid.UUID) ([]models.MediaItem, error)
	// DeleteMediaByURLs removes the user's rows with the given urls and returns them.
	DeleteMediaByURLs(ctx context.Context, userID string, urls []string) ([]models.MediaItem, error)
}

// ObjectStore keeps uploaded media bytes.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, string, error)
	DeleteObjects(ctx context.Context, keys []string) error
}

// Publisher delivers tree events and purge tasks. Delivery is best effort.
type Publisher interface {
	PublishTreeEvent(ctx context.Context, ev models.TreeEvent) error
	PublishPurge(ctx context.Context, task models.PurgeTask) error
}
