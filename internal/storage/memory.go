package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/famtree/internal/apperr"
	"github.com/your-org/famtree/internal/models"
	"github.com/your-org/famtree/internal/query"
)

// MemoryStore keeps the family tree in process memory. It enforces the same
// uniqueness, cascade and partner rules as the postgres schema and is used by
// the memory database driver and by tests.
type MemoryStore struct {
	mu            sync.RWMutex
	members       map[uuid.UUID]*models.FamilyMember
	roles         map[string]uuid.UUID
	relationships map[uuid.UUID]*models.Relationship
	profiles      map[uuid.UUID]*models.MemberProfile
	media         map[uuid.UUID]*models.MediaItem
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		members:       map[uuid.UUID]*models.FamilyMember{},
		roles:         map[string]uuid.UUID{},
		relationships: map[uuid.UUID]*models.Relationship{},
		profiles:      map[uuid.UUID]*models.MemberProfile{},
		media:         map[uuid.UUID]*models.MediaItem{},
	}
}

func roleKey(userID string, role models.Role) string {
	return userID + "|" + string(role)
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// --- Members ---

func (s *MemoryStore) CreateMember(_ context.Context, m *models.FamilyMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := roleKey(m.UserID, m.Role)
	if _, ok := s.roles[key]; ok {
		return apperr.Conflict("member with role %q already exists", m.Role)
	}
	s.members[m.ID] = m.Clone()
	s.roles[key] = m.ID
	return nil
}

func (s *MemoryStore) GetMember(_ context.Context, userID string, id uuid.UUID) (*models.FamilyMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok || m.UserID != userID {
		return nil, nil
	}
	return m.Clone(), nil
}

func (s *MemoryStore) GetMemberByRole(_ context.Context, userID string, role models.Role) (*models.FamilyMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.roles[roleKey(userID, role)]
	if !ok {
		return nil, nil
	}
	return s.members[id].Clone(), nil
}

func (s *MemoryStore) UpdateMember(_ context.Context, m *models.FamilyMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.members[m.ID]
	if !ok || cur.UserID != m.UserID {
		return apperr.NotFound("member %s not found", m.ID)
	}
	if cur.Role != m.Role {
		newKey := roleKey(m.UserID, m.Role)
		if _, taken := s.roles[newKey]; taken {
			return apperr.Conflict("member with role %q already exists", m.Role)
		}
		delete(s.roles, roleKey(cur.UserID, cur.Role))
		s.roles[newKey] = m.ID
	}
	next := m.Clone()
	next.PartnerID = cur.PartnerID
	next.PartnerStatus = cur.PartnerStatus
	next.CreatedAt = cur.CreatedAt
	s.members[m.ID] = next
	return nil
}

func (s *MemoryStore) DeleteMember(_ context.Context, userID string, id uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok || m.UserID != userID {
		return nil, apperr.NotFound("member %s not found", id)
	}

	for _, other := range s.members {
		if other.PartnerID != nil && *other.PartnerID == id {
			other.ClearPartner()
			other.UpdatedAt = time.Now().UTC()
		}
	}
	var keys []string
	for mid, it := range s.media {
		if it.MemberID == id {
			keys = append(keys, it.ObjectKey)
			delete(s.media, mid)
		}
	}
	sort.Strings(keys)
	for rid, r := range s.relationships {
		if r.FromMemberID == id || r.ToMemberID == id {
			delete(s.relationships, rid)
		}
	}
	delete(s.profiles, id)
	delete(s.roles, roleKey(m.UserID, m.Role))
	delete(s.members, id)
	return keys, nil
}

func (s *MemoryStore) userMembers(userID string) []models.FamilyMember {
	var out []models.FamilyMember
	for _, m := range s.members {
		if m.UserID == userID {
			out = append(out, *m.Clone())
		}
	}
	return out
}

func (s *MemoryStore) ListMembers(_ context.Context, userID string) ([]models.FamilyMember, error) {
	s.mu.RLock()
	members := s.userMembers(userID)
	s.mu.RUnlock()
	sortMembers(members, "dob", false)
	if members == nil {
		members = []models.FamilyMember{}
	}
	return members, nil
}

func (s *MemoryStore) PageMembers(_ context.Context, userID string, p query.Page) ([]models.FamilyMember, int, error) {
	s.mu.RLock()
	members := s.userMembers(userID)
	s.mu.RUnlock()
	sortMembers(members, p.SortColumn(), p.Descending())

	total := len(members)
	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.Size
	if end > total {
		end = total
	}
	page := append([]models.FamilyMember{}, members[start:end]...)
	return page, total, nil
}

// sortMembers orders like "ORDER BY <col> <dir> NULLS LAST, id ASC".
func sortMembers(members []models.FamilyMember, column string, desc bool) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := &members[i], &members[j]
		if c := compareColumn(a, b, column); c != 0 {
			if c == nullsLast || c == -nullsLast {
				return c < 0
			}
			if desc {
				return c > 0
			}
			return c < 0
		}
		return bytes.Compare(a.ID[:], b.ID[:]) < 0
	})
}

// nullsLast marks a comparison decided by one side being null; it ignores direction.
const nullsLast = 2

func compareColumn(a, b *models.FamilyMember, column string) int {
	switch column {
	case "first_name":
		return strings.Compare(a.FirstName, b.FirstName)
	case "last_name":
		return strings.Compare(a.LastName, b.LastName)
	case "role":
		return strings.Compare(string(a.Role), string(b.Role))
	}
	ad, aok := a.Birth.Exact()
	bd, bok := b.Birth.Exact()
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return nullsLast
	case !bok:
		return -nullsLast
	case ad.Before(bd):
		return -1
	case ad.After(bd):
		return 1
	}
	return 0
}

// --- Relationships ---

func (s *MemoryStore) CreateRelationship(_ context.Context, r *models.Relationship) (*models.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.relationships {
		if existing.FromMemberID == r.FromMemberID && existing.ToMemberID == r.ToMemberID && existing.Type == r.Type {
			c := *existing
			return &c, nil
		}
	}
	c := *r
	s.relationships[r.ID] = &c
	out := c
	return &out, nil
}

func (s *MemoryStore) ListRelationships(_ context.Context, memberIDs []uuid.UUID) ([]models.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[uuid.UUID]bool, len(memberIDs))
	for _, id := range memberIDs {
		want[id] = true
	}
	var rels []models.Relationship
	for _, r := range s.relationships {
		if want[r.FromMemberID] || want[r.ToMemberID] {
			rels = append(rels, *r)
		}
	}
	sort.Slice(rels, func(i, j int) bool {
		if !rels[i].CreatedAt.Equal(rels[j].CreatedAt) {
			return rels[i].CreatedAt.Before(rels[j].CreatedAt)
		}
		return bytes.Compare(rels[i].ID[:], rels[j].ID[:]) < 0
	})
	return rels, nil
}

func (s *MemoryStore) ownedMember(userID string, id uuid.UUID) (*models.FamilyMember, error) {
	m, ok := s.members[id]
	if !ok || m.UserID != userID {
		return nil, apperr.NotFound("member %s not found", id)
	}
	return m, nil
}

// unlink mirrors unlinkPartners in the postgres store. Callers hold the lock.
func (s *MemoryStore) unlink(userID string, ids ...uuid.UUID) []uuid.UUID {
	targets := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		targets[id] = true
	}
	var changed []uuid.UUID
	now := time.Now().UTC()
	for _, m := range s.members {
		if m.UserID != userID || m.PartnerID == nil {
			continue
		}
		if targets[m.ID] || targets[*m.PartnerID] {
			m.ClearPartner()
			m.UpdatedAt = now
			changed = append(changed, m.ID)
		}
	}
	for _, id := range changed {
		targets[id] = true
	}
	for rid, r := range s.relationships {
		if r.Type == models.RelationPartner && (targets[r.FromMemberID] || targets[r.ToMemberID]) {
			delete(s.relationships, rid)
		}
	}
	return changed
}

func (s *MemoryStore) SetPartner(_ context.Context, userID string, memberID, partnerID uuid.UUID, status models.PartnerStatus) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.ownedMember(userID, memberID)
	if err != nil {
		return nil, err
	}
	b, err := s.ownedMember(userID, partnerID)
	if err != nil {
		return nil, err
	}

	changed := mergeIDs([]uuid.UUID{memberID, partnerID}, s.unlink(userID, memberID, partnerID))
	now := time.Now().UTC()
	a.SetPartner(partnerID, status)
	b.SetPartner(memberID, status)
	a.UpdatedAt, b.UpdatedAt = now, now
	for _, pair := range [][2]uuid.UUID{{memberID, partnerID}, {partnerID, memberID}} {
		id := uuid.New()
		s.relationships[id] = &models.Relationship{
			ID: id, FromMemberID: pair[0], ToMemberID: pair[1], Type: models.RelationPartner, CreatedAt: now,
		}
	}
	return changed, nil
}

func (s *MemoryStore) ClearPartner(_ context.Context, userID string, memberID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.ownedMember(userID, memberID)
	if err != nil {
		return nil, err
	}
	if m.PartnerID == nil {
		return nil, nil
	}
	return s.unlink(userID, memberID), nil
}

// --- Profiles ---

func cloneProfile(p *models.MemberProfile) *models.MemberProfile {
	c := *p
	c.Bio = clonePtr(p.Bio)
	c.CoverMediaURL = clonePtr(p.CoverMediaURL)
	for _, doc := range []*json.RawMessage{&c.Achievements, &c.Facts, &c.Favorites, &c.Education, &c.Work, &c.PersonalInfo} {
		if *doc != nil {
			*doc = append(json.RawMessage(nil), *doc...)
		}
	}
	c.Stories = append([]models.Story{}, p.Stories...)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (s *MemoryStore) GetProfile(_ context.Context, memberID uuid.UUID) (*models.MemberProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[memberID]
	if !ok {
		return nil, nil
	}
	return cloneProfile(p), nil
}

func (s *MemoryStore) CreateProfile(_ context.Context, p *models.MemberProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[p.MemberID]; !ok {
		return apperr.NotFound("member %s not found", p.MemberID)
	}
	if _, ok := s.profiles[p.MemberID]; ok {
		return apperr.Conflict("profile for member %s already exists", p.MemberID)
	}
	s.profiles[p.MemberID] = cloneProfile(p)
	return nil
}

func (s *MemoryStore) UpdateProfile(_ context.Context, p *models.MemberProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.profiles[p.MemberID]
	if !ok {
		return apperr.NotFound("profile for member %s not found", p.MemberID)
	}
	next := cloneProfile(p)
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt
	s.profiles[p.MemberID] = next
	return nil
}

func (s *MemoryStore) ListProfiles(_ context.Context, memberIDs []uuid.UUID) ([]models.MemberProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.MemberProfile
	for _, id := range memberIDs {
		if p, ok := s.profiles[id]; ok {
			out = append(out, *cloneProfile(p))
		}
	}
	return out, nil
}

// --- Media ---

func (s *MemoryStore) CreateMedia(_ context.Context, it *models.MediaItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[it.MemberID]; !ok {
		return apperr.NotFound("member %s not found", it.MemberID)
	}
	c := *it
	c.Caption = clonePtr(it.Caption)
	s.media[it.ID] = &c
	return nil
}

func (s *MemoryStore) ListMedia(_ context.Context, userID string, memberIDs []uuid.UUID) ([]models.MediaItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[uuid.UUID]bool, len(memberIDs))
	for _, id := range memberIDs {
		want[id] = true
	}
	items := []models.MediaItem{}
	for _, it := range s.media {
		if it.UserID != userID || (len(want) > 0 && !want[it.MemberID]) {
			continue
		}
		items = append(items, *it)
	}
	sortMedia(items)
	return items, nil
}

func (s *MemoryStore) DeleteMediaByURLs(_ context.Context, userID string, urls []string) ([]models.MediaItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[string]bool, len(urls))
	for _, u := range urls {
		want[u] = true
	}
	var deleted []models.MediaItem
	for id, it := range s.media {
		if it.UserID == userID && want[it.URL] {
			deleted = append(deleted, *it)
			delete(s.media, id)
		}
	}
	sortMedia(deleted)
	return deleted, nil
}

func sortMedia(items []models.MediaItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].UploadedAt.Equal(items[j].UploadedAt) {
			return items[i].UploadedAt.Before(items[j].UploadedAt)
		}
		return bytes.Compare(items[i].ID[:], items[j].ID[:]) < 0
	})
}

// MemoryObjects is an ObjectStore backed by a map, used with the memory driver.
type MemoryObjects struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewMemoryObjects() *MemoryObjects {
	return &MemoryObjects{objects: map[string]memoryObject{}}
}

func (o *MemoryObjects) PutObject(_ context.Context, key string, data []byte, contentType string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

func (o *MemoryObjects) GetObject(_ context.Context, key string) ([]byte, string, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	obj, ok := o.objects[key]
	if !ok {
		return nil, "", apperr.NotFound("media %q not found", key)
	}
	return append([]byte(nil), obj.data...), obj.contentType, nil
}

func (o *MemoryObjects) DeleteObjects(_ context.Context, keys []string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, k := range keys {
		delete(o.objects, k)
	}
	return nil
}

func (o *MemoryObjects) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.objects)
}
