package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/famtree/internal/apperr"
	"github.com/your-org/famtree/internal/config"
	"github.com/your-org/famtree/internal/models"
	"github.com/your-org/famtree/internal/query"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// idArgs spreads ids into builder arguments. sqlbuilder.Flatten would split each
// uuid into its bytes.
func idArgs(ids []uuid.UUID) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

// --- Members ---

var memberColumns = []string{
	"id", "user_id", "first_name", "middle_name", "last_name", "gender",
	"dob", "birth_year", "birth_note", "dod", "death_year", "death_note",
	"is_alive", "photo_url", "role", "translated_role", "partner_id", "partner_status",
	"created_at", "updated_at",
}

var memberSelect = "SELECT " + strings.Join(memberColumns, ", ") + " FROM family_members"

func memberValues(m *models.FamilyMember) []any {
	dob, birthYear, birthNote := m.Birth.Columns()
	dod, deathYear, deathNote := m.Death.Columns()
	var status *string
	if m.PartnerStatus != nil {
		v := string(*m.PartnerStatus)
		status = &v
	}
	return []any{
		m.ID, m.UserID, m.FirstName, m.MiddleName, m.LastName, string(m.Gender),
		dob, birthYear, birthNote, dod, deathYear, deathNote,
		m.IsAlive, m.PhotoURL, string(m.Role), m.TranslatedRole, m.PartnerID, status,
		m.CreatedAt, m.UpdatedAt,
	}
}

func scanMember(row pgx.Row) (*models.FamilyMember, error) {
	var (
		m                    models.FamilyMember
		gender, role         string
		status               *string
		dob, dod             *time.Time
		birthYear, deathYear *int
		birthNote, deathNote *string
	)
	err := row.Scan(
		&m.ID, &m.UserID, &m.FirstName, &m.MiddleName, &m.LastName, &gender,
		&dob, &birthYear, &birthNote, &dod, &deathYear, &deathNote,
		&m.IsAlive, &m.PhotoURL, &role, &m.TranslatedRole, &m.PartnerID, &status,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Gender = models.Gender(gender)
	m.Role = models.Role(role)
	if status != nil {
		st := models.PartnerStatus(*status)
		m.PartnerStatus = &st
	}
	if m.Birth, err = models.LifeDateFromColumns(dob, birthYear, birthNote); err != nil {
		return nil, fmt.Errorf("member %s birth: %w", m.ID, err)
	}
	if m.Death, err = models.LifeDateFromColumns(dod, deathYear, deathNote); err != nil {
		return nil, fmt.Errorf("member %s death: %w", m.ID, err)
	}
	return &m, nil
}

func collectMembers(rows pgx.Rows) ([]models.FamilyMember, error) {
	defer rows.Close()
	members := []models.FamilyMember{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func memberWriteError(err error, m *models.FamilyMember) error {
	switch {
	case isUniqueViolation(err):
		return apperr.Conflict("member with role %q already exists", m.Role)
	case isCheckViolation(err):
		return apperr.Validation("dob", "conflicting date fields")
	}
	return err
}

func (s *PostgresStore) CreateMember(ctx context.Context, m *models.FamilyMember) error {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("family_members").Cols(memberColumns...).Values(memberValues(m)...)
	sql, args := ib.Build()

	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		return memberWriteError(err, m)
	}
	return nil
}

func (s *PostgresStore) GetMember(ctx context.Context, userID string, id uuid.UUID) (*models.FamilyMember, error) {
	m, err := scanMember(s.pool.QueryRow(ctx, memberSelect+` WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) GetMemberByRole(ctx context.Context, userID string, role models.Role) (*models.FamilyMember, error) {
	m, err := scanMember(s.pool.QueryRow(ctx, memberSelect+` WHERE user_id = $1 AND role = $2`, userID, string(role)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get member by role: %w", err)
	}
	return m, nil
}

// UpdateMember rewrites the member's own columns. Partner columns are owned by
// SetPartner and ClearPartner.
func (s *PostgresStore) UpdateMember(ctx context.Context, m *models.FamilyMember) error {
	vals := memberValues(m)
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("family_members")
	for i, col := range memberColumns {
		switch col {
		case "id", "user_id", "partner_id", "partner_status", "created_at":
			continue
		}
		ub.SetMore(ub.Assign(col, vals[i]))
	}
	ub.Where(ub.Equal("id", m.ID), ub.Equal("user_id", m.UserID))
	sql, args := ub.Build()

	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return memberWriteError(err, m)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("member %s not found", m.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteMember(ctx context.Context, userID string, id uuid.UUID) ([]string, error) {
	var keys []string
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT true FROM family_members WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID,
		).Scan(&exists)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("member %s not found", id)
		}
		if err != nil {
			return fmt.Errorf("lock member: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE family_members SET partner_id = NULL, partner_status = NULL, updated_at = now()
			 WHERE user_id = $1 AND partner_id = $2`, userID, id,
		); err != nil {
			return fmt.Errorf("clear counterpart partner: %w", err)
		}

		rows, err := tx.Query(ctx, `DELETE FROM media_items WHERE member_id = $1 RETURNING object_key`, id)
		if err != nil {
			return fmt.Errorf("delete media rows: %w", err)
		}
		keys, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("collect media keys: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM family_members WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
			return fmt.Errorf("delete member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *PostgresStore) ListMembers(ctx context.Context, userID string) ([]models.FamilyMember, error) {
	rows, err := s.pool.Query(ctx, memberSelect+` WHERE user_id = $1 ORDER BY dob ASC NULLS LAST, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return collectMembers(rows)
}

// pageQuery builds the select for one page. The id tie-break keeps pages disjoint.
func pageQuery(userID string, p query.Page) (string, []any) {
	dir := "ASC"
	if p.Descending() {
		dir = "DESC"
	}
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(memberColumns...).
		From("family_members").
		Where(sb.Equal("user_id", userID)).
		OrderBy(fmt.Sprintf("%s %s NULLS LAST", p.SortColumn(), dir), "id ASC").
		Limit(p.Size).
		Offset(p.Offset())
	return sb.Build()
}

func countQuery(userID string) (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)").From("family_members").Where(sb.Equal("user_id", userID))
	return sb.Build()
}

func (s *PostgresStore) PageMembers(ctx context.Context, userID string, p query.Page) ([]models.FamilyMember, int, error) {
	countSQL, countArgs := countQuery(userID)
	var total int
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}

	sql, args := pageQuery(userID, p)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("page members: %w", err)
	}
	members, err := collectMembers(rows)
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

// --- Profiles ---

var profileColumns = []string{
	"id", "member_id", "bio", "cover_media_url", "achievements", "facts", "favorites",
	"education", "work", "personal_info", "stories", "created_at", "updated_at",
}

func profileValues(p *models.MemberProfile) ([]any, error) {
	stories := p.Stories
	if stories == nil {
		stories = []models.Story{}
	}
	raw, err := json.Marshal(stories)
	if err != nil {
		return nil, fmt.Errorf("encode stories: %w", err)
	}
	return []any{
		p.ID, p.MemberID, p.Bio, p.CoverMediaURL, jsonDoc(p.Achievements), jsonDoc(p.Facts),
		jsonDoc(p.Favorites), jsonDoc(p.Education), jsonDoc(p.Work), jsonDoc(p.PersonalInfo),
		raw, p.CreatedAt, p.UpdatedAt,
	}, nil
}

// jsonDoc maps an absent document to SQL NULL.
func jsonDoc(doc json.RawMessage) []byte {
	if len(doc) == 0 {
		return nil
	}
	return doc
}

func scanProfile(row pgx.Row) (*models.MemberProfile, error) {
	var (
		p                                    models.MemberProfile
		achievements, facts, favorites       []byte
		education, work, personalInfo, story []byte
	)
	err := row.Scan(&p.ID, &p.MemberID, &p.Bio, &p.CoverMediaURL, &achievements, &facts, &favorites,
		&education, &work, &personalInfo, &story, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Achievements = achievements
	p.Facts = facts
	p.Favorites = favorites
	p.Education = education
	p.Work = work
	p.PersonalInfo = personalInfo
	p.Stories = []models.Story{}
	if len(story) > 0 {
		if err := json.Unmarshal(story, &p.Stories); err != nil {
			return nil, fmt.Errorf("decode stories: %w", err)
		}
	}
	return &p, nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, memberID uuid.UUID) (*models.MemberProfile, error) {
	p, err := scanProfile(s.pool.QueryRow(ctx,
		`SELECT `+strings.Join(profileColumns, ", ")+` FROM member_profiles WHERE member_id = $1`, memberID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) CreateProfile(ctx context.Context, p *models.MemberProfile) error {
	vals, err := profileValues(p)
	if err != nil {
		return err
	}
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("member_profiles").Cols(profileColumns...).Values(vals...)
	sql, args := ib.Build()

	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("profile for member %s already exists", p.MemberID)
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, p *models.MemberProfile) error {
	vals, err := profileValues(p)
	if err != nil {
		return err
	}
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("member_profiles")
	for i, col := range profileColumns {
		switch col {
		case "id", "member_id", "created_at":
			continue
		}
		ub.SetMore(ub.Assign(col, vals[i]))
	}
	ub.Where(ub.Equal("member_id", p.MemberID))
	sql, args := ub.Build()

	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("profile for member %s not found", p.MemberID)
	}
	return nil
}

func (s *PostgresStore) ListProfiles(ctx context.Context, memberIDs []uuid.UUID) ([]models.MemberProfile, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(profileColumns...).
		From("member_profiles").
		Where(sb.In("member_id", idArgs(memberIDs)...))
	sql, args := sb.Build()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.MemberProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}
