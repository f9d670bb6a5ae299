package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5"

	"github.com/your-org/famtree/internal/apperr"
	"github.com/your-org/famtree/internal/models"
)

// --- Relationships ---

const relationshipColumns = `id, from_member_id, to_member_id, type, created_at`

func scanRelationship(row pgx.Row) (*models.Relationship, error) {
	var (
		r   models.Relationship
		typ string
	)
	if err := row.Scan(&r.ID, &r.FromMemberID, &r.ToMemberID, &typ, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Type = models.RelationType(typ)
	return &r, nil
}

func (s *PostgresStore) CreateRelationship(ctx context.Context, r *models.Relationship) (*models.Relationship, error) {
	created, err := scanRelationship(s.pool.QueryRow(ctx,
		`INSERT INTO relationships (id, from_member_id, to_member_id, type, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (from_member_id, to_member_id, type) DO NOTHING
		 RETURNING `+relationshipColumns,
		r.ID, r.FromMemberID, r.ToMemberID, string(r.Type), r.CreatedAt,
	))
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("create relationship: %w", err)
	}

	existing, err := scanRelationship(s.pool.QueryRow(ctx,
		`SELECT `+relationshipColumns+` FROM relationships
		 WHERE from_member_id = $1 AND to_member_id = $2 AND type = $3`,
		r.FromMemberID, r.ToMemberID, string(r.Type),
	))
	if err != nil {
		return nil, fmt.Errorf("get existing relationship: %w", err)
	}
	return existing, nil
}

func relationshipsQuery(memberIDs []uuid.UUID) (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	ids := idArgs(memberIDs)
	sb.Select(strings.Split(relationshipColumns, ", ")...).
		From("relationships").
		Where(sb.Or(sb.In("from_member_id", ids...), sb.In("to_member_id", ids...))).
		OrderBy("created_at ASC", "id ASC")
	return sb.Build()
}

func (s *PostgresStore) ListRelationships(ctx context.Context, memberIDs []uuid.UUID) ([]models.Relationship, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	sql, args := relationshipsQuery(memberIDs)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer rows.Close()

	var rels []models.Relationship
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		rels = append(rels, *r)
	}
	return rels, rows.Err()
}

// --- Partners ---

// unlinkPartners clears the partner fields of ids and of whoever points at them,
// drops their partner edges, and returns the ids whose fields changed.
func unlinkPartners(ctx context.Context, tx pgx.Tx, userID string, ids []uuid.UUID) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx,
		`UPDATE family_members SET partner_id = NULL, partner_status = NULL, updated_at = now()
		 WHERE user_id = $1 AND (id = ANY($2) OR partner_id = ANY($2)) AND partner_id IS NOT NULL
		 RETURNING id`, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("clear partner fields: %w", err)
	}
	changed, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("collect unlinked members: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM relationships
		 WHERE type = 'partner' AND (from_member_id = ANY($1) OR to_member_id = ANY($1))`,
		append(append([]uuid.UUID{}, ids...), changed...),
	); err != nil {
		return nil, fmt.Errorf("delete partner edges: %w", err)
	}
	return changed, nil
}

func lockMembers(ctx context.Context, tx pgx.Tx, userID string, ids ...uuid.UUID) (map[uuid.UUID]*uuid.UUID, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, partner_id FROM family_members WHERE user_id = $1 AND id = ANY($2) ORDER BY id FOR UPDATE`,
		userID, ids)
	if err != nil {
		return nil, fmt.Errorf("lock members: %w", err)
	}
	defer rows.Close()

	partners := make(map[uuid.UUID]*uuid.UUID, len(ids))
	for rows.Next() {
		var (
			id      uuid.UUID
			partner *uuid.UUID
		)
		if err := rows.Scan(&id, &partner); err != nil {
			return nil, fmt.Errorf("scan locked member: %w", err)
		}
		partners[id] = partner
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := partners[id]; !ok {
			return nil, apperr.NotFound("member %s not found", id)
		}
	}
	return partners, nil
}

func (s *PostgresStore) SetPartner(ctx context.Context, userID string, memberID, partnerID uuid.UUID, status models.PartnerStatus) ([]uuid.UUID, error) {
	var changed []uuid.UUID
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := lockMembers(ctx, tx, userID, memberID, partnerID); err != nil {
			return err
		}
		unlinked, err := unlinkPartners(ctx, tx, userID, []uuid.UUID{memberID, partnerID})
		if err != nil {
			return err
		}
		changed = mergeIDs([]uuid.UUID{memberID, partnerID}, unlinked)

		for _, pair := range [][2]uuid.UUID{{memberID, partnerID}, {partnerID, memberID}} {
			if _, err := tx.Exec(ctx,
				`UPDATE family_members SET partner_id = $1, partner_status = $2, updated_at = now()
				 WHERE id = $3 AND user_id = $4`, pair[1], string(status), pair[0], userID,
			); err != nil {
				return fmt.Errorf("link partner: %w", err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO relationships (id, from_member_id, to_member_id, type, created_at)
				 VALUES ($1, $2, $3, 'partner', now())`, uuid.New(), pair[0], pair[1],
			); err != nil {
				return fmt.Errorf("insert partner edge: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

func (s *PostgresStore) ClearPartner(ctx context.Context, userID string, memberID uuid.UUID) ([]uuid.UUID, error) {
	var changed []uuid.UUID
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		partners, err := lockMembers(ctx, tx, userID, memberID)
		if err != nil {
			return err
		}
		if partners[memberID] == nil {
			return nil
		}
		changed, err = unlinkPartners(ctx, tx, userID, []uuid.UUID{memberID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

func mergeIDs(a, b []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(a)+len(b))
	out := make([]uuid.UUID, 0, len(a)+len(b))
	for _, id := range append(append([]uuid.UUID{}, a...), b...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// --- Media ---

var mediaColumns = []string{
	"id", "member_id", "user_id", "url", "object_key", "type", "content_type", "size", "caption", "uploaded_at",
}

func scanMedia(row pgx.Row) (*models.MediaItem, error) {
	var (
		it  models.MediaItem
		typ string
	)
	if err := row.Scan(&it.ID, &it.MemberID, &it.UserID, &it.URL, &it.ObjectKey, &typ,
		&it.ContentType, &it.Size, &it.Caption, &it.UploadedAt); err != nil {
		return nil, err
	}
	it.Type = models.MediaType(typ)
	return &it, nil
}

func collectMedia(rows pgx.Rows) ([]models.MediaItem, error) {
	defer rows.Close()
	items := []models.MediaItem{}
	for rows.Next() {
		it, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (s *PostgresStore) CreateMedia(ctx context.Context, it *models.MediaItem) error {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("media_items").Cols(mediaColumns...).Values(
		it.ID, it.MemberID, it.UserID, it.URL, it.ObjectKey, string(it.Type),
		it.ContentType, it.Size, it.Caption, it.UploadedAt,
	)
	sql, args := ib.Build()
	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("create media: %w", err)
	}
	return nil
}

func mediaQuery(userID string, memberIDs []uuid.UUID) (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(mediaColumns...).From("media_items").Where(sb.Equal("user_id", userID))
	if len(memberIDs) > 0 {
		sb.Where(sb.In("member_id", idArgs(memberIDs)...))
	}
	sb.OrderBy("uploaded_at ASC", "id ASC")
	return sb.Build()
}

func (s *PostgresStore) ListMedia(ctx context.Context, userID string, memberIDs []uuid.UUID) ([]models.MediaItem, error) {
	sql, args := mediaQuery(userID, memberIDs)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	return collectMedia(rows)
}

func (s *PostgresStore) DeleteMediaByURLs(ctx context.Context, userID string, urls []string) ([]models.MediaItem, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	args := make([]any, len(urls))
	for i, u := range urls {
		args[i] = u
	}
	db.DeleteFrom("media_items").
		Where(db.Equal("user_id", userID), db.In("url", args...)).
		SQL("RETURNING " + strings.Join(mediaColumns, ", "))
	sql, qargs := db.Build()

	rows, err := s.pool.Query(ctx, sql, qargs...)
	if err != nil {
		return nil, fmt.Errorf("delete media: %w", err)
	}
	return collectMedia(rows)
}
