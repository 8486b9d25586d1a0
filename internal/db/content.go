package db

import (
	"context"
	"strconv"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

const contentColumns = `id, title, description, type, url, duration, status, created_by, created_at, updated_at`

func (s *pgStore) CreateContent(ctx context.Context, c *model.Content) error {
	c.ApplyDefaults()
	query := `
	INSERT INTO content
	(title, description, type, url, duration, status, created_by, created_at, updated_at)
	VALUES
	($1,    $2,          $3,   $4,  $5,       $6,     $7,         now(),      now())
	RETURNING ` + contentColumns + `;`

	if err := s.db.GetContext(ctx, c, query,
		c.Title,
		c.Description,
		c.Type,
		c.URL,
		c.Duration,
		c.Status,
		c.CreatedBy,
	); err != nil {
		log.Error().Err(err).Msg("failed to create content")
		return translate(err)
	}
	return nil
}

func (s *pgStore) GetContentByID(ctx context.Context, id int) (*model.Content, error) {
	var c model.Content
	if err := s.db.GetContext(ctx, &c, `SELECT `+contentColumns+` FROM content WHERE id = $1;`, id); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// returns the content rows whose ids are in ids, in no particular order.
// Unknown ids are silently absent from the result.
func (s *pgStore) GetContentByIDs(ctx context.Context, ids []int) ([]model.Content, error) {
	all := []model.Content{}
	if len(ids) == 0 {
		return all, nil
	}
	query := `SELECT ` + contentColumns + ` FROM content WHERE id = ANY($1);`
	if err := s.db.SelectContext(ctx, &all, query, pq.Array(toInt64s(ids))); err != nil {
		log.Error().Err(err).Ints("ids", ids).Msg("failed to get content by ids")
		return nil, err
	}
	return all, nil
}

func (s *pgStore) ListContent(ctx context.Context, f ContentFilter) ([]model.Content, error) {
	all := []model.Content{}
	query := `SELECT ` + contentColumns + ` FROM content WHERE 1=1`

	args := []interface{}{}
	argCount := 0

	if f.Type != nil {
		argCount++
		query += ` AND type = $` + strconv.Itoa(argCount)
		args = append(args, *f.Type)
	}
	if f.Status != nil {
		argCount++
		query += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, *f.Status)
	}

	query += ` ORDER BY id;`

	if err := s.db.SelectContext(ctx, &all, query, args...); err != nil {
		log.Error().Err(err).Msg("failed to list content")
		return nil, err
	}
	return all, nil
}

func (s *pgStore) UpdateContent(ctx context.Context, id int, u model.ContentUpdate) (*model.Content, error) {
	var c model.Content
	query := `
	UPDATE content
	SET
	title       = COALESCE($2, title),
	description = COALESCE($3, description),
	type        = COALESCE($4, type),
	url         = COALESCE($5, url),
	duration    = COALESCE($6, duration),
	status      = COALESCE($7, status),
	updated_at  = now()
	WHERE id = $1
	RETURNING ` + contentColumns + `;`

	if err := s.db.GetContext(ctx, &c, query,
		id,
		u.Title,
		u.Description,
		nullableString(u.Type),
		u.URL,
		u.Duration,
		nullableString(u.Status),
	); err != nil {
		log.Error().Err(err).Int("id", id).Msg("failed to update content")
		return nil, translate(err)
	}
	return &c, nil
}

// DeleteContent removes the row only. Callers check campaign references first.
func (s *pgStore) DeleteContent(ctx context.Context, id int) error {
	return s.deleteByID(ctx, "content", id)
}

func toInt64s(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
