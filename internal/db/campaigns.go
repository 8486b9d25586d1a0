package db

import (
	"context"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

const campaignColumns = `id, name, description, status, start_date, end_date, target_devices, content_ids, created_by, created_at, updated_at`

// campaignRow is the scan target for the campaigns table; the array columns
// need pq's array types.
type campaignRow struct {
	ID            int            `db:"id"`
	Name          string         `db:"name"`
	Description   *string        `db:"description"`
	Status        string         `db:"status"`
	StartDate     time.Time      `db:"start_date"`
	EndDate       time.Time      `db:"end_date"`
	TargetDevices pq.StringArray `db:"target_devices"`
	ContentIDs    pq.Int64Array  `db:"content_ids"`
	CreatedBy     int            `db:"created_by"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r campaignRow) toModel() model.Campaign {
	targets := make([]string, len(r.TargetDevices))
	copy(targets, r.TargetDevices)
	contentIDs := make([]int, len(r.ContentIDs))
	for i, id := range r.ContentIDs {
		contentIDs[i] = int(id)
	}
	return model.Campaign{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		Status:        model.CampaignStatus(r.Status),
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		TargetDevices: targets,
		ContentIDs:    contentIDs,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func stringArray(v []string) pq.StringArray {
	if v == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(v)
}

func int64Array(v []int) pq.Int64Array {
	return pq.Int64Array(toInt64s(v))
}

func (s *pgStore) CreateCampaign(ctx context.Context, c *model.Campaign) error {
	c.ApplyDefaults()
	var row campaignRow
	query := `
	INSERT INTO campaigns
	(name, description, status, start_date, end_date, target_devices, content_ids, created_by, created_at, updated_at)
	VALUES
	($1,   $2,          $3,     $4,         $5,       $6,             $7,          $8,         now(),      now())
	RETURNING ` + campaignColumns + `;`

	if err := s.db.GetContext(ctx, &row, query,
		c.Name,
		c.Description,
		c.Status,
		c.StartDate,
		c.EndDate,
		stringArray(c.TargetDevices),
		int64Array(c.ContentIDs),
		c.CreatedBy,
	); err != nil {
		log.Error().Err(err).Str("name", c.Name).Msg("failed to create campaign")
		return translate(err)
	}
	*c = row.toModel()
	return nil
}

func (s *pgStore) GetCampaignByID(ctx context.Context, id int) (*model.Campaign, error) {
	var row campaignRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1;`, id); err != nil {
		return nil, translate(err)
	}
	c := row.toModel()
	return &c, nil
}

func (s *pgStore) ListCampaigns(ctx context.Context, f CampaignFilter) ([]model.Campaign, error) {
	var rows []campaignRow
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`

	args := []interface{}{}
	argCount := 0

	if f.Status != nil {
		argCount++
		query += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, *f.Status)
	}
	if f.DeviceID != "" {
		argCount++
		query += ` AND $` + strconv.Itoa(argCount) + ` = ANY(target_devices)`
		args = append(args, f.DeviceID)
	}
	if f.ContentID != nil {
		argCount++
		query += ` AND $` + strconv.Itoa(argCount) + ` = ANY(content_ids)`
		args = append(args, *f.ContentID)
	}
	if f.ActiveAt != nil {
		argCount++
		n := strconv.Itoa(argCount)
		query += ` AND start_date <= $` + n + ` AND end_date >= $` + n
		args = append(args, *f.ActiveAt)
	}

	query += ` ORDER BY id;`

	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		log.Error().Err(err).Msg("failed to list campaigns")
		return nil, err
	}

	out := make([]model.Campaign, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *pgStore) UpdateCampaign(ctx context.Context, id int, u model.CampaignUpdate) (*model.Campaign, error) {
	var targets, contentIDs interface{}
	if u.TargetDevices != nil {
		targets = stringArray(*u.TargetDevices)
	}
	if u.ContentIDs != nil {
		contentIDs = int64Array(*u.ContentIDs)
	}

	var row campaignRow
	query := `
	UPDATE campaigns
	SET
	name           = COALESCE($2, name),
	description    = COALESCE($3, description),
	status         = COALESCE($4, status),
	start_date     = COALESCE($5, start_date),
	end_date       = COALESCE($6, end_date),
	target_devices = COALESCE($7::text[], target_devices),
	content_ids    = COALESCE($8::integer[], content_ids),
	updated_at     = now()
	WHERE id = $1
	RETURNING ` + campaignColumns + `;`

	if err := s.db.GetContext(ctx, &row, query,
		id,
		u.Name,
		u.Description,
		nullableString(u.Status),
		u.StartDate,
		u.EndDate,
		targets,
		contentIDs,
	); err != nil {
		log.Error().Err(err).Int("id", id).Msg("failed to update campaign")
		return nil, translate(err)
	}
	c := row.toModel()
	return &c, nil
}

func (s *pgStore) DeleteCampaign(ctx context.Context, id int) error {
	return s.deleteByID(ctx, "campaigns", id)
}
