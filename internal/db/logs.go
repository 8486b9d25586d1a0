package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

const logColumns = `id, level, message, device_id, campaign_id, content_id, metadata, created_at`

type logRow struct {
	ID         int            `db:"id"`
	Level      string         `db:"level"`
	Message    string         `db:"message"`
	DeviceID   *string        `db:"device_id"`
	CampaignID *int           `db:"campaign_id"`
	ContentID  *int           `db:"content_id"`
	Metadata   types.JSONText `db:"metadata"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r logRow) toModel() (model.Log, error) {
	l := model.Log{
		ID:         r.ID,
		Level:      model.LogLevel(r.Level),
		Message:    r.Message,
		DeviceID:   r.DeviceID,
		CampaignID: r.CampaignID,
		ContentID:  r.ContentID,
		CreatedAt:  r.CreatedAt,
	}
	if len(r.Metadata) > 0 {
		if err := r.Metadata.Unmarshal(&l.Metadata); err != nil {
			return model.Log{}, fmt.Errorf("decode log metadata: %w", err)
		}
	}
	return l, nil
}

func (s *pgStore) CreateLog(ctx context.Context, l *model.Log) error {
	metadata := types.JSONText("{}")
	if len(l.Metadata) > 0 {
		raw, err := json.Marshal(l.Metadata)
		if err != nil {
			return fmt.Errorf("encode log metadata: %w", err)
		}
		metadata = types.JSONText(raw)
	}

	var row logRow
	query := `
	INSERT INTO logs (level, message, device_id, campaign_id, content_id, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, now())
	RETURNING ` + logColumns + `;`

	if err := s.db.GetContext(ctx, &row, query,
		l.Level,
		l.Message,
		l.DeviceID,
		l.CampaignID,
		l.ContentID,
		metadata,
	); err != nil {
		log.Error().Err(err).Msg("failed to create log")
		return err
	}

	created, err := row.toModel()
	if err != nil {
		return err
	}
	*l = created
	return nil
}

// lists logs newest first.
func (s *pgStore) ListLogs(ctx context.Context, f LogFilter) ([]model.Log, error) {
	var rows []logRow
	query := `SELECT ` + logColumns + ` FROM logs WHERE 1=1`

	args := []interface{}{}
	argCount := 0

	if f.Level != nil {
		argCount++
		query += ` AND level = $` + strconv.Itoa(argCount)
		args = append(args, *f.Level)
	}
	if f.DeviceID != "" {
		argCount++
		query += ` AND device_id = $` + strconv.Itoa(argCount)
		args = append(args, f.DeviceID)
	}
	if f.CampaignID != nil {
		argCount++
		query += ` AND campaign_id = $` + strconv.Itoa(argCount)
		args = append(args, *f.CampaignID)
	}
	if f.ContentID != nil {
		argCount++
		query += ` AND content_id = $` + strconv.Itoa(argCount)
		args = append(args, *f.ContentID)
	}

	argCount++
	query += ` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(argCount) + `;`
	args = append(args, f.EffectiveLimit())

	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		log.Error().Err(err).Msg("failed to list logs")
		return nil, err
	}

	out := make([]model.Log, 0, len(rows))
	for _, r := range rows {
		l, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}
