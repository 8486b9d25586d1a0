package db

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

const deviceColumns = `id, device_id, name, location, status, last_seen, orientation, resolution, created_at, updated_at`

func (s *pgStore) CreateDevice(ctx context.Context, d *model.Device) error {
	d.ApplyDefaults()
	query := `
	INSERT INTO devices
	(device_id, name, location, status, last_seen, orientation, resolution, created_at, updated_at)
	VALUES
	($1,        $2,   $3,       $4,     $5,        $6,          $7,         now(),      now())
	RETURNING ` + deviceColumns + `;`

	if err := s.db.GetContext(ctx, d, query,
		d.DeviceID,
		d.Name,
		d.Location,
		d.Status,
		d.LastSeen,
		d.Orientation,
		d.Resolution,
	); err != nil {
		log.Error().Err(err).Str("device_id", d.DeviceID).Msg("failed to create device")
		return translate(err)
	}
	return nil
}

func (s *pgStore) GetDeviceByID(ctx context.Context, id int) (*model.Device, error) {
	var d model.Device
	if err := s.db.GetContext(ctx, &d, `SELECT `+deviceColumns+` FROM devices WHERE id = $1;`, id); err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// looks a device up by the identifier the player reports.
func (s *pgStore) GetDeviceByDeviceID(ctx context.Context, deviceID string) (*model.Device, error) {
	var d model.Device
	if err := s.db.GetContext(ctx, &d, `SELECT `+deviceColumns+` FROM devices WHERE device_id = $1;`, deviceID); err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (s *pgStore) ListDevices(ctx context.Context, f DeviceFilter) ([]model.Device, error) {
	all := []model.Device{}
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE 1=1`

	args := []interface{}{}
	argCount := 0

	if f.Status != nil {
		argCount++
		query += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, *f.Status)
	}
	if f.Location != "" {
		argCount++
		query += ` AND location ILIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+f.Location+"%")
	}

	query += ` ORDER BY id;`

	if err := s.db.SelectContext(ctx, &all, query, args...); err != nil {
		log.Error().Err(err).Msg("failed to list devices")
		return nil, err
	}
	return all, nil
}

func (s *pgStore) UpdateDevice(ctx context.Context, id int, u model.DeviceUpdate) (*model.Device, error) {
	var d model.Device
	query := `
	UPDATE devices
	SET
	name        = COALESCE($2, name),
	location    = COALESCE($3, location),
	status      = COALESCE($4, status),
	last_seen   = COALESCE($5, last_seen),
	orientation = COALESCE($6, orientation),
	resolution  = COALESCE($7, resolution),
	updated_at  = now()
	WHERE id = $1
	RETURNING ` + deviceColumns + `;`

	if err := s.db.GetContext(ctx, &d, query,
		id,
		u.Name,
		u.Location,
		nullableString(u.Status),
		u.LastSeen,
		nullableString(u.Orientation),
		u.Resolution,
	); err != nil {
		log.Error().Err(err).Int("id", id).Msg("failed to update device")
		return nil, translate(err)
	}
	return &d, nil
}

func (s *pgStore) DeleteDevice(ctx context.Context, id int) error {
	return s.deleteByID(ctx, "devices", id)
}

// nullableString converts an optional string-kinded enum into a driver value
// that is NULL when absent, so COALESCE keeps the stored column.
func nullableString[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
