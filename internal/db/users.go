package db

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

const userColumns = `id, username, email, hashed_password, role, created_at, updated_at`

// inserts a new user and fills in its ID and timestamps.
func (s *pgStore) CreateUser(ctx context.Context, u *model.User) error {
	u.ApplyDefaults()
	query := `
	INSERT INTO users (username, email, hashed_password, role, created_at, updated_at)
	VALUES ($1, $2, $3, $4, now(), now())
	RETURNING ` + userColumns + `;`

	if err := s.db.GetContext(ctx, u, query, u.Username, u.Email, u.HashedPassword, u.Role); err != nil {
		log.Error().Err(err).Str("username", u.Username).Msg("failed to create user")
		return translate(err)
	}
	return nil
}

func (s *pgStore) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` = $1;`
	if err := s.db.GetContext(ctx, &u, query, arg); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *pgStore) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *pgStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *pgStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.getUser(ctx, "username", username)
}

func (s *pgStore) ListUsers(ctx context.Context) ([]model.User, error) {
	all := []model.User{}
	if err := s.db.SelectContext(ctx, &all, `SELECT `+userColumns+` FROM users ORDER BY id;`); err != nil {
		log.Error().Err(err).Msg("failed to list users")
		return nil, err
	}
	return all, nil
}

// updates only the provided fields and bumps updated_at.
func (s *pgStore) UpdateUser(ctx context.Context, id int, u model.UserUpdate) (*model.User, error) {
	var out model.User
	query := `
	UPDATE users
	SET
	username        = COALESCE($2, username),
	email           = COALESCE($3, email),
	hashed_password = COALESCE($4, hashed_password),
	role            = COALESCE($5, role),
	updated_at      = now()
	WHERE id = $1
	RETURNING ` + userColumns + `;`

	if err := s.db.GetContext(ctx, &out, query, id, u.Username, u.Email, u.HashedPassword, nullableString(u.Role)); err != nil {
		log.Error().Err(err).Int("user_id", id).Msg("failed to update user")
		return nil, translate(err)
	}
	return &out, nil
}

func (s *pgStore) DeleteUser(ctx context.Context, id int) error {
	return s.deleteByID(ctx, "users", id)
}

// deleteByID removes one row and reports ErrNotFound when nothing matched.
func (s *pgStore) deleteByID(ctx context.Context, table string, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Str("table", table).Int("id", id).Msg("failed to delete row")
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
