package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type storageError string

func (e storageError) Error() string {
	return string(e)
}

const (
	ErrNotFound     = storageError("not found")
	ErrDuplicateKey = storageError("duplicate key")
)

const uniqueViolation = "23505"

// unique constraint name -> field reported to callers
var uniqueFields = map[string]string{
	"users_username_key":    "username",
	"users_email_key":       "email",
	"devices_device_id_key": "deviceId",
}

// DuplicateKey builds the error returned when a write collides with an
// existing unique value of field.
func DuplicateKey(field string) error {
	return fmt.Errorf("%w: %s already exists", ErrDuplicateKey, field)
}

// translate maps driver errors onto the store's error vocabulary.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		field, ok := uniqueFields[pqErr.Constraint]
		if !ok {
			field = pqErr.Constraint
		}
		return DuplicateKey(field)
	}
	return err
}
