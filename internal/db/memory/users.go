package memory

import (
	"context"

	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// checkUserUnique must be called with the lock held. skipID excludes the
// user being updated.
func (s *store) checkUserUnique(username, email string, skipID int) error {
	for id, u := range s.users {
		if id == skipID {
			continue
		}
		if u.Username == username {
			return db.DuplicateKey("username")
		}
		if u.Email == email {
			return db.DuplicateKey("email")
		}
	}
	return nil
}

func (s *store) CreateUser(_ context.Context, u *model.User) error {
	s.Lock()
	defer s.Unlock()

	if err := s.checkUserUnique(u.Username, u.Email, 0); err != nil {
		return err
	}
	u.ApplyDefaults()
	u.ID = s.getNextID("users")
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = *u
	return nil
}

func (s *store) GetUserByID(_ context.Context, id int) (*model.User, error) {
	s.RLock()
	defer s.RUnlock()
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, db.ErrNotFound
}

func (s *store) findUser(match func(model.User) bool) (*model.User, error) {
	s.RLock()
	defer s.RUnlock()
	for _, u := range s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return s.findUser(func(u model.User) bool { return u.Email == email })
}

func (s *store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return s.findUser(func(u model.User) bool { return u.Username == username })
}

func (s *store) ListUsers(_ context.Context) ([]model.User, error) {
	s.RLock()
	defer s.RUnlock()
	return sortedValues(s.users), nil
}

func (s *store) UpdateUser(_ context.Context, id int, upd model.UserUpdate) (*model.User, error) {
	s.Lock()
	defer s.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	upd.Apply(&u)
	if err := s.checkUserUnique(u.Username, u.Email, id); err != nil {
		return nil, err
	}
	u.UpdatedAt = s.now()
	s.users[id] = u
	return &u, nil
}

func (s *store) DeleteUser(_ context.Context, id int) error {
	s.Lock()
	defer s.Unlock()
	if _, ok := s.users[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.users, id)
	return nil
}
