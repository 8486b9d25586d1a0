package memory

import (
	"context"

	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

func (s *store) CreateDevice(_ context.Context, d *model.Device) error {
	s.Lock()
	defer s.Unlock()

	for _, existing := range s.devices {
		if existing.DeviceID == d.DeviceID {
			return db.DuplicateKey("deviceId")
		}
	}
	d.ApplyDefaults()
	d.ID = s.getNextID("devices")
	d.CreatedAt = s.now()
	d.UpdatedAt = d.CreatedAt
	s.devices[d.ID] = *d
	return nil
}

func (s *store) GetDeviceByID(_ context.Context, id int) (*model.Device, error) {
	s.RLock()
	defer s.RUnlock()
	if d, ok := s.devices[id]; ok {
		return &d, nil
	}
	return nil, db.ErrNotFound
}

func (s *store) GetDeviceByDeviceID(_ context.Context, deviceID string) (*model.Device, error) {
	s.RLock()
	defer s.RUnlock()
	for _, d := range s.devices {
		if d.DeviceID == deviceID {
			return &d, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *store) ListDevices(_ context.Context, f db.DeviceFilter) ([]model.Device, error) {
	s.RLock()
	defer s.RUnlock()
	out := []model.Device{}
	for _, d := range sortedValues(s.devices) {
		if f.Match(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *store) UpdateDevice(_ context.Context, id int, u model.DeviceUpdate) (*model.Device, error) {
	s.Lock()
	defer s.Unlock()
	d, ok := s.devices[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	u.Apply(&d)
	d.UpdatedAt = s.now()
	s.devices[id] = d
	return &d, nil
}

func (s *store) DeleteDevice(_ context.Context, id int) error {
	s.Lock()
	defer s.Unlock()
	if _, ok := s.devices[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.devices, id)
	return nil
}
