// exposes a Store interface that is passed to API calls w/ param requirements
package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

type Store interface {
	// user functions
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id int) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, id int, u model.UserUpdate) (*model.User, error)
	DeleteUser(ctx context.Context, id int) error

	// device functions
	CreateDevice(ctx context.Context, d *model.Device) error
	GetDeviceByID(ctx context.Context, id int) (*model.Device, error)
	GetDeviceByDeviceID(ctx context.Context, deviceID string) (*model.Device, error)
	ListDevices(ctx context.Context, f DeviceFilter) ([]model.Device, error)
	UpdateDevice(ctx context.Context, id int, u model.DeviceUpdate) (*model.Device, error)
	DeleteDevice(ctx context.Context, id int) error

	// content functions
	CreateContent(ctx context.Context, c *model.Content) error
	GetContentByID(ctx context.Context, id int) (*model.Content, error)
	GetContentByIDs(ctx context.Context, ids []int) ([]model.Content, error)
	ListContent(ctx context.Context, f ContentFilter) ([]model.Content, error)
	UpdateContent(ctx context.Context, id int, u model.ContentUpdate) (*model.Content, error)
	DeleteContent(ctx context.Context, id int) error

	// campaign functions
	CreateCampaign(ctx context.Context, c *model.Campaign) error
	GetCampaignByID(ctx context.Context, id int) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, f CampaignFilter) ([]model.Campaign, error)
	UpdateCampaign(ctx context.Context, id int, u model.CampaignUpdate) (*model.Campaign, error)
	DeleteCampaign(ctx context.Context, id int) error

	// log functions
	CreateLog(ctx context.Context, l *model.Log) error
	ListLogs(ctx context.Context, f LogFilter) ([]model.Log, error)
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(conn *sqlx.DB) Store {
	return &pgStore{db: conn}
}
