package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/inftyart/inftyart/internal/usecase"
)

type User struct {
	ID             uuid.UUID                          `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	Address        string                             `gorm:"column:address;type:varchar(255);not null;uniqueIndex"`
	FirstName      string                             `gorm:"column:first_name;type:varchar(255)"`
	LastName       string                             `gorm:"column:last_name;type:varchar(255)"`
	Description    string                             `gorm:"column:description;type:text"`
	ProfilePicture string                             `gorm:"column:profile_picture;type:varchar(512)"`
	NftRefs        datatypes.JSONType[[]usecase.Ref]  `gorm:"column:nft_refs"`
	AlbumRefs      datatypes.JSONType[[]usecase.Ref]  `gorm:"column:album_refs"`
	CreatedAt      time.Time                          `gorm:"column:created_at"`
	UpdatedAt      time.Time                          `gorm:"column:updated_at"`
	DeletedAt      *gorm.DeletedAt                    `gorm:"column:deleted_at"`
}

func (User) TableName() string {
	return "users"
}

func (s *service) GetUserByAddress(ctx context.Context, address string) (usecase.User, error) {
	var u User
	err := s.db.
		Model(User{}).
		WithContext(ctx).
		Where("address = ?", address).
		First(&u).
		Error
	if err != nil {
		return usecase.User{}, err
	}
	return u.ConvertToUsecase(), nil
}

func (s *service) CreateUser(ctx context.Context, u usecase.User) (usecase.User, error) {
	user := User{
		Address:        u.Address,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Description:    u.Description,
		ProfilePicture: u.ProfilePicture,
		NftRefs:        datatypes.NewJSONType(u.NftRefs),
		AlbumRefs:      datatypes.NewJSONType(u.AlbumRefs),
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return usecase.User{}, err
	}

	return user.ConvertToUsecase(), nil
}

func (s *service) UpdateUser(ctx context.Context, u usecase.User) (usecase.User, error) {
	err := s.db.WithContext(ctx).
		Model(User{}).
		Where("address = ?", u.Address).
		Updates(map[string]any{
			"first_name":      u.FirstName,
			"last_name":       u.LastName,
			"description":     u.Description,
			"profile_picture": u.ProfilePicture,
			"nft_refs":        datatypes.NewJSONType(u.NftRefs),
			"album_refs":      datatypes.NewJSONType(u.AlbumRefs),
		}).
		Error
	if err != nil {
		return usecase.User{}, err
	}
	return u, nil
}

// Convert core model to Usecase
func (u User) ConvertToUsecase() usecase.User {
	return usecase.User{
		ID:             u.ID,
		Address:        u.Address,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Description:    u.Description,
		ProfilePicture: u.ProfilePicture,
		NftRefs:        u.NftRefs.Data(),
		AlbumRefs:      u.AlbumRefs.Data(),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
