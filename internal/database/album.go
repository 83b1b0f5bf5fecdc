package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/inftyart/inftyart/internal/usecase"
)

type Album struct {
	ID        uuid.UUID                      `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	AlbumID   string                         `gorm:"column:album_id;type:varchar(255);not null;uniqueIndex"`
	Title     string                         `gorm:"column:title;type:varchar(255);not null"`
	NftIDs    datatypes.JSONType[[]string]   `gorm:"column:nft_ids"`
	Owner     string                         `gorm:"column:owner;type:varchar(255);index"`
	Status    string                         `gorm:"column:status;type:varchar(20);not null;index"`
	Price     decimal.Decimal                `gorm:"column:price;type:numeric"`
	Currency  string                         `gorm:"column:currency;type:varchar(10)"`
	Version   int                            `gorm:"column:version;type:int;default:0"`
	CreatedAt time.Time                      `gorm:"column:created_at"`
	UpdatedAt time.Time                      `gorm:"column:updated_at"`
	DeletedAt *gorm.DeletedAt                `gorm:"column:deleted_at"`
}

func (Album) TableName() string {
	return "albums"
}

func (s *service) GetAlbumByID(ctx context.Context, id string) (usecase.Album, error) {
	var a Album
	err := s.db.
		Model(Album{}).
		WithContext(ctx).
		Where("album_id = ?", id).
		First(&a).
		Error
	if err != nil {
		return usecase.Album{}, err
	}
	return a.ConvertToUsecase(), nil
}

func (s *service) ListAlbums(ctx context.Context, opt usecase.ListAlbumsOption) ([]usecase.Album, int, error) {
	var (
		albums  []Album
		ualbums []usecase.Album
		count   int64
	)

	db := s.db.Model([]Album{}).WithContext(ctx)

	if opt.Status != "" {
		db = db.Where("status = ?", string(opt.Status))
	}
	if opt.Owner != "" {
		db = db.Where("owner = ?", opt.Owner)
	}

	err := db.
		Order("album_id DESC").
		Count(&count).
		Limit(opt.Limit).
		Offset(opt.Skip).
		Find(&albums).
		Error
	if err != nil {
		return nil, 0, err
	}

	for _, a := range albums {
		ualbums = append(ualbums, a.ConvertToUsecase())
	}

	return ualbums, int(count), nil
}

func (s *service) CreateAlbum(ctx context.Context, a usecase.Album, owner usecase.User) (usecase.Album, error) {
	album := Album{
		AlbumID:  a.AlbumID,
		Title:    a.Title,
		NftIDs:   datatypes.NewJSONType(a.NftIDs),
		Owner:    a.Owner,
		Status:   string(a.Status),
		Price:    a.Price,
		Currency: a.Currency,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&album).Error; err != nil {
			return err
		}
		return tx.Model(User{}).
			Where("address = ?", owner.Address).
			Update("album_refs", datatypes.NewJSONType(owner.AlbumRefs)).
			Error
	})
	if err != nil {
		return usecase.Album{}, err
	}

	return album.ConvertToUsecase(), nil
}

func (s *service) UpdateAlbum(ctx context.Context, a usecase.Album) (usecase.Album, error) {
	err := s.db.WithContext(ctx).
		Model(Album{}).
		Where("album_id = ?", a.AlbumID).
		Updates(map[string]any{
			"status":   string(a.Status),
			"price":    a.Price,
			"currency": a.Currency,
			"nft_ids":  datatypes.NewJSONType(a.NftIDs),
		}).
		Error
	if err != nil {
		return usecase.Album{}, err
	}
	return a, nil
}

// Convert core model to Usecase
func (a Album) ConvertToUsecase() usecase.Album {
	return usecase.Album{
		ID:        a.ID,
		AlbumID:   a.AlbumID,
		Title:     a.Title,
		NftIDs:    a.NftIDs.Data(),
		Owner:     a.Owner,
		Status:    usecase.Status(a.Status),
		Price:     a.Price,
		Currency:  a.Currency,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
