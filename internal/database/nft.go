package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/inftyart/inftyart/internal/usecase"
)

type Nft struct {
	ID          uuid.UUID                                 `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	NftID       string                                    `gorm:"column:nft_id;type:varchar(255);not null;uniqueIndex"`
	Title       string                                    `gorm:"column:title;type:varchar(255);not null;uniqueIndex"`
	Description string                                    `gorm:"column:description;type:text"`
	FileURL     string                                    `gorm:"column:file_url;type:varchar(512);not null"`
	FileHash    string                                    `gorm:"column:file_hash;type:varchar(128)"`
	Status      string                                    `gorm:"column:status;type:varchar(20);not null;index"`
	Price       decimal.Decimal                           `gorm:"column:price;type:numeric"`
	Currency    string                                    `gorm:"column:currency;type:varchar(10)"`
	Fractional  bool                                      `gorm:"column:fractional;type:boolean;default:false"`
	AlbumID     string                                    `gorm:"column:album_id;type:varchar(255);index"`
	Author      string                                    `gorm:"column:author;type:varchar(255);not null"`
	Owners      datatypes.JSONType[[]usecase.OwnerShare]  `gorm:"column:owners"`
	Views       int                                       `gorm:"column:views;type:int;default:0"`
	Version     int                                       `gorm:"column:version;type:int;default:0"`
	CreatedAt   time.Time                                 `gorm:"column:created_at"`
	UpdatedAt   time.Time                                 `gorm:"column:updated_at"`
	DeletedAt   *gorm.DeletedAt                           `gorm:"column:deleted_at"`
}

func (Nft) TableName() string {
	return "nfts"
}

func (s *service) GetNftByID(ctx context.Context, id string) (usecase.Nft, error) {
	var n Nft
	err := s.db.
		Model(Nft{}).
		WithContext(ctx).
		Where("nft_id = ?", id).
		First(&n).
		Error
	if err != nil {
		return usecase.Nft{}, err
	}
	return n.ConvertToUsecase(), nil
}

func (s *service) ListNfts(ctx context.Context, opt usecase.ListNftsOption) ([]usecase.Nft, int, error) {
	var (
		nfts  []Nft
		unfts []usecase.Nft
		count int64
	)

	db := s.db.Model([]Nft{}).WithContext(ctx)

	if opt.Status != "" {
		db = db.Where("status = ?", string(opt.Status))
	}
	if len(opt.IDs) > 0 {
		db = db.Where("nft_id IN ?", opt.IDs)
	}
	if opt.Owner != "" {
		q, _ := json.Marshal([]map[string]string{{"address": opt.Owner}})
		db = db.Where("owners @> ?", datatypes.JSON(q))
	}

	err := db.
		Order("nft_id DESC").
		Count(&count).
		Limit(opt.Limit).
		Offset(opt.Skip).
		Find(&nfts).
		Error
	if err != nil {
		return nil, 0, err
	}

	for _, n := range nfts {
		unfts = append(unfts, n.ConvertToUsecase())
	}

	return unfts, int(count), nil
}

func (s *service) NftTitleExists(ctx context.Context, title string) (bool, error) {
	var count int64
	err := s.db.
		Model(Nft{}).
		WithContext(ctx).
		Where("title = ?", title).
		Count(&count).
		Error
	return count > 0, err
}

// CreateNft stores a freshly minted record together with the author's
// updated reference list as one unit.
func (s *service) CreateNft(ctx context.Context, n usecase.Nft, owner usecase.User) (usecase.Nft, error) {
	nft := Nft{
		NftID:       n.NftID,
		Title:       n.Title,
		Description: n.Description,
		FileURL:     n.FileURL,
		FileHash:    n.FileHash,
		Status:      string(n.Status),
		Price:       n.Price,
		Currency:    n.Currency,
		Fractional:  n.Fractional,
		AlbumID:     n.AlbumID,
		Author:      n.Author,
		Owners:      datatypes.NewJSONType(n.Owners),
		Views:       n.Views,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&nft).Error; err != nil {
			return err
		}
		return tx.Model(User{}).
			Where("address = ?", owner.Address).
			Update("nft_refs", datatypes.NewJSONType(owner.NftRefs)).
			Error
	})
	if err != nil {
		return usecase.Nft{}, err
	}

	return nft.ConvertToUsecase(), nil
}

func (s *service) UpdateNft(ctx context.Context, n usecase.Nft) (usecase.Nft, error) {
	err := s.db.WithContext(ctx).
		Model(Nft{}).
		Where("nft_id = ?", n.NftID).
		Updates(map[string]any{
			"status":     string(n.Status),
			"price":      n.Price,
			"currency":   n.Currency,
			"fractional": n.Fractional,
			"album_id":   n.AlbumID,
			"views":      n.Views,
		}).
		Error
	if err != nil {
		return usecase.Nft{}, err
	}
	return n, nil
}

// Convert core model to Usecase
func (n Nft) ConvertToUsecase() usecase.Nft {
	return usecase.Nft{
		ID:          n.ID,
		NftID:       n.NftID,
		Title:       n.Title,
		Description: n.Description,
		FileURL:     n.FileURL,
		FileHash:    n.FileHash,
		Status:      usecase.Status(n.Status),
		Price:       n.Price,
		Currency:    n.Currency,
		Fractional:  n.Fractional,
		AlbumID:     n.AlbumID,
		Author:      n.Author,
		Owners:      n.Owners.Data(),
		Views:       n.Views,
		Version:     n.Version,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}
