package database

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/inftyart/inftyart/internal/usecase"
)

// SaveWriteSet commits everything a resolved transfer mutated in one
// database transaction. The target row carries a version counter; a
// concurrent writer that got there first makes the guarded update match
// zero rows, and the losing write set is rejected with ErrConflict
// instead of being merged.
func (s *service) SaveWriteSet(ctx context.Context, ws usecase.WriteSet) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ws.Nft != nil {
			res := tx.Model(Nft{}).
				Where("nft_id = ? AND version = ?", ws.Nft.NftID, ws.Nft.Version).
				Updates(map[string]any{
					"owners":  datatypes.NewJSONType(ws.Nft.Owners),
					"status":  string(ws.Nft.Status),
					"version": ws.Nft.Version + 1,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return usecase.ErrConflict{
					Code:    "NFT_VERSION_CONFLICT",
					Message: fmt.Sprintf("nft %s was modified concurrently", ws.Nft.NftID),
				}
			}
		}

		if ws.Album != nil {
			res := tx.Model(Album{}).
				Where("album_id = ? AND version = ?", ws.Album.AlbumID, ws.Album.Version).
				Updates(map[string]any{
					"owner":   ws.Album.Owner,
					"status":  string(ws.Album.Status),
					"version": ws.Album.Version + 1,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return usecase.ErrConflict{
					Code:    "ALBUM_VERSION_CONFLICT",
					Message: fmt.Sprintf("album %s was modified concurrently", ws.Album.AlbumID),
				}
			}
		}

		for _, u := range []*usecase.User{ws.Buyer, ws.Seller} {
			if u == nil {
				continue
			}
			err := tx.Model(User{}).
				Where("address = ?", u.Address).
				Updates(map[string]any{
					"nft_refs":   datatypes.NewJSONType(u.NftRefs),
					"album_refs": datatypes.NewJSONType(u.AlbumRefs),
				}).
				Error
			if err != nil {
				return err
			}
		}

		if ws.Txn != nil {
			txn := Transaction{
				Kind:               string(ws.Txn.Kind),
				Buyer:              ws.Txn.Buyer,
				Seller:             ws.Txn.Seller,
				TargetID:           ws.Txn.TargetID,
				Price:              ws.Txn.Price,
				Currency:           ws.Txn.Currency,
				Commission:         ws.Txn.Commission,
				CommissionCurrency: ws.Txn.CommissionCurrency,
				CreatedAt:          ws.Txn.CreatedAt,
			}
			if err := tx.Create(&txn).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
