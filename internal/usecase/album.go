package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Album bundles NFTs sharing a sale lifecycle. Owner stays empty while
// the member NFTs have divergent owners.
type Album struct {
	ID        uuid.UUID
	AlbumID   string
	Title     string
	NftIDs    []string
	Owner     string
	Status    Status
	Price     decimal.Decimal
	Currency  string
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ListAlbumsOption struct {
	Skip   int
	Limit  int
	Status Status
	Owner  string
}

type CreateAlbumOption struct {
	Title  string
	Owner  string
	NftIDs []string
}

func (u Usecase) CreateAlbum(ctx context.Context, opt CreateAlbumOption) (Album, error) {
	owner, err := u.repo.GetUserByAddress(ctx, opt.Owner)
	if err != nil {
		return Album{}, ErrNotFound{ID: opt.Owner, Code: "USER_NOT_FOUND", Message: "owner account not found"}
	}

	album := Album{
		AlbumID: uuid.New().String(),
		Title:   opt.Title,
		NftIDs:  opt.NftIDs,
		Owner:   opt.Owner,
		Status:  StatusPrivate,
	}

	// Back-reference every member so album reconciliation can find its
	// bundle after an NFT-level transfer.
	for _, id := range opt.NftIDs {
		nft, err := u.repo.GetNftByID(ctx, id)
		if err != nil {
			return Album{}, ErrNotFound{ID: id, Code: "NFT_NOT_FOUND", Message: "nft not found"}
		}
		nft.AlbumID = album.AlbumID
		if _, err := u.repo.UpdateNft(ctx, nft); err != nil {
			return Album{}, err
		}
	}

	owner.AlbumRefs = append(owner.AlbumRefs, Ref{ID: album.AlbumID, Share: fullShare})

	return u.repo.CreateAlbum(ctx, album, owner)
}

func (u Usecase) GetAlbumByID(ctx context.Context, id string) (Album, error) {
	album, err := u.repo.GetAlbumByID(ctx, id)
	if err != nil {
		return Album{}, ErrNotFound{ID: id, Code: "ALBUM_NOT_FOUND", Message: "album not found"}
	}
	return album, nil
}

// GetAlbumNfts fetches an album's member records in bundle order.
func (u Usecase) GetAlbumNfts(ctx context.Context, album Album) ([]Nft, error) {
	nfts := make([]Nft, 0, len(album.NftIDs))
	for _, id := range album.NftIDs {
		nft, err := u.repo.GetNftByID(ctx, id)
		if err != nil {
			return nil, ErrNotFound{ID: id, Code: "NFT_NOT_FOUND", Message: "nft not found"}
		}
		nfts = append(nfts, nft)
	}
	return nfts, nil
}

type ListAlbumForSaleOption struct {
	AlbumID  string
	Price    decimal.Decimal
	Currency string
}

func (u Usecase) ListAlbumForSale(ctx context.Context, opt ListAlbumForSaleOption) (Album, error) {
	album, err := u.GetAlbumByID(ctx, opt.AlbumID)
	if err != nil {
		return Album{}, err
	}

	album.Status = StatusSale
	album.Price = opt.Price
	album.Currency = opt.Currency

	return u.repo.UpdateAlbum(ctx, album)
}
