package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Nft struct {
	ID          uuid.UUID
	NftID       string
	Title       string
	Description string
	FileURL     string
	FileHash    string
	Status      Status
	Price       decimal.Decimal
	Currency    string
	Fractional  bool
	AlbumID     string
	Author      string
	Owners      []OwnerShare
	Views       int
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ListNftsOption struct {
	Skip   int
	Limit  int
	Status Status
	IDs    []string
	Owner  string
}

func (u Usecase) GetNftByID(ctx context.Context, id string) (Nft, error) {
	nft, err := u.repo.GetNftByID(ctx, id)
	if err != nil {
		return Nft{}, ErrNotFound{ID: id, Code: "NFT_NOT_FOUND", Message: "nft not found"}
	}
	return nft, nil
}

func (u Usecase) ListNfts(ctx context.Context, opt ListNftsOption) ([]Nft, int, error) {
	return u.repo.ListNfts(ctx, opt)
}

// Market is the paged listing of everything currently on sale.
type Market struct {
	NftIDs   []string
	AlbumIDs []string
}

type GetMarketOption struct {
	Skip  int
	Limit int
}

func (u Usecase) GetMarket(ctx context.Context, opt GetMarketOption) (Market, error) {
	if opt.Limit == 0 {
		opt.Limit = 10
	}

	nfts, _, err := u.repo.ListNfts(ctx, ListNftsOption{
		Status: StatusSale,
		Skip:   opt.Skip,
		Limit:  opt.Limit,
	})
	if err != nil {
		return Market{}, err
	}

	albums, _, err := u.repo.ListAlbums(ctx, ListAlbumsOption{
		Status: StatusSale,
		Skip:   opt.Skip,
		Limit:  opt.Limit,
	})
	if err != nil {
		return Market{}, err
	}

	market := Market{
		NftIDs:   make([]string, 0, len(nfts)),
		AlbumIDs: make([]string, 0, len(albums)),
	}
	for _, n := range nfts {
		market.NftIDs = append(market.NftIDs, n.NftID)
	}
	for _, a := range albums {
		market.AlbumIDs = append(market.AlbumIDs, a.AlbumID)
	}
	return market, nil
}

type CreateNftOption struct {
	Title       string
	Description string
	Author      string
	AlbumID     string
	File        []byte
	FileName    string
	ContentType string
	FileHash    string
}

// CreateNft uploads the artwork, mints the token on chain and stores the
// record with the author as sole owner. The author's account and the new
// record are saved together.
func (u Usecase) CreateNft(ctx context.Context, opt CreateNftOption) (Nft, error) {
	taken, err := u.repo.NftTitleExists(ctx, opt.Title)
	if err != nil {
		return Nft{}, err
	}
	if taken {
		return Nft{}, ErrConflict{Code: "NFT_TITLE_TAKEN", Message: fmt.Sprintf("title %q already exists", opt.Title)}
	}

	author, err := u.repo.GetUserByAddress(ctx, opt.Author)
	if err != nil {
		return Nft{}, ErrNotFound{ID: opt.Author, Code: "USER_NOT_FOUND", Message: "author account not found"}
	}

	if opt.FileHash == "" {
		sum := sha256.Sum256(opt.File)
		opt.FileHash = hex.EncodeToString(sum[:])
	}

	path := fmt.Sprintf("nfts/%s/%s", uuid.New(), opt.FileName)
	if err := u.fileStorageProvider.UploadFile(ctx, path, opt.File, opt.ContentType); err != nil {
		return Nft{}, fmt.Errorf("failed to upload artwork: %w", err)
	}
	publicURL, err := u.fileStorageProvider.GetPublicURL(ctx)
	if err != nil {
		return Nft{}, fmt.Errorf("failed to resolve public url: %w", err)
	}
	fileURL := publicURL + "/" + path

	mint, err := u.chainProvider.MintNft(ctx, opt.Author, fileURL)
	if err != nil {
		return Nft{}, ErrChain{Op: "mint", Err: err}
	}

	nft := Nft{
		NftID:       u.chainProvider.MinterAddress() + "-" + mint,
		Title:       opt.Title,
		Description: opt.Description,
		FileURL:     fileURL,
		FileHash:    opt.FileHash,
		Status:      StatusPrivate,
		AlbumID:     opt.AlbumID,
		Author:      opt.Author,
		Owners:      []OwnerShare{{Address: opt.Author, Share: fullShare}},
	}

	author.NftRefs = append(author.NftRefs, Ref{ID: nft.NftID, Share: fullShare})

	return u.repo.CreateNft(ctx, nft, author)
}

type ListNftForSaleOption struct {
	NftID      string
	Price      decimal.Decimal
	Currency   string
	Fractional bool
}

func (u Usecase) ListNftForSale(ctx context.Context, opt ListNftForSaleOption) (Nft, error) {
	nft, err := u.GetNftByID(ctx, opt.NftID)
	if err != nil {
		return Nft{}, err
	}

	nft.Status = StatusSale
	nft.Price = opt.Price
	nft.Currency = opt.Currency
	nft.Fractional = opt.Fractional

	return u.repo.UpdateNft(ctx, nft)
}

func (u Usecase) ListNftForDraw(ctx context.Context, id string) (Nft, error) {
	nft, err := u.GetNftByID(ctx, id)
	if err != nil {
		return Nft{}, err
	}

	nft.Status = StatusDraw

	return u.repo.UpdateNft(ctx, nft)
}

func (u Usecase) DelistNft(ctx context.Context, id string) (Nft, error) {
	nft, err := u.GetNftByID(ctx, id)
	if err != nil {
		return Nft{}, err
	}

	nft.Status = StatusPrivate

	return u.repo.UpdateNft(ctx, nft)
}

func (u Usecase) IncrementNftViews(ctx context.Context, id string) (int, error) {
	nft, err := u.GetNftByID(ctx, id)
	if err != nil {
		return 0, err
	}

	nft.Views++
	if _, err := u.repo.UpdateNft(ctx, nft); err != nil {
		return 0, err
	}
	return nft.Views, nil
}

func (u Usecase) EstimateMintFee(ctx context.Context) (uint64, error) {
	fee, err := u.chainProvider.EstimateMintFee(ctx)
	if err != nil {
		return 0, ErrChain{Op: "estimate mint fee", Err: err}
	}
	return fee, nil
}
