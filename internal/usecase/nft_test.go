package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	uploads map[string][]byte
}

func (f *fakeStorage) UploadFile(_ context.Context, path string, content []byte, _ string) error {
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	f.uploads[path] = content
	return nil
}

func (f *fakeStorage) GetPublicURL(_ context.Context) (string, error) {
	return "https://cdn.example.com/public", nil
}

func TestCreateNft(t *testing.T) {
	repo := newFakeRepo()
	repo.users["author"] = User{Address: "author"}

	storage := &fakeStorage{}
	uc := New(repo, &fakeChain{}, storage, nil, nil)

	nft, err := uc.CreateNft(context.Background(), CreateNftOption{
		Title:       "Sunset",
		Description: "oil on canvas",
		Author:      "author",
		File:        []byte("png bytes"),
		FileName:    "sunset.png",
		ContentType: "image/png",
	})
	require.NoError(t, err)

	// composite id: minter address and mint, dash separated
	assert.Equal(t, "minter-mint-author", nft.NftID)
	assert.Equal(t, StatusPrivate, nft.Status)
	assert.Equal(t, []OwnerShare{{Address: "author", Share: share("1")}}, nft.Owners)
	assert.NotEmpty(t, nft.FileHash)
	assert.True(t, strings.HasPrefix(nft.FileURL, "https://cdn.example.com/public/nfts/"))

	require.Len(t, storage.uploads, 1)

	author := repo.users["author"]
	require.Len(t, author.NftRefs, 1)
	assert.Equal(t, nft.NftID, author.NftRefs[0].ID)
}

func TestCreateNftTitleTaken(t *testing.T) {
	repo := newFakeRepo()
	repo.users["author"] = User{Address: "author"}
	repo.nfts["minter-x"] = Nft{NftID: "minter-x", Title: "Sunset"}

	uc := New(repo, &fakeChain{}, &fakeStorage{}, nil, nil)

	_, err := uc.CreateNft(context.Background(), CreateNftOption{
		Title:  "Sunset",
		Author: "author",
	})

	var conflict ErrConflict
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "NFT_TITLE_TAKEN", conflict.Code)
}

func TestListAndDelistNft(t *testing.T) {
	repo := newFakeRepo()
	repo.nfts["minter-abc"] = Nft{NftID: "minter-abc", Status: StatusPrivate}

	uc := New(repo, &fakeChain{}, nil, nil, nil)

	nft, err := uc.ListNftForSale(context.Background(), ListNftForSaleOption{
		NftID:      "minter-abc",
		Price:      share("2.5"),
		Currency:   "SOL",
		Fractional: true,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSale, nft.Status)
	assert.True(t, nft.Fractional)
	assert.True(t, nft.Price.Equal(share("2.5")))

	nft, err = uc.ListNftForDraw(context.Background(), "minter-abc")
	require.NoError(t, err)
	assert.Equal(t, StatusDraw, nft.Status)

	nft, err = uc.DelistNft(context.Background(), "minter-abc")
	require.NoError(t, err)
	assert.Equal(t, StatusPrivate, nft.Status)
}

func TestGetMarket(t *testing.T) {
	repo := newFakeRepo()
	repo.nfts["minter-a"] = Nft{NftID: "minter-a", Status: StatusSale}
	repo.nfts["minter-b"] = Nft{NftID: "minter-b", Status: StatusPrivate}
	repo.albums["album-1"] = Album{AlbumID: "album-1", Status: StatusSale}

	uc := New(repo, &fakeChain{}, nil, nil, nil)

	market, err := uc.GetMarket(context.Background(), GetMarketOption{})
	require.NoError(t, err)
	assert.Equal(t, []string{"minter-a"}, market.NftIDs)
	assert.Equal(t, []string{"album-1"}, market.AlbumIDs)
}

func TestIncrementNftViews(t *testing.T) {
	repo := newFakeRepo()
	repo.nfts["minter-abc"] = Nft{NftID: "minter-abc", Views: 2}

	uc := New(repo, &fakeChain{}, nil, nil, nil)

	views, err := uc.IncrementNftViews(context.Background(), "minter-abc")
	require.NoError(t, err)
	assert.Equal(t, 3, views)
	assert.Equal(t, 3, repo.nfts["minter-abc"].Views)
}
