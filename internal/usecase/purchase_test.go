package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sellableNft(id, owner string) Nft {
	return Nft{
		NftID:    id,
		Status:   StatusSale,
		Price:    share("2"),
		Currency: "SOL",
		Owners:   []OwnerShare{{Address: owner, Share: share("1")}},
	}
}

func TestPurchaseNft(t *testing.T) {
	repo := newFakeRepo()
	repo.users["seller"] = User{Address: "seller", NftRefs: []Ref{{ID: "minter-abc", Share: share("1")}}}
	repo.users["buyer"] = User{Address: "buyer"}
	repo.nfts["minter-abc"] = sellableNft("minter-abc", "seller")

	chain := &fakeChain{}
	queue := &fakeQueue{}
	uc := New(repo, chain, nil, nil, queue)

	err := uc.PurchaseNft(context.Background(), PurchaseNftOption{
		NftID: "minter-abc",
		Buyer: "buyer",
	})
	require.NoError(t, err)

	// chain transfer uses the mint part of the composite id
	require.Len(t, chain.transfers, 1)
	assert.Equal(t, transferCall{From: "seller", To: "buyer", Mint: "abc"}, chain.transfers[0])

	nft := repo.nfts["minter-abc"]
	assert.Equal(t, []OwnerShare{{Address: "buyer", Share: share("1")}}, nft.Owners)
	assert.Equal(t, StatusPrivate, nft.Status)

	assert.Empty(t, repo.users["seller"].NftRefs)
	require.Len(t, repo.users["buyer"].NftRefs, 1)

	require.Len(t, repo.txns, 1)
	assert.Equal(t, KindPurchaseNft, repo.txns[0].Kind)

	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "seller", queue.enqueued[0].To)
	assert.True(t, queue.enqueued[0].Amount.Equal(share("2")))
}

func TestPurchaseNftNotForSale(t *testing.T) {
	repo := newFakeRepo()
	repo.users["seller"] = User{Address: "seller"}
	repo.users["buyer"] = User{Address: "buyer"}
	nft := sellableNft("minter-abc", "seller")
	nft.Status = StatusPrivate
	repo.nfts["minter-abc"] = nft

	chain := &fakeChain{}
	uc := New(repo, chain, nil, nil, nil)

	err := uc.PurchaseNft(context.Background(), PurchaseNftOption{NftID: "minter-abc", Buyer: "buyer"})
	assert.ErrorAs(t, err, &ErrNotForSale{})

	// rejected before any chain interaction or mutation
	assert.Empty(t, chain.transfers)
	assert.Empty(t, repo.saved)
	assert.Equal(t, StatusPrivate, repo.nfts["minter-abc"].Status)
}

func TestPurchaseNftBuyerAlreadyOwner(t *testing.T) {
	repo := newFakeRepo()
	repo.users["buyer"] = User{Address: "buyer"}
	repo.nfts["minter-abc"] = sellableNft("minter-abc", "buyer")

	chain := &fakeChain{}
	uc := New(repo, chain, nil, nil, nil)

	err := uc.PurchaseNft(context.Background(), PurchaseNftOption{NftID: "minter-abc", Buyer: "buyer"})
	assert.ErrorAs(t, err, &ErrAlreadyOwner{})
	assert.Empty(t, chain.transfers)
	assert.Empty(t, repo.saved)
}

func TestPurchaseNftChainFailureAborts(t *testing.T) {
	repo := newFakeRepo()
	repo.users["seller"] = User{Address: "seller"}
	repo.users["buyer"] = User{Address: "buyer"}
	repo.nfts["minter-abc"] = sellableNft("minter-abc", "seller")

	chain := &fakeChain{transferErr: fmt.Errorf("rpc timeout")}
	queue := &fakeQueue{}
	uc := New(repo, chain, nil, nil, queue)

	err := uc.PurchaseNft(context.Background(), PurchaseNftOption{NftID: "minter-abc", Buyer: "buyer"})
	assert.ErrorAs(t, err, &ErrChain{})

	assert.Empty(t, repo.saved)
	assert.Empty(t, queue.enqueued)
	assert.Equal(t, StatusSale, repo.nfts["minter-abc"].Status)
}

func TestPurchaseNftSaveFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.users["seller"] = User{Address: "seller", NftRefs: []Ref{{ID: "minter-abc", Share: share("1")}}}
	repo.users["buyer"] = User{Address: "buyer"}
	repo.nfts["minter-abc"] = sellableNft("minter-abc", "seller")
	repo.saveErr = fmt.Errorf("connection reset by peer")

	queue := &fakeQueue{}
	uc := New(repo, &fakeChain{}, nil, nil, queue)

	err := uc.PurchaseNft(context.Background(), PurchaseNftOption{NftID: "minter-abc", Buyer: "buyer"})

	// the persistence error surfaces unchanged so callers can retry
	require.ErrorIs(t, err, repo.saveErr)

	// nothing committed, so no payout may be queued
	assert.Empty(t, queue.enqueued)
	assert.Empty(t, repo.txns)
	assert.Equal(t, StatusSale, repo.nfts["minter-abc"].Status)
	require.Len(t, repo.users["seller"].NftRefs, 1)
}

func TestPurchaseNftReconcilesAlbum(t *testing.T) {
	repo := newFakeRepo()
	repo.users["seller"] = User{Address: "seller", NftRefs: []Ref{{ID: "minter-b", Share: share("1")}}}
	repo.users["buyer"] = User{Address: "buyer", NftRefs: []Ref{{ID: "minter-a", Share: share("1")}}}
	repo.albums["album-1"] = Album{
		AlbumID:  "album-1",
		NftIDs:   []string{"minter-a", "minter-b"},
		Owner:    "seller",
		Price:    share("5"),
		Currency: "SOL",
	}

	a := sellableNft("minter-a", "buyer")
	a.AlbumID = "album-1"
	b := sellableNft("minter-b", "seller")
	b.AlbumID = "album-1"
	repo.nfts["minter-a"] = a
	repo.nfts["minter-b"] = b

	uc := New(repo, &fakeChain{}, nil, nil, &fakeQueue{})

	err := uc.PurchaseNft(context.Background(), PurchaseNftOption{NftID: "minter-b", Buyer: "buyer"})
	require.NoError(t, err)

	// buyer is now the unique full owner of every member, so the album
	// follows in the same operation
	album := repo.albums["album-1"]
	assert.Equal(t, "buyer", album.Owner)
	assert.Equal(t, StatusPrivate, album.Status)

	require.Len(t, repo.txns, 2)
	assert.Equal(t, KindPurchaseNft, repo.txns[0].Kind)
	assert.Equal(t, KindPurchaseAlbum, repo.txns[1].Kind)
	assert.Equal(t, "album-1", repo.txns[1].TargetID)

	require.Len(t, repo.users["buyer"].AlbumRefs, 1)
}

func TestPurchaseNftNoReconcileWithDivergentOwners(t *testing.T) {
	repo := newFakeRepo()
	repo.users["seller"] = User{Address: "seller"}
	repo.users["buyer"] = User{Address: "buyer"}
	repo.users["other"] = User{Address: "other"}
	repo.albums["album-1"] = Album{
		AlbumID: "album-1",
		NftIDs:  []string{"minter-a", "minter-b"},
		Owner:   "seller",
	}

	a := sellableNft("minter-a", "other")
	a.AlbumID = "album-1"
	b := sellableNft("minter-b", "seller")
	b.AlbumID = "album-1"
	repo.nfts["minter-a"] = a
	repo.nfts["minter-b"] = b

	uc := New(repo, &fakeChain{}, nil, nil, nil)

	err := uc.PurchaseNft(context.Background(), PurchaseNftOption{NftID: "minter-b", Buyer: "buyer"})
	require.NoError(t, err)

	assert.Equal(t, "seller", repo.albums["album-1"].Owner)
	require.Len(t, repo.txns, 1)
}

func TestFundNft(t *testing.T) {
	repo := newFakeRepo()
	repo.users["seller"] = User{Address: "seller", NftRefs: []Ref{{ID: "minter-abc", Share: share("1")}}}
	repo.users["buyer"] = User{Address: "buyer"}
	nft := Nft{
		NftID:      "minter-abc",
		Status:     StatusSale,
		Fractional: true,
		Price:      share("10"),
		Currency:   "SOL",
		Owners:     []OwnerShare{{Address: "seller", Share: share("0.5")}},
	}
	repo.nfts["minter-abc"] = nft

	chain := &fakeChain{}
	uc := New(repo, chain, nil, nil, nil)

	err := uc.FundNft(context.Background(), FundNftOption{
		NftID: "minter-abc",
		Buyer: "buyer",
		Share: share("0.3"),
	})
	require.NoError(t, err)

	// funding is a ledger operation, the token stays where it is
	assert.Empty(t, chain.transfers)

	got := repo.nfts["minter-abc"]
	require.Len(t, got.Owners, 2)
	assert.True(t, got.Owners[1].Share.Equal(share("0.3")))

	require.Len(t, repo.txns, 1)
	assert.Equal(t, KindFundNft, repo.txns[0].Kind)
	assert.True(t, repo.txns[0].Price.Equal(share("3")), "price is share-proportional")
}

func TestFundNftShareExceedsRemainder(t *testing.T) {
	repo := newFakeRepo()
	repo.users["seller"] = User{Address: "seller"}
	repo.users["buyer"] = User{Address: "buyer"}
	repo.nfts["minter-abc"] = Nft{
		NftID:      "minter-abc",
		Status:     StatusSale,
		Fractional: true,
		Owners: []OwnerShare{
			{Address: "seller", Share: share("0.5")},
			{Address: "funder", Share: share("0.3")},
		},
	}

	uc := New(repo, &fakeChain{}, nil, nil, nil)

	err := uc.FundNft(context.Background(), FundNftOption{
		NftID: "minter-abc",
		Buyer: "buyer",
		Share: share("0.21"),
	})
	assert.ErrorAs(t, err, &ErrInvalidShare{})
	assert.Empty(t, repo.saved)

	// the exact remainder is still fundable
	err = uc.FundNft(context.Background(), FundNftOption{
		NftID: "minter-abc",
		Buyer: "buyer",
		Share: share("0.2"),
	})
	require.NoError(t, err)
}

func TestFundNftSelfTopUpKeepsRef(t *testing.T) {
	repo := newFakeRepo()
	repo.users["fred"] = User{Address: "fred", NftRefs: []Ref{{ID: "minter-abc", Share: share("0.5")}}}
	repo.nfts["minter-abc"] = Nft{
		NftID:      "minter-abc",
		Status:     StatusSale,
		Fractional: true,
		Price:      share("10"),
		Currency:   "SOL",
		Owners:     []OwnerShare{{Address: "fred", Share: share("0.5")}},
	}

	uc := New(repo, &fakeChain{}, nil, nil, nil)

	err := uc.FundNft(context.Background(), FundNftOption{
		NftID: "minter-abc",
		Buyer: "fred",
		Share: share("0.3"),
	})
	require.NoError(t, err)

	got := repo.nfts["minter-abc"]
	require.Len(t, got.Owners, 1)
	assert.True(t, got.Owners[0].Share.Equal(share("0.8")))

	// the account still owns a stake, so its reference list must agree
	fred := repo.users["fred"]
	require.Len(t, fred.NftRefs, 1)
	assert.Equal(t, "minter-abc", fred.NftRefs[0].ID)
	assert.True(t, fred.NftRefs[0].Share.Equal(share("0.8")))
}

func TestFundNftRejectsNonFractional(t *testing.T) {
	repo := newFakeRepo()
	repo.users["seller"] = User{Address: "seller"}
	repo.users["buyer"] = User{Address: "buyer"}
	repo.nfts["minter-abc"] = sellableNft("minter-abc", "seller")

	uc := New(repo, &fakeChain{}, nil, nil, nil)

	err := uc.FundNft(context.Background(), FundNftOption{
		NftID: "minter-abc",
		Buyer: "buyer",
		Share: share("0.1"),
	})
	assert.ErrorAs(t, err, &ErrNotForSale{})
}

func TestFundNftRejectsFullOwner(t *testing.T) {
	repo := newFakeRepo()
	repo.users["buyer"] = User{Address: "buyer"}
	nft := sellableNft("minter-abc", "buyer")
	nft.Fractional = true
	nft.Owners = []OwnerShare{{Address: "buyer", Share: share("1")}}
	repo.nfts["minter-abc"] = nft

	uc := New(repo, &fakeChain{}, nil, nil, nil)

	err := uc.FundNft(context.Background(), FundNftOption{
		NftID: "minter-abc",
		Buyer: "buyer",
		Share: share("0.1"),
	})
	assert.ErrorAs(t, err, &ErrAlreadyOwner{})
}

func TestDrawAndWinRequireDrawStatus(t *testing.T) {
	repo := newFakeRepo()
	repo.users["seller"] = User{Address: "seller"}
	repo.users["buyer"] = User{Address: "buyer"}
	repo.nfts["minter-abc"] = sellableNft("minter-abc", "seller")

	uc := New(repo, &fakeChain{}, nil, nil, nil)

	err := uc.DrawNft(context.Background(), DrawTransferOption{NftID: "minter-abc", Buyer: "buyer"})
	assert.ErrorAs(t, err, &ErrNotForSale{})

	err = uc.WinNft(context.Background(), DrawTransferOption{NftID: "minter-abc", Buyer: "buyer"})
	assert.ErrorAs(t, err, &ErrNotForSale{})
}

func TestWinNft(t *testing.T) {
	repo := newFakeRepo()
	repo.users["seller"] = User{Address: "seller", NftRefs: []Ref{{ID: "minter-abc", Share: share("1")}}}
	repo.users["buyer"] = User{Address: "buyer"}
	nft := sellableNft("minter-abc", "seller")
	nft.Status = StatusDraw
	repo.nfts["minter-abc"] = nft

	chain := &fakeChain{}
	uc := New(repo, chain, nil, nil, nil)

	err := uc.WinNft(context.Background(), DrawTransferOption{NftID: "minter-abc", Buyer: "buyer"})
	require.NoError(t, err)

	// the draw contract already moved the token on chain
	assert.Empty(t, chain.transfers)

	got := repo.nfts["minter-abc"]
	assert.Equal(t, []OwnerShare{{Address: "buyer", Share: share("1")}}, got.Owners)
	require.Len(t, repo.txns, 1)
	assert.Equal(t, KindWinNft, repo.txns[0].Kind)
}

func TestPurchaseAlbum(t *testing.T) {
	repo := newFakeRepo()
	repo.users["seller"] = User{
		Address:   "seller",
		NftRefs:   []Ref{{ID: "minter-a", Share: share("1")}, {ID: "minter-b", Share: share("1")}},
		AlbumRefs: []Ref{{ID: "album-1", Share: share("1")}},
	}
	repo.users["buyer"] = User{Address: "buyer"}
	repo.albums["album-1"] = Album{
		AlbumID:  "album-1",
		NftIDs:   []string{"minter-a", "minter-b"},
		Owner:    "seller",
		Status:   StatusSale,
		Price:    share("8"),
		Currency: "SOL",
	}

	a := sellableNft("minter-a", "seller")
	a.AlbumID = "album-1"
	b := sellableNft("minter-b", "seller")
	b.AlbumID = "album-1"
	repo.nfts["minter-a"] = a
	repo.nfts["minter-b"] = b

	chain := &fakeChain{}
	queue := &fakeQueue{}
	uc := New(repo, chain, nil, nil, queue)

	err := uc.PurchaseAlbum(context.Background(), PurchaseAlbumOption{AlbumID: "album-1", Buyer: "buyer"})
	require.NoError(t, err)

	require.Len(t, chain.transfers, 2)

	for _, id := range []string{"minter-a", "minter-b"} {
		got := repo.nfts[id]
		assert.Equal(t, []OwnerShare{{Address: "buyer", Share: share("1")}}, got.Owners)
	}
	assert.Equal(t, "buyer", repo.albums["album-1"].Owner)

	// one log entry for the whole album, none per member
	require.Len(t, repo.txns, 1)
	assert.Equal(t, KindPurchaseAlbum, repo.txns[0].Kind)
	assert.Equal(t, "album-1", repo.txns[0].TargetID)

	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "seller", queue.enqueued[0].To)
	assert.True(t, queue.enqueued[0].Amount.Equal(share("8")))
}

func TestPurchaseAlbumNotForSale(t *testing.T) {
	repo := newFakeRepo()
	repo.users["buyer"] = User{Address: "buyer"}
	repo.albums["album-1"] = Album{AlbumID: "album-1", Owner: "seller", Status: StatusPrivate}

	uc := New(repo, &fakeChain{}, nil, nil, nil)

	err := uc.PurchaseAlbum(context.Background(), PurchaseAlbumOption{AlbumID: "album-1", Buyer: "buyer"})
	assert.ErrorAs(t, err, &ErrNotForSale{})
}

func TestProcessSettlement(t *testing.T) {
	chain := &fakeChain{}
	uc := New(newFakeRepo(), chain, nil, nil, nil)

	payload := SettlementPayload{To: "seller", Amount: share("2"), Currency: "SOL", TargetID: "minter-abc"}
	require.NoError(t, uc.ProcessSettlement(context.Background(), payload))
	require.Len(t, chain.payouts, 1)
	assert.Equal(t, "seller", chain.payouts[0].To)

	chain.fundsErr = fmt.Errorf("insufficient funds")
	err := uc.ProcessSettlement(context.Background(), payload)
	assert.ErrorAs(t, err, &ErrChain{})
}
