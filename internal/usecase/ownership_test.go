package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo is an in-memory Repository. SaveWriteSet applies the set to
// the maps so follow-up reads observe the committed state.
type fakeRepo struct {
	users  map[string]User
	nfts   map[string]Nft
	albums map[string]Album
	txns   []Transaction
	saved  []WriteSet

	saveErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:  map[string]User{},
		nfts:   map[string]Nft{},
		albums: map[string]Album{},
	}
}

func (f *fakeRepo) Health() map[string]string { return map[string]string{"status": "up"} }
func (f *fakeRepo) Close() error              { return nil }

func (f *fakeRepo) GetNftByID(_ context.Context, id string) (Nft, error) {
	n, ok := f.nfts[id]
	if !ok {
		return Nft{}, fmt.Errorf("not found")
	}
	return n, nil
}

func (f *fakeRepo) ListNfts(_ context.Context, opt ListNftsOption) ([]Nft, int, error) {
	var out []Nft
	for _, n := range f.nfts {
		if opt.Status != "" && n.Status != opt.Status {
			continue
		}
		out = append(out, n)
	}
	return out, len(out), nil
}

func (f *fakeRepo) CreateNft(_ context.Context, n Nft, u User) (Nft, error) {
	f.nfts[n.NftID] = n
	f.users[u.Address] = u
	return n, nil
}

func (f *fakeRepo) UpdateNft(_ context.Context, n Nft) (Nft, error) {
	f.nfts[n.NftID] = n
	return n, nil
}

func (f *fakeRepo) NftTitleExists(_ context.Context, title string) (bool, error) {
	for _, n := range f.nfts {
		if n.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) GetAlbumByID(_ context.Context, id string) (Album, error) {
	a, ok := f.albums[id]
	if !ok {
		return Album{}, fmt.Errorf("not found")
	}
	return a, nil
}

func (f *fakeRepo) ListAlbums(_ context.Context, opt ListAlbumsOption) ([]Album, int, error) {
	var out []Album
	for _, a := range f.albums {
		if opt.Status != "" && a.Status != opt.Status {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (f *fakeRepo) CreateAlbum(_ context.Context, a Album, u User) (Album, error) {
	f.albums[a.AlbumID] = a
	f.users[u.Address] = u
	return a, nil
}

func (f *fakeRepo) UpdateAlbum(_ context.Context, a Album) (Album, error) {
	f.albums[a.AlbumID] = a
	return a, nil
}

func (f *fakeRepo) GetUserByAddress(_ context.Context, address string) (User, error) {
	u, ok := f.users[address]
	if !ok {
		return User{}, fmt.Errorf("not found")
	}
	return u, nil
}

func (f *fakeRepo) CreateUser(_ context.Context, u User) (User, error) {
	f.users[u.Address] = u
	return u, nil
}

func (f *fakeRepo) UpdateUser(_ context.Context, u User) (User, error) {
	f.users[u.Address] = u
	return u, nil
}

func (f *fakeRepo) ListTransactions(_ context.Context, opt ListTransactionsOption) ([]Transaction, int, error) {
	return f.txns, len(f.txns), nil
}

func (f *fakeRepo) SaveWriteSet(_ context.Context, ws WriteSet) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, ws)
	if ws.Nft != nil {
		f.nfts[ws.Nft.NftID] = *ws.Nft
	}
	if ws.Album != nil {
		f.albums[ws.Album.AlbumID] = *ws.Album
	}
	if ws.Buyer != nil {
		f.users[ws.Buyer.Address] = *ws.Buyer
	}
	if ws.Seller != nil {
		f.users[ws.Seller.Address] = *ws.Seller
	}
	if ws.Txn != nil {
		f.txns = append(f.txns, *ws.Txn)
	}
	return nil
}

type transferCall struct {
	From, To, Mint string
}

type fakeChain struct {
	transfers   []transferCall
	payouts     []SettlementPayload
	transferErr error
	fundsErr    error
}

func (f *fakeChain) MinterAddress() string { return "minter" }

func (f *fakeChain) MintNft(_ context.Context, owner, metadataURL string) (string, error) {
	return "mint-" + owner, nil
}

func (f *fakeChain) TransferOwnership(_ context.Context, from, to, mint string) error {
	if f.transferErr != nil {
		return f.transferErr
	}
	f.transfers = append(f.transfers, transferCall{From: from, To: to, Mint: mint})
	return nil
}

func (f *fakeChain) TransferFunds(_ context.Context, to string, amount decimal.Decimal) error {
	if f.fundsErr != nil {
		return f.fundsErr
	}
	f.payouts = append(f.payouts, SettlementPayload{To: to, Amount: amount})
	return nil
}

func (f *fakeChain) EstimateMintFee(_ context.Context) (uint64, error) { return 1461600, nil }

type fakeQueue struct {
	enqueued []SettlementPayload
	err      error
}

func (f *fakeQueue) EnqueueSettlement(_ context.Context, payload SettlementPayload) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, payload)
	return nil
}

func share(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestFullOwnersAndFundersPartition(t *testing.T) {
	nft := Nft{Owners: []OwnerShare{
		{Address: "alice", Share: share("0.6")},
		{Address: "bob", Share: share("1")},
		{Address: "carol", Share: share("0.4")},
	}}

	full := FullOwners(nft)
	require.Len(t, full, 1)
	assert.Equal(t, "bob", full[0].Address)

	funders := Funders(nft)
	require.Len(t, funders, 2)
	assert.Equal(t, "alice", funders[0].Address)
	assert.Equal(t, "carol", funders[1].Address)
}

func TestOwnersOf(t *testing.T) {
	nfts := []Nft{
		{Owners: []OwnerShare{{Address: "alice", Share: share("1")}}},
		{Owners: []OwnerShare{{Address: "bob", Share: share("1")}}},
		{Owners: []OwnerShare{{Address: "alice", Share: share("1")}}},
		{Owners: []OwnerShare{{Address: "carol", Share: share("0.5")}}},
	}

	assert.Equal(t, []string{"alice", "bob", "alice"}, OwnersOf(nfts, false))
	assert.Equal(t, []string{"alice", "bob"}, OwnersOf(nfts, true))
	assert.Empty(t, OwnersOf(nil, true))
}

func TestTransferKindTarget(t *testing.T) {
	assert.Equal(t, TargetAlbum, KindPurchaseAlbum.Target())
	for _, k := range []TransferKind{KindPurchaseNft, KindFundNft, KindDrawNft, KindWinNft} {
		assert.Equal(t, TargetNft, k.Target())
	}
}

func TestResolveTransferFullPurchase(t *testing.T) {
	repo := newFakeRepo()
	repo.users["seller"] = User{Address: "seller", NftRefs: []Ref{{ID: "minter-abc", Share: share("1")}}}
	repo.users["buyer"] = User{Address: "buyer"}
	repo.nfts["minter-abc"] = Nft{
		NftID:  "minter-abc",
		Status: StatusSale,
		Owners: []OwnerShare{
			{Address: "seller", Share: share("0.7")},
			{Address: "funder", Share: share("0.3")},
		},
	}
	uc := New(repo, &fakeChain{}, nil, nil, nil)

	ws, err := uc.ResolveTransfer(context.Background(), TransferEvent{
		Kind:     KindPurchaseNft,
		Buyer:    "buyer",
		Seller:   "seller",
		TargetID: "minter-abc",
		Price:    share("2.5"),
		Currency: "SOL",
	}, true)
	require.NoError(t, err)

	require.NotNil(t, ws.Nft)
	assert.Equal(t, []OwnerShare{{Address: "buyer", Share: share("1")}}, ws.Nft.Owners)
	assert.Equal(t, StatusPrivate, ws.Nft.Status)

	require.NotNil(t, ws.Buyer)
	require.Len(t, ws.Buyer.NftRefs, 1)
	assert.Equal(t, "minter-abc", ws.Buyer.NftRefs[0].ID)

	require.NotNil(t, ws.Seller)
	assert.Empty(t, ws.Seller.NftRefs)

	require.NotNil(t, ws.Txn)
	assert.Equal(t, KindPurchaseNft, ws.Txn.Kind)
	assert.True(t, ws.Txn.Price.Equal(share("2.5")))
}

func TestResolveTransferBuyerRefIdempotent(t *testing.T) {
	repo := newFakeRepo()
	repo.users["seller"] = User{Address: "seller"}
	repo.users["buyer"] = User{Address: "buyer", NftRefs: []Ref{{ID: "minter-abc", Share: share("0.2")}}}
	repo.nfts["minter-abc"] = Nft{
		NftID:  "minter-abc",
		Status: StatusSale,
		Owners: []OwnerShare{{Address: "seller", Share: share("1")}},
	}
	uc := New(repo, &fakeChain{}, nil, nil, nil)

	ws, err := uc.ResolveTransfer(context.Background(), TransferEvent{
		Kind:     KindPurchaseNft,
		Buyer:    "buyer",
		Seller:   "seller",
		TargetID: "minter-abc",
	}, false)
	require.NoError(t, err)

	require.Len(t, ws.Buyer.NftRefs, 1)
	assert.Nil(t, ws.Txn)
}

func TestResolveTransferFund(t *testing.T) {
	repo := newFakeRepo()
	repo.users["seller"] = User{Address: "seller"}
	repo.users["buyer"] = User{Address: "buyer"}
	repo.nfts["minter-abc"] = Nft{
		NftID:      "minter-abc",
		Status:     StatusSale,
		Fractional: true,
		Owners:     []OwnerShare{{Address: "seller", Share: share("0.5")}},
	}
	uc := New(repo, &fakeChain{}, nil, nil, nil)

	// first stake appends a new entry
	ws, err := uc.ResolveTransfer(context.Background(), TransferEvent{
		Kind:     KindFundNft,
		Buyer:    "buyer",
		Seller:   "seller",
		TargetID: "minter-abc",
		Share:    share("0.2"),
	}, true)
	require.NoError(t, err)

	require.Len(t, ws.Nft.Owners, 2)
	assert.Equal(t, "buyer", ws.Nft.Owners[1].Address)
	assert.True(t, ws.Nft.Owners[1].Share.Equal(share("0.2")))
	require.Len(t, ws.Buyer.NftRefs, 1)
	assert.True(t, ws.Buyer.NftRefs[0].Share.Equal(share("0.2")))

	require.NoError(t, repo.SaveWriteSet(context.Background(), ws))

	// second stake increments the existing entry and corrects the ref
	ws, err = uc.ResolveTransfer(context.Background(), TransferEvent{
		Kind:     KindFundNft,
		Buyer:    "buyer",
		Seller:   "seller",
		TargetID: "minter-abc",
		Share:    share("0.1"),
	}, true)
	require.NoError(t, err)

	require.Len(t, ws.Nft.Owners, 2)
	assert.True(t, ws.Nft.Owners[1].Share.Equal(share("0.3")))
	require.Len(t, ws.Buyer.NftRefs, 1)
	assert.True(t, ws.Buyer.NftRefs[0].Share.Equal(share("0.3")))
}

func TestResolveTransferFundShareMustBePositive(t *testing.T) {
	uc := New(newFakeRepo(), &fakeChain{}, nil, nil, nil)

	for _, s := range []string{"0", "-0.1"} {
		_, err := uc.ResolveTransfer(context.Background(), TransferEvent{
			Kind:     KindFundNft,
			Buyer:    "buyer",
			Seller:   "seller",
			TargetID: "minter-abc",
			Share:    share(s),
		}, false)
		assert.ErrorAs(t, err, &ErrInvalidShare{})
	}
}

func TestResolveTransferUnknownAccounts(t *testing.T) {
	repo := newFakeRepo()
	repo.users["seller"] = User{Address: "seller"}
	uc := New(repo, &fakeChain{}, nil, nil, nil)

	_, err := uc.ResolveTransfer(context.Background(), TransferEvent{
		Kind:     KindPurchaseNft,
		Buyer:    "ghost",
		Seller:   "seller",
		TargetID: "minter-abc",
	}, false)

	var notFound ErrNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "USER_NOT_FOUND", notFound.Code)
	assert.Equal(t, "ghost", notFound.ID)
}

func TestResolveTransferAlbumTarget(t *testing.T) {
	repo := newFakeRepo()
	repo.users["seller"] = User{Address: "seller", AlbumRefs: []Ref{{ID: "album-1", Share: share("1")}}}
	repo.users["buyer"] = User{Address: "buyer"}
	repo.albums["album-1"] = Album{AlbumID: "album-1", Owner: "seller", Status: StatusSale}
	uc := New(repo, &fakeChain{}, nil, nil, nil)

	ws, err := uc.ResolveTransfer(context.Background(), TransferEvent{
		Kind:     KindPurchaseAlbum,
		Buyer:    "buyer",
		Seller:   "seller",
		TargetID: "album-1",
	}, true)
	require.NoError(t, err)

	assert.Nil(t, ws.Nft)
	require.NotNil(t, ws.Album)
	assert.Equal(t, "buyer", ws.Album.Owner)
	assert.Equal(t, StatusPrivate, ws.Album.Status)

	// album transfers touch the album reference lists, not the nft ones
	require.Len(t, ws.Buyer.AlbumRefs, 1)
	assert.Empty(t, ws.Buyer.NftRefs)
	assert.Empty(t, ws.Seller.AlbumRefs)
}

func TestMintOf(t *testing.T) {
	assert.Equal(t, "abc", mintOf("minter-abc"))
	assert.Equal(t, "plain", mintOf("plain"))
}
