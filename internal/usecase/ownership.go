package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var fullShare = decimal.NewFromInt(1)

// Status is the sale lifecycle shared by NFTs and albums.
type Status string

const (
	StatusPrivate Status = "private"
	StatusSale    Status = "sale"
	StatusDraw    Status = "draw"
)

// OwnerShare is one entry of an NFT's ownership set. A share of 1 means
// sole ownership and excludes any other entry; shares below 1 are
// fractional funder stakes.
type OwnerShare struct {
	Address string          `json:"address"`
	Share   decimal.Decimal `json:"share"`
}

// Ref is an account-side mirror of a (partially) owned NFT or album.
type Ref struct {
	ID    string          `json:"id"`
	Share decimal.Decimal `json:"share"`
}

type TransferKind string

const (
	KindPurchaseNft   TransferKind = "purchase-nft"
	KindPurchaseAlbum TransferKind = "purchase-album"
	KindFundNft       TransferKind = "fund-nft"
	KindDrawNft       TransferKind = "draw-nft"
	KindWinNft        TransferKind = "win-nft"
)

// RefTarget selects which of an account's reference lists a transfer
// touches.
type RefTarget int

const (
	TargetNft RefTarget = iota + 1
	TargetAlbum
)

func (k TransferKind) Target() RefTarget {
	if k == KindPurchaseAlbum {
		return TargetAlbum
	}
	return TargetNft
}

// TransferEvent describes one purchase, funding contribution, draw or win
// outcome. Price, currency and commission fields are carried into the
// transaction log untouched.
type TransferEvent struct {
	Kind               TransferKind
	Buyer              string
	Seller             string
	TargetID           string
	Share              decimal.Decimal // fund-nft only
	Price              decimal.Decimal
	Currency           string
	Commission         decimal.Decimal
	CommissionCurrency string
}

// WriteSet is the group of records a resolved transfer mutated. It must
// be persisted all-or-nothing; Repository.SaveWriteSet provides that.
type WriteSet struct {
	Nft    *Nft
	Album  *Album
	Buyer  *User
	Seller *User
	Txn    *Transaction
}

// FullOwners returns the entries holding a full share. Given the
// ownership invariant there is at most one.
func FullOwners(n Nft) []OwnerShare {
	var owners []OwnerShare
	for _, o := range n.Owners {
		if o.Share.Equal(fullShare) {
			owners = append(owners, o)
		}
	}
	return owners
}

// Funders returns the fractional entries, shares below 1.
func Funders(n Nft) []OwnerShare {
	var funders []OwnerShare
	for _, o := range n.Owners {
		if !o.Share.Equal(fullShare) {
			funders = append(funders, o)
		}
	}
	return funders
}

// OwnersOf returns the full-owner addresses across nfts in first-seen
// order. With unique set, duplicates are dropped.
func OwnersOf(nfts []Nft, unique bool) []string {
	var addrs []string
	seen := map[string]bool{}
	for _, n := range nfts {
		for _, o := range FullOwners(n) {
			if unique {
				if seen[o.Address] {
					continue
				}
				seen[o.Address] = true
			}
			addrs = append(addrs, o.Address)
		}
	}
	return addrs
}

func refsFor(u *User, t RefTarget) *[]Ref {
	switch t {
	case TargetAlbum:
		return &u.AlbumRefs
	default:
		return &u.NftRefs
	}
}

func hasRef(refs []Ref, id string) bool {
	for _, r := range refs {
		if r.ID == id {
			return true
		}
	}
	return false
}

func setRefShare(refs []Ref, id string, share decimal.Decimal) {
	for i := range refs {
		if refs[i].ID == id {
			refs[i].Share = share
			return
		}
	}
}

func removeRef(refs []Ref, id string) []Ref {
	for i, r := range refs {
		if r.ID == id {
			return append(refs[:i], refs[i+1:]...)
		}
	}
	return refs
}

// ResolveTransfer applies ev to in-memory copies of the involved records
// and returns the write set to persist. Nothing is saved here; callers
// hand the result to Repository.SaveWriteSet. With recordTransaction a
// log entry is included in the set.
//
// The sum-of-shares invariant is a caller precondition for fund events;
// it is not re-validated here.
func (u Usecase) ResolveTransfer(ctx context.Context, ev TransferEvent, recordTransaction bool) (WriteSet, error) {
	if ev.Kind == KindFundNft && !ev.Share.IsPositive() {
		return WriteSet{}, ErrInvalidShare{Message: fmt.Sprintf("fund share %s must be positive", ev.Share)}
	}

	buyer, err := u.repo.GetUserByAddress(ctx, ev.Buyer)
	if err != nil {
		return WriteSet{}, ErrNotFound{ID: ev.Buyer, Code: "USER_NOT_FOUND", Message: "buyer account not found"}
	}

	target := ev.Kind.Target()

	// Buyer-side add is idempotent; a fund event corrects the share to
	// the buyer's resulting stake below.
	buyerRefs := refsFor(&buyer, target)
	if !hasRef(*buyerRefs, ev.TargetID) {
		*buyerRefs = append(*buyerRefs, Ref{ID: ev.TargetID, Share: fullShare})
	}

	ws := WriteSet{Buyer: &buyer}

	// The seller relinquishes their listed reference in full, even on a
	// partial transfer. A self-transfer (a funder topping up their own
	// stake) has no relinquishing side; loading the account a second
	// time would let the stale copy clobber the buyer-side update.
	if ev.Seller != ev.Buyer {
		seller, err := u.repo.GetUserByAddress(ctx, ev.Seller)
		if err != nil {
			return WriteSet{}, ErrNotFound{ID: ev.Seller, Code: "USER_NOT_FOUND", Message: "seller account not found"}
		}
		sellerRefs := refsFor(&seller, target)
		*sellerRefs = removeRef(*sellerRefs, ev.TargetID)
		ws.Seller = &seller
	}

	switch target {
	case TargetAlbum:
		album, err := u.repo.GetAlbumByID(ctx, ev.TargetID)
		if err != nil {
			return WriteSet{}, ErrNotFound{ID: ev.TargetID, Code: "ALBUM_NOT_FOUND", Message: "album not found"}
		}
		album.Owner = ev.Buyer
		album.Status = StatusPrivate
		ws.Album = &album

	case TargetNft:
		nft, err := u.repo.GetNftByID(ctx, ev.TargetID)
		if err != nil {
			return WriteSet{}, ErrNotFound{ID: ev.TargetID, Code: "NFT_NOT_FOUND", Message: "nft not found"}
		}

		if ev.Kind == KindFundNft {
			funded := false
			for i := range nft.Owners {
				if nft.Owners[i].Address == ev.Buyer {
					nft.Owners[i].Share = nft.Owners[i].Share.Add(ev.Share)
					setRefShare(*buyerRefs, ev.TargetID, nft.Owners[i].Share)
					funded = true
					break
				}
			}
			if !funded {
				nft.Owners = append(nft.Owners, OwnerShare{Address: ev.Buyer, Share: ev.Share})
				setRefShare(*buyerRefs, ev.TargetID, ev.Share)
			}
		} else {
			// Full transfer discards any prior fractional funders.
			nft.Owners = []OwnerShare{{Address: ev.Buyer, Share: fullShare}}
		}

		nft.Status = StatusPrivate
		ws.Nft = &nft
	}

	if recordTransaction {
		ws.Txn = &Transaction{
			Kind:               ev.Kind,
			Buyer:              ev.Buyer,
			Seller:             ev.Seller,
			TargetID:           ev.TargetID,
			Price:              ev.Price,
			Currency:           ev.Currency,
			Commission:         ev.Commission,
			CommissionCurrency: ev.CommissionCurrency,
			CreatedAt:          time.Now(),
		}
	}

	return ws, nil
}
