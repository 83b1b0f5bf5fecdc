package usecase

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// SettlementPayload is queued after a committed purchase; the worker pays
// the seller out on chain. A failed payout is reported, never rolled back
// into the already-committed ownership change.
type SettlementPayload struct {
	To       string          `json:"to"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	TargetID string          `json:"target_id"`
}

type PurchaseNftOption struct {
	NftID              string
	Buyer              string
	Commission         decimal.Decimal
	CommissionCurrency string
}

// PurchaseNft runs the full purchase sequence: validate, transfer the
// token on chain, resolve and persist the ownership transfer, reconcile
// the album if the NFT belongs to one, then queue the seller payout.
// Validation failures happen before any mutation or chain interaction.
func (u Usecase) PurchaseNft(ctx context.Context, opt PurchaseNftOption) error {
	nft, err := u.repo.GetNftByID(ctx, opt.NftID)
	if err != nil {
		return ErrNotFound{ID: opt.NftID, Code: "NFT_NOT_FOUND", Message: "nft not found"}
	}
	if nft.Status != StatusSale {
		return ErrNotForSale{TargetID: nft.NftID}
	}
	fullOwners := FullOwners(nft)
	if len(fullOwners) == 0 {
		return ErrNotForSale{TargetID: nft.NftID}
	}
	seller := fullOwners[0].Address
	if slices.ContainsFunc(fullOwners, func(o OwnerShare) bool { return o.Address == opt.Buyer }) {
		return ErrAlreadyOwner{Address: opt.Buyer, TargetID: nft.NftID}
	}

	if err := u.chainProvider.TransferOwnership(ctx, seller, opt.Buyer, mintOf(nft.NftID)); err != nil {
		return ErrChain{Op: "transfer ownership", Err: err}
	}

	ws, err := u.ResolveTransfer(ctx, TransferEvent{
		Kind:               KindPurchaseNft,
		Buyer:              opt.Buyer,
		Seller:             seller,
		TargetID:           nft.NftID,
		Price:              nft.Price,
		Currency:           nft.Currency,
		Commission:         opt.Commission,
		CommissionCurrency: opt.CommissionCurrency,
	}, true)
	if err != nil {
		return err
	}
	if err := u.repo.SaveWriteSet(ctx, ws); err != nil {
		return err
	}

	if nft.AlbumID != "" {
		if err := u.reconcileAlbum(ctx, nft.AlbumID, seller); err != nil {
			slog.Warn("album reconciliation failed",
				slog.String("album_id", nft.AlbumID),
				slog.String("nft_id", nft.NftID),
				slog.String("err", err.Error()))
		}
	}

	u.enqueueSettlement(ctx, SettlementPayload{
		To:       seller,
		Amount:   nft.Price,
		Currency: nft.Currency,
		TargetID: nft.NftID,
	})

	return nil
}

type FundNftOption struct {
	NftID              string
	Buyer              string
	Share              decimal.Decimal
	Commission         decimal.Decimal
	CommissionCurrency string
}

// FundNft acquires a fractional stake. The sum-of-shares invariant is
// enforced here, upstream of the ledger.
func (u Usecase) FundNft(ctx context.Context, opt FundNftOption) error {
	nft, err := u.repo.GetNftByID(ctx, opt.NftID)
	if err != nil {
		return ErrNotFound{ID: opt.NftID, Code: "NFT_NOT_FOUND", Message: "nft not found"}
	}
	if nft.Status != StatusSale || !nft.Fractional {
		return ErrNotForSale{TargetID: nft.NftID}
	}
	if !opt.Share.IsPositive() {
		return ErrInvalidShare{Message: "fund share must be positive"}
	}

	for _, o := range FullOwners(nft) {
		if o.Address == opt.Buyer {
			return ErrAlreadyOwner{Address: opt.Buyer, TargetID: nft.NftID}
		}
	}

	total := decimal.Zero
	for _, o := range nft.Owners {
		total = total.Add(o.Share)
	}
	if total.Add(opt.Share).GreaterThan(fullShare) {
		return ErrInvalidShare{Message: "fund share exceeds remaining ownership"}
	}

	// The first owner other than the buyer stands as seller; a funder
	// topping up their own stake is a self-transfer.
	seller := opt.Buyer
	for _, o := range nft.Owners {
		if o.Address != opt.Buyer {
			seller = o.Address
			break
		}
	}

	ws, err := u.ResolveTransfer(ctx, TransferEvent{
		Kind:               KindFundNft,
		Buyer:              opt.Buyer,
		Seller:             seller,
		TargetID:           nft.NftID,
		Share:              opt.Share,
		Price:              nft.Price.Mul(opt.Share),
		Currency:           nft.Currency,
		Commission:         opt.Commission,
		CommissionCurrency: opt.CommissionCurrency,
	}, true)
	if err != nil {
		return err
	}
	if err := u.repo.SaveWriteSet(ctx, ws); err != nil {
		return err
	}

	if nft.AlbumID != "" {
		if err := u.reconcileAlbum(ctx, nft.AlbumID, seller); err != nil {
			slog.Warn("album reconciliation failed",
				slog.String("album_id", nft.AlbumID),
				slog.String("nft_id", nft.NftID),
				slog.String("err", err.Error()))
		}
	}

	return nil
}

type DrawTransferOption struct {
	NftID              string
	Buyer              string
	Commission         decimal.Decimal
	CommissionCurrency string
}

// DrawNft records a draw outcome for a draw-listed NFT. The draw smart
// contract moves the token and the stakes on chain.
func (u Usecase) DrawNft(ctx context.Context, opt DrawTransferOption) error {
	return u.resolveDrawTransfer(ctx, KindDrawNft, opt)
}

// WinNft records a draw win, a full transfer to the winner.
func (u Usecase) WinNft(ctx context.Context, opt DrawTransferOption) error {
	return u.resolveDrawTransfer(ctx, KindWinNft, opt)
}

func (u Usecase) resolveDrawTransfer(ctx context.Context, kind TransferKind, opt DrawTransferOption) error {
	nft, err := u.repo.GetNftByID(ctx, opt.NftID)
	if err != nil {
		return ErrNotFound{ID: opt.NftID, Code: "NFT_NOT_FOUND", Message: "nft not found"}
	}
	if nft.Status != StatusDraw {
		return ErrNotForSale{TargetID: nft.NftID}
	}
	fullOwners := FullOwners(nft)
	if len(fullOwners) == 0 {
		return ErrNotForSale{TargetID: nft.NftID}
	}
	seller := fullOwners[0].Address
	if seller == opt.Buyer {
		return ErrAlreadyOwner{Address: opt.Buyer, TargetID: nft.NftID}
	}

	ws, err := u.ResolveTransfer(ctx, TransferEvent{
		Kind:               kind,
		Buyer:              opt.Buyer,
		Seller:             seller,
		TargetID:           nft.NftID,
		Price:              nft.Price,
		Currency:           nft.Currency,
		Commission:         opt.Commission,
		CommissionCurrency: opt.CommissionCurrency,
	}, true)
	if err != nil {
		return err
	}
	if err := u.repo.SaveWriteSet(ctx, ws); err != nil {
		return err
	}

	if nft.AlbumID != "" {
		if err := u.reconcileAlbum(ctx, nft.AlbumID, seller); err != nil {
			slog.Warn("album reconciliation failed",
				slog.String("album_id", nft.AlbumID),
				slog.String("nft_id", nft.NftID),
				slog.String("err", err.Error()))
		}
	}

	return nil
}

type PurchaseAlbumOption struct {
	AlbumID            string
	Buyer              string
	Commission         decimal.Decimal
	CommissionCurrency string
}

// PurchaseAlbum transfers every member token on chain, resolves a
// per-member ledger transfer without log entries, then resolves the
// album-level transfer with the single log entry. Reconciliation is not
// run; the album event is resolved directly.
func (u Usecase) PurchaseAlbum(ctx context.Context, opt PurchaseAlbumOption) error {
	album, err := u.repo.GetAlbumByID(ctx, opt.AlbumID)
	if err != nil {
		return ErrNotFound{ID: opt.AlbumID, Code: "ALBUM_NOT_FOUND", Message: "album not found"}
	}
	if album.Status != StatusSale {
		return ErrNotForSale{TargetID: album.AlbumID}
	}
	if album.Owner == opt.Buyer {
		return ErrAlreadyOwner{Address: opt.Buyer, TargetID: album.AlbumID}
	}

	nfts, err := u.GetAlbumNfts(ctx, album)
	if err != nil {
		return err
	}

	for _, nft := range nfts {
		owners := FullOwners(nft)
		if len(owners) == 0 || owners[0].Address == opt.Buyer {
			continue
		}
		if err := u.chainProvider.TransferOwnership(ctx, owners[0].Address, opt.Buyer, mintOf(nft.NftID)); err != nil {
			return ErrChain{Op: "transfer ownership", Err: err}
		}
	}

	for _, nft := range nfts {
		owners := FullOwners(nft)
		if len(owners) == 0 || owners[0].Address == opt.Buyer {
			continue
		}
		ws, err := u.ResolveTransfer(ctx, TransferEvent{
			Kind:     KindPurchaseNft,
			Buyer:    opt.Buyer,
			Seller:   owners[0].Address,
			TargetID: nft.NftID,
			Price:    nft.Price,
			Currency: nft.Currency,
		}, false)
		if err != nil {
			return err
		}
		if err := u.repo.SaveWriteSet(ctx, ws); err != nil {
			return err
		}
	}

	ws, err := u.ResolveTransfer(ctx, TransferEvent{
		Kind:               KindPurchaseAlbum,
		Buyer:              opt.Buyer,
		Seller:             album.Owner,
		TargetID:           album.AlbumID,
		Price:              album.Price,
		Currency:           album.Currency,
		Commission:         opt.Commission,
		CommissionCurrency: opt.CommissionCurrency,
	}, true)
	if err != nil {
		return err
	}
	if err := u.repo.SaveWriteSet(ctx, ws); err != nil {
		return err
	}

	u.enqueueSettlement(ctx, SettlementPayload{
		To:       album.Owner,
		Amount:   album.Price,
		Currency: album.Currency,
		TargetID: album.AlbumID,
	})

	return nil
}

// reconcileAlbum checks whether every member NFT has converged on a
// single unique full owner, and if so resolves the album-level transfer.
// It never re-triggers itself: the synthesized album event goes straight
// through the ledger.
func (u Usecase) reconcileAlbum(ctx context.Context, albumID, fallbackSeller string) error {
	album, err := u.repo.GetAlbumByID(ctx, albumID)
	if err != nil {
		return ErrNotFound{ID: albumID, Code: "ALBUM_NOT_FOUND", Message: "album not found"}
	}

	nfts, err := u.GetAlbumNfts(ctx, album)
	if err != nil {
		return err
	}

	owners := OwnersOf(nfts, true)
	if len(owners) != 1 {
		return nil
	}
	newOwner := owners[0]
	if album.Owner == newOwner {
		return nil
	}

	// An album without a settled owner has no seller account of its own;
	// the triggering transfer's seller stands in.
	seller := album.Owner
	if seller == "" {
		seller = fallbackSeller
	}

	ws, err := u.ResolveTransfer(ctx, TransferEvent{
		Kind:     KindPurchaseAlbum,
		Buyer:    newOwner,
		Seller:   seller,
		TargetID: album.AlbumID,
		Price:    album.Price,
		Currency: album.Currency,
	}, true)
	if err != nil {
		return err
	}

	return u.repo.SaveWriteSet(ctx, ws)
}

func (u Usecase) enqueueSettlement(ctx context.Context, payload SettlementPayload) {
	if u.queueClient == nil {
		return
	}
	if err := u.queueClient.EnqueueSettlement(ctx, payload); err != nil {
		slog.Error("failed to enqueue settlement",
			slog.String("to", payload.To),
			slog.String("target_id", payload.TargetID),
			slog.String("err", err.Error()))
	}
}

// ProcessSettlement pays the seller out on chain. Called by the queue
// worker after the ownership change is already committed.
func (u Usecase) ProcessSettlement(ctx context.Context, payload SettlementPayload) error {
	if err := u.chainProvider.TransferFunds(ctx, payload.To, payload.Amount); err != nil {
		return ErrChain{Op: "transfer funds", Err: err}
	}
	return nil
}

// mintOf extracts the on-chain mint address from a composite nft id,
// "<minter>-<mint>".
func mintOf(nftID string) string {
	if _, mint, ok := strings.Cut(nftID, "-"); ok {
		return mint
	}
	return nftID
}
