package server

import (
	"context"
	"io"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/inftyart/inftyart/internal/config"
	"github.com/inftyart/inftyart/internal/usecase"
)

type Nft struct {
	ID          string       `json:"id"`
	NftID       string       `json:"nft_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	FileURL     string       `json:"file_url"`
	FileHash    string       `json:"file_hash,omitempty"`
	Status      string       `json:"status"`
	Price       string       `json:"price,omitempty"`
	Currency    string       `json:"currency,omitempty"`
	Fractional  bool         `json:"fractional"`
	AlbumID     string       `json:"album_id,omitempty"`
	Author      string       `json:"author"`
	Owners      []OwnerShare `json:"owner"`
	Views       int          `json:"views"`
	CreatedAt   string       `json:"created_at,omitempty"`
	UpdatedAt   string       `json:"updated_at,omitempty"`
}

type OwnerShare struct {
	Address    string `json:"address"`
	Percentage string `json:"percentage"`
}

func convertNft(n usecase.Nft) Nft {
	owners := make([]OwnerShare, 0, len(n.Owners))
	for _, o := range n.Owners {
		owners = append(owners, OwnerShare{
			Address:    o.Address,
			Percentage: o.Share.String(),
		})
	}
	nft := Nft{
		ID:          n.ID.String(),
		NftID:       n.NftID,
		Title:       n.Title,
		Description: n.Description,
		FileURL:     n.FileURL,
		FileHash:    n.FileHash,
		Status:      string(n.Status),
		Currency:    n.Currency,
		Fractional:  n.Fractional,
		AlbumID:     n.AlbumID,
		Author:      n.Author,
		Owners:      owners,
		Views:       n.Views,
		CreatedAt:   n.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   n.UpdatedAt.Format(time.RFC3339),
	}
	if !n.Price.IsZero() {
		nft.Price = n.Price.String()
	}
	return nft
}

// walletFrom reads the caller's wallet address placed in the request
// context by AuthMiddleware.
func walletFrom(ctx echo.Context) (string, bool) {
	addr, ok := ctx.Request().Context().Value(config.CTX_KEY_WALLET_ADDRESS).(string)
	return addr, ok
}

type GetMarketRequest struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit" validate:"omitempty,gte=1,lte=100"`
}

type MarketResponse struct {
	NftIDs   []string `json:"nft_ids"`
	AlbumIDs []string `json:"album_ids"`
}

func (s *Server) GetMarket(ctx echo.Context) error {
	var req GetMarketRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	market, err := s.server.GetMarket(ctx.Request().Context(), usecase.GetMarketOption{
		Skip:  req.Skip,
		Limit: req.Limit,
	})
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: MarketResponse{
		NftIDs:   market.NftIDs,
		AlbumIDs: market.AlbumIDs,
	}})
}

func (s *Server) GetNftByID(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == "" {
		return ctx.JSON(400, map[string]string{"error": "id is required"})
	}

	nft, err := s.server.GetNftByID(ctx.Request().Context(), id)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: convertNft(nft)})
}

func (s *Server) IncrementNftViews(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == "" {
		return ctx.JSON(400, map[string]string{"error": "id is required"})
	}

	views, err := s.server.IncrementNftViews(ctx.Request().Context(), id)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: map[string]int{"views": views}})
}

func (s *Server) GetMintEstimate(ctx echo.Context) error {
	gas, err := s.server.EstimateMintFee(ctx.Request().Context())
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: map[string]uint64{"gas": gas}})
}

type CreateNftRequest struct {
	Title       string `form:"title" validate:"required,max=200"`
	Description string `form:"description" validate:"omitempty,max=2000"`
	AlbumID     string `form:"album_id" validate:"omitempty"`
}

func (s *Server) CreateNft(ctx echo.Context) error {
	author, ok := walletFrom(ctx)
	if !ok {
		return ctx.JSON(401, map[string]string{"error": "unauthorized"})
	}

	var req CreateNftRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return ctx.JSON(400, map[string]string{"error": "file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}

	nft, err := s.server.CreateNft(ctx.Request().Context(), usecase.CreateNftOption{
		Title:       req.Title,
		Description: req.Description,
		Author:      author,
		AlbumID:     req.AlbumID,
		File:        content,
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
	})
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(201, Res{Data: convertNft(nft)})
}

type ListNftForSaleRequest struct {
	NftID      string `json:"nft_id" validate:"required"`
	Price      string `json:"price" validate:"required"`
	Currency   string `json:"currency" validate:"required,max=10"`
	Fractional bool   `json:"fractional"`
}

func (s *Server) ListNftForSale(ctx echo.Context) error {
	if _, ok := walletFrom(ctx); !ok {
		return ctx.JSON(401, map[string]string{"error": "unauthorized"})
	}

	var req ListNftForSaleRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return ctx.JSON(422, map[string]string{"error": "invalid price"})
	}

	nft, err := s.server.ListNftForSale(ctx.Request().Context(), usecase.ListNftForSaleOption{
		NftID:      req.NftID,
		Price:      price,
		Currency:   req.Currency,
		Fractional: req.Fractional,
	})
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: convertNft(nft)})
}

type NftIDRequest struct {
	NftID string `json:"nft_id" validate:"required"`
}

func (s *Server) ListNftForDraw(ctx echo.Context) error {
	if _, ok := walletFrom(ctx); !ok {
		return ctx.JSON(401, map[string]string{"error": "unauthorized"})
	}

	var req NftIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	nft, err := s.server.ListNftForDraw(ctx.Request().Context(), req.NftID)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: convertNft(nft)})
}

func (s *Server) DelistNft(ctx echo.Context) error {
	if _, ok := walletFrom(ctx); !ok {
		return ctx.JSON(401, map[string]string{"error": "unauthorized"})
	}

	var req NftIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	nft, err := s.server.DelistNft(ctx.Request().Context(), req.NftID)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: convertNft(nft)})
}

type PurchaseNftRequest struct {
	NftID              string `json:"nft_id" validate:"required"`
	Commission         string `json:"commission" validate:"omitempty"`
	CommissionCurrency string `json:"commission_currency" validate:"omitempty,max=10"`
}

func (s *Server) PurchaseNft(ctx echo.Context) error {
	buyer, ok := walletFrom(ctx)
	if !ok {
		return ctx.JSON(401, map[string]string{"error": "unauthorized"})
	}

	var req PurchaseNftRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	commission, err := parseOptionalDecimal(req.Commission)
	if err != nil {
		return ctx.JSON(422, map[string]string{"error": "invalid commission"})
	}

	if err := s.server.PurchaseNft(ctx.Request().Context(), usecase.PurchaseNftOption{
		NftID:              req.NftID,
		Buyer:              buyer,
		Commission:         commission,
		CommissionCurrency: req.CommissionCurrency,
	}); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "purchase complete"})
}

type FundNftRequest struct {
	NftID              string `json:"nft_id" validate:"required"`
	Share              string `json:"share" validate:"required"`
	Commission         string `json:"commission" validate:"omitempty"`
	CommissionCurrency string `json:"commission_currency" validate:"omitempty,max=10"`
}

func (s *Server) FundNft(ctx echo.Context) error {
	buyer, ok := walletFrom(ctx)
	if !ok {
		return ctx.JSON(401, map[string]string{"error": "unauthorized"})
	}

	var req FundNftRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	share, err := decimal.NewFromString(req.Share)
	if err != nil {
		return ctx.JSON(422, map[string]string{"error": "invalid share"})
	}
	commission, err := parseOptionalDecimal(req.Commission)
	if err != nil {
		return ctx.JSON(422, map[string]string{"error": "invalid commission"})
	}

	if err := s.server.FundNft(ctx.Request().Context(), usecase.FundNftOption{
		NftID:              req.NftID,
		Buyer:              buyer,
		Share:              share,
		Commission:         commission,
		CommissionCurrency: req.CommissionCurrency,
	}); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "funding complete"})
}

type DrawTransferRequest struct {
	NftID              string `json:"nft_id" validate:"required"`
	Commission         string `json:"commission" validate:"omitempty"`
	CommissionCurrency string `json:"commission_currency" validate:"omitempty,max=10"`
}

func (s *Server) DrawNft(ctx echo.Context) error {
	return s.drawTransfer(ctx, s.server.DrawNft)
}

func (s *Server) WinNft(ctx echo.Context) error {
	return s.drawTransfer(ctx, s.server.WinNft)
}

func (s *Server) drawTransfer(ctx echo.Context, fn func(context.Context, usecase.DrawTransferOption) error) error {
	buyer, ok := walletFrom(ctx)
	if !ok {
		return ctx.JSON(401, map[string]string{"error": "unauthorized"})
	}

	var req DrawTransferRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	commission, err := parseOptionalDecimal(req.Commission)
	if err != nil {
		return ctx.JSON(422, map[string]string{"error": "invalid commission"})
	}

	if err := fn(ctx.Request().Context(), usecase.DrawTransferOption{
		NftID:              req.NftID,
		Buyer:              buyer,
		Commission:         commission,
		CommissionCurrency: req.CommissionCurrency,
	}); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "transfer complete"})
}

func parseOptionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Decimal{}, nil
	}
	return decimal.NewFromString(s)
}
