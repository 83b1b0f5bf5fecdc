package server

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/inftyart/inftyart/internal/usecase"
)

type Album struct {
	ID        string   `json:"id"`
	AlbumID   string   `json:"album_id"`
	Title     string   `json:"title"`
	NftIDs    []string `json:"nft_ids"`
	Owner     string   `json:"owner,omitempty"`
	Status    string   `json:"status"`
	Price     string   `json:"price,omitempty"`
	Currency  string   `json:"currency,omitempty"`
	Nfts      []Nft    `json:"nfts,omitempty"`
	CreatedAt string   `json:"created_at,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

func convertAlbum(a usecase.Album) Album {
	album := Album{
		ID:        a.ID.String(),
		AlbumID:   a.AlbumID,
		Title:     a.Title,
		NftIDs:    a.NftIDs,
		Owner:     a.Owner,
		Status:    string(a.Status),
		Currency:  a.Currency,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
	}
	if !a.Price.IsZero() {
		album.Price = a.Price.String()
	}
	return album
}

type CreateAlbumRequest struct {
	Title  string   `json:"title" validate:"required,max=200"`
	NftIDs []string `json:"nft_ids" validate:"required,min=1,dive,required"`
}

func (s *Server) CreateAlbum(ctx echo.Context) error {
	owner, ok := walletFrom(ctx)
	if !ok {
		return ctx.JSON(401, map[string]string{"error": "unauthorized"})
	}

	var req CreateAlbumRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	album, err := s.server.CreateAlbum(ctx.Request().Context(), usecase.CreateAlbumOption{
		Title:  req.Title,
		Owner:  owner,
		NftIDs: req.NftIDs,
	})
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(201, Res{Data: convertAlbum(album)})
}

func (s *Server) GetAlbumByID(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == "" {
		return ctx.JSON(400, map[string]string{"error": "id is required"})
	}

	album, err := s.server.GetAlbumByID(ctx.Request().Context(), id)
	if err != nil {
		return errorJSON(ctx, err)
	}

	nfts, err := s.server.GetAlbumNfts(ctx.Request().Context(), album)
	if err != nil {
		return errorJSON(ctx, err)
	}

	res := convertAlbum(album)
	res.Nfts = make([]Nft, 0, len(nfts))
	for _, n := range nfts {
		res.Nfts = append(res.Nfts, convertNft(n))
	}

	return ctx.JSON(200, Res{Data: res})
}

type ListAlbumForSaleRequest struct {
	AlbumID  string `json:"album_id" validate:"required"`
	Price    string `json:"price" validate:"required"`
	Currency string `json:"currency" validate:"required,max=10"`
}

func (s *Server) ListAlbumForSale(ctx echo.Context) error {
	if _, ok := walletFrom(ctx); !ok {
		return ctx.JSON(401, map[string]string{"error": "unauthorized"})
	}

	var req ListAlbumForSaleRequest
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

	album, err := s.server.ListAlbumForSale(ctx.Request().Context(), usecase.ListAlbumForSaleOption{
		AlbumID:  req.AlbumID,
		Price:    price,
		Currency: req.Currency,
	})
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: convertAlbum(album)})
}

type PurchaseAlbumRequest struct {
	AlbumID            string `json:"album_id" validate:"required"`
	Commission         string `json:"commission" validate:"omitempty"`
	CommissionCurrency string `json:"commission_currency" validate:"omitempty,max=10"`
}

func (s *Server) PurchaseAlbum(ctx echo.Context) error {
	buyer, ok := walletFrom(ctx)
	if !ok {
		return ctx.JSON(401, map[string]string{"error": "unauthorized"})
	}

	var req PurchaseAlbumRequest
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

	if err := s.server.PurchaseAlbum(ctx.Request().Context(), usecase.PurchaseAlbumOption{
		AlbumID:            req.AlbumID,
		Buyer:              buyer,
		Commission:         commission,
		CommissionCurrency: req.CommissionCurrency,
	}); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "purchase complete"})
}
