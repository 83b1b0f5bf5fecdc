package server

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/inftyart/inftyart/internal/usecase"
)

type User struct {
	ID             string `json:"id"`
	Address        string `json:"address"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Description    string `json:"description,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	NftRefs        []Ref  `json:"nft_refs"`
	AlbumRefs      []Ref  `json:"album_refs"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

type Ref struct {
	ID    string `json:"id"`
	Share string `json:"share"`
}

func convertUser(u usecase.User) User {
	nftRefs := make([]Ref, 0, len(u.NftRefs))
	for _, r := range u.NftRefs {
		nftRefs = append(nftRefs, Ref{ID: r.ID, Share: r.Share.String()})
	}
	albumRefs := make([]Ref, 0, len(u.AlbumRefs))
	for _, r := range u.AlbumRefs {
		albumRefs = append(albumRefs, Ref{ID: r.ID, Share: r.Share.String()})
	}
	return User{
		ID:             u.ID.String(),
		Address:        u.Address,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Description:    u.Description,
		ProfilePicture: u.ProfilePicture,
		NftRefs:        nftRefs,
		AlbumRefs:      albumRefs,
		CreatedAt:      u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      u.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *Server) GetUserByAddress(ctx echo.Context) error {
	address := ctx.Param("address")
	if address == "" {
		return ctx.JSON(400, map[string]string{"error": "address is required"})
	}

	user, err := s.server.GetUserByAddress(ctx.Request().Context(), address)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: convertUser(user)})
}

type UpdateProfileRequest struct {
	FirstName      string `json:"first_name" validate:"omitempty,max=100"`
	LastName       string `json:"last_name" validate:"omitempty,max=100"`
	Description    string `json:"description" validate:"omitempty,max=2000"`
	ProfilePicture string `json:"profile_picture" validate:"omitempty,url"`
}

func (s *Server) UpdateProfile(ctx echo.Context) error {
	address, ok := walletFrom(ctx)
	if !ok {
		return ctx.JSON(401, map[string]string{"error": "unauthorized"})
	}

	var req UpdateProfileRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	user, err := s.server.UpdateProfile(ctx.Request().Context(), usecase.UpdateProfileOption{
		Address:        address,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Description:    req.Description,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: convertUser(user)})
}

type SetAvatarRequest struct {
	NftID string `json:"nft_id" validate:"required"`
}

func (s *Server) SetAvatar(ctx echo.Context) error {
	address, ok := walletFrom(ctx)
	if !ok {
		return ctx.JSON(401, map[string]string{"error": "unauthorized"})
	}

	var req SetAvatarRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	url, err := s.server.SetAvatar(ctx.Request().Context(), address, req.NftID)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: map[string]string{"profile_picture": url}})
}

type Transaction struct {
	ID                 string `json:"id"`
	Kind               string `json:"kind"`
	Buyer              string `json:"buyer"`
	Seller             string `json:"seller,omitempty"`
	TargetID           string `json:"target_id"`
	Price              string `json:"price"`
	Currency           string `json:"currency"`
	Commission         string `json:"commission,omitempty"`
	CommissionCurrency string `json:"commission_currency,omitempty"`
	CreatedAt          string `json:"created_at"`
}

type ListTransactionsRequest struct {
	Skip  int    `query:"skip"`
	Limit int    `query:"limit" validate:"omitempty,gte=1,lte=100"`
	Role  string `query:"role" validate:"omitempty,oneof=buyer seller"`
}

// ListTransactions returns the transfer log entries involving an address,
// as buyer, as seller, or both when no role filter is given.
func (s *Server) ListTransactions(ctx echo.Context) error {
	address := ctx.Param("address")
	if address == "" {
		return ctx.JSON(400, map[string]string{"error": "address is required"})
	}

	var req = ListTransactionsRequest{Limit: 20}
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	opt := usecase.ListTransactionsOption{
		Skip:  req.Skip,
		Limit: req.Limit,
	}
	switch req.Role {
	case "buyer":
		opt.Buyer = address
	case "seller":
		opt.Seller = address
	default:
		opt.Buyer = address
		opt.Seller = address
	}

	list, total, err := s.server.ListTransactions(ctx.Request().Context(), opt)
	if err != nil {
		return errorJSON(ctx, err)
	}

	txns := make([]Transaction, 0, len(list))
	for _, t := range list {
		txn := Transaction{
			ID:        t.ID.String(),
			Kind:      string(t.Kind),
			Buyer:     t.Buyer,
			Seller:    t.Seller,
			TargetID:  t.TargetID,
			Price:     t.Price.String(),
			Currency:  t.Currency,
			CreatedAt: t.CreatedAt.Format(time.RFC3339),
		}
		if !t.Commission.IsZero() {
			txn.Commission = t.Commission.String()
			txn.CommissionCurrency = t.CommissionCurrency
		}
		txns = append(txns, txn)
	}

	return ctx.JSON(200, Res{
		Data: txns,
		Meta: &Meta{
			Total: total,
			Skip:  req.Skip,
			Limit: req.Limit,
		},
	})
}

type SupportRequest struct {
	Address string `json:"address" validate:"omitempty"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

func (s *Server) SubmitSupportRequest(ctx echo.Context) error {
	var req SupportRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	if err := s.server.SubmitSupportRequest(ctx.Request().Context(), usecase.SupportRequest{
		Address: req.Address,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "support request sent"})
}
