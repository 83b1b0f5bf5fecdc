package server

import (
	"context"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/inftyart/inftyart/internal/config"
)

func (s *Server) getWalletAddress(c echo.Context) (string, error) {

	var (
		reqClientID = c.Request().Header.Get(config.HEADER_KEY_X_CLIENT_ID)
		reqWallet   = c.Request().Header.Get(config.HEADER_KEY_X_WALLET_ADDRESS)
		clientID    = os.Getenv(config.ENV_KEY_CLIENT_ID)
	)

	if reqWallet == "" {
		return "", echo.NewHTTPError(401, "wallet address header is required")
	}

	// Internal clients are trusted with any wallet address.
	if reqClientID != "" && reqClientID == clientID {
		return reqWallet, nil
	}

	// TODO: verify a signed message from the wallet instead of trusting
	// the header once the SPA ships signature support.
	return reqWallet, nil
}

// AuthMiddleware resolves the caller's wallet address and ensures the
// account exists, transforming the request to carry the address in
// downstream context.
func (s *Server) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {

		var (
			ctx = c.Request().Context()
		)

		address, err := s.getWalletAddress(c)
		if err != nil {
			return c.JSON(401, map[string]string{
				"error":   err.Error(),
				"message": "Invalid wallet address",
			})
		}

		ctx = context.WithValue(ctx, config.CTX_KEY_WALLET_ADDRESS, address)

		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}
