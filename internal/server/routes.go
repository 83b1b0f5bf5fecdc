package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.Use(NewEchoLogger(s.logger))
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Wallet-Address"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.GET("/api/health", s.healthHandler)

	e.POST("/api/v1/market", s.GetMarket)

	var nftGroup = e.Group("/api/v1/nfts")
	nftGroup.GET("/mint-estimate", s.GetMintEstimate)
	nftGroup.GET("/:id", s.GetNftByID)
	nftGroup.POST("/:id/views", s.IncrementNftViews)
	nftGroup.POST("", s.CreateNft, s.AuthMiddleware)
	nftGroup.POST("/list", s.ListNftForSale, s.AuthMiddleware)
	nftGroup.POST("/list-draw", s.ListNftForDraw, s.AuthMiddleware)
	nftGroup.POST("/delist", s.DelistNft, s.AuthMiddleware)
	nftGroup.POST("/purchase", s.PurchaseNft, s.AuthMiddleware)
	nftGroup.POST("/fund", s.FundNft, s.AuthMiddleware)
	nftGroup.POST("/draw", s.DrawNft, s.AuthMiddleware)
	nftGroup.POST("/win", s.WinNft, s.AuthMiddleware)

	var albumGroup = e.Group("/api/v1/albums")
	albumGroup.GET("/:id", s.GetAlbumByID)
	albumGroup.POST("", s.CreateAlbum, s.AuthMiddleware)
	albumGroup.POST("/list", s.ListAlbumForSale, s.AuthMiddleware)
	albumGroup.POST("/purchase", s.PurchaseAlbum, s.AuthMiddleware)

	var userGroup = e.Group("/api/v1/users")
	userGroup.GET("/:address", s.GetUserByAddress)
	userGroup.POST("", s.UpdateProfile, s.AuthMiddleware)
	userGroup.GET("/:address/transactions", s.ListTransactions)
	userGroup.POST("/avatar", s.SetAvatar, s.AuthMiddleware)
	userGroup.POST("/support", s.SubmitSupportRequest)

	return e
}
