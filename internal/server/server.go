package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"

	"github.com/inftyart/inftyart/internal/chain"
	"github.com/inftyart/inftyart/internal/config"
	"github.com/inftyart/inftyart/internal/database"
	"github.com/inftyart/inftyart/internal/email"
	"github.com/inftyart/inftyart/internal/filestorage"
	"github.com/inftyart/inftyart/internal/queue"
	"github.com/inftyart/inftyart/internal/usecase"
)

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error

	GetMarket(context.Context, usecase.GetMarketOption) (usecase.Market, error)

	GetNftByID(context.Context, string) (usecase.Nft, error)
	CreateNft(context.Context, usecase.CreateNftOption) (usecase.Nft, error)
	ListNftForSale(context.Context, usecase.ListNftForSaleOption) (usecase.Nft, error)
	ListNftForDraw(context.Context, string) (usecase.Nft, error)
	DelistNft(context.Context, string) (usecase.Nft, error)
	IncrementNftViews(context.Context, string) (int, error)
	EstimateMintFee(context.Context) (uint64, error)

	PurchaseNft(context.Context, usecase.PurchaseNftOption) error
	FundNft(context.Context, usecase.FundNftOption) error
	DrawNft(context.Context, usecase.DrawTransferOption) error
	WinNft(context.Context, usecase.DrawTransferOption) error
	PurchaseAlbum(context.Context, usecase.PurchaseAlbumOption) error

	CreateAlbum(context.Context, usecase.CreateAlbumOption) (usecase.Album, error)
	GetAlbumByID(context.Context, string) (usecase.Album, error)
	GetAlbumNfts(context.Context, usecase.Album) ([]usecase.Nft, error)
	ListAlbumForSale(context.Context, usecase.ListAlbumForSaleOption) (usecase.Album, error)

	GetUserByAddress(context.Context, string) (usecase.User, error)
	UpdateProfile(context.Context, usecase.UpdateProfileOption) (usecase.User, error)
	SetAvatar(ctx context.Context, address, nftID string) (string, error)
	ListTransactions(context.Context, usecase.ListTransactionsOption) ([]usecase.Transaction, int, error)
	SubmitSupportRequest(context.Context, usecase.SupportRequest) error
}

type Server struct {
	port int

	server    Service
	validator *validator.Validate
	logger    *slog.Logger
}

func NewServer(logger *slog.Logger) *http.Server {
	repo := database.New(logger)

	cp, err := chain.NewSolanaProvider(
		os.Getenv(config.ENV_KEY_SOLANA_RPC_URL),
		os.Getenv(config.ENV_KEY_SOLANA_FEE_PAYER_KEY),
	)
	if err != nil {
		logger.Error("failed to initialize chain provider", slog.String("err", err.Error()))
		os.Exit(1)
	}

	var (
		bucket    = os.Getenv(config.ENV_KEY_MINIO_BUCKET)
		public    = os.Getenv(config.ENV_KEY_MINIO_PUBLIC_PATH)
		endpoint  = os.Getenv(config.ENV_KEY_MINIO_ENDPOINT)
		accessKey = os.Getenv(config.ENV_KEY_MINIO_ACCESS_KEY)
		secretKey = os.Getenv(config.ENV_KEY_MINIO_SECRET_KEY)
	)
	fsp := filestorage.NewMinIOStorage(bucket, public, endpoint, accessKey, secretKey)

	mp := email.NewEmailProvider(
		os.Getenv(config.ENV_KEY_SMTP_HOST),
		os.Getenv(config.ENV_KEY_SMTP_USERNAME),
		os.Getenv(config.ENV_KEY_SMTP_PASSWORD),
		os.Getenv(config.ENV_KEY_SMTP_PORT),
	)

	redisAddr := fmt.Sprintf("%s:%s",
		os.Getenv(config.ENV_KEY_REDIS_HOST),
		os.Getenv(config.ENV_KEY_REDIS_PORT),
	)
	qc := queue.NewClient(redisAddr, os.Getenv(config.ENV_KEY_REDIS_PASSWORD))

	sv := usecase.New(repo, cp, fsp, mp, qc)
	v := validator.New()

	port, _ := strconv.Atoi(os.Getenv(config.ENV_KEY_PORT))
	NewServer := &Server{
		port:      port,
		server:    sv,
		validator: v,
		logger:    logger,
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewServer.port),
		Handler:      NewServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
