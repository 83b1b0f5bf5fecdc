package usecase

import (
	"context"

	"github.com/shopspring/decimal"
)

func New(
	repo Repository,
	cp ChainProvider,
	fsp FileStorageProvider,
	mp MailProvider,
	qc QueueClient,
) Usecase {
	return Usecase{
		repo:                repo,
		chainProvider:       cp,
		fileStorageProvider: fsp,
		mailProvider:        mp,
		queueClient:         qc,
	}
}

type Repository interface {
	Health() map[string]string
	Close() error

	GetNftByID(context.Context, string) (Nft, error)
	ListNfts(context.Context, ListNftsOption) ([]Nft, int, error)
	CreateNft(context.Context, Nft, User) (Nft, error)
	UpdateNft(context.Context, Nft) (Nft, error)
	NftTitleExists(context.Context, string) (bool, error)

	GetAlbumByID(context.Context, string) (Album, error)
	ListAlbums(context.Context, ListAlbumsOption) ([]Album, int, error)
	CreateAlbum(context.Context, Album, User) (Album, error)
	UpdateAlbum(context.Context, Album) (Album, error)

	GetUserByAddress(context.Context, string) (User, error)
	CreateUser(context.Context, User) (User, error)
	UpdateUser(context.Context, User) (User, error)

	ListTransactions(context.Context, ListTransactionsOption) ([]Transaction, int, error)

	// SaveWriteSet persists a resolved transfer as a single atomic unit.
	// A stale target version is rejected with ErrConflict.
	SaveWriteSet(context.Context, WriteSet) error
}

// ChainProvider is the on-chain collaborator. Mint and transfer failures
// abort marketplace operations before any database mutation.
type ChainProvider interface {
	MinterAddress() string
	MintNft(ctx context.Context, owner, metadataURL string) (string, error)
	TransferOwnership(ctx context.Context, from, to, mint string) error
	TransferFunds(ctx context.Context, to string, amount decimal.Decimal) error
	EstimateMintFee(ctx context.Context) (uint64, error)
}

type FileStorageProvider interface {
	UploadFile(ctx context.Context, path string, content []byte, contentType string) error
	GetPublicURL(ctx context.Context) (string, error)
}

type MailProvider interface {
	SendEmail(ctx context.Context, email Email) error
}

// QueueClient enqueues background tasks. Nil in worker processes.
type QueueClient interface {
	EnqueueSettlement(ctx context.Context, payload SettlementPayload) error
}

type Email struct {
	From    string
	To      []string
	CC      []string
	BCC     []string
	Subject string
	Body    string
}

type Usecase struct {
	repo                Repository
	chainProvider       ChainProvider
	fileStorageProvider FileStorageProvider
	mailProvider        MailProvider
	queueClient         QueueClient
}

func (u Usecase) Health() map[string]string {
	return u.repo.Health()
}

func (u Usecase) Close() error {
	return u.repo.Close()
}
