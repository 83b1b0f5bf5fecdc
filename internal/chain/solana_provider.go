package chain

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/memo"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

const (
	// lamports per signature, the cluster base fee
	signatureFee = 5000

	lamportsPerSol = 1e9
)

// SolanaProvider talks to a Solana cluster with a custodial fee payer.
// The fee payer is the mint authority for every token the marketplace
// mints and the transfer delegate for the escrow token accounts, so all
// marketplace transactions are signed server side.
type SolanaProvider struct {
	client   *rpc.Client
	feePayer solana.PrivateKey
}

func NewSolanaProvider(rpcURL, feePayerKey string) (*SolanaProvider, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("chain: rpc url is required")
	}
	feePayer, err := solana.PrivateKeyFromBase58(feePayerKey)
	if err != nil {
		return nil, fmt.Errorf("chain: invalid fee payer key: %w", err)
	}
	return &SolanaProvider{
		client:   rpc.New(rpcURL),
		feePayer: feePayer,
	}, nil
}

func (p *SolanaProvider) MinterAddress() string {
	return p.feePayer.PublicKey().String()
}

// MintNft creates a zero-decimal mint with supply one in the owner's
// associated token account. The metadata URL rides along as a memo.
func (p *SolanaProvider) MintNft(ctx context.Context, owner, metadataURL string) (string, error) {
	ownerPub, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return "", fmt.Errorf("chain: invalid owner address: %w", err)
	}

	mint := solana.NewWallet()
	mintPub := mint.PublicKey()

	rent, err := p.client.GetMinimumBalanceForRentExemption(ctx, token.MINT_SIZE, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("chain: get rent exemption: %w", err)
	}

	ownerATA, _, err := solana.FindAssociatedTokenAddress(ownerPub, mintPub)
	if err != nil {
		return "", fmt.Errorf("chain: find owner token account: %w", err)
	}

	instrs := []solana.Instruction{
		system.NewCreateAccountInstruction(
			rent,
			token.MINT_SIZE,
			token.ProgramID,
			p.feePayer.PublicKey(),
			mintPub,
		).Build(),
		token.NewInitializeMintInstruction(
			0,
			p.feePayer.PublicKey(),
			p.feePayer.PublicKey(),
			mintPub,
			solana.SysVarRentPubkey,
		).Build(),
		associatedtokenaccount.NewCreateInstruction(
			p.feePayer.PublicKey(),
			ownerPub,
			mintPub,
		).Build(),
		token.NewMintToInstruction(
			1,
			mintPub,
			ownerATA,
			p.feePayer.PublicKey(),
			nil,
		).Build(),
	}
	if metadataURL != "" {
		instrs = append(instrs, memo.NewMemoInstruction([]byte(metadataURL), p.feePayer.PublicKey()).Build())
	}

	if _, err := p.sendTx(ctx, instrs, mint.PrivateKey); err != nil {
		return "", err
	}

	return mintPub.String(), nil
}

// TransferOwnership moves the single token from the seller's account to
// the buyer's, creating the buyer's token account when missing.
func (p *SolanaProvider) TransferOwnership(ctx context.Context, from, to, mint string) error {
	fromPub, err := solana.PublicKeyFromBase58(from)
	if err != nil {
		return fmt.Errorf("chain: invalid seller address: %w", err)
	}
	toPub, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return fmt.Errorf("chain: invalid buyer address: %w", err)
	}
	mintPub, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return fmt.Errorf("chain: invalid mint address: %w", err)
	}

	fromATA, _, err := solana.FindAssociatedTokenAddress(fromPub, mintPub)
	if err != nil {
		return fmt.Errorf("chain: find seller token account: %w", err)
	}
	toATA, _, err := solana.FindAssociatedTokenAddress(toPub, mintPub)
	if err != nil {
		return fmt.Errorf("chain: find buyer token account: %w", err)
	}

	var instrs []solana.Instruction
	if _, err := p.client.GetAccountInfo(ctx, toATA); err != nil {
		// buyer has no token account for this mint yet
		instrs = append(instrs, associatedtokenaccount.NewCreateInstruction(
			p.feePayer.PublicKey(),
			toPub,
			mintPub,
		).Build())
	}
	instrs = append(instrs, token.NewTransferInstruction(
		1,
		fromATA,
		toATA,
		p.feePayer.PublicKey(),
		nil,
	).Build())

	_, err = p.sendTx(ctx, instrs)
	return err
}

// TransferFunds pays out lamports from the fee payer treasury.
func (p *SolanaProvider) TransferFunds(ctx context.Context, to string, amount decimal.Decimal) error {
	toPub, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return fmt.Errorf("chain: invalid recipient address: %w", err)
	}

	lamports := amount.Mul(decimal.NewFromInt(lamportsPerSol)).IntPart()
	if lamports <= 0 {
		return fmt.Errorf("chain: payout amount %s is not positive", amount)
	}

	instr := system.NewTransferInstruction(
		uint64(lamports),
		p.feePayer.PublicKey(),
		toPub,
	).Build()

	_, err = p.sendTx(ctx, []solana.Instruction{instr})
	return err
}

// EstimateMintFee returns the lamports a mint costs: rent exemption for
// the mint account plus the signature fees of the mint transaction.
func (p *SolanaProvider) EstimateMintFee(ctx context.Context) (uint64, error) {
	rent, err := p.client.GetMinimumBalanceForRentExemption(ctx, token.MINT_SIZE, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("chain: get rent exemption: %w", err)
	}
	// fee payer and mint account both sign
	return rent + 2*signatureFee, nil
}

func (p *SolanaProvider) sendTx(ctx context.Context, instrs []solana.Instruction, extraSigners ...solana.PrivateKey) (solana.Signature, error) {
	recent, err := p.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("chain: get blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instrs,
		recent.Value.Blockhash,
		solana.TransactionPayer(p.feePayer.PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("chain: build transaction: %w", err)
	}

	signers := append([]solana.PrivateKey{p.feePayer}, extraSigners...)
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if key.Equals(signers[i].PublicKey()) {
				return &signers[i]
			}
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("chain: sign transaction: %w", err)
	}

	sig, err := p.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("chain: send transaction: %w", err)
	}

	return sig, nil
}
