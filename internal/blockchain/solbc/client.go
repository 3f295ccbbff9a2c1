// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	bin "github.com/rovshanmuradov/pumpfun-watcher/internal/utils/binary"
)

// MintDecimalsOffset is the position of the decimals byte in an SPL mint account.
const MintDecimalsOffset = 44

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrNotMintAccount  = errors.New("account is not a mint")
)

// Client – тонкий адаптер для взаимодействия с блокчейном Solana через solana-go.
type Client struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
	logger     *zap.Logger
}

// NewClient создаёт новый клиент, принимая RPC URL и логгер через dependency injection.
func NewClient(rpcURL string, logger *zap.Logger) *Client {
	return &Client{
		rpc:        rpc.New(rpcURL),
		commitment: rpc.CommitmentConfirmed,
		logger:     logger.Named("solbc-client"),
	}
}

// GetAccountInfo получает информацию об аккаунте в кодировке base64.
func (c *Client) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	result, err := c.rpc.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if err != nil {
		c.logger.Debug("GetAccountInfo error",
			zap.String("pubkey", pubkey.String()),
			zap.Error(err))
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, pubkey)
		}
		return nil, err
	}
	if result == nil || result.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, pubkey)
	}
	return result, nil
}

// TokenDecimals reads the decimals of an SPL mint.
// Zero is a valid result (mints with no fractional units) and is returned
// as is; only a missing or short account is an error.
func (c *Client) TokenDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	info, err := c.GetAccountInfo(ctx, mint)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch mint account: %w", err)
	}

	data := info.Value.Data.GetBinary()
	if len(data) <= MintDecimalsOffset {
		return 0, fmt.Errorf("%w: %s has %d bytes of data", ErrNotMintAccount, mint, len(data))
	}

	decimals := bin.ReadUint8(data, MintDecimalsOffset)
	c.logger.Debug("Resolved token decimals",
		zap.String("mint", mint.String()),
		zap.Uint8("decimals", decimals))
	return decimals, nil
}
