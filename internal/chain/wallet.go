package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Wallet signs and submits transactions with a local key. It implements
// the submit half of the wallet collaborator surface; one instance per
// signer address.
type Wallet struct {
	client  *Client
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	signer  types.Signer
	logger  *zap.Logger

	// ConfirmTimeout bounds AwaitConfirmation receipt polling.
	ConfirmTimeout time.Duration
}

// NewWallet derives a wallet from a hex-encoded private key.
func NewWallet(ctx context.Context, client *Client, hexKey string, logger *zap.Logger) (*Wallet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}

	return &Wallet{
		client:         client,
		key:            key,
		address:        crypto.PubkeyToAddress(key.PublicKey),
		chainID:        chainID,
		signer:         types.LatestSignerForChainID(chainID),
		logger:         logger,
		ConfirmTimeout: 2 * time.Minute,
	}, nil
}

// Address returns the signer address.
func (w *Wallet) Address() common.Address {
	return w.address
}

// SubmitApproval submits an ERC20 approve for the spender.
func (w *Wallet) SubmitApproval(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	contractABI, err := erc20ABIInstance()
	if err != nil {
		return common.Hash{}, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := contractABI.Pack("approve", spender, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack approve: %w", err)
	}

	hash, err := w.submit(ctx, token, data)
	if err != nil {
		return common.Hash{}, err
	}
	w.logger.Info("approval submitted",
		zap.String("token", token.Hex()),
		zap.String("spender", spender.Hex()),
		zap.String("tx", hash.Hex()),
	)
	return hash, nil
}

// SubmitSwap submits a swapExactTokensForTokens through the router.
func (w *Wallet) SubmitSwap(ctx context.Context, path []common.Address, amountIn, minAmountOut *big.Int, recipient common.Address, deadline time.Time) (common.Hash, error) {
	if len(path) < 2 {
		return common.Hash{}, fmt.Errorf("swap path needs at least two tokens, got %d", len(path))
	}

	contractABI, err := routerABIInstance()
	if err != nil {
		return common.Hash{}, fmt.Errorf("parse router abi: %w", err)
	}
	data, err := contractABI.Pack("swapExactTokensForTokens",
		amountIn, minAmountOut, path, recipient, big.NewInt(deadline.Unix()))
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack swap: %w", err)
	}

	hash, err := w.submit(ctx, w.client.router, data)
	if err != nil {
		return common.Hash{}, err
	}
	w.logger.Info("swap submitted",
		zap.String("amount_in", amountIn.String()),
		zap.String("min_out", minAmountOut.String()),
		zap.Int("hops", len(path)-1),
		zap.String("tx", hash.Hex()),
	)
	return hash, nil
}

// SubmitAddLiquidity submits an addLiquidity through the router.
func (w *Wallet) SubmitAddLiquidity(ctx context.Context, tokenA, tokenB common.Address, desiredA, desiredB, minA, minB *big.Int, recipient common.Address, deadline time.Time) (common.Hash, error) {
	contractABI, err := routerABIInstance()
	if err != nil {
		return common.Hash{}, fmt.Errorf("parse router abi: %w", err)
	}
	data, err := contractABI.Pack("addLiquidity",
		tokenA, tokenB, desiredA, desiredB, minA, minB, recipient, big.NewInt(deadline.Unix()))
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack addLiquidity: %w", err)
	}

	hash, err := w.submit(ctx, w.client.router, data)
	if err != nil {
		return common.Hash{}, err
	}
	w.logger.Info("add liquidity submitted", zap.String("tx", hash.Hex()))
	return hash, nil
}

// SubmitRemoveLiquidity submits a removeLiquidity through the router.
func (w *Wallet) SubmitRemoveLiquidity(ctx context.Context, tokenA, tokenB common.Address, lpAmount, minA, minB *big.Int, recipient common.Address, deadline time.Time) (common.Hash, error) {
	contractABI, err := routerABIInstance()
	if err != nil {
		return common.Hash{}, fmt.Errorf("parse router abi: %w", err)
	}
	data, err := contractABI.Pack("removeLiquidity",
		tokenA, tokenB, lpAmount, minA, minB, recipient, big.NewInt(deadline.Unix()))
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack removeLiquidity: %w", err)
	}

	hash, err := w.submit(ctx, w.client.router, data)
	if err != nil {
		return common.Hash{}, err
	}
	w.logger.Info("remove liquidity submitted", zap.String("tx", hash.Hex()))
	return hash, nil
}

// AwaitConfirmation blocks until the transaction is mined, polling for
// the receipt with exponential backoff. A receipt with failed status is
// reported as ErrReverted with the chain-provided reason when the node
// returns one. The poll is read-only and safe to retry; the transaction
// itself is never resubmitted.
func (w *Wallet) AwaitConfirmation(ctx context.Context, hash common.Hash) error {
	receipt, err := backoff.Retry(ctx, func() (*types.Receipt, error) {
		r, err := w.client.ethClient.TransactionReceipt(ctx, hash)
		if err != nil {
			// Not mined yet, or transient RPC failure; keep polling.
			return nil, err
		}
		return r, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(w.ConfirmTimeout),
	)
	if err != nil {
		return fmt.Errorf("await confirmation of %s: %w", hash.Hex(), err)
	}

	if receipt.Status == types.ReceiptStatusFailed {
		reason := w.revertReason(ctx, hash, receipt.BlockNumber)
		if reason != "" {
			return fmt.Errorf("%w: %s", ErrReverted, reason)
		}
		return ErrReverted
	}

	w.logger.Info("transaction confirmed",
		zap.String("tx", hash.Hex()),
		zap.Uint64("block", receipt.BlockNumber.Uint64()),
	)
	return nil
}

// revertReason replays a failed transaction as a call at its block and
// extracts the reason string the node reports, if any.
func (w *Wallet) revertReason(ctx context.Context, hash common.Hash, blockNumber *big.Int) string {
	tx, _, err := w.client.ethClient.TransactionByHash(ctx, hash)
	if err != nil || tx == nil || tx.To() == nil {
		return ""
	}

	msg := ethereum.CallMsg{
		From:  w.address,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}
	if _, err := w.client.ethClient.CallContract(ctx, msg, blockNumber); err != nil {
		return err.Error()
	}
	return ""
}

func (w *Wallet) submit(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	nonce, err := w.client.ethClient.PendingNonceAt(ctx, w.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pending nonce: %w", err)
	}

	gasPrice, err := w.client.ethClient.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
	}

	gasLimit, err := w.client.ethClient.EstimateGas(ctx, ethereum.CallMsg{
		From: w.address,
		To:   &to,
		Data: data,
	})
	if err != nil {
		// Estimation runs the call; a failure here is the revert the
		// transaction would hit on-chain.
		return common.Hash{}, fmt.Errorf("%w: %v", ErrReverted, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, w.signer, w.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}

	if err := w.client.ethClient.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}
	return signed.Hash(), nil
}
