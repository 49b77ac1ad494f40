// Package chain is the wallet/RPC collaborator: read-side snapshots of
// reserves, allowances and balances, and the signed submission of
// approval, swap and liquidity transactions.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client wraps go-ethereum RPC and provides the DEX read and submit
// surface.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	router  common.Address
	factory common.Address
}

// NewClient creates a new chain client from the RPC URL and the router
// and factory contract addresses.
func NewClient(ctx context.Context, rpcURL string, router, factory common.Address) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		router:    router,
		factory:   factory,
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// Router returns the router contract address, the default spender for
// allowance checks.
func (c *Client) Router() common.Address {
	return c.router
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// GetReserves reads the pair's current reserves in token0/token1 order.
func (c *Client) GetReserves(ctx context.Context, pair common.Address) (*big.Int, *big.Int, error) {
	contractABI, err := pairABIInstance()
	if err != nil {
		return nil, nil, fmt.Errorf("parse pair abi: %w", err)
	}

	values, err := c.call(ctx, pair, contractABI, "getReserves")
	if err != nil {
		return nil, nil, err
	}
	if len(values) < 2 {
		return nil, nil, fmt.Errorf("getReserves: unexpected output arity %d", len(values))
	}

	reserve0, err := asBigInt(values[0])
	if err != nil {
		return nil, nil, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := asBigInt(values[1])
	if err != nil {
		return nil, nil, fmt.Errorf("reserve1: %w", err)
	}
	return reserve0, reserve1, nil
}

// PairTokens reads token0 and token1 of a pair.
func (c *Client) PairTokens(ctx context.Context, pair common.Address) (common.Address, common.Address, error) {
	contractABI, err := pairABIInstance()
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("parse pair abi: %w", err)
	}

	values, err := c.call(ctx, pair, contractABI, "token0")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token0: %w", err)
	}

	values, err = c.call(ctx, pair, contractABI, "token1")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token1: %w", err)
	}

	return token0, token1, nil
}

// PairFor asks the factory for the pair trading tokenA/tokenB. Returns
// ErrNoPair when none exists.
func (c *Client) PairFor(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	contractABI, err := factoryABIInstance()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse factory abi: %w", err)
	}

	values, err := c.call(ctx, c.factory, contractABI, "getPair", tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}
	pair, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, fmt.Errorf("getPair: %w", err)
	}
	if pair == (common.Address{}) {
		return common.Address{}, ErrNoPair
	}
	return pair, nil
}

// GetAllowance reads the ERC20 allowance for (token, owner, spender).
// Transient RPC failures are retried briefly; the read is idempotent.
func (c *Client) GetAllowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	contractABI, err := erc20ABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	return backoff.Retry(ctx, func() (*big.Int, error) {
		values, err := c.call(ctx, token, contractABI, "allowance", owner, spender)
		if err != nil {
			return nil, err
		}
		allowance, err := asBigInt(values[0])
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("allowance: %w", err))
		}
		return allowance, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(5*time.Second),
	)
}

// GetBalance reads an owner's balance of a token; the zero token
// address reads the native coin balance.
func (c *Client) GetBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	if token == (common.Address{}) {
		return c.ethClient.BalanceAt(ctx, owner, nil)
	}

	contractABI, err := erc20ABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	values, err := c.call(ctx, token, contractABI, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	balance, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("balanceOf: %w", err)
	}
	return balance, nil
}

// LPBalance reads an owner's LP token balance for a pair.
func (c *Client) LPBalance(ctx context.Context, pair, owner common.Address) (*big.Int, error) {
	contractABI, err := pairABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse pair abi: %w", err)
	}

	values, err := c.call(ctx, pair, contractABI, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	balance, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("lp balanceOf: %w", err)
	}
	return balance, nil
}

// LPTotalSupply reads a pair's total LP supply.
func (c *Client) LPTotalSupply(ctx context.Context, pair common.Address) (*big.Int, error) {
	contractABI, err := pairABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse pair abi: %w", err)
	}

	values, err := c.call(ctx, pair, contractABI, "totalSupply")
	if err != nil {
		return nil, err
	}
	supply, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("totalSupply: %w", err)
	}
	return supply, nil
}

func (c *Client) call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := c.ethClient.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, to.Hex(), err)
	}

	values, err := contractABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: empty output", method)
	}
	return values, nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	v, ok := value.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected type %T", value)
	}
	return v, nil
}

func asAddress(value interface{}) (common.Address, error) {
	v, ok := value.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected type %T", value)
	}
	return v, nil
}
