// Package chain implements the per-network clients behind payment
// verification: a go-ethereum RPC client for EVM networks, an esplora HTTP
// client for Bitcoin, and a scriptable mock for offline operation.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	appchain "sealpay/internal/application/payment/chain"
)

// transferTopic is keccak256("Transfer(address,address,uint256)").
var transferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

// EVMClient reads transactions from an EVM network over JSON-RPC. When a
// token contract is configured, destination and value come from the ERC-20
// transfer log rather than the outer transaction.
type EVMClient struct {
	client        *ethclient.Client
	tokenContract *common.Address
	timeout       time.Duration
}

type EVMClientConfig struct {
	RPCURL         string
	TokenContract  string
	RequestTimeout time.Duration
}

func NewEVMClient(ctx context.Context, cfg EVMClientConfig) (*EVMClient, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}

	cli, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	c := &EVMClient{
		client:  cli,
		timeout: cfg.RequestTimeout,
	}
	if c.timeout <= 0 {
		c.timeout = 10 * time.Second
	}
	if cfg.TokenContract != "" {
		addr := common.HexToAddress(cfg.TokenContract)
		c.tokenContract = &addr
	}
	return c, nil
}

func (c *EVMClient) GetTransaction(ctx context.Context, txHash string) (appchain.TransactionInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	hash := common.HexToHash(txHash)
	tx, pending, err := c.client.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return appchain.TransactionInfo{Exists: false}, nil
		}
		return appchain.TransactionInfo{}, fmt.Errorf("fetch transaction: %w", err)
	}

	info := appchain.TransactionInfo{Exists: true, Pending: pending}
	if !pending {
		receipt, err := c.client.TransactionReceipt(ctx, hash)
		if err != nil {
			return appchain.TransactionInfo{}, fmt.Errorf("fetch receipt: %w", err)
		}
		info.BlockNumber = receipt.BlockNumber.Uint64()

		if c.tokenContract != nil {
			to, value, err := transferFromLogs(receipt.Logs, *c.tokenContract)
			if err != nil {
				return appchain.TransactionInfo{}, err
			}
			info.To = to
			info.ValueRaw = value
			return info, nil
		}
	}

	if tx.To() != nil {
		info.To = tx.To().Hex()
	}
	info.ValueRaw = tx.Value().String()
	return info, nil
}

func (c *EVMClient) GetConfirmations(ctx context.Context, txHash string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	receipt, err := c.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			// Known but not yet mined, or dropped; either way zero.
			return 0, nil
		}
		return 0, fmt.Errorf("fetch receipt: %w", err)
	}

	head, err := c.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch head: %w", err)
	}

	txBlock := receipt.BlockNumber.Uint64()
	if head < txBlock {
		return 0, nil
	}
	return int(head - txBlock), nil
}

func (c *EVMClient) CurrentHeight(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	head, err := c.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch head: %w", err)
	}
	return head, nil
}

// transferFromLogs extracts recipient and amount from the first Transfer
// event emitted by the configured token contract.
func transferFromLogs(logs []*types.Log, contract common.Address) (string, string, error) {
	for _, l := range logs {
		if l.Address != contract || len(l.Topics) != 3 || l.Topics[0] != transferTopic {
			continue
		}
		to := common.BytesToAddress(l.Topics[2].Bytes())
		value := new(big.Int).SetBytes(l.Data)
		return to.Hex(), value.String(), nil
	}
	return "", "", fmt.Errorf("no token transfer from %s in transaction", contract.Hex())
}
