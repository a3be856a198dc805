package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	appchain "sealpay/internal/application/payment/chain"
)

const (
	maxExplorerResponseSize = 1 << 20 // 1MB
	btcRequestTimeout       = 15 * time.Second
)

// BTCClient reads transactions from an esplora-style block explorer API.
// A Bitcoin transaction has many outputs; the client reports the total paid
// to the configured destination address so change outputs never interfere
// with the amount check.
type BTCClient struct {
	baseURL     string
	destination string
	httpClient  *http.Client
}

type BTCClientConfig struct {
	ExplorerURL    string
	Destination    string
	RequestTimeout time.Duration
}

func NewBTCClient(cfg BTCClientConfig) (*BTCClient, error) {
	if cfg.ExplorerURL == "" {
		return nil, fmt.Errorf("explorer url is required")
	}
	if cfg.Destination == "" {
		return nil, fmt.Errorf("destination address is required")
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = btcRequestTimeout
	}
	return &BTCClient{
		baseURL:     strings.TrimSuffix(cfg.ExplorerURL, "/"),
		destination: cfg.Destination,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

type esploraTx struct {
	TxID   string `json:"txid"`
	Status struct {
		Confirmed   bool   `json:"confirmed"`
		BlockHeight uint64 `json:"block_height"`
	} `json:"status"`
	Vout []struct {
		ScriptPubKeyAddress string `json:"scriptpubkey_address"`
		Value               uint64 `json:"value"` // satoshis
	} `json:"vout"`
}

func (c *BTCClient) GetTransaction(ctx context.Context, txHash string) (appchain.TransactionInfo, error) {
	var tx esploraTx
	found, err := c.getJSON(ctx, "/tx/"+txHash, &tx)
	if err != nil {
		return appchain.TransactionInfo{}, err
	}
	if !found {
		return appchain.TransactionInfo{Exists: false}, nil
	}

	// Sum every output paying the destination; outputs to other addresses
	// are change or unrelated.
	var paid uint64
	for _, out := range tx.Vout {
		if out.ScriptPubKeyAddress == c.destination {
			paid += out.Value
		}
	}

	info := appchain.TransactionInfo{
		Exists:   true,
		Pending:  !tx.Status.Confirmed,
		ValueRaw: strconv.FormatUint(paid, 10),
	}
	if paid > 0 {
		info.To = c.destination
	}
	if tx.Status.Confirmed {
		info.BlockNumber = tx.Status.BlockHeight
	}
	return info, nil
}

func (c *BTCClient) GetConfirmations(ctx context.Context, txHash string) (int, error) {
	var tx esploraTx
	found, err := c.getJSON(ctx, "/tx/"+txHash, &tx)
	if err != nil {
		return 0, err
	}
	if !found || !tx.Status.Confirmed {
		return 0, nil
	}

	tip, err := c.CurrentHeight(ctx)
	if err != nil {
		return 0, err
	}
	if tip < tx.Status.BlockHeight {
		return 0, nil
	}
	return int(tip - tx.Status.BlockHeight), nil
}

func (c *BTCClient) CurrentHeight(ctx context.Context) (uint64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/blocks/tip/height", nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch tip height: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("explorer returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return 0, fmt.Errorf("read tip height: %w", err)
	}
	height, err := strconv.ParseUint(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse tip height: %w", err)
	}
	return height, nil
}

// getJSON fetches a path and decodes the response. A 404 reports found=false
// with a nil error; other non-200 statuses are errors.
func (c *BTCClient) getJSON(ctx context.Context, path string, out interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("explorer returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxExplorerResponseSize)).Decode(out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}
