// Package threshold implements clients for the threshold re-encryption
// network that guards sealed coupon plaintexts.
package threshold

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appthreshold "sealpay/internal/application/coupon/threshold"
	"sealpay/internal/shared/logger"
)

const (
	defaultRequestTimeout  = 10 * time.Second
	maxDecryptResponseSize = 256 << 10
)

// CoordinatorClient talks to a threshold-network coordinator over HTTP. The
// coordinator gathers re-encryption shares and combines them; this client
// only maps its outcomes onto the disclosure error contract.
type CoordinatorClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logger.Interface
}

type CoordinatorConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
}

func NewCoordinatorClient(cfg CoordinatorConfig, logger logger.Interface) (*CoordinatorClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("coordinator url is required")
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &CoordinatorClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

var _ appthreshold.Client = (*CoordinatorClient)(nil)

type decryptRequest struct {
	Capsule    string `json:"capsule"`
	Ciphertext string `json:"ciphertext"`
	PolicyID   string `json:"policy_id"`
}

type decryptResponse struct {
	Plaintext string `json:"plaintext"`
	Error     string `json:"error,omitempty"`
}

// Decrypt requests plaintext recovery. The coordinator enforces the policy
// window server-side, so a 410 here is authoritative even when the local
// clock disagrees.
func (c *CoordinatorClient) Decrypt(ctx context.Context, capsule, ciphertext, policyID string) (string, error) {
	payload, err := json.Marshal(decryptRequest{
		Capsule:    capsule,
		Ciphertext: ciphertext,
		PolicyID:   policyID,
	})
	if err != nil {
		return "", fmt.Errorf("encode decrypt request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/decrypt", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build decrypt request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", appthreshold.ErrQuorumUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDecryptResponseSize))
	if err != nil {
		return "", fmt.Errorf("read decrypt response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusGone:
		return "", appthreshold.ErrPolicyExpired
	case http.StatusConflict, http.StatusServiceUnavailable:
		c.logger.Warnw("threshold coordinator cannot assemble quorum",
			"policy_id", policyID, "status", resp.StatusCode)
		return "", appthreshold.ErrQuorumUnavailable
	default:
		return "", fmt.Errorf("coordinator returned status %d", resp.StatusCode)
	}

	var decoded decryptResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode decrypt response: %w", err)
	}
	if decoded.Plaintext == "" {
		return "", fmt.Errorf("coordinator returned empty plaintext")
	}
	return decoded.Plaintext, nil
}
