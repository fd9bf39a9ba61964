package random

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RandomOrgClient calls the random.org JSON-RPC API to generate true random
// integers. Every call is bounded by the HTTP client timeout; callers are
// expected to fall back to a local source on any error.
type RandomOrgClient struct {
	apiKey     string
	url        string
	httpClient *http.Client
}

// NewRandomOrgClient creates a client for the random.org invoke endpoint
func NewRandomOrgClient(apiKey, url string, timeout time.Duration) *RandomOrgClient {
	return &RandomOrgClient{
		apiKey: apiKey,
		url:    url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type generateIntegersParams struct {
	APIKey      string `json:"apiKey"`
	N           int    `json:"n"`
	Min         int    `json:"min"`
	Max         int    `json:"max"`
	Replacement bool   `json:"replacement"`
}

type rpcRequest struct {
	JSONRPC string                 `json:"jsonrpc"`
	Method  string                 `json:"method"`
	Params  generateIntegersParams `json:"params"`
	ID      int64                  `json:"id"`
}

type rpcResponse struct {
	Result *struct {
		Random struct {
			Data []int `json:"data"`
		} `json:"random"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateIntegers requests n distinct integers in [min, max] from
// random.org. Responses that are malformed or violate the requested count are
// returned as errors so the caller can fall back.
func (c *RandomOrgClient) GenerateIntegers(ctx context.Context, n, min, max int) ([]int, error) {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		Method:  "generateIntegers",
		Params: generateIntegersParams{
			APIKey:      c.apiKey,
			N:           n,
			Min:         min,
			Max:         max,
			Replacement: false,
		},
		ID: time.Now().UnixMilli(),
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("random.org request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("random.org returned status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, fmt.Errorf("random.org error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if rpcResp.Result == nil {
		return nil, fmt.Errorf("random.org response missing result")
	}

	data := rpcResp.Result.Random.Data
	if len(data) != n {
		return nil, fmt.Errorf("random.org returned %d values, expected %d", len(data), n)
	}

	return data, nil
}
