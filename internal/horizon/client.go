// Package horizon is a thin client for the Horizon API, used for direct
// envelope submission and account balance lookups outside the CLI toolchain.
package horizon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrAccountNotFound indicates Horizon has no record of the account.
var ErrAccountNotFound = errors.New("account not found")

// ErrNoNativeBalance indicates the account holds no native asset entry.
var ErrNoNativeBalance = errors.New("no native balance")

// Client talks to a Horizon server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Horizon client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SubmitTransaction posts a signed envelope directly to Horizon and returns
// the decoded response. Non-2xx responses surface the raw body so the caller
// sees Horizon's diagnostics unchanged.
func (c *Client) SubmitTransaction(ctx context.Context, signedXDR string) (map[string]any, error) {
	form := url.Values{"tx": {signedXDR}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transactions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("horizon returned %d: %s", res.StatusCode, body)
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type accountResponse struct {
	Balances []struct {
		Balance   string `json:"balance"`
		AssetType string `json:"asset_type"`
	} `json:"balances"`
}

// NativeBalance returns the native asset balance of an account as reported by
// Horizon.
func (c *Client) NativeBalance(ctx context.Context, accountID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/accounts/"+accountID, nil)
	if err != nil {
		return "", err
	}

	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", ErrAccountNotFound
	}

	var account accountResponse
	if err := json.NewDecoder(res.Body).Decode(&account); err != nil {
		return "", err
	}

	for _, b := range account.Balances {
		if b.AssetType == "native" {
			return b.Balance, nil
		}
	}
	return "", ErrNoNativeBalance
}
