package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cashtide/wallet/internal/logger"
)

const relayerTimeout = 5 * time.Second

// HTTPRelayer talks to the gas-sponsoring relayer service over its REST API.
// It implements both Relayer and TokenReader: the same service that submits
// sponsored transfers also proxies balance reads.
type HTTPRelayer struct {
	baseURL string
	address string
	client  *http.Client
	logger  logger.Logger
}

// NewHTTPRelayer builds a relayer client for one smart contract account.
// The address is assigned by the relayer at onboarding and comes back with
// the login credentials.
func NewHTTPRelayer(baseURL string, address string, l logger.Logger) *HTTPRelayer {
	return &HTTPRelayer{
		baseURL: strings.TrimRight(baseURL, "/"),
		address: address,
		client:  &http.Client{},
		logger:  l,
	}
}

func (r *HTTPRelayer) Address() string {
	return r.address
}

// Transfer submits a sponsored transfer and returns the transaction hash once
// the relayer accepts it.
func (r *HTTPRelayer) Transfer(ctx context.Context, token Token, to string, units decimal.Decimal) (string, error) {
	body := struct {
		From         string `json:"from"`
		To           string `json:"to"`
		TokenAddress string `json:"tokenAddress"`
		Amount       string `json:"amount"`
	}{
		From:         r.address,
		To:           to,
		TokenAddress: token.Address,
		Amount:       units.String(),
	}

	var resp struct {
		TxHash string `json:"txhash"`
	}
	if err := r.do(ctx, http.MethodPost, "/v1/transfers", body, &resp); err != nil {
		return "", fmt.Errorf("relayer transfer: %w", err)
	}
	if resp.TxHash == "" {
		return "", fmt.Errorf("relayer transfer: response carries no transaction hash")
	}

	r.logger.Debug("Relayer accepted transfer", "tx_hash", resp.TxHash, "to", to)
	return resp.TxHash, nil
}

// BalanceOf reads a token balance through the relayer's chain proxy.
func (r *HTTPRelayer) BalanceOf(ctx context.Context, token Token, address string) (decimal.Decimal, error) {
	var resp struct {
		Balance string `json:"balance"`
	}

	path := fmt.Sprintf("/v1/accounts/%s/balance?token=%s", address, token.Address)
	if err := r.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return decimal.Decimal{}, fmt.Errorf("relayer balance read: %w", err)
	}

	units, err := decimal.NewFromString(resp.Balance)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("relayer balance read: bad amount %q: %w", resp.Balance, err)
	}
	return units, nil
}

func (r *HTTPRelayer) do(ctx context.Context, method string, path string, body any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, relayerTimeout)
	defer cancel()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("can't encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("can't create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		// An accepted submission may come back with an empty body; the
		// caller validates the fields it actually needs
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("can't decode response: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}
