package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cashtide/wallet/internal/logger"
	"github.com/cashtide/wallet/internal/models"
)

const requestTimeout = 5 * time.Second

// Client talks to the user/transaction/request REST backend.
type Client struct {
	BaseURL string

	client *http.Client
	logger logger.Logger
}

func NewClient(baseURL string, l logger.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		logger:  l,
	}
}

// GetUser fetches an account by its backend id.
func (c *Client) GetUser(ctx context.Context, id string) (models.Account, error) {
	var p accountPayload
	if err := c.do(ctx, http.MethodGet, "/api/user/get/"+url.PathEscape(id), nil, &p); err != nil {
		return models.Account{}, err
	}
	return p.toModel()
}

// GetUserByPhone looks an account up by canonical phone identifier.
func (c *Client) GetUserByPhone(ctx context.Context, phone string) (models.Account, error) {
	var p accountPayload
	if err := c.do(ctx, http.MethodGet, "/api/user/phone/"+url.PathEscape(phone), nil, &p); err != nil {
		return models.Account{}, err
	}
	return p.toModel()
}

type RegisterUserParams struct {
	PhoneNumber string `json:"phoneNumber"`
	ProviderDID string `json:"providerDid"`
	Name        string `json:"name,omitempty"`
}

// RegisterUser creates the backend account on first authentication.
func (c *Client) RegisterUser(ctx context.Context, params RegisterUserParams) (models.Account, error) {
	var p accountPayload
	if err := c.do(ctx, http.MethodPost, "/api/user/register", params, &p); err != nil {
		return models.Account{}, err
	}
	return p.toModel()
}

// PregenerateUser provisions a placeholder account for a phone number that
// has not onboarded yet, so funds can be sent ahead of registration.
func (c *Client) PregenerateUser(ctx context.Context, phone string) (models.Account, error) {
	body := struct {
		PhoneNumber string `json:"phoneNumber"`
	}{PhoneNumber: phone}

	var p accountPayload
	if err := c.do(ctx, http.MethodPost, "/api/user/pregenerate", body, &p); err != nil {
		return models.Account{}, err
	}
	return p.toModel()
}

type UpdateUserParams struct {
	Name   string `json:"name,omitempty"`
	Status string `json:"status,omitempty"`
}

func (c *Client) UpdateUser(ctx context.Context, id string, params UpdateUserParams) (models.Account, error) {
	var p accountPayload
	if err := c.do(ctx, http.MethodPut, "/api/user/update/"+url.PathEscape(id), params, &p); err != nil {
		return models.Account{}, err
	}
	return p.toModel()
}

// ListTransactions fetches one transaction list (send, receive, deposit or
// withdrawal) for a user.
func (c *Client) ListTransactions(ctx context.Context, userID string, txType string) ([]models.Transaction, error) {
	path := fmt.Sprintf("/api/transaction/user/%s?type=%s", url.PathEscape(userID), url.QueryEscape(txType))

	var payloads []transactionPayload
	if err := c.do(ctx, http.MethodGet, path, nil, &payloads); err != nil {
		return nil, err
	}

	txs := make([]models.Transaction, 0, len(payloads))
	for _, p := range payloads {
		tx, err := p.toModel()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

type CreateTransactionParams struct {
	TxHash     string
	Type       string
	SenderID   string
	ReceiverID string
	Amount     models.Amount
	Status     string

	// IdempotencyKey lets the backend drop a duplicate record if the same
	// attempt is posted twice.
	IdempotencyKey string
}

// CreateTransaction records a settled transfer with the backend.
func (c *Client) CreateTransaction(ctx context.Context, params CreateTransactionParams) (models.Transaction, error) {
	body := struct {
		TxHash     string          `json:"txhash"`
		Type       string          `json:"transactionType"`
		SenderID   string          `json:"senderId"`
		ReceiverID string          `json:"receiverId"`
		Amount     decimal.Decimal `json:"amount"`
		Status     string          `json:"transactionStatus"`
	}{
		TxHash:     params.TxHash,
		Type:       strings.ToUpper(params.Type),
		SenderID:   params.SenderID,
		ReceiverID: params.ReceiverID,
		Amount:     params.Amount.Decimal(),
		Status:     strings.ToUpper(params.Status),
	}

	headers := http.Header{}
	if params.IdempotencyKey != "" {
		headers.Set("Idempotency-Key", params.IdempotencyKey)
	}

	var p transactionPayload
	if err := c.doWithHeaders(ctx, http.MethodPost, "/api/transaction", body, &p, headers); err != nil {
		return models.Transaction{}, err
	}
	return p.toModel()
}

type CreateRequestParams struct {
	RequesterID string
	PayerID     string
	Amount      models.Amount
	Message     string
}

// CreateRequest creates a DIRECT money request bound to a payer.
func (c *Client) CreateRequest(ctx context.Context, params CreateRequestParams) (models.MoneyRequest, error) {
	body := struct {
		RequesterID string          `json:"requesterId"`
		PayerID     string          `json:"payerId"`
		Amount      decimal.Decimal `json:"amount"`
		Message     string          `json:"message,omitempty"`
	}{params.RequesterID, params.PayerID, params.Amount.Decimal(), params.Message}

	var p requestPayload
	if err := c.do(ctx, http.MethodPost, "/api/request/", body, &p); err != nil {
		return models.MoneyRequest{}, err
	}
	return p.toModel()
}

// CreateGlobalRequest creates an open request fulfillable by whoever follows
// its share link.
func (c *Client) CreateGlobalRequest(ctx context.Context, requesterID string, amount models.Amount, message string) (models.MoneyRequest, error) {
	body := struct {
		RequesterID string          `json:"requesterId"`
		Amount      decimal.Decimal `json:"amount"`
		Message     string          `json:"message,omitempty"`
	}{requesterID, amount.Decimal(), message}

	var p requestPayload
	if err := c.do(ctx, http.MethodPost, "/api/request/global", body, &p); err != nil {
		return models.MoneyRequest{}, err
	}
	return p.toModel()
}

func (c *Client) GetRequest(ctx context.Context, id string) (models.MoneyRequest, error) {
	var p requestPayload
	if err := c.do(ctx, http.MethodGet, "/api/request/get/"+url.PathEscape(id), nil, &p); err != nil {
		return models.MoneyRequest{}, err
	}
	return p.toModel()
}

func (c *Client) ListRequests(ctx context.Context, userID string) ([]models.MoneyRequest, error) {
	var payloads []requestPayload
	if err := c.do(ctx, http.MethodGet, "/api/request/get/all/"+url.PathEscape(userID), nil, &payloads); err != nil {
		return nil, err
	}

	requests := make([]models.MoneyRequest, 0, len(payloads))
	for _, p := range payloads {
		r, err := p.toModel()
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, nil
}

func (c *Client) CancelRequest(ctx context.Context, id string) (models.MoneyRequest, error) {
	var p requestPayload
	if err := c.do(ctx, http.MethodPost, "/api/request/cancel/"+url.PathEscape(id), nil, &p); err != nil {
		return models.MoneyRequest{}, err
	}
	return p.toModel()
}

// UpdateRequestStatus moves a request to a terminal status.
func (c *Client) UpdateRequestStatus(ctx context.Context, id string, status string) (models.MoneyRequest, error) {
	body := struct {
		Status string `json:"status"`
	}{Status: strings.ToUpper(status)}

	var p requestPayload
	if err := c.do(ctx, http.MethodPut, "/api/request/update-status/"+url.PathEscape(id), body, &p); err != nil {
		return models.MoneyRequest{}, err
	}
	return p.toModel()
}

func (c *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	return c.doWithHeaders(ctx, method, path, body, out, nil)
}

func (c *Client) doWithHeaders(ctx context.Context, method string, path string, body any, out any, headers http.Header) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return newError(CodeDecode, fmt.Errorf("failed to encode request body: %w", err))
		}
		reader = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return newError(CodeTransport, fmt.Errorf("failed to create request: %w", err))
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return newError(CodeTransport, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close() // nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.logger.Warn("Failed to decode backend response", "method", method, "path", path, "error", err)
			return newError(CodeDecode, fmt.Errorf("failed to decode response: %w", err))
		}
		return nil

	case http.StatusNotFound:
		return newError(CodeNotFound, fmt.Errorf("%s %s: not found", method, path))

	default:
		c.logger.Warn("Unexpected backend status", "method", method, "path", path, "status_code", resp.StatusCode)
		return newError(CodeBadStatus, fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode))
	}
}
