package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wire shapes the fake speaks. They mirror the real backend's JSON, not the
// client models, so the client's decoding path is exercised for real.

type Account struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	PhoneNumber   string    `json:"phoneNumber"`
	WalletAddress string    `json:"walletAddress"`
	ProviderDID   string    `json:"providerDid"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Transaction struct {
	ID          string          `json:"id"`
	TxHash      string          `json:"txhash"`
	Type        string          `json:"transactionType"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"transactionStatus"`
	CreatedAt   time.Time       `json:"createdAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	Sender      Account         `json:"sender"`
	Receiver    Account         `json:"receiver"`
}

type MoneyRequest struct {
	ID        string          `json:"id"`
	Requester Account         `json:"requester"`
	Payer     *Account        `json:"payer,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Message   string          `json:"message"`
	Kind      string          `json:"requestType"`
	Status    string          `json:"requestStatus"`
	CreatedAt time.Time       `json:"createdAt"`
}

// FakeBackend is an in-memory stand-in for the REST backend, good enough for
// client tests: accounts keyed by phone, requests and transactions by id.
type FakeBackend struct {
	Server *httptest.Server

	mu           sync.Mutex
	accounts     map[string]Account // keyed by id
	requests     map[string]MoneyRequest
	transactions []Transaction

	// Counters tests assert on
	PregenerateCalls     int
	CreateTxCalls        int
	SeenIdempotencyKeys  []string
	FailCreateTx         bool
	FailLookupByPhone    bool
	UpdateStatusCalls    int
	LastUpdatedStatus    string
	LastUpdatedRequestID string
}

func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	fb := &FakeBackend{
		accounts: map[string]Account{},
		requests: map[string]MoneyRequest{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/user/get/{id}", fb.handleGetUser)
	mux.HandleFunc("GET /api/user/phone/{phone}", fb.handleGetUserByPhone)
	mux.HandleFunc("POST /api/user/register", fb.handleRegister)
	mux.HandleFunc("POST /api/user/pregenerate", fb.handlePregenerate)
	mux.HandleFunc("GET /api/transaction/user/{id}", fb.handleListTransactions)
	mux.HandleFunc("POST /api/transaction", fb.handleCreateTransaction)
	mux.HandleFunc("POST /api/request/", fb.handleCreateRequest)
	mux.HandleFunc("POST /api/request/global", fb.handleCreateGlobalRequest)
	mux.HandleFunc("GET /api/request/get/all/{userId}", fb.handleListRequests)
	mux.HandleFunc("GET /api/request/get/{id}", fb.handleGetRequest)
	mux.HandleFunc("POST /api/request/cancel/{id}", fb.handleCancelRequest)
	mux.HandleFunc("PUT /api/request/update-status/{id}", fb.handleUpdateRequestStatus)

	fb.Server = httptest.NewServer(mux)
	t.Cleanup(fb.Server.Close)

	return fb
}

func (fb *FakeBackend) URL() string {
	return fb.Server.URL
}

// AddAccount seeds an account, filling in id and address when empty.
func (fb *FakeBackend) AddAccount(acc Account) Account {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}
	if acc.WalletAddress == "" {
		acc.WalletAddress = DeterministicAddress(acc.PhoneNumber)
	}
	if acc.Status == "" {
		acc.Status = "active"
	}
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = time.Now().UTC()
	}
	fb.accounts[acc.ID] = acc
	return acc
}

// AddRequest seeds a money request, filling in id and status when empty.
func (fb *FakeBackend) AddRequest(req MoneyRequest) MoneyRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = "PENDING"
	}
	if req.Kind == "" {
		req.Kind = "DIRECT"
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	fb.requests[req.ID] = req
	return req
}

func (fb *FakeBackend) Request(id string) (MoneyRequest, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	r, ok := fb.requests[id]
	return r, ok
}

func (fb *FakeBackend) Transactions() []Transaction {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]Transaction(nil), fb.transactions...)
}

// DeterministicAddress derives a stable fake wallet address from a phone
// identifier, the way the backend pre-generates placeholder accounts.
func DeterministicAddress(phone string) string {
	sum := sha256.Sum256([]byte(phone))
	return "0x" + hex.EncodeToString(sum[:20])
}

func (fb *FakeBackend) handleGetUser(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	acc, ok := fb.accounts[r.PathValue("id")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, acc)
}

func (fb *FakeBackend) handleGetUserByPhone(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.FailLookupByPhone {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	phone := r.PathValue("phone")
	for _, acc := range fb.accounts {
		if acc.PhoneNumber == phone {
			writeJSON(w, acc)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (fb *FakeBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PhoneNumber string `json:"phoneNumber"`
		ProviderDID string `json:"providerDid"`
		Name        string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	// Registration of a pre-generated phone claims the existing account
	for id, acc := range fb.accounts {
		if acc.PhoneNumber == body.PhoneNumber {
			acc.ProviderDID = body.ProviderDID
			acc.Status = "active"
			fb.accounts[id] = acc
			writeJSON(w, acc)
			return
		}
	}

	acc := Account{
		ID:            uuid.NewString(),
		Name:          body.Name,
		PhoneNumber:   body.PhoneNumber,
		WalletAddress: DeterministicAddress(body.PhoneNumber),
		ProviderDID:   body.ProviderDID,
		Status:        "created",
		CreatedAt:     time.Now().UTC(),
	}
	fb.accounts[acc.ID] = acc
	writeJSON(w, acc)
}

func (fb *FakeBackend) handlePregenerate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.PregenerateCalls++

	// Phone uniqueness: pregenerate is idempotent per identifier
	for _, acc := range fb.accounts {
		if acc.PhoneNumber == body.PhoneNumber {
			writeJSON(w, acc)
			return
		}
	}

	acc := Account{
		ID:            uuid.NewString(),
		PhoneNumber:   body.PhoneNumber,
		WalletAddress: DeterministicAddress(body.PhoneNumber),
		Status:        "pending",
		CreatedAt:     time.Now().UTC(),
	}
	fb.accounts[acc.ID] = acc
	writeJSON(w, acc)
}

func (fb *FakeBackend) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	userID := r.PathValue("id")
	txType := strings.ToUpper(r.URL.Query().Get("type"))

	out := []Transaction{}
	for _, tx := range fb.transactions {
		if tx.Type != txType {
			continue
		}
		if tx.Sender.ID == userID || tx.Receiver.ID == userID {
			out = append(out, tx)
		}
	}
	writeJSON(w, out)
}

func (fb *FakeBackend) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TxHash     string          `json:"txhash"`
		Type       string          `json:"transactionType"`
		SenderID   string          `json:"senderId"`
		ReceiverID string          `json:"receiverId"`
		Amount     decimal.Decimal `json:"amount"`
		Status     string          `json:"transactionStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.CreateTxCalls++
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		fb.SeenIdempotencyKeys = append(fb.SeenIdempotencyKeys, key)
	}

	if fb.FailCreateTx {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	tx := Transaction{
		ID:          uuid.NewString(),
		TxHash:      body.TxHash,
		Type:        body.Type,
		Amount:      body.Amount,
		Status:      body.Status,
		CreatedAt:   now,
		CompletedAt: &now,
		Sender:      fb.accounts[body.SenderID],
		Receiver:    fb.accounts[body.ReceiverID],
	}
	fb.transactions = append(fb.transactions, tx)
	writeJSON(w, tx)
}

func (fb *FakeBackend) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RequesterID string          `json:"requesterId"`
		PayerID     string          `json:"payerId"`
		Amount      decimal.Decimal `json:"amount"`
		Message     string          `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	payer := fb.accounts[body.PayerID]
	req := MoneyRequest{
		ID:        uuid.NewString(),
		Requester: fb.accounts[body.RequesterID],
		Payer:     &payer,
		Amount:    body.Amount,
		Message:   body.Message,
		Kind:      "DIRECT",
		Status:    "PENDING",
		CreatedAt: time.Now().UTC(),
	}
	fb.requests[req.ID] = req
	writeJSON(w, req)
}

func (fb *FakeBackend) handleCreateGlobalRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RequesterID string          `json:"requesterId"`
		Amount      decimal.Decimal `json:"amount"`
		Message     string          `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	req := MoneyRequest{
		ID:        uuid.NewString(),
		Requester: fb.accounts[body.RequesterID],
		Amount:    body.Amount,
		Message:   body.Message,
		Kind:      "GLOBAL",
		Status:    "PENDING",
		CreatedAt: time.Now().UTC(),
	}
	fb.requests[req.ID] = req
	writeJSON(w, req)
}

func (fb *FakeBackend) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	req, ok := fb.requests[r.PathValue("id")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, req)
}

func (fb *FakeBackend) handleListRequests(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	userID := r.PathValue("userId")
	out := []MoneyRequest{}
	for _, req := range fb.requests {
		if req.Requester.ID == userID || (req.Payer != nil && req.Payer.ID == userID) {
			out = append(out, req)
		}
	}
	writeJSON(w, out)
}

func (fb *FakeBackend) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	req, ok := fb.requests[r.PathValue("id")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	req.Status = "CANCELED"
	fb.requests[req.ID] = req
	writeJSON(w, req)
}

func (fb *FakeBackend) handleUpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	req, ok := fb.requests[r.PathValue("id")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	req.Status = strings.ToUpper(body.Status)
	fb.requests[req.ID] = req

	fb.UpdateStatusCalls++
	fb.LastUpdatedStatus = req.Status
	fb.LastUpdatedRequestID = req.ID
	writeJSON(w, req)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(data)
}
