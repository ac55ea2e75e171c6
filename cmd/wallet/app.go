package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cashtide/wallet/internal/backend"
	"github.com/cashtide/wallet/internal/balance"
	"github.com/cashtide/wallet/internal/chain"
	"github.com/cashtide/wallet/internal/localstore"
	"github.com/cashtide/wallet/internal/logger"
	"github.com/cashtide/wallet/internal/models"
	"github.com/cashtide/wallet/internal/session"
	"github.com/cashtide/wallet/internal/wallet"
	"github.com/cashtide/wallet/internal/workflow"
)

// App wires the client stack and drives one money-movement flow per run.
type App struct {
	config   *Config
	logger   logger.Logger
	session  *session.Session
	service  *wallet.Service
	balances *balance.Cache
}

func NewApp(ctx context.Context, c *Config) (*App, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	store, err := localstore.New(c.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("error while opening local cache: %w", err)
	}

	backendClient := backend.NewClient(c.BackendURL, log)

	identity := &tokenIdentity{
		backend: backendClient,
		token:   c.AccessToken,
		phone:   c.Phone,
	}
	sess := session.New(identity, store, log)

	if !sess.Authenticated() {
		if _, err := sess.Login(ctx); err != nil {
			return nil, fmt.Errorf("error while logging in: %w", err)
		}
	}

	relayer := chain.NewHTTPRelayer(c.RelayerURL, sess.WalletAddress(), log)

	balances := balance.NewCache(balance.Config{
		Fetch: func(ctx context.Context, address string) (models.Amount, error) {
			return chain.ReadBalance(ctx, relayer, chain.USDC, address)
		},
		Logger: log,
	})

	service := wallet.NewService(backendClient, relayer, chain.USDC, balances, sess, log)

	return &App{
		config:   c,
		logger:   log,
		session:  sess,
		service:  service,
		balances: balances,
	}, nil
}

// Run executes the flow selected by the flags. Without a flow flag it just
// prints the balance and recent activity.
func (a *App) Run(ctx context.Context) error {
	c := a.config

	switch {
	case c.RequestID != "":
		return a.fulfill(ctx, c.RequestID)
	case c.Send:
		return a.send(ctx)
	case c.Request:
		return a.request(ctx)
	case c.Watch:
		return a.watch(ctx)
	default:
		return a.overview(ctx)
	}
}

// watch keeps the balance fresh in the background and prints it on every
// refresh cycle until the context is cancelled.
func (a *App) watch(ctx context.Context) error {
	poller := &balance.Poller{
		Interval: balance.DefaultTTL,
		Address:  a.session.WalletAddress,
		Cache:    a.balances,
		Logger:   a.logger,
	}
	stopped := poller.Run(ctx)

	ticker := time.NewTicker(balance.DefaultTTL)
	defer ticker.Stop()

	for {
		amount, err := a.service.Balance(ctx)
		if err != nil {
			a.logger.Warn("Balance unavailable", "error", err)
		} else {
			fmt.Printf("%s  %s %s\n", time.Now().Format("15:04:05"), amount, chain.USDC.Symbol)
		}

		select {
		case <-ctx.Done():
			<-stopped
			return nil
		case <-ticker.C:
		}
	}
}

func (a *App) send(ctx context.Context) error {
	flow := workflow.NewSend(a.service, a.session, a.logger)

	if err := enterAmount(flow, a.config.Amount); err != nil {
		return err
	}
	if err := flow.Continue(ctx); err != nil {
		return fmt.Errorf("can't confirm amount: %w", err)
	}

	enterPhone(flow, a.config.To)
	if err := flow.Continue(ctx); err != nil {
		return fmt.Errorf("can't confirm recipient: %w", err)
	}

	if err := flow.Submit(ctx); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}

	fmt.Printf("Sent %s to %s\n", flow.Amount(), flow.Phone().Canonical())
	return nil
}

func (a *App) request(ctx context.Context) error {
	flow := workflow.NewRequest(a.service, a.session, a.logger)
	flow.SetMessage(a.config.Message)

	if err := enterAmount(flow, a.config.Amount); err != nil {
		return err
	}
	if err := flow.Continue(ctx); err != nil {
		return fmt.Errorf("can't confirm amount: %w", err)
	}

	if a.config.FromAnyone {
		flow.SetAudience(workflow.AudienceAnyone)
	} else {
		enterPhone(flow, a.config.To)
	}
	if err := flow.Continue(ctx); err != nil {
		return fmt.Errorf("can't confirm payer: %w", err)
	}

	if err := flow.Submit(ctx); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if flow.Step() == workflow.StepShare {
		fmt.Printf("Share this link to get paid: %s\n", flow.ShareLink(""))
		return nil
	}
	fmt.Printf("Requested %s from %s\n", flow.Amount(), flow.Phone().Canonical())
	return nil
}

func (a *App) fulfill(ctx context.Context, requestID string) error {
	flow := workflow.NewFulfill(a.service, a.session, a.logger)

	if err := flow.ResumeRequest(ctx, requestID); err != nil {
		if msg := flow.ErrorMessage(); msg != "" {
			return errors.New(msg)
		}
		return err
	}

	req, _ := flow.BoundRequest()
	fmt.Printf("Paying request from %s for %s\n", req.Requester.Name, req.Amount)

	if err := flow.Submit(ctx); err != nil {
		return fmt.Errorf("payment failed: %w", err)
	}

	fmt.Println("Request paid")
	return nil
}

func (a *App) overview(ctx context.Context) error {
	amount, err := a.service.Balance(ctx)
	if err != nil {
		return fmt.Errorf("can't load balance: %w", err)
	}
	fmt.Printf("Balance: %s %s\n", amount, chain.USDC.Symbol)

	txs, err := a.service.Transactions(ctx)
	if err != nil {
		return fmt.Errorf("can't load activity: %w", err)
	}
	for _, tx := range txs {
		fmt.Printf("%s  %-10s  %s\n", tx.CreatedAt.Format("2006-01-02 15:04"), tx.Type, tx.Amount)
	}
	return nil
}

// enterAmount feeds a decimal string through the keypad path so the same
// entry rules apply as in the UI.
func enterAmount(flow *workflow.Flow, raw string) error {
	if raw == "" {
		return errors.New("amount is required, e.g. --amount 12.50")
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("bad amount %q: %w", raw, err)
	}
	amount, err := models.AmountFromDecimal(d)
	if err != nil {
		return fmt.Errorf("bad amount %q: %w", raw, err)
	}

	for _, r := range strconv.FormatInt(amount.MinorUnits(), 10) {
		flow.ApplyDigit(int(r - '0'))
	}
	return nil
}

// enterPhone accepts either a canonical identifier like "+91 9876543210" or
// bare national digits under the default dial code.
func enterPhone(flow *workflow.Flow, raw string) {
	if p, err := models.PhoneNumberFromCanonical(raw); err == nil {
		flow.SetCountry(p.DialCode())
		flow.SetPhoneDigits(p.National())
		return
	}
	flow.SetPhoneDigits(raw)
}

// tokenIdentity is the CLI stand-in for the identity provider SDK: it trusts
// a pre-issued access token and resolves the own account by phone.
type tokenIdentity struct {
	backend *backend.Client
	token   string
	phone   string
}

func (i *tokenIdentity) Login(ctx context.Context) (session.Credentials, error) {
	if i.token == "" || i.phone == "" {
		return session.Credentials{}, errors.New("ACCESS_TOKEN and WALLET_PHONE must be set")
	}

	account, err := i.backend.GetUserByPhone(ctx, i.phone)
	if err != nil {
		return session.Credentials{}, fmt.Errorf("can't resolve own account: %w", err)
	}

	return session.Credentials{Account: account, AccessToken: i.token}, nil
}

func (i *tokenIdentity) Logout(context.Context) error {
	return nil
}
