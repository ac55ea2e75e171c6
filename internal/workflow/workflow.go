// Package workflow implements the money-movement state machine shared by the
// send, request and fulfill-a-request screens: Amount -> Recipient ->
// Summary -> Done (or Share for open requests), with a terminal Error state
// for invalid request links.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cashtide/wallet/internal/apperrors"
	"github.com/cashtide/wallet/internal/logger"
	"github.com/cashtide/wallet/internal/models"
)

type Step int

const (
	StepAmount Step = iota
	StepRecipient
	StepSummary
	StepShare
	StepError
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepAmount:
		return "amount"
	case StepRecipient:
		return "recipient"
	case StepSummary:
		return "summary"
	case StepShare:
		return "share"
	case StepError:
		return "error"
	case StepDone:
		return "done"
	}
	return "unknown"
}

type Kind int

const (
	KindSend Kind = iota
	KindRequest
	KindFulfill
)

// Audience of a request flow: a specific payer or anyone with the link.
type Audience int

const (
	AudienceDirect Audience = iota
	AudienceAnyone
)

// User-facing messages for the terminal error state
const (
	MsgRequestNotFound    = "Request not found"
	MsgRequestFulfilled   = "This request has already been fulfilled"
	MsgRequestNotForYou   = "This request is not meant for you"
	MsgRequestUnavailable = "This request can't be loaded right now"
)

// operations is what the flow needs from the wallet service.
type operations interface {
	Balance(ctx context.Context) (models.Amount, error)
	Send(ctx context.Context, amount models.Amount, to string) (models.Transaction, error)
	SendTo(ctx context.Context, amount models.Amount, recipient models.Account) (models.Transaction, error)
	Request(ctx context.Context, amount models.Amount, from string, message string) (models.MoneyRequest, error)
	RequestFromAnyone(ctx context.Context, amount models.Amount, message string) (models.MoneyRequest, error)
	GetRequest(ctx context.Context, id string) (models.MoneyRequest, error)
	UpdateRequestStatus(ctx context.Context, req models.MoneyRequest, status string) (models.MoneyRequest, error)
}

// authSession is what the flow needs from the session.
type authSession interface {
	Authenticated() bool
	CurrentAccount() (models.Account, bool)
	StashRedirect(url string)
}

// Flow is one screen-lifetime of the money-movement workflow. It is created
// when the screen mounts, never persisted, and thrown away on navigation.
// Guard failures come back as sentinel errors so the view can disable the
// Continue control; remote failures leave the current step intact for retry.
type Flow struct {
	kind    Kind
	ops     operations
	session authSession
	logger  logger.Logger

	mu         sync.Mutex
	step       Step
	audience   Audience
	amount     models.Amount
	phone      models.PhoneNumber
	message    string
	request    *models.MoneyRequest
	errMessage string
	submitting bool
}

func NewSend(ops operations, sess authSession, l logger.Logger) *Flow {
	return &Flow{kind: KindSend, ops: ops, session: sess, logger: l, step: StepAmount, phone: models.NewPhoneNumber()}
}

func NewRequest(ops operations, sess authSession, l logger.Logger) *Flow {
	return &Flow{kind: KindRequest, ops: ops, session: sess, logger: l, step: StepAmount, phone: models.NewPhoneNumber()}
}

// NewFulfill creates a flow entered through a request deep link. It stays
// inert until ResumeRequest validates the link.
func NewFulfill(ops operations, sess authSession, l logger.Logger) *Flow {
	return &Flow{kind: KindFulfill, ops: ops, session: sess, logger: l, step: StepSummary, phone: models.NewPhoneNumber()}
}

func (f *Flow) Kind() Kind {
	return f.kind
}

func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

func (f *Flow) Amount() models.Amount {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.amount
}

func (f *Flow) Phone() models.PhoneNumber {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phone
}

func (f *Flow) ErrorMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMessage
}

// BoundRequest returns the money request this flow is fulfilling, if any.
func (f *Flow) BoundRequest() (models.MoneyRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.request == nil {
		return models.MoneyRequest{}, false
	}
	return *f.request, true
}

// ShareLink returns the deep link for the request created by an open request
// flow, or the empty string before the request exists.
func (f *Flow) ShareLink(origin string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.request == nil {
		return ""
	}
	return SendLink(origin, f.request.ID)
}

func (f *Flow) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// ApplyDigit feeds a keypad digit into the draft amount. Only live on the
// amount step.
func (f *Flow) ApplyDigit(digit int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step == StepAmount {
		f.amount = f.amount.ApplyDigit(digit)
	}
}

func (f *Flow) DeleteDigit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step == StepAmount {
		f.amount = f.amount.DeleteDigit()
	}
}

func (f *Flow) SetCountry(dialCode string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step == StepRecipient {
		f.phone.SetCountry(dialCode)
	}
}

func (f *Flow) SetPhoneDigits(raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step == StepRecipient {
		f.phone.SetNationalDigits(raw)
	}
}

// SetAudience switches a request flow between a specific payer and anyone.
func (f *Flow) SetAudience(a Audience) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.kind == KindRequest {
		f.audience = a
	}
}

func (f *Flow) SetMessage(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = message
}

// Continue advances Amount -> Recipient -> Summary when the current step's
// guard passes. Guard failures are local: no network call is made and the
// returned sentinel only tells the view to keep the control disabled.
func (f *Flow) Continue(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.step {
	case StepAmount:
		if !f.amount.IsPositive() {
			return apperrors.ErrAmountNotPositive
		}
		// You may request more than you have; you may not send it
		if f.kind == KindSend {
			current, err := f.ops.Balance(ctx)
			if err != nil {
				return fmt.Errorf("can't check balance: %w", err)
			}
			if f.amount.GreaterThan(current) {
				return apperrors.ErrInsufficientBalance
			}
		}
		f.step = StepRecipient
		return nil

	case StepRecipient:
		if f.kind == KindRequest && f.audience == AudienceAnyone {
			f.step = StepSummary
			return nil
		}
		if !f.phone.IsComplete() {
			return apperrors.ErrPhoneIncomplete
		}
		f.step = StepSummary
		return nil

	default:
		return fmt.Errorf("can't continue from step %s", f.step)
	}
}

// Back walks one step towards the amount entry, preserving everything the
// user typed. It is a no-op on steps with nowhere to go back to.
func (f *Flow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.step {
	case StepRecipient:
		f.step = StepAmount
	case StepSummary:
		// A fulfill summary was entered directly from the link
		if f.kind != KindFulfill {
			f.step = StepRecipient
		}
	case StepShare:
		f.step = StepSummary
	}
}

// Submit runs the summary-step action: transfer for send flows, request
// creation for request flows, accept-and-pay for fulfill flows. While one
// submission is pending every further Submit is refused locally, so a
// double-tap can never move funds twice. On failure the flow stays on the
// summary step with all input intact.
func (f *Flow) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.step != StepSummary {
		f.mu.Unlock()
		return fmt.Errorf("can't submit from step %s", f.step)
	}
	if f.submitting {
		f.mu.Unlock()
		return apperrors.ErrSubmissionInFlight
	}
	f.submitting = true
	kind, audience, amount, phone, message := f.kind, f.audience, f.amount, f.phone, f.message
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	switch kind {
	case KindSend:
		if _, err := f.ops.Send(ctx, amount, phone.Canonical()); err != nil {
			return err
		}
		f.finish(StepDone)
		return nil

	case KindRequest:
		if audience == AudienceAnyone {
			req, err := f.ops.RequestFromAnyone(ctx, amount, message)
			if err != nil {
				return err
			}
			f.mu.Lock()
			f.request = &req
			f.step = StepShare
			f.mu.Unlock()
			return nil
		}
		if _, err := f.ops.Request(ctx, amount, phone.Canonical(), message); err != nil {
			return err
		}
		f.finish(StepDone)
		return nil

	case KindFulfill:
		return f.acceptAndPay(ctx, amount)
	}

	return fmt.Errorf("unknown flow kind %d", kind)
}

func (f *Flow) acceptAndPay(ctx context.Context, amount models.Amount) error {
	req, ok := f.BoundRequest()
	if !ok {
		return apperrors.ErrRequestLinkInvalid
	}

	if _, err := f.ops.SendTo(ctx, amount, req.Requester); err != nil {
		return err
	}

	// Funds have moved; a failed status flip must not undo the terminal step
	if _, err := f.ops.UpdateRequestStatus(ctx, req, models.RequestStatusApproved); err != nil {
		f.logger.Warn("Paid request but status update failed", "request_id", req.ID, "error", err)
	}

	f.finish(StepDone)
	return nil
}

// Reject declines the bound money request without moving funds.
func (f *Flow) Reject(ctx context.Context) error {
	f.mu.Lock()
	if f.kind != KindFulfill || f.step != StepSummary || f.request == nil {
		f.mu.Unlock()
		return fmt.Errorf("can't reject from this flow state")
	}
	req := *f.request
	f.mu.Unlock()

	if _, err := f.ops.UpdateRequestStatus(ctx, req, models.RequestStatusRejected); err != nil {
		return err
	}

	f.finish(StepDone)
	return nil
}

// ResumeRequest enters the flow through a /send?requestId= deep link. It
// bypasses the amount and recipient steps: the bound request dictates both.
// Link validation failures are terminal; the flow lands on the error step
// with only a way back home.
func (f *Flow) ResumeRequest(ctx context.Context, requestID string) error {
	if !f.session.Authenticated() {
		f.session.StashRedirect(SendLink("", requestID))
		return apperrors.ErrAuthenticationRequired
	}

	account, ok := f.session.CurrentAccount()
	if !ok {
		return apperrors.ErrAuthenticationRequired
	}

	req, err := f.ops.GetRequest(ctx, requestID)
	switch {
	case err == nil:

	case isNotFound(err):
		f.fail(MsgRequestNotFound)
		return fmt.Errorf("%w: %w", apperrors.ErrRequestLinkInvalid, err)

	default:
		f.fail(MsgRequestUnavailable)
		return fmt.Errorf("%w: %w", apperrors.ErrRequestLinkInvalid, err)
	}

	if !req.IsOpen() {
		f.fail(MsgRequestFulfilled)
		return fmt.Errorf("%w: %w", apperrors.ErrRequestLinkInvalid, apperrors.ErrRequestAlreadyResolved)
	}

	if payerID, bound := req.BoundTo(); bound && payerID != account.ID {
		f.fail(MsgRequestNotForYou)
		return fmt.Errorf("%w: %w", apperrors.ErrRequestLinkInvalid, apperrors.ErrRequestNotForUser)
	}

	phone, err := models.PhoneNumberFromCanonical(req.Requester.PhoneNumber)
	if err != nil {
		// The requester's phone came from the backend; treat a bad one as
		// a broken link rather than crashing the view
		f.fail(MsgRequestUnavailable)
		return fmt.Errorf("%w: %w", apperrors.ErrRequestLinkInvalid, err)
	}

	f.mu.Lock()
	f.request = &req
	f.amount = req.Amount
	f.phone = phone
	f.step = StepSummary
	f.mu.Unlock()

	f.logger.Debug("Resumed request from link", "request_id", req.ID, "amount", req.Amount.String())
	return nil
}

func (f *Flow) finish(step Step) {
	f.mu.Lock()
	f.step = step
	f.mu.Unlock()
}

func (f *Flow) fail(message string) {
	f.mu.Lock()
	f.step = StepError
	f.errMessage = message
	f.mu.Unlock()
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrRequestNotFound)
}
