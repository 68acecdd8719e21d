// Package transfer manages a single fund-transfer attempt from form input
// through confirmation. Each Flow instance is one attempt lifecycle:
// Editing -> Submitting -> Settled or Failed, terminal until reset.
package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-wallet-client/gateway"
)

const signTransactionPath = "/api/sign-transaction"

type StateName string

const (
	Editing    StateName = "editing"
	Submitting StateName = "submitting"
	Settled    StateName = "settled"
	Failed     StateName = "failed"
	Closed     StateName = "closed"
)

var (
	// ErrSubmitting is returned when a send fires while one is in flight.
	ErrSubmitting = errors.New("transfer already submitting")

	// ErrTerminal is returned when sending from Settled or Failed without
	// an explicit Reset. Resubmission must be a visible user action.
	ErrTerminal = errors.New("transfer attempt already concluded")

	// ErrClosed is returned once the flow has been closed.
	ErrClosed = errors.New("transfer flow closed")

	// ErrRecipientRequired and ErrAmountRequired are the only client-side
	// validations; business rules stay with the backend.
	ErrRecipientRequired = errors.New("recipient address is required")
	ErrAmountRequired    = errors.New("amount is required")
)

// Receipt is the immutable confirmation record of a settled transfer,
// returned once by the backend.
type Receipt struct {
	TransactionHash string `json:"transactionHash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	GasPrice        string `json:"gasPrice"`
	GasUsed         uint64 `json:"gasUsed"`
	BlockNumber     uint64 `json:"blockNumber"`
}

// Flow is the per-attempt state machine for transfers out of one wallet.
// Closing the flow cancels its context: an in-flight request is aborted
// rather than its completion silently dropped.
type Flow struct {
	lock        sync.Mutex
	caller      gateway.Caller
	fromAddress string
	state       StateName
	receipt     *Receipt
	failure     string
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewFlow(caller gateway.Caller, fromAddress string) (*Flow, error) {
	if caller == nil {
		return nil, fmt.Errorf("[transfer.NewFlow] gateway caller is required")
	}
	if fromAddress == "" {
		return nil, fmt.Errorf("[transfer.NewFlow] funding wallet address is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Flow{
		caller:      caller,
		fromAddress: fromAddress,
		state:       Editing,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// State returns the current attempt state. A closed flow reports Closed
// whatever it was doing when Close was called, so observers never see a
// stuck Submitting.
func (f *Flow) State() StateName {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.ctx.Err() != nil {
		return Closed
	}
	return f.state
}

// Receipt returns the settlement receipt once the flow is Settled. A
// closed flow's receipt is discarded.
func (f *Flow) Receipt() (*Receipt, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.ctx.Err() != nil || f.state != Settled {
		return nil, false
	}
	return f.receipt, true
}

// Failure returns the failure message once the flow is Failed.
func (f *Flow) Failure() (string, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.ctx.Err() != nil || f.state != Failed {
		return "", false
	}
	return f.failure, true
}

type transferRequest struct {
	FromAddress string `json:"fromAddress"`
	ToAddress   string `json:"toAddress"`
	Value       string `json:"value"`
}

// Send moves the flow from Editing to Submitting and performs exactly one
// submission attempt. On gateway success the flow settles with the
// receipt; on any failure it moves to Failed with the surfaced message.
// A second send while Submitting is rejected, as is a send from a
// terminal state without Reset.
func (f *Flow) Send(ctx context.Context, recipient, amount string) (*Receipt, error) {
	f.lock.Lock()
	if f.ctx.Err() != nil {
		f.lock.Unlock()
		return nil, ErrClosed
	}
	switch f.state {
	case Submitting:
		f.lock.Unlock()
		return nil, ErrSubmitting
	case Settled, Failed:
		f.lock.Unlock()
		return nil, ErrTerminal
	}
	if recipient == "" {
		f.lock.Unlock()
		return nil, ErrRecipientRequired
	}
	if amount == "" {
		f.lock.Unlock()
		return nil, ErrAmountRequired
	}
	f.state = Submitting
	f.lock.Unlock()

	// The call is bound to both the caller's context and the flow's
	// lifetime, so Close aborts an in-flight submission.
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(f.ctx, cancel)
	defer stop()

	body, err := f.caller.Call(callCtx, http.MethodPost, signTransactionPath, transferRequest{
		FromAddress: f.fromAddress,
		ToAddress:   recipient,
		Value:       amount,
	})
	if err != nil {
		return nil, f.fail(err)
	}

	var receipt Receipt
	if err := json.Unmarshal(body, &receipt); err != nil || receipt.TransactionHash == "" {
		return nil, f.fail(fmt.Errorf("%w: receipt undecodable", gateway.ErrMalformedResponse))
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	if f.ctx.Err() != nil {
		// Flow was closed mid-flight; interest in the outcome is discarded.
		return nil, ErrClosed
	}
	f.state = Settled
	f.receipt = &receipt
	log.Info().Str("tx", receipt.TransactionHash).Str("to", receipt.To).Msg("transfer settled")
	return &receipt, nil
}

func (f *Flow) fail(err error) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.ctx.Err() != nil {
		return ErrClosed
	}
	f.state = Failed
	f.failure = err.Error()
	return err
}

// Reset returns a terminal or editing flow to a fresh Editing state,
// clearing any receipt or failure. It does not interrupt a submission.
func (f *Flow) Reset() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.ctx.Err() != nil {
		return ErrClosed
	}
	if f.state == Submitting {
		return ErrSubmitting
	}
	f.state = Editing
	f.receipt = nil
	f.failure = ""
	return nil
}

// Close tears the flow down, cancelling any in-flight submission and
// moving the flow to the terminal Closed state. Reopening means a new
// Flow in a fresh Editing state.
func (f *Flow) Close() {
	f.cancel()
}
