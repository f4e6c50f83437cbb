package core

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	hosterrors "tipfinity/core/errors"
	"tipfinity/core/events"
	"tipfinity/core/state"
	"tipfinity/core/types"
	"tipfinity/native/creator"
	"tipfinity/observability"
	"tipfinity/observability/logging"
	telemetry "tipfinity/observability/otel"
)

// programState is the slice of a staging transaction the creator program may
// touch.
type programState interface {
	RecordGet(addr [20]byte) ([]byte, bool, error)
	RecordCreate(addr [20]byte, data []byte) error
	RecordUpdate(addr [20]byte, data []byte) error
	Transfer(from, to [20]byte, amount uint64) error
}

// Processor applies signed transactions to state. It is not safe for
// concurrent use; Node serialises calls.
type Processor struct {
	chainID uint64
	state   *state.Manager
	engine  *creator.Engine
	emitter events.Emitter
	logger  *slog.Logger
	nowFn   func() int64

	// stateFn adapts the staging transaction handed to the program.
	stateFn func(*state.Txn) programState
}

// NewProcessor wires a processor for chainID over mgr. Events are released to
// emitter only after a transition commits.
func NewProcessor(chainID uint64, mgr *state.Manager, emitter events.Emitter, logger *slog.Logger) *Processor {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		chainID: chainID,
		state:   mgr,
		engine:  creator.NewEngine(),
		emitter: emitter,
		logger:  logger.With(slog.String("component", "processor")),
		nowFn:   func() int64 { return time.Now().Unix() },
		stateFn: func(txn *state.Txn) programState { return txn },
	}
}

// SetNowFunc overrides the clock stamped onto tip records.
func (p *Processor) SetNowFunc(now func() int64) {
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	p.nowFn = now
}

// ApplyTransaction runs tx as one transition. On failure nothing is
// persisted, no event is released and the returned receipt carries the
// error classification alongside the error itself.
func (p *Processor) ApplyTransaction(tx *types.Transaction) (*Receipt, error) {
	start := time.Now()
	ctx, span := telemetry.Tracer("core").Start(context.Background(), "ApplyTransaction")
	defer span.End()

	receipt := &Receipt{Status: StatusFailed}
	err := p.apply(tx, receipt)
	if err != nil {
		receipt.Status = StatusFailed
		receipt.ErrorKind = ErrorKindOf(err)
		receipt.ErrorCode = ErrorCodeOf(err)
		receipt.Error = err.Error()
		span.SetStatus(codes.Error, receipt.ErrorKind)
	} else {
		receipt.Status = StatusCommitted
	}

	txType := receipt.Type.String()
	span.SetAttributes(
		attribute.String("tx.hash", "0x"+hex.EncodeToString(receipt.TxHash[:])),
		attribute.String("tx.type", txType),
		attribute.String("tx.outcome", string(receipt.Status)),
	)
	observability.Transitions().Observe(txType, receipt.ErrorKind, time.Since(start))
	telemetry.Ledger().RecordTransition(ctx, txType, string(receipt.Status), receipt.ErrorKind)
	if err == nil && receipt.Type == types.TxTypeRecordTip {
		telemetry.Ledger().RecordTip(ctx, receipt.Amount)
	}
	attrs := []any{
		slog.String("tx", "0x"+hex.EncodeToString(receipt.TxHash[:])),
		slog.String("type", txType),
		slog.String("outcome", string(receipt.Status)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("kind", receipt.ErrorKind), slog.String("error", err.Error()))
		p.logger.Info("transaction rejected", attrs...)
	} else {
		attrs = append(attrs, slog.Int("writes", receipt.Writes))
		p.logger.Debug("transaction committed", attrs...)
	}
	return receipt, err
}

func (p *Processor) apply(tx *types.Transaction, receipt *Receipt) error {
	if tx == nil {
		return fmt.Errorf("%w: nil transaction", hosterrors.ErrMalformedPayload)
	}
	receipt.Type = tx.Type
	receipt.Nonce = tx.Nonce
	hash, err := tx.HashArray()
	if err != nil {
		return fmt.Errorf("%w: %v", hosterrors.ErrMalformedPayload, err)
	}
	receipt.TxHash = hash
	if tx.ChainID != p.chainID {
		return fmt.Errorf("%w: got %d, want %d", hosterrors.ErrChainIDMismatch, tx.ChainID, p.chainID)
	}
	from, err := tx.FromArray()
	if err != nil {
		return fmt.Errorf("%w: %v", hosterrors.ErrInvalidSignature, err)
	}
	receipt.From = from

	txn := p.state.Begin()
	defer txn.Discard()

	account, err := txn.Account(from)
	if err != nil {
		return err
	}
	if account.Nonce != tx.Nonce {
		return fmt.Errorf("%w: got %d, want %d", hosterrors.ErrNonceMismatch, tx.Nonce, account.Nonce)
	}

	recorder := &events.Recorder{}
	switch tx.Type {
	case types.TxTypeTransfer:
		err = p.applyTransfer(txn, recorder, from, hash, tx, receipt)
	case types.TxTypeRegisterCreator:
		err = p.applyRegister(txn, recorder, from, tx, receipt)
	case types.TxTypeRecordTip:
		err = p.applyTip(txn, recorder, from, hash, tx, receipt)
	default:
		err = fmt.Errorf("%w: 0x%02x", hosterrors.ErrUnknownTxType, byte(tx.Type))
	}
	if err != nil {
		return err
	}
	if err := txn.IncrementNonce(from); err != nil {
		return err
	}
	writes := txn.Pending()
	if err := txn.Commit(); err != nil {
		return err
	}
	receipt.Writes = writes
	recorder.Flush(p.emitter)
	if tx.Type == types.TxTypeRecordTip {
		observability.Transitions().RecordTip(receipt.Amount)
	}
	return nil
}

func (p *Processor) applyTransfer(txn *state.Txn, recorder *events.Recorder, from [20]byte, hash [32]byte, tx *types.Transaction, receipt *Receipt) error {
	if len(tx.To) != 20 {
		return fmt.Errorf("%w: recipient must be 20 bytes", hosterrors.ErrMalformedPayload)
	}
	var to [20]byte
	copy(to[:], tx.To)
	if err := txn.Transfer(from, to, tx.Value); err != nil {
		return err
	}
	receipt.Amount = tx.Value
	recorder.Emit(events.Transfer{From: from, To: to, Amount: tx.Value, Nonce: tx.Nonce, TxHash: hash})
	return nil
}

func (p *Processor) prepareEngine(txn *state.Txn, recorder *events.Recorder) {
	p.engine.SetState(p.stateFn(txn))
	p.engine.SetEmitter(recorder)
	p.engine.SetNowFunc(p.nowFn)
}

func (p *Processor) applyRegister(txn *state.Txn, recorder *events.Recorder, from [20]byte, tx *types.Transaction, receipt *Receipt) error {
	payload, err := types.DecodeRegisterCreator(tx.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", hosterrors.ErrMalformedPayload, err)
	}
	p.prepareEngine(txn, recorder)
	reg, err := p.engine.RegisterCreator(from, []byte(payload.Username))
	if err != nil {
		return err
	}
	receipt.Creator = reg.Address
	return nil
}

func (p *Processor) applyTip(txn *state.Txn, recorder *events.Recorder, from [20]byte, hash [32]byte, tx *types.Transaction, receipt *Receipt) error {
	payload, err := types.DecodeRecordTip(tx.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", hosterrors.ErrMalformedPayload, err)
	}
	p.prepareEngine(txn, recorder)
	result, err := p.engine.RecordTip(from, creator.TipRequest{
		Creator:    payload.Creator,
		Wallet:     payload.Wallet,
		Amount:     payload.Amount,
		Annotation: payload.Annotation,
		TxHash:     hash,
	})
	if err != nil {
		return err
	}
	receipt.Creator = result.CreatorAddress
	receipt.Tip = result.Address
	receipt.Sequence = result.Tip.Sequence
	receipt.TipCount = result.Creator.TipCount
	receipt.TotalTips = result.Creator.TotalTips
	receipt.Timestamp = result.Tip.Timestamp
	receipt.Amount = result.Tip.Amount
	p.logger.Debug("tip staged",
		slog.Uint64("sequence", result.Tip.Sequence),
		logging.Fingerprint("annotation", string(payload.Annotation)))
	return nil
}
