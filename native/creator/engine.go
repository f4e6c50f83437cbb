package creator

import (
	"fmt"
	"time"
	"unicode/utf8"

	"tipfinity/core/events"
)

// RecordReader exposes read access to program records.
type RecordReader interface {
	RecordGet(addr [20]byte) ([]byte, bool, error)
}

type engineState interface {
	RecordReader
	RecordCreate(addr [20]byte, data []byte) error
	RecordUpdate(addr [20]byte, data []byte) error
	Transfer(from, to [20]byte, amount uint64) error
}

// Engine executes the creator program against host-provided state. The host
// authenticates the signer before calling in and discards every write when
// an operation returns an error.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a creator engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt events.Event) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// RegisterCreator creates the creator record owned by owner. A second call for
// the same owner fails with the host's address-in-use error.
func (e *Engine) RegisterCreator(owner [20]byte, username []byte) (*Registration, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if len(username) > UsernameCapacity {
		return nil, ErrUsernameTooLong
	}
	if !utf8.Valid(username) {
		return nil, ErrInvalidUsername
	}
	addr := DeriveCreatorAddress(owner)
	record := &Creator{Owner: owner, Username: packUsername(username)}
	if err := e.state.RecordCreate(addr, EncodeCreator(record)); err != nil {
		return nil, err
	}
	e.emit(WrapEvent(CreatorRegisteredEvent(addr, record)))
	return &Registration{Address: addr, Creator: record}, nil
}

// RecordTip moves req.Amount from tipper to the creator's wallet, appends a
// tip record at the creator's current tip count and advances both counters.
func (e *Engine) RecordTip(tipper [20]byte, req TipRequest) (*TipResult, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if req.Amount == 0 {
		return nil, ErrInvalidAmount
	}
	if len(req.Annotation) > MaxAnnotationLength {
		return nil, ErrMessageTooLong
	}
	record, err := LoadCreator(e.state, req.Creator)
	if err != nil {
		return nil, err
	}
	if record.Owner != req.Wallet {
		return nil, ErrWalletMismatch
	}

	// Counters are checked before any effect so an exhausted creator never
	// reaches the transfer.
	sequence := record.TipCount
	nextCount, err := checkedAdd(record.TipCount, 1)
	if err != nil {
		return nil, err
	}
	nextTotal, err := checkedAdd(record.TotalTips, req.Amount)
	if err != nil {
		return nil, err
	}

	if err := e.state.Transfer(tipper, req.Wallet, req.Amount); err != nil {
		return nil, err
	}

	tip := &TipRecord{
		Creator:    req.Creator,
		Tipper:     tipper,
		Amount:     req.Amount,
		Timestamp:  e.now(),
		Sequence:   sequence,
		TxHash:     req.TxHash,
		Annotation: append([]byte(nil), req.Annotation...),
	}
	encodedTip, err := EncodeTip(tip)
	if err != nil {
		return nil, err
	}
	tipAddr := DeriveTipAddress(req.Creator, sequence)
	if err := e.state.RecordCreate(tipAddr, encodedTip); err != nil {
		return nil, err
	}

	record.TipCount = nextCount
	record.TotalTips = nextTotal
	if err := e.state.RecordUpdate(req.Creator, EncodeCreator(record)); err != nil {
		return nil, err
	}

	e.emit(WrapEvent(TipRecordedEvent(req.Wallet, tipAddr, tip)))
	return &TipResult{Address: tipAddr, Tip: tip, CreatorAddress: req.Creator, Creator: record}, nil
}

// LoadCreator reads and validates the creator record at addr. The record must
// sit at the address derived from its own owner.
func LoadCreator(r RecordReader, addr [20]byte) (*Creator, error) {
	raw, ok, err := r.RecordGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCreatorNotFound
	}
	record, err := DecodeCreator(raw)
	if err != nil {
		return nil, err
	}
	if DeriveCreatorAddress(record.Owner) != addr {
		return nil, fmt.Errorf("%w: creator stored at foreign address", ErrInvalidRecord)
	}
	return record, nil
}

// LoadTip reads the tip stored at sequence for the creator record at
// creatorAddr. The boolean is false when no such tip exists.
func LoadTip(r RecordReader, creatorAddr [20]byte, sequence uint64) (*TipRecord, bool, error) {
	raw, ok, err := r.RecordGet(DeriveTipAddress(creatorAddr, sequence))
	if err != nil || !ok {
		return nil, false, err
	}
	tip, err := DecodeTip(raw)
	if err != nil {
		return nil, false, err
	}
	return tip, true, nil
}
