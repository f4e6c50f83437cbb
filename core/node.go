package core

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tipfinity/core/events"
	"tipfinity/core/genesis"
	"tipfinity/core/state"
	"tipfinity/core/types"
	"tipfinity/native/creator"
	"tipfinity/storage"
)

// MaxTipsPage bounds a single Tips read.
const MaxTipsPage = 100

// Node is the central controller, wiring storage, state, the processor and
// the event fan-out together. Transitions are serialised by the node; reads
// never observe a half-applied transition.
type Node struct {
	db          storage.Database
	state       *state.Manager
	processor   *Processor
	broadcaster *events.Broadcaster
	chainID     uint64
	genesisTime time.Time
	logger      *slog.Logger

	mu sync.RWMutex
}

// IndexedTip pairs a tip record with its derived address.
type IndexedTip struct {
	Address [20]byte
	Tip     *creator.TipRecord
}

// NewNode opens the ledger held in db, applying spec when the database is
// empty. Extra emitters receive every committed event after the built-in
// broadcaster.
func NewNode(db storage.Database, spec *genesis.GenesisSpec, logger *slog.Logger, extra ...events.Emitter) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("database must not be nil")
	}
	if spec == nil {
		spec = &genesis.GenesisSpec{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	mgr := state.NewManager(db)
	applied, err := genesis.Apply(spec, mgr)
	if err != nil {
		return nil, fmt.Errorf("apply genesis: %w", err)
	}
	chainID, _, err := mgr.GenesisChainID()
	if err != nil {
		return nil, err
	}
	if applied {
		logger.Info("genesis applied", slog.Uint64("chainId", chainID))
	}

	broadcaster := events.NewBroadcaster(0)
	emitter := append(events.Multi{broadcaster}, extra...)
	return &Node{
		db:          db,
		state:       mgr,
		processor:   NewProcessor(chainID, mgr, emitter, logger),
		broadcaster: broadcaster,
		chainID:     chainID,
		genesisTime: spec.GenesisTimestamp(),
		logger:      logger,
	}, nil
}

// ChainID returns the chain id recorded at genesis.
func (n *Node) ChainID() uint64 { return n.chainID }

// GenesisTime returns the genesis time named by the spec the node started
// with; zero when the spec left it unset.
func (n *Node) GenesisTime() time.Time { return n.genesisTime }

// SetNowFunc overrides the clock used for tip timestamps.
func (n *Node) SetNowFunc(now func() int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.processor.SetNowFunc(now)
}

// SubmitTransaction applies tx as a single transition.
func (n *Node) SubmitTransaction(tx *types.Transaction) (*Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.processor.ApplyTransaction(tx)
}

// SubscribeTips streams committed events. Slow subscribers miss events.
func (n *Node) SubscribeTips() (<-chan events.Event, func()) {
	return n.broadcaster.Subscribe()
}

// TipSubscribers reports the number of live event subscribers.
func (n *Node) TipSubscribers() int {
	return n.broadcaster.Subscribers()
}

// Account returns the committed account for addr.
func (n *Node) Account(addr [20]byte) (*types.Account, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state.Account(addr)
}

// Creator returns the creator record stored at addr.
func (n *Node) Creator(addr [20]byte) (*creator.Creator, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return creator.LoadCreator(n.state, addr)
}

// CreatorByOwner looks up the creator record owned by owner.
func (n *Node) CreatorByOwner(owner [20]byte) ([20]byte, *creator.Creator, error) {
	addr := creator.DeriveCreatorAddress(owner)
	record, err := n.Creator(addr)
	return addr, record, err
}

// Tip returns the tip stored at sequence for the creator at creatorAddr.
func (n *Node) Tip(creatorAddr [20]byte, sequence uint64) (*IndexedTip, bool, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	tip, ok, err := creator.LoadTip(n.state, creatorAddr, sequence)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &IndexedTip{Address: creator.DeriveTipAddress(creatorAddr, sequence), Tip: tip}, true, nil
}

// Tips walks sequence numbers [offset, tip_count) of the creator at
// creatorAddr, returning at most limit entries.
func (n *Node) Tips(creatorAddr [20]byte, offset, limit uint64) ([]IndexedTip, *creator.Creator, error) {
	if limit == 0 || limit > MaxTipsPage {
		limit = MaxTipsPage
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	record, err := creator.LoadCreator(n.state, creatorAddr)
	if err != nil {
		return nil, nil, err
	}
	out := make([]IndexedTip, 0)
	for seq := offset; seq < record.TipCount && uint64(len(out)) < limit; seq++ {
		tip, ok, err := creator.LoadTip(n.state, creatorAddr, seq)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, fmt.Errorf("core: tip %d missing below tip count %d", seq, record.TipCount)
		}
		out = append(out, IndexedTip{Address: creator.DeriveTipAddress(creatorAddr, seq), Tip: tip})
	}
	return out, record, nil
}
