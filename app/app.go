// Package app assembles the restaking contracts over one transactional
// store and executes messages against them.
package app

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/bank"
	delegationmanager "github.com/satlayer/satlayer-restaking/delegation-manager"
	"github.com/satlayer/satlayer-restaking/guardrail"
	"github.com/satlayer/satlayer-restaking/iac"
	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
	"github.com/satlayer/satlayer-restaking/logger"
	"github.com/satlayer/satlayer-restaking/metrics"
	"github.com/satlayer/satlayer-restaking/pauser"
	"github.com/satlayer/satlayer-restaking/registry"
	slashmanager "github.com/satlayer/satlayer-restaking/slash-manager"
	"github.com/satlayer/satlayer-restaking/vault"
	vaultfactory "github.com/satlayer/satlayer-restaking/vault-factory"
	vaultrouter "github.com/satlayer/satlayer-restaking/vault-router"
)

// MaxSubMsgDepth bounds follow-up command chains within a transaction.
const MaxSubMsgDepth = 16

// EventSink receives the events of every committed transaction.
type EventSink interface {
	Publish(ctx context.Context, msgs ...iac.EventMsg) error
}

// Msg is a command for one contract, by name or address.
type Msg struct {
	Contract string          `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
}

type TxResult struct {
	Block types.BlockInfo `json:"block"`
	// Data of each top-level message, in order.
	Data   [][]byte       `json:"data"`
	Events []iac.EventMsg `json:"events"`
}

type Options struct {
	Logger     logger.Logger
	Indicators metrics.Indicators
	Sink       EventSink
	// Clock stamps blocks without a time, defaults to time.Now.
	Clock func() time.Time
}

type App struct {
	mu sync.Mutex

	tx         *store.TxStore
	logger     logger.Logger
	indicators metrics.Indicators
	sink       EventSink
	clock      func() time.Time

	lastBlock store.Item[types.BlockInfo]
	genesis   store.Item[int64]

	Bank              *bank.Bank
	Pauser            *pauser.Pauser
	Registry          *registry.Registry
	Router            *vaultrouter.Router
	Factory           *vaultfactory.Factory
	DelegationManager *delegationmanager.DelegationManager
	SlashManager      *slashmanager.SlashManager
	Guardrail         *guardrail.Guardrail

	handlers map[string]handler
	names    map[string]string
	vaults   map[string]*vault.Vault
}

func Address(name string) string {
	return types.ContractAddress(name)
}

func New(backend store.KVStore, opts Options) *App {
	a := &App{
		tx:         store.NewTxStore(backend),
		logger:     opts.Logger,
		indicators: opts.Indicators,
		sink:       opts.Sink,
		clock:      opts.Clock,
		handlers:   make(map[string]handler),
		names:      make(map[string]string),
		vaults:     make(map[string]*vault.Vault),
	}
	if a.logger == nil {
		a.logger = logger.NewMockLogger()
	}
	if a.clock == nil {
		a.clock = func() time.Time { return time.Now().UTC() }
	}

	appStore := store.Prefix(a.tx, "app")
	a.lastBlock = store.NewItem[types.BlockInfo](appStore, "last_block")
	a.genesis = store.NewItem[int64](appStore, "genesis_height")

	ns := func(name string) store.KVStore { return store.Prefix(a.tx, name) }

	a.Bank = bank.New(ns(BankName), Address(BankName))
	a.Pauser = pauser.New(ns(PauserName), Address(PauserName))
	a.Registry = registry.New(ns(RegistryName), Address(RegistryName), a.Pauser)
	a.Router = vaultrouter.New(ns(VaultRouterName), vaultrouter.Config{
		Address:           Address(VaultRouterName),
		SlashManager:      Address(SlashManagerName),
		DelegationManager: Address(DelegationManagerName),
	}, a.Pauser, a.Registry, a.Bank, a.resolveVault)
	a.Factory = vaultfactory.New(ns(VaultFactoryName), Address(VaultFactoryName), a.Pauser, a.Registry, deployer{a})
	a.DelegationManager = delegationmanager.New(ns(DelegationManagerName), Address(DelegationManagerName), a.Pauser, a.Router)
	a.Router.SetDelegation(a.DelegationManager)
	a.SlashManager = slashmanager.New(ns(SlashManagerName), Address(SlashManagerName), a.Pauser, a.Registry, a.Router, a.resolveGuardrail)
	a.Guardrail = guardrail.New(ns(GuardrailName), Address(GuardrailName), a.Pauser, a.SlashManager)

	a.register(newHandler(BankName, a.Bank.Address(), a.Bank.Execute, a.Bank.Query))
	a.register(newHandler(PauserName, a.Pauser.Address(), a.Pauser.Execute, a.Pauser.Query))
	a.register(newHandler(RegistryName, a.Registry.Address(), a.Registry.Execute, a.Registry.Query))
	a.register(newHandler(VaultRouterName, a.Router.Address(), a.Router.Execute, a.Router.Query))
	a.register(newHandler(VaultFactoryName, a.Factory.Address(), a.Factory.Execute, a.Factory.Query))
	a.register(newHandler(DelegationManagerName, a.DelegationManager.Address(), a.DelegationManager.Execute, a.DelegationManager.Query))
	a.register(newHandler(SlashManagerName, a.SlashManager.Address(), a.SlashManager.Execute, a.SlashManager.Query))
	a.register(newHandler(GuardrailName, a.Guardrail.Address(), a.Guardrail.Execute, a.Guardrail.Query))
	return a
}

func (a *App) register(h handler) {
	a.handlers[h.address] = h
	a.names[h.name] = h.address
}

// Contracts lists the system contracts and every deployed vault.
func (a *App) Contracts() ([]ContractInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]ContractInfo, 0, len(a.handlers))
	for _, h := range a.handlers {
		out = append(out, ContractInfo{Name: h.name, Address: h.address})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	deployed, err := a.Factory.Deployed()
	if err != nil {
		return nil, err
	}
	for _, cfg := range deployed {
		out = append(out, ContractInfo{Name: VaultName, Address: cfg.Address})
	}
	return out, nil
}

// handler resolves a contract by name or address.
func (a *App) handler(contract string) (handler, error) {
	if addr, ok := a.names[contract]; ok {
		contract = addr
	}
	if h, ok := a.handlers[contract]; ok {
		return h, nil
	}
	if v, ok := a.vault(contract); ok {
		return newHandler(VaultName, v.Address(), v.Execute, v.Query), nil
	}
	return handler{}, errorsmod.Wrapf(types.ErrUnknownContract, "%s", contract)
}

// LastBlock is the block of the last committed transaction.
func (a *App) LastBlock() (types.BlockInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, _, err := a.lastBlock.MayLoad()
	return b, err
}

// nextBlock fills a zero height or time from the last committed block and
// the clock. Blocks never move backwards.
func (a *App) nextBlock(block types.BlockInfo) (types.BlockInfo, error) {
	last, _, err := a.lastBlock.MayLoad()
	if err != nil {
		return block, err
	}
	if block.Height == 0 {
		block.Height = last.Height + 1
	}
	if block.Time.IsZero() {
		block.Time = a.clock()
	}
	if block.Height < last.Height {
		return block, errorsmod.Wrapf(types.ErrInvalidInput, "height %d is before %d", block.Height, last.Height)
	}
	if block.Time.Before(last.Time) {
		return block, errorsmod.Wrapf(types.ErrInvalidInput, "time %s is before %s",
			block.Time.Format(time.RFC3339), last.Time.Format(time.RFC3339))
	}
	return block, nil
}

// Execute runs msgs as one transaction from sender. Follow-up commands run in
// the same transaction with the emitting contract as sender. Any failure
// discards every write of the transaction.
func (a *App) Execute(ctx context.Context, block types.BlockInfo, sender string, msgs ...Msg) (*TxResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(msgs) == 0 {
		return nil, errorsmod.Wrap(types.ErrInvalidInput, "no messages")
	}
	if err := a.tx.Begin(); err != nil {
		return nil, err
	}

	res, err := a.run(block, sender, msgs)
	if err != nil {
		a.tx.Rollback()
		a.logger.Warn("transaction failed",
			logger.WithField("sender", sender),
			logger.WithField("height", block.Height),
			logger.WithField("kind", types.KindOf(err)),
			logger.WithField("code", types.ABCICode(err)),
			logger.WithField("err", err.Error()),
		)
		return nil, err
	}
	if err := a.tx.Commit(); err != nil {
		return nil, types.WrapError(types.ErrCorruptedStorage, err)
	}

	a.logger.Debug("transaction committed",
		logger.WithField("sender", sender),
		logger.WithField("height", res.Block.Height),
		logger.WithField("messages", len(msgs)),
		logger.WithField("events", len(res.Events)),
	)
	a.observe(res.Events)
	if a.sink != nil {
		if err := a.sink.Publish(ctx, res.Events...); err != nil {
			a.logger.Error("failed to publish events", logger.WithField("err", err.Error()))
		}
	}
	return res, nil
}

func (a *App) run(block types.BlockInfo, sender string, msgs []Msg) (*TxResult, error) {
	block, err := a.nextBlock(block)
	if err != nil {
		return nil, err
	}
	if err := types.ValidateAddress(sender); err != nil {
		return nil, errorsmod.Wrap(err, "sender")
	}

	result := &TxResult{Block: block}
	maxDepth := 0
	for _, msg := range msgs {
		res, err := a.dispatch(block, sender, msg, 0, result, &maxDepth)
		if err != nil {
			return nil, err
		}
		result.Data = append(result.Data, res.Data)
	}
	if a.indicators != nil {
		a.indicators.ObserveTxDepth(maxDepth)
	}
	if err := a.lastBlock.Save(block); err != nil {
		return nil, err
	}
	return result, nil
}

func (a *App) dispatch(block types.BlockInfo, sender string, msg Msg, depth int, result *TxResult, maxDepth *int) (*types.Response, error) {
	if depth > MaxSubMsgDepth {
		return nil, errorsmod.Wrapf(types.ErrInvalidInput, "sub message depth exceeds %d", MaxSubMsgDepth)
	}
	*maxDepth = max(*maxDepth, depth)

	h, err := a.handler(msg.Contract)
	if err != nil {
		return nil, err
	}
	env := types.Env{Block: block, Contract: types.ContractInfo{Address: h.address}}
	res, method, err := h.execute(env, types.MessageInfo{Sender: sender}, msg.Msg)
	if a.indicators != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		a.indicators.IncrementTx(h.name, method, status)
	}
	if err != nil {
		return nil, errorsmod.Wrapf(err, "%s %s", h.name, method)
	}
	if res == nil {
		res = types.NewResponse()
	}

	for _, event := range res.Events {
		result.Events = append(result.Events, iac.EventMsg{
			Height:   block.Height,
			Time:     block.Time,
			Contract: h.address,
			Event:    event,
		})
	}
	for _, sub := range res.Messages {
		if _, err := a.dispatch(block, h.address, Msg{Contract: sub.Contract, Msg: sub.Msg}, depth+1, result, maxDepth); err != nil {
			return nil, err
		}
	}
	return res, nil
}

var slashingTransitions = map[string]slashmanager.SlashingRequestStatus{
	"SlashingRequested": slashmanager.Requested,
	"SlashingLocked":    slashmanager.Locked,
	"SlashingFinalized": slashmanager.Finalized,
	"SlashingCancelled": slashmanager.Cancelled,
}

func (a *App) observe(events []iac.EventMsg) {
	if a.indicators == nil {
		return
	}
	for _, e := range events {
		a.indicators.IncrementEvent(e.Event.Type)
		if status, ok := slashingTransitions[e.Event.Type]; ok && e.Contract == a.SlashManager.Address() {
			a.indicators.IncrementSlashingTransition(status.String())
		}
	}
}

// Query runs a read-only query against committed state. A zero block reads
// as of the last committed block.
func (a *App) Query(block types.BlockInfo, contract string, raw json.RawMessage) (any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	h, err := a.handler(contract)
	if err != nil {
		return nil, err
	}
	last, _, err := a.lastBlock.MayLoad()
	if err != nil {
		return nil, err
	}
	if block.Height == 0 {
		block.Height = last.Height
	}
	if block.Time.IsZero() {
		block.Time = a.clock()
	}
	return h.query(types.Env{Block: block, Contract: types.ContractInfo{Address: h.address}}, raw)
}
