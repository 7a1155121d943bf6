package pauser

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/library/ownership"
	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
)

type Pauser struct {
	address   string
	ownership ownership.Ownership
	paused    store.Map[bool]
	pausedAll store.Item[bool]
}

func New(s store.KVStore, address string) *Pauser {
	return &Pauser{
		address:   address,
		ownership: ownership.New(s),
		paused:    store.NewMap[bool](s, "paused"),
		pausedAll: store.NewItem[bool](s, "paused_all"),
	}
}

func (p *Pauser) Address() string {
	return p.address
}

func (p *Pauser) Instantiate(msg InstantiateMsg) error {
	if err := p.ownership.Init(msg.Owner); err != nil {
		return err
	}
	return p.pausedAll.Save(msg.InitialPaused)
}

func (p *Pauser) Execute(env types.Env, info types.MessageInfo, msg ExecuteMsg) (*types.Response, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case msg.TransferOwnership != nil:
		return p.ownership.Transfer(info.Sender, *msg.TransferOwnership)
	case msg.AcceptOwnership != nil:
		return p.ownership.Accept(info.Sender)
	case msg.CancelOwnershipTransfer != nil:
		return p.ownership.Cancel(info.Sender)
	}

	if err := p.ownership.AssertOwner(info.Sender); err != nil {
		return nil, err
	}
	switch {
	case msg.Pause != nil:
		if err := p.paused.Save(store.Key(msg.Pause.Contract, msg.Pause.Method), true); err != nil {
			return nil, err
		}
		return types.NewResponse().AddEvent(types.NewEvent("Pause").
			AddAttribute("contract", msg.Pause.Contract).
			AddAttribute("method", msg.Pause.Method)), nil
	case msg.Unpause != nil:
		if err := p.paused.Remove(store.Key(msg.Unpause.Contract, msg.Unpause.Method)); err != nil {
			return nil, err
		}
		return types.NewResponse().AddEvent(types.NewEvent("Unpause").
			AddAttribute("contract", msg.Unpause.Contract).
			AddAttribute("method", msg.Unpause.Method)), nil
	case msg.PauseAll != nil:
		if err := p.pausedAll.Save(true); err != nil {
			return nil, err
		}
		return types.NewResponse().AddEvent(types.NewEvent("PauseAll")), nil
	case msg.UnpauseAll != nil:
		if err := p.pausedAll.Save(false); err != nil {
			return nil, err
		}
		return types.NewResponse().AddEvent(types.NewEvent("UnpauseAll")), nil
	}
	return nil, types.ErrNoVariant
}

func (p *Pauser) Query(_ types.Env, msg QueryMsg) (any, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case msg.IsPaused != nil:
		paused, err := p.IsPaused(msg.IsPaused.C, msg.IsPaused.M)
		if err != nil {
			return nil, err
		}
		if paused {
			return IsPausedResponse(1), nil
		}
		return IsPausedResponse(0), nil
	case msg.CanExecute != nil:
		ok, err := p.CanExecute(msg.CanExecute.C, msg.CanExecute.S, msg.CanExecute.M)
		if err != nil {
			return nil, err
		}
		if ok {
			return CanExecuteFlagAllow, nil
		}
		return CanExecuteFlagPaused, nil
	case msg.Owner != nil:
		owner, err := p.ownership.Owner()
		return ownership.OwnerResponse(owner), err
	}
	return nil, types.ErrNoVariant
}

func (p *Pauser) IsPaused(contract, method string) (bool, error) {
	all, _, err := p.pausedAll.MayLoad()
	if err != nil || all {
		return all, err
	}
	paused, _, err := p.paused.MayLoad(store.Key(contract, method))
	return paused, err
}

// CanExecute reports whether sender may call method on contract.
func (p *Pauser) CanExecute(contract, _ string, method string) (bool, error) {
	paused, err := p.IsPaused(contract, method)
	return !paused, err
}

// AssertCanExecute fails with ErrPaused when the call is paused.
func (p *Pauser) AssertCanExecute(contract, sender, method string) error {
	ok, err := p.CanExecute(contract, sender, method)
	if err != nil {
		return err
	}
	if !ok {
		return errorsmod.Wrapf(types.ErrPaused, "%s on %s", method, contract)
	}
	return nil
}
