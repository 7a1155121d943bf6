// Package ownership implements two-step ownership transfer: the owner
// nominates a pending owner, and only that pending owner can accept.
package ownership

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
)

// TransferOwnership nominates NewOwner. Ownership does not change until
// NewOwner sends AcceptOwnership.
type TransferOwnership struct {
	NewOwner string `json:"new_owner"`
}

type AcceptOwnership struct {
}

type CancelOwnershipTransfer struct {
}

type OwnerResponse string

type Ownership struct {
	owner   store.Item[string]
	pending store.Item[string]
}

func New(s store.KVStore) Ownership {
	return Ownership{
		owner:   store.NewItem[string](s, "owner"),
		pending: store.NewItem[string](s, "pending_owner"),
	}
}

// Init sets the first owner.
func (o Ownership) Init(owner string) error {
	if err := types.ValidateAddress(owner); err != nil {
		return err
	}
	return o.owner.Save(owner)
}

func (o Ownership) Owner() (string, error) {
	return o.owner.Load()
}

func (o Ownership) PendingOwner() (string, bool, error) {
	return o.pending.MayLoad()
}

// AssertOwner fails with ErrNotOwner unless sender is the current owner.
func (o Ownership) AssertOwner(sender string) error {
	owner, err := o.owner.Load()
	if err != nil {
		return err
	}
	if sender != owner {
		return errorsmod.Wrapf(types.ErrNotOwner, "sender %s", sender)
	}
	return nil
}

func (o Ownership) Transfer(sender string, msg TransferOwnership) (*types.Response, error) {
	if err := o.AssertOwner(sender); err != nil {
		return nil, err
	}
	if err := types.ValidateAddress(msg.NewOwner); err != nil {
		return nil, err
	}
	if err := o.pending.Save(msg.NewOwner); err != nil {
		return nil, err
	}
	return types.NewResponse().AddEvent(
		types.NewEvent("TransferOwnership").
			AddAttribute("owner", sender).
			AddAttribute("pending_owner", msg.NewOwner),
	), nil
}

func (o Ownership) Accept(sender string) (*types.Response, error) {
	pending, ok, err := o.pending.MayLoad()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errorsmod.Wrap(types.ErrNotFound, "no pending owner")
	}
	if sender != pending {
		return nil, errorsmod.Wrapf(types.ErrUnauthorized, "sender %s is not the pending owner", sender)
	}
	previous, err := o.owner.Load()
	if err != nil {
		return nil, err
	}
	if err := o.owner.Save(pending); err != nil {
		return nil, err
	}
	if err := o.pending.Remove(); err != nil {
		return nil, err
	}
	return types.NewResponse().AddEvent(
		types.NewEvent("OwnershipTransferred").
			AddAttribute("old_owner", previous).
			AddAttribute("new_owner", pending),
	), nil
}

func (o Ownership) Cancel(sender string) (*types.Response, error) {
	if err := o.AssertOwner(sender); err != nil {
		return nil, err
	}
	if err := o.pending.Remove(); err != nil {
		return nil, err
	}
	return types.NewResponse().AddEvent(types.NewEvent("CancelOwnershipTransfer")), nil
}
