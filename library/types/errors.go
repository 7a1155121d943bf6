package types

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

// Codespace under which every restaking error is registered.
const Codespace = "restaking"

// The closed error taxonomy. Every fallible operation returns one of these,
// possibly wrapped with more context.
var (
	ErrUnauthorized      = errorsmod.Register(Codespace, 2, "unauthorized")
	ErrZero              = errorsmod.Register(Codespace, 3, "zero")
	ErrInsufficient      = errorsmod.Register(Codespace, 4, "insufficient")
	ErrOverflow          = errorsmod.Register(Codespace, 5, "overflow")
	ErrUnderflow         = errorsmod.Register(Codespace, 6, "underflow")
	ErrLocked            = errorsmod.Register(Codespace, 7, "locked")
	ErrExpired           = errorsmod.Register(Codespace, 8, "expired")
	ErrAlreadyExists     = errorsmod.Register(Codespace, 9, "already exists")
	ErrNotFound          = errorsmod.Register(Codespace, 10, "not found")
	ErrValidating        = errorsmod.Register(Codespace, 11, "operator is validating")
	ErrInvalidInput      = errorsmod.Register(Codespace, 12, "invalid input")
	ErrCannotBeDecreased = errorsmod.Register(Codespace, 13, "cannot be decreased")
	ErrPaused            = errorsmod.Register(Codespace, 14, "paused")
	ErrInvalidSignature  = errorsmod.Register(Codespace, 15, "invalid signature")
)

// Specific failures that callers and tests match on.
var (
	ErrZeroNewShares    = errorsmod.Wrap(ErrZero, "zero new shares")
	ErrZeroAmount       = errorsmod.Wrap(ErrZero, "zero amount")
	ErrNotWhitelisted   = errorsmod.Wrap(ErrUnauthorized, "vault is not whitelisted")
	ErrNotOwner         = errorsmod.Wrap(ErrUnauthorized, "sender is not the owner")
	ErrNotYetUnlocked   = errorsmod.Wrap(ErrLocked, "withdrawal is not yet unlocked")
	ErrSaltSpent        = errorsmod.Wrap(ErrAlreadyExists, "approver salt already spent")
	ErrNoVariant        = errorsmod.Wrap(ErrInvalidInput, "message must set exactly one variant")
	ErrReasonTooLong    = errorsmod.Wrap(ErrInvalidInput, "reason is too long")
	ErrUnknownContract  = errorsmod.Wrap(ErrNotFound, "unknown contract")
	ErrCorruptedStorage = errors.New("corrupted storage")
)

type kind struct {
	name string
	err  *errorsmod.Error
}

var kinds = []kind{
	{"Unauthorized", ErrUnauthorized},
	{"Zero", ErrZero},
	{"Insufficient", ErrInsufficient},
	{"Overflow", ErrOverflow},
	{"Underflow", ErrUnderflow},
	{"Locked", ErrLocked},
	{"Expired", ErrExpired},
	{"AlreadyExists", ErrAlreadyExists},
	{"NotFound", ErrNotFound},
	{"Validating", ErrValidating},
	{"InvalidInput", ErrInvalidInput},
	{"CannotBeDecreased", ErrCannotBeDecreased},
	{"Paused", ErrPaused},
	{"InvalidSignature", ErrInvalidSignature},
}

// KindOf returns the taxonomy name of err, "Internal" for anything that was
// not produced by a component and "" for nil.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}

// ABCICode returns the registered code of err, 1 for internal errors.
func ABCICode(err error) uint32 {
	_, code, _ := errorsmod.ABCIInfo(err, false)
	return code
}

// WrapError joins a main error with a sub error. Either may be nil, an error
// or a string.
func WrapError(mainErr, subErr interface{}) error {
	main := typedErr(mainErr)
	sub := typedErr(subErr)

	switch {
	case main == nil && sub == nil:
		return nil
	case main == nil:
		return sub
	case sub == nil:
		return main
	default:
		return errorsmod.Wrap(main, sub.Error())
	}
}

func typedErr(e interface{}) error {
	switch t := e.(type) {
	case error:
		return t
	case string:
		if t == "" {
			return nil
		}
		return errors.New(t)
	default:
		return nil
	}
}
