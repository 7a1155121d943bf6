package app

import (
	"bytes"
	"encoding/json"

	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/library/types"
)

// Contract names, also the labels their addresses are derived from.
const (
	BankName              = "bank"
	PauserName            = "pauser"
	RegistryName          = "registry"
	VaultRouterName       = "vault-router"
	VaultFactoryName      = "vault-factory"
	DelegationManagerName = "delegation-manager"
	SlashManagerName      = "slash-manager"
	GuardrailName         = "guardrail"
	VaultName             = "vault"
)

type method interface {
	Method() string
}

// handler decodes raw JSON into a component's message types.
type handler struct {
	name    string
	address string
	execute func(env types.Env, info types.MessageInfo, raw json.RawMessage) (*types.Response, string, error)
	query   func(env types.Env, raw json.RawMessage) (any, error)
}

func decode[T any](raw json.RawMessage) (T, error) {
	var msg T
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&msg); err != nil {
		return msg, errorsmod.Wrapf(types.ErrInvalidInput, "decode message: %v", err)
	}
	return msg, nil
}

func newHandler[E method, Q any](
	name, address string,
	execute func(types.Env, types.MessageInfo, E) (*types.Response, error),
	query func(types.Env, Q) (any, error),
) handler {
	return handler{
		name:    name,
		address: address,
		execute: func(env types.Env, info types.MessageInfo, raw json.RawMessage) (*types.Response, string, error) {
			msg, err := decode[E](raw)
			if err != nil {
				return nil, "unknown", err
			}
			res, err := execute(env, info, msg)
			return res, msg.Method(), err
		},
		query: func(env types.Env, raw json.RawMessage) (any, error) {
			msg, err := decode[Q](raw)
			if err != nil {
				return nil, err
			}
			return query(env, msg)
		},
	}
}

type ContractInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}
