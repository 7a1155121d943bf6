package types

import (
	"errors"
	"testing"

	errorsmod "cosmossdk.io/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrZeroNewShares, "Zero"},
		{errorsmod.Wrap(ErrNotWhitelisted, "vault x"), "Unauthorized"},
		{ErrUnknownContract, "NotFound"},
		{ErrNoVariant, "InvalidInput"},
		{ErrCorruptedStorage, "Internal"},
		{errors.New("boom"), "Internal"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestABCICode(t *testing.T) {
	assert.Equal(t, uint32(4), ABCICode(errorsmod.Wrap(ErrInsufficient, "balance")))
	assert.Equal(t, uint32(1), ABCICode(errors.New("boom")))
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, ""))
	assert.Equal(t, ErrLocked, WrapError(nil, ErrLocked))
	assert.Equal(t, ErrLocked, WrapError(ErrLocked, nil))

	err := WrapError(ErrCorruptedStorage, "bad key")
	assert.ErrorIs(t, err, ErrCorruptedStorage)
	assert.Contains(t, err.Error(), "bad key")
}

func TestAddresses(t *testing.T) {
	account := GenerateAddress("alice")
	require.NoError(t, ValidateAddress(account))
	assert.Equal(t, account, GenerateAddress("alice"))
	assert.NotEqual(t, account, GenerateAddress("bob"))

	contract := ContractAddress("vault-router")
	require.NoError(t, ValidateAddress(contract))
	assert.NotEqual(t, contract, ContractAddress("slash-manager"))

	for _, addr := range []string{"", "bbn1invalid", "cosmos1qypqxpq9qcrsszg2pvxq6rs0zqg3yyc5lzv7xu"} {
		assert.ErrorIs(t, ValidateAddress(addr), ErrInvalidInput, addr)
	}
}

func TestPubKeyToAddress(t *testing.T) {
	addr, err := PubKeyToAddress(make([]byte, 33))
	require.NoError(t, err)
	assert.NoError(t, ValidateAddress(addr))
}

func TestExactlyOne(t *testing.T) {
	assert.False(t, ExactlyOne())
	assert.False(t, ExactlyOne(false, false))
	assert.True(t, ExactlyOne(false, true, false))
	assert.False(t, ExactlyOne(true, true))
}

func TestResponse(t *testing.T) {
	sub, err := NewSubMsg("c", map[string]any{"slashing_cancel": map[string]string{"slashing_request_id": "x"}})
	require.NoError(t, err)

	res := NewResponse().AddAttribute("method", "veto").AddEvent(NewEvent("ProposalVetoed")).AddMessage(sub)
	method, ok := res.Attribute("method")
	assert.True(t, ok)
	assert.Equal(t, "veto", method)
	_, ok = res.Attribute("missing")
	assert.False(t, ok)
	assert.JSONEq(t, `{"slashing_cancel":{"slashing_request_id":"x"}}`, string(res.Messages[0].Msg))
}
