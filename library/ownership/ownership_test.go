package ownership

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
)

func TestTransferAndAccept(t *testing.T) {
	owner := types.GenerateAddress("owner")
	next := types.GenerateAddress("next")
	other := types.GenerateAddress("other")

	o := New(store.NewMemStore())
	require.NoError(t, o.Init(owner))

	_, err := o.Transfer(other, TransferOwnership{NewOwner: next})
	assert.ErrorIs(t, err, types.ErrNotOwner)

	_, err = o.Accept(next)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = o.Transfer(owner, TransferOwnership{NewOwner: next})
	require.NoError(t, err)

	current, err := o.Owner()
	require.NoError(t, err)
	assert.Equal(t, owner, current, "ownership must not move before accept")

	_, err = o.Accept(other)
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	res, err := o.Accept(next)
	require.NoError(t, err)
	assert.Equal(t, "OwnershipTransferred", res.Events[0].Type)

	current, err = o.Owner()
	require.NoError(t, err)
	assert.Equal(t, next, current)

	_, ok, err := o.PendingOwner()
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, o.AssertOwner(owner), types.ErrUnauthorized)
}

func TestCancel(t *testing.T) {
	owner := types.GenerateAddress("owner")
	next := types.GenerateAddress("next")

	o := New(store.NewMemStore())
	require.NoError(t, o.Init(owner))

	_, err := o.Transfer(owner, TransferOwnership{NewOwner: next})
	require.NoError(t, err)

	_, err = o.Cancel(next)
	assert.ErrorIs(t, err, types.ErrNotOwner)

	_, err = o.Cancel(owner)
	require.NoError(t, err)

	_, err = o.Accept(next)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestInvalidAddress(t *testing.T) {
	o := New(store.NewMemStore())
	assert.ErrorIs(t, o.Init("not-an-address"), types.ErrInvalidInput)

	owner := types.GenerateAddress("owner")
	require.NoError(t, o.Init(owner))
	_, err := o.Transfer(owner, TransferOwnership{NewOwner: "bad"})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}
