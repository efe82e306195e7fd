package builder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expansion/v1/client/core/bundle"
	"github.com/expansion/v1/client/core/transport"
	"github.com/expansion/v1/client/core/wallet"
	"github.com/expansion/v1/client/core/wire"
	"github.com/expansion/v1/pkg/types"
)

// stubClient 只实现构建类调用
type stubClient struct {
	transport.Client

	txBytes   []byte
	err       error
	lastDesc  types.CallDescriptor
	lastArgs  []wire.Value
	lastMods  [][]byte
	lastGas   uint64
	lastActor types.Address
}

func (s *stubClient) BuildMoveCall(_ context.Context, sender types.Address, desc types.CallDescriptor, args []wire.Value) (*transport.UnsignedTransaction, error) {
	s.lastActor, s.lastDesc, s.lastArgs = sender, desc, args
	if s.err != nil {
		return nil, s.err
	}
	return &transport.UnsignedTransaction{TxBytes: s.txBytes}, nil
}

func (s *stubClient) BuildPublish(_ context.Context, sender types.Address, modules [][]byte, _ []types.ObjectID, gasBudget uint64) (*transport.UnsignedTransaction, error) {
	s.lastActor, s.lastMods, s.lastGas = sender, modules, gasBudget
	if s.err != nil {
		return nil, s.err
	}
	return &transport.UnsignedTransaction{TxBytes: s.txBytes}, nil
}

func newKey(t *testing.T) *wallet.Ed25519KeyPair {
	t.Helper()
	kp, err := wallet.NewEd25519KeyPair(make([]byte, 32))
	require.NoError(t, err)
	return kp
}

func TestCallLifecycle(t *testing.T) {
	client := &stubClient{txBytes: []byte{1, 2, 3, 4}}
	kp := newKey(t)
	signer := wallet.NewInMemoryKeystore(kp)

	desc := types.CallDescriptor{Package: "0x2", Module: "scenes", Function: "create_scene", GasBudget: 1000}
	draft := NewTxBuilder(client).
		CreateCall(desc, []wire.Value{wire.Number("1")}).
		WithSender(kp.Address()).
		WithGasBudget(300000)
	assert.Equal(t, ShapeCall, draft.Shape())

	unsigned, err := draft.Seal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(300000), client.lastDesc.GasBudget)
	assert.Equal(t, kp.Address(), client.lastActor)
	assert.Equal(t, "0x2::scenes::create_scene", unsigned.Target())
	assert.Equal(t, types.TransactionDigest([]byte{1, 2, 3, 4}), unsigned.Digest())

	signed, err := unsigned.Sign(signer)
	require.NoError(t, err)
	require.NoError(t, signed.Transaction().VerifySender())
	assert.Equal(t, unsigned.Digest(), signed.Digest())
	assert.Equal(t, ShapeCall, signed.Shape())
	assert.Equal(t, []byte{1, 2, 3, 4}, signed.Transaction().TxBytes)
}

func TestSealRequiresSender(t *testing.T) {
	_, err := NewTxBuilder(&stubClient{}).CreatePublish([][]byte{{1}}, nil).Seal(context.Background())
	assert.ErrorIs(t, err, ErrSenderRequired)
}

func TestSealPublish(t *testing.T) {
	client := &stubClient{txBytes: []byte{9}}
	kp := newKey(t)

	_, err := NewTxBuilder(client).CreatePublish(nil, nil).WithSender(kp.Address()).Seal(context.Background())
	assert.ErrorIs(t, err, bundle.ErrEmptyBundle)
	assert.Nil(t, client.lastMods, "空模块不应交给节点构建")

	unsigned, err := NewTxBuilder(client).
		CreatePublish([][]byte{{0xa1}, {0xb2}}, nil).
		WithSender(kp.Address()).
		WithGasBudget(20000).
		Seal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ShapePublish, unsigned.Shape())
	assert.Equal(t, uint64(20000), client.lastGas)
	assert.Len(t, client.lastMods, 2)
}

func TestSealPropagatesBuildError(t *testing.T) {
	boom := errors.New("rejected")
	kp := newKey(t)
	_, err := NewTxBuilder(&stubClient{err: boom}).
		CreateCall(types.CallDescriptor{Package: "0x2", Module: "m", Function: "f"}, nil).
		WithSender(kp.Address()).
		Seal(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSignUnknownSender(t *testing.T) {
	kp := newKey(t)
	other, err := wallet.GenerateEd25519KeyPair()
	require.NoError(t, err)

	unsigned := &UnsignedTx{shape: ShapeCall, sender: other.Address(), txBytes: []byte{1}}
	_, err = unsigned.Sign(wallet.NewInMemoryKeystore(kp))
	assert.ErrorIs(t, err, wallet.ErrAddressNotFound)
}
