package abi

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expansion/v1/client/core/transport"
	"github.com/expansion/v1/client/core/wire"
	"github.com/expansion/v1/pkg/types"
)

const createSceneFn = `{
  "visibility": "Public",
  "isEntry": true,
  "typeParameters": [],
  "parameters": [
    {"MutableReference": {"Struct": {"address": "0xabc", "module": "scenes", "name": "SceneRegistry", "typeArguments": []}}},
    "U64", "U64", "U8", "U64", "U64", "U64", "U64", "U64",
    {"Vector": "U8"},
    {"Struct": {"address": "0x1", "module": "option", "name": "Option", "typeArguments": ["U64"]}},
    "Bool",
    "Address",
    {"MutableReference": {"Struct": {"address": "0x0000000000000000000000000000000000000000000000000000000000000002", "module": "tx_context", "name": "TxContext", "typeArguments": []}}}
  ],
  "return": []
}`

type countingSource struct {
	calls int
	fn    string
	err   error
}

func (s *countingSource) GetNormalizedMoveFunction(_ context.Context, _ types.ObjectID, _, _ string) (*transport.NormalizedFunction, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var fn transport.NormalizedFunction
	if err := json.Unmarshal([]byte(s.fn), &fn); err != nil {
		return nil, err
	}
	return &fn, nil
}

func sceneArgs() []wire.Value {
	return []wire.Value{
		wire.String("0x5"),
		wire.NewNumber(100000), wire.NewNumber(2000), wire.NewNumber(90),
		wire.NewNumber(1), wire.NewNumber(1), wire.NewNumber(10), wire.NewNumber(10), wire.NewNumber(0),
		wire.Array{wire.NewNumber(1), wire.NewNumber(2)},
		wire.Array{},
		wire.Bool(true),
		wire.String("0x7"),
	}
}

func TestSignatureParse(t *testing.T) {
	var sig Signature
	require.NoError(t, json.Unmarshal([]byte(createSceneFn), &sig))

	require.Len(t, sig.Parameters, 14)
	assert.Len(t, sig.CallParameters(), 13)
	assert.Equal(t, "&mut 0xabc::scenes::SceneRegistry", sig.Parameters[0].String())
	assert.Equal(t, "vector<u8>", sig.Parameters[9].String())
	assert.Equal(t, "0x1::option::Option<u64>", sig.Parameters[10].String())

	out, err := json.Marshal(sig.Parameters[10])
	require.NoError(t, err)
	assert.JSONEq(t, `{"Struct":{"address":"0x1","module":"option","name":"Option","typeArguments":["U64"]}}`, string(out))
}

func TestCheckArguments(t *testing.T) {
	var sig Signature
	require.NoError(t, json.Unmarshal([]byte(createSceneFn), &sig))

	require.NoError(t, CheckArguments("t", &sig, sceneArgs()))

	err := CheckArguments("t", &sig, sceneArgs()[:12])
	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, -1, mismatch.Index)
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	args := sceneArgs()
	args[3] = wire.String("90")
	err = CheckArguments("t", &sig, args)
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 3, mismatch.Index)
	assert.Equal(t, "u8", mismatch.Expected)
	assert.Equal(t, "string", mismatch.Actual)

	args = sceneArgs()
	args[10] = wire.Array{wire.NewNumber(1), wire.NewNumber(2)}
	require.Error(t, CheckArguments("t", &sig, args))

	args = sceneArgs()
	args[12] = wire.String("not-an-address")
	require.Error(t, CheckArguments("t", &sig, args))
}

func TestCacheHits(t *testing.T) {
	src := &countingSource{fn: createSceneFn}
	cache, err := NewCache(DefaultConfig(), src, nil)
	require.NoError(t, err)
	defer cache.Close()

	desc := types.CallDescriptor{Package: "0xabc", Module: "scenes", Function: "create_scene"}
	require.NoError(t, cache.Check(context.Background(), desc, sceneArgs()))
	require.NoError(t, cache.Check(context.Background(), desc, sceneArgs()))

	assert.Equal(t, 1, src.calls)
	hits, misses := cache.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheSourceError(t *testing.T) {
	boom := errors.New("unreachable")
	cache, err := NewCache(Config{}, &countingSource{err: boom}, nil)
	require.NoError(t, err)
	defer cache.Close()

	_, err = cache.Function(context.Background(), types.MustParseObjectID("0x1"), "m", "f")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, cache.Len())
}

func TestCacheInvalidDescriptor(t *testing.T) {
	src := &countingSource{fn: createSceneFn}
	cache, err := NewCache(DefaultConfig(), src, nil)
	require.NoError(t, err)
	defer cache.Close()

	err = cache.Check(context.Background(), types.CallDescriptor{Package: "zz", Module: "m", Function: "f"}, nil)
	assert.ErrorIs(t, err, types.ErrInvalidDescriptor)
	assert.Equal(t, 0, src.calls)
}
