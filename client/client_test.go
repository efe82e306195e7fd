package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expansion/v1/client/core/effects"
	"github.com/expansion/v1/client/core/wallet"
	"github.com/expansion/v1/pkg/types"
)

type noteParams struct {
	Note   string
	Enable bool
}

func newLedger(t *testing.T, args *[]json.RawMessage) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64            `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result string
		switch req.Method {
		case "sui_getChainIdentifier":
			result = `"4c78adac"`
		case "unsafe_moveCall":
			_ = json.Unmarshal(req.Params[5], args)
			result = `{"txBytes":"` + base64.StdEncoding.EncodeToString([]byte("call")) + `"}`
		case "sui_executeTransactionBlock":
			result = `{"effects":{"status":{"status":"success"},"gasUsed":{"computationCost":"10","storageCost":"0","storageRebate":"0","nonRefundableStorageFee":"0"}}}`
		default:
			result = "null"
		}

		id, _ := json.Marshal(req.ID)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(id) + `,"result":` + result + `}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newSigner(t *testing.T) wallet.Signer {
	t.Helper()
	kp, err := wallet.NewEd25519KeyPair(make([]byte, 32))
	require.NoError(t, err)
	return wallet.NewInMemoryKeystore(kp)
}

func TestClientChainID(t *testing.T) {
	var args []json.RawMessage
	c := New(newLedger(t, &args).URL, newSigner(t), nil)
	defer c.Close()

	id, err := c.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4c78adac", id)
	assert.NotNil(t, c.Expansion())
	assert.Equal(t, c.Transport(), c.Contract().Client())
}

func TestClientInvoke(t *testing.T) {
	var args []json.RawMessage
	c := New(newLedger(t, &args).URL, newSigner(t), nil)
	defer c.Close()

	out, err := c.Invoke(context.Background(), types.CallDescriptor{
		Package:  "0x2",
		Module:   "notes",
		Function: "post",
	}, noteParams{Note: "hello", Enable: true}, effects.Any())
	require.NoError(t, err)
	assert.True(t, out.Effects.Status.Succeeded())
	assert.Empty(t, out.Extracted.Created)

	require.Len(t, args, 2)
	assert.JSONEq(t, `"hello"`, string(args[0]))
	assert.JSONEq(t, `true`, string(args[1]))
}

func TestClientInvokeRejectsBadDescriptor(t *testing.T) {
	var args []json.RawMessage
	c := New(newLedger(t, &args).URL, newSigner(t), nil)
	defer c.Close()

	_, err := c.Invoke(context.Background(), types.CallDescriptor{
		Package:  "not-hex",
		Module:   "notes",
		Function: "post",
	}, noteParams{}, effects.Any())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidDescriptor)
	assert.Nil(t, args)
}
