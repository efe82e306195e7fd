package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/expansion/v1/client/core/transport/retry"
	"github.com/expansion/v1/client/core/wallet"
	"github.com/expansion/v1/client/core/wire"
	"github.com/expansion/v1/pkg/types"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcCall 测试服务端收到的请求
type rpcCall struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     uint64            `json:"id"`
}

// fakeLedger 按方法名返回固定结果的 JSON-RPC 服务端
type fakeLedger struct {
	mu      sync.Mutex
	calls   []rpcCall
	results map[string]interface{}
	errors  map[string]*RPCError
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		results: map[string]interface{}{},
		errors:  map[string]*RPCError{},
	}
}

func (f *fakeLedger) handle(body []byte) []byte {
	var call rpcCall
	if err := json.Unmarshal(body, &call); err != nil {
		return []byte(`{"jsonrpc":"2.0","id":0,"error":{"code":-32700,"message":"parse error"}}`)
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	result, hasResult := f.results[call.Method]
	rpcErr := f.errors[call.Method]
	f.mu.Unlock()

	resp := map[string]interface{}{"jsonrpc": "2.0", "id": call.ID}
	switch {
	case rpcErr != nil:
		resp["error"] = rpcErr
	case hasResult:
		resp["result"] = result
	default:
		resp["error"] = &RPCError{Code: -32601, Message: "method not found"}
	}
	out, _ := json.Marshal(resp)
	return out
}

func (f *fakeLedger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(f.handle(body))
}

func (f *fakeLedger) lastCall(t *testing.T) rpcCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func (f *fakeLedger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func paramString(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var s string
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}

func signTx(t *testing.T, txBytes []byte) *types.SignedTransaction {
	t.Helper()
	kp, err := wallet.GenerateEd25519KeyPair()
	require.NoError(t, err)
	digest := types.IntentDigest(txBytes)
	sig, err := kp.SignDigest(digest[:])
	require.NoError(t, err)
	return &types.SignedTransaction{Sender: kp.Address(), TxBytes: txBytes, Signatures: []types.Signature{sig}}
}

func TestJSONRPCClientBuildMoveCall(t *testing.T) {
	ledger := newFakeLedger()
	ledger.results[methodMoveCall] = map[string]interface{}{
		"txBytes": base64.StdEncoding.EncodeToString([]byte("unsigned")),
	}
	srv := httptest.NewServer(ledger)
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL, time.Second, nil)
	defer c.Close()

	sender := types.MustParseAddress("0xa11ce")
	desc := types.CallDescriptor{Package: "0x2", Module: "xcoin", Function: "mint", GasBudget: 300000}
	args := []wire.Value{wire.String("0x5"), wire.NewNumber(1000)}

	tx, err := c.BuildMoveCall(context.Background(), sender, desc, args)
	require.NoError(t, err)
	assert.Equal(t, []byte("unsigned"), tx.TxBytes)

	call := ledger.lastCall(t)
	assert.Equal(t, methodMoveCall, call.Method)
	require.Len(t, call.Params, 8)
	assert.Equal(t, sender.String(), paramString(t, call.Params[0]))
	assert.Equal(t, types.MustParseObjectID("0x2").String(), paramString(t, call.Params[1]))
	assert.Equal(t, "xcoin", paramString(t, call.Params[2]))
	assert.Equal(t, "mint", paramString(t, call.Params[3]))
	assert.JSONEq(t, `[]`, string(call.Params[4]))
	assert.JSONEq(t, `["0x5", 1000]`, string(call.Params[5]))
	assert.JSONEq(t, `null`, string(call.Params[6]))
	assert.Equal(t, "300000", paramString(t, call.Params[7]))
}

func TestJSONRPCClientBuildMoveCallRejectsBadDescriptor(t *testing.T) {
	ledger := newFakeLedger()
	srv := httptest.NewServer(ledger)
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL, time.Second, nil)
	_, err := c.BuildMoveCall(context.Background(), types.Address{}, types.CallDescriptor{Package: "nothex", Module: "m", Function: "f"}, nil)
	assert.ErrorIs(t, err, types.ErrInvalidDescriptor)
	assert.Zero(t, ledger.callCount())
}

func TestJSONRPCClientBuildPublish(t *testing.T) {
	ledger := newFakeLedger()
	ledger.results[methodPublish] = map[string]interface{}{
		"txBytes": base64.StdEncoding.EncodeToString([]byte("publish")),
	}
	srv := httptest.NewServer(ledger)
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL, time.Second, nil)
	tx, err := c.BuildPublish(context.Background(), types.MustParseAddress("0x1"),
		[][]byte{{0xa1, 0x1c}}, []types.ObjectID{types.MustParseObjectID("0x1"), types.MustParseObjectID("0x2")}, 20000)
	require.NoError(t, err)
	assert.Equal(t, []byte("publish"), tx.TxBytes)

	call := ledger.lastCall(t)
	require.Len(t, call.Params, 5)
	assert.JSONEq(t, `["oRw="]`, string(call.Params[1]))
	assert.Equal(t, "20000", paramString(t, call.Params[4]))

	_, err = c.BuildPublish(context.Background(), types.Address{}, nil, nil, 1)
	assert.Error(t, err)
}

func TestJSONRPCClientRPCError(t *testing.T) {
	ledger := newFakeLedger()
	ledger.errors[methodMoveCall] = &RPCError{Code: -32602, Message: "function not found"}
	srv := httptest.NewServer(ledger)
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL, time.Second, nil)
	_, err := c.BuildMoveCall(context.Background(), types.Address{},
		types.CallDescriptor{Package: "0x2", Module: "m", Function: "f"}, nil)

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32602, rpcErr.Code)
	assert.False(t, retry.IsRecoverable(err))
}

func TestJSONRPCClientServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL, time.Second, nil)
	_, err := c.ChainIdentifier(context.Background())
	require.Error(t, err)
	assert.True(t, retry.IsRecoverable(err))
}

func TestJSONRPCClientExecuteTransaction(t *testing.T) {
	ledger := newFakeLedger()
	ledger.results[methodExecuteTransaction] = json.RawMessage(`{
		"digest": "11111111111111111111111111111111",
		"effects": {
			"status": {"status": "success"},
			"transactionDigest": "11111111111111111111111111111111",
			"gasUsed": {"computationCost": "1000", "storageCost": "2000", "storageRebate": "500", "nonRefundableStorageFee": "0"},
			"created": [
				{"owner": "Immutable", "reference": {"objectId": "0x7", "version": 1, "digest": "d1"}}
			]
		},
		"objectChanges": [{"type": "published", "packageId": "0x7"}],
		"confirmedLocalExecution": true
	}`)
	srv := httptest.NewServer(ledger)
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL, time.Second, nil)
	signed := signTx(t, []byte("tx-bytes"))

	resp, err := c.ExecuteTransaction(context.Background(), signed, DefaultExecuteOptions(), WaitForLocalExecution)
	require.NoError(t, err)
	require.NotNil(t, resp.Effects)
	assert.True(t, resp.Effects.Status.Succeeded())
	require.Len(t, resp.Effects.Created, 1)
	assert.True(t, resp.Effects.Created[0].IsImmutable())
	require.NotNil(t, resp.ConfirmedLocalExecution)
	assert.True(t, *resp.ConfirmedLocalExecution)

	call := ledger.lastCall(t)
	require.Len(t, call.Params, 4)
	assert.Equal(t, signed.TxBytesBase64(), paramString(t, call.Params[0]))
	assert.JSONEq(t, `{"showEffects":true,"showObjectChanges":true}`, string(call.Params[2]))
	assert.Equal(t, "WaitForLocalExecution", paramString(t, call.Params[3]))
}

// slowHandler 指定方法延迟 delay 后再响应
func slowHandler(ledger *fakeLedger, method string, delay time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), `"method":"`+method+`"`) {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(ledger.handle(body))
	})
}

func TestJSONRPCClientRequestTimeoutSkipsExecute(t *testing.T) {
	ledger := newFakeLedger()
	ledger.results[methodExecuteTransaction] = json.RawMessage(`{"effects": {"status": {"status": "success"}}}`)
	srv := httptest.NewServer(slowHandler(ledger, methodExecuteTransaction, 300*time.Millisecond))
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL, 100*time.Millisecond, nil)
	defer c.Close()

	resp, err := c.ExecuteTransaction(context.Background(), signTx(t, []byte("tx")), DefaultExecuteOptions(), WaitForLocalExecution)
	require.NoError(t, err)
	require.NotNil(t, resp.Effects)
	assert.True(t, resp.Effects.Status.Succeeded())
}

func TestJSONRPCClientRequestTimeoutAppliesToQueries(t *testing.T) {
	ledger := newFakeLedger()
	ledger.results[methodChainIdentifier] = "4c78adac"
	srv := httptest.NewServer(slowHandler(ledger, methodChainIdentifier, 300*time.Millisecond))
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL, 100*time.Millisecond, nil)
	defer c.Close()

	_, err := c.ChainIdentifier(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestJSONRPCClientExecuteRejectsUnverifiedTransaction(t *testing.T) {
	ledger := newFakeLedger()
	srv := httptest.NewServer(ledger)
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL, time.Second, nil)

	// 签名者与声明的发送者不一致
	signed := signTx(t, []byte("tx"))
	signed.Sender = types.MustParseAddress("0xbad")
	_, err := c.ExecuteTransaction(context.Background(), signed, DefaultExecuteOptions(), WaitForLocalExecution)
	assert.ErrorIs(t, err, ErrInvalidTransaction)
	assert.ErrorIs(t, err, types.ErrSenderMismatch)

	// 两个签名
	signed = signTx(t, []byte("tx"))
	signed.Signatures = append(signed.Signatures, signed.Signatures[0])
	_, err = c.ExecuteTransaction(context.Background(), signed, DefaultExecuteOptions(), WaitForLocalExecution)
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	assert.Zero(t, ledger.callCount(), "未通过校验的交易不应发送")
}

func TestJSONRPCClientGetObject(t *testing.T) {
	ledger := newFakeLedger()
	ledger.results[methodGetObject] = json.RawMessage(`{"data": {
		"objectId": "0x5",
		"version": "12",
		"digest": "abc",
		"type": "0x7::scenes::Scene",
		"owner": {"Shared": {"initial_shared_version": 3}},
		"content": {"dataType": "moveObject", "type": "0x7::scenes::Scene", "fields": {"power": "100000"}}
	}}`)
	srv := httptest.NewServer(ledger)
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL, time.Second, nil)
	obj, err := c.GetObject(context.Background(), types.MustParseObjectID("0x5"), FullObjectOptions())
	require.NoError(t, err)
	assert.Equal(t, types.MustParseObjectID("0x5"), obj.ObjectID)
	assert.Equal(t, types.U64(12), obj.Version)
	require.NotNil(t, obj.Owner)
	assert.Equal(t, types.OwnershipShared, obj.Owner.Mode)
	require.NotNil(t, obj.Content)
	assert.JSONEq(t, `{"power": "100000"}`, string(obj.Content.Fields))
}

func TestJSONRPCClientGetObjectNotFound(t *testing.T) {
	ledger := newFakeLedger()
	ledger.results[methodGetObject] = json.RawMessage(`{"error": {"code": "notExists", "object_id": "0x5"}}`)
	srv := httptest.NewServer(ledger)
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL, time.Second, nil)
	_, err := c.GetObject(context.Background(), types.MustParseObjectID("0x5"), FullObjectOptions())
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestJSONRPCClientNormalizedFunction(t *testing.T) {
	ledger := newFakeLedger()
	ledger.results[methodNormalizedMoveFunc] = json.RawMessage(`{
		"visibility": "Public", "isEntry": true, "typeParameters": [],
		"parameters": ["U64", {"Vector": "U8"}, {"MutableReference": {"Struct": {"address": "0x2", "module": "tx_context", "name": "TxContext", "typeArguments": []}}}],
		"return": []
	}`)
	srv := httptest.NewServer(ledger)
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL, time.Second, nil)
	fn, err := c.GetNormalizedMoveFunction(context.Background(), types.MustParseObjectID("0x2"), "m", "f")
	require.NoError(t, err)
	assert.True(t, fn.IsEntry)
	assert.Len(t, fn.Parameters, 3)
}

func TestFallbackClientSwitchesEndpoint(t *testing.T) {
	var downCalls atomic.Int32
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downCalls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	ledger := newFakeLedger()
	ledger.results[methodChainIdentifier] = "4c78adac"
	up := httptest.NewServer(ledger)
	defer up.Close()

	cfg := ClientConfig{
		Endpoints: []EndpointConfig{
			{Name: "backup", Priority: 2, JSONRPC: up.URL},
			{Name: "primary", Priority: 1, JSONRPC: down.URL},
		},
		Timeout: time.Second,
		Retry:   retry.Config{Enabled: true, MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond},
	}
	fc, err := NewFallbackClient(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer fc.Close()

	id, err := fc.ChainIdentifier(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4c78adac", id)
	assert.Equal(t, int32(1), downCalls.Load())
}

func TestFallbackClientNeverRetriesSubmission(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	fc, err := NewFallbackClient(context.Background(), ClientConfig{
		Endpoints: []EndpointConfig{{Name: "only", JSONRPC: srv.URL}},
		Retry:     retry.Config{Enabled: true, MaxRetries: 5, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond},
	}, nil)
	require.NoError(t, err)
	defer fc.Close()

	_, err = fc.ExecuteTransaction(context.Background(), signTx(t, []byte("tx")), DefaultExecuteOptions(), WaitForLocalExecution)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, fc.Close())
	_, err = fc.ChainIdentifier(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewFallbackClientRequiresEndpoints(t *testing.T) {
	_, err := NewFallbackClient(context.Background(), ClientConfig{}, nil)
	assert.Error(t, err)

	_, err = NewFallbackClient(context.Background(), ClientConfig{Endpoints: []EndpointConfig{{Name: "empty"}}}, nil)
	assert.Error(t, err)
}

func TestWebSocketClient(t *testing.T) {
	ledger := newFakeLedger()
	ledger.results[methodChainIdentifier] = "4c78adac"
	ledger.results[methodGetObject] = json.RawMessage(`{"data": {"objectId": "0x9", "version": "1", "digest": "d"}}`)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			// 先推送一条无对应请求的通知
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","method":"suix_subscribeEvent","params":{}}`))
			if err := conn.WriteMessage(websocket.TextMessage, ledger.handle(msg)); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, err := NewClient(context.Background(), wsURL, time.Second, nil)
	require.NoError(t, err)
	_, isWS := c.(*WebSocketClient)
	require.True(t, isWS)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := c.ChainIdentifier(ctx)
			assert.NoError(t, err)
			assert.Equal(t, "4c78adac", id)
		}()
	}
	wg.Wait()

	obj, err := c.GetObject(ctx, types.MustParseObjectID("0x9"), ObjectOptions{})
	require.NoError(t, err)
	assert.Equal(t, types.MustParseObjectID("0x9"), obj.ObjectID)

	require.NoError(t, c.Close())
	_, err = c.ChainIdentifier(ctx)
	assert.Error(t, err)
}
