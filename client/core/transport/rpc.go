package transport

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/expansion/v1/client/core/wire"
	"github.com/expansion/v1/pkg/types"
)

// JSON-RPC 方法名
const (
	methodChainIdentifier    = "sui_getChainIdentifier"
	methodMoveCall           = "unsafe_moveCall"
	methodPublish            = "unsafe_publish"
	methodExecuteTransaction = "sui_executeTransactionBlock"
	methodGetObject          = "sui_getObject"
	methodNormalizedMoveFunc = "sui_getNormalizedMoveFunction"
	jsonrpcVersion           = "2.0"
)

// caller 单次 JSON-RPC 调用，由 HTTP 与 WebSocket 各自实现
type caller interface {
	call(ctx context.Context, method string, params []interface{}, result interface{}) error
}

// rpcMethods 在 caller 之上实现 Client 的业务方法
//
// timeout 作用于每次查询/构建请求；ExecuteTransaction 只受调用方 ctx 约束。
type rpcMethods struct {
	caller  caller
	timeout time.Duration
}

// request 带请求超时的单次调用
func (m *rpcMethods) request(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	return m.caller.call(ctx, method, params, result)
}

func (m *rpcMethods) ChainIdentifier(ctx context.Context) (string, error) {
	var id string
	if err := m.request(ctx, methodChainIdentifier, []interface{}{}, &id); err != nil {
		return "", err
	}
	return id, nil
}

func (m *rpcMethods) Ping(ctx context.Context) error {
	_, err := m.ChainIdentifier(ctx)
	return err
}

func (m *rpcMethods) BuildPublish(ctx context.Context, sender types.Address, modules [][]byte, deps []types.ObjectID, gasBudget uint64) (*UnsignedTransaction, error) {
	if len(modules) == 0 {
		return nil, errors.New("publish requires at least one module")
	}

	encoded := make([]string, len(modules))
	for i, mod := range modules {
		encoded[i] = base64.StdEncoding.EncodeToString(mod)
	}
	depIDs := make([]string, len(deps))
	for i, d := range deps {
		depIDs[i] = d.String()
	}

	params := []interface{}{
		sender.String(),
		encoded,
		depIDs,
		nil, // 由节点选择 gas 对象
		strconv.FormatUint(gasBudget, 10),
	}
	return m.buildTx(ctx, methodPublish, params)
}

func (m *rpcMethods) BuildMoveCall(ctx context.Context, sender types.Address, desc types.CallDescriptor, args []wire.Value) (*UnsignedTransaction, error) {
	pkg, err := desc.Validate()
	if err != nil {
		return nil, err
	}

	typeArgs := desc.TypeArguments
	if typeArgs == nil {
		typeArgs = []string{}
	}
	if args == nil {
		args = []wire.Value{}
	}

	params := []interface{}{
		sender.String(),
		pkg.String(),
		desc.Module,
		desc.Function,
		typeArgs,
		args,
		nil, // 由节点选择 gas 对象
		strconv.FormatUint(desc.GasBudget, 10),
	}
	return m.buildTx(ctx, methodMoveCall, params)
}

func (m *rpcMethods) buildTx(ctx context.Context, method string, params []interface{}) (*UnsignedTransaction, error) {
	var raw unsignedTransactionJSON
	if err := m.request(ctx, method, params, &raw); err != nil {
		return nil, err
	}
	if raw.TxBytes == "" {
		return nil, fmt.Errorf("%s: empty txBytes", method)
	}
	txBytes, err := base64.StdEncoding.DecodeString(raw.TxBytes)
	if err != nil {
		return nil, fmt.Errorf("%s: decode txBytes: %w", method, err)
	}
	return &UnsignedTransaction{TxBytes: txBytes}, nil
}

func (m *rpcMethods) ExecuteTransaction(ctx context.Context, signed *types.SignedTransaction, opts ExecuteOptions, requestType RequestType) (*ExecuteResponse, error) {
	if err := signed.VerifySender(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	if requestType == "" {
		requestType = WaitForLocalExecution
	}

	params := []interface{}{
		signed.TxBytesBase64(),
		signed.SignaturesBase64(),
		opts,
		string(requestType),
	}

	var resp ExecuteResponse
	if err := m.caller.call(ctx, methodExecuteTransaction, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (m *rpcMethods) GetObject(ctx context.Context, id types.ObjectID, opts ObjectOptions) (*ObjectData, error) {
	var resp objectResponse
	if err := m.request(ctx, methodGetObject, []interface{}{id.String(), opts}, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		if len(resp.Error) > 0 {
			return nil, fmt.Errorf("%w: %s: %s", ErrObjectNotFound, id, resp.Error)
		}
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	return resp.Data, nil
}

func (m *rpcMethods) GetNormalizedMoveFunction(ctx context.Context, pkg types.ObjectID, module, function string) (*NormalizedFunction, error) {
	var fn NormalizedFunction
	if err := m.request(ctx, methodNormalizedMoveFunc, []interface{}{pkg.String(), module, function}, &fn); err != nil {
		return nil, err
	}
	return &fn, nil
}

func (m *rpcMethods) CallRaw(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	return m.request(ctx, method, params, result)
}
