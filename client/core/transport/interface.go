// Package transport 定义客户端与账本节点之间的通信接口
//
// 节点以 JSON-RPC 暴露交易构建、执行与对象查询。本包提供 HTTP 与 WebSocket
// 两种实现，以及按优先级故障转移的 FallbackClient。
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/expansion/v1/client/core/wire"
	"github.com/expansion/v1/pkg/types"
)

var (
	// ErrObjectNotFound 对象不存在或已删除
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidTransaction 已签名交易未通过本地校验，未提交
	ErrInvalidTransaction = errors.New("signed transaction failed verification")

	// ErrClosed 客户端已关闭
	ErrClosed = errors.New("transport closed")
)

// Client 账本客户端接口 - 客户端与节点通信的唯一通道
type Client interface {
	// ===== 链信息 =====

	// ChainIdentifier 获取链标识
	ChainIdentifier(ctx context.Context) (string, error)

	// Ping 检查节点是否可达
	Ping(ctx context.Context) error

	// ===== 交易构建 =====

	// BuildPublish 构建发布 Move 包的未签名交易
	BuildPublish(ctx context.Context, sender types.Address, modules [][]byte, deps []types.ObjectID, gasBudget uint64) (*UnsignedTransaction, error)

	// BuildMoveCall 构建调用 Move 函数的未签名交易
	BuildMoveCall(ctx context.Context, sender types.Address, desc types.CallDescriptor, args []wire.Value) (*UnsignedTransaction, error)

	// ===== 交易提交 =====

	// ExecuteTransaction 提交已签名交易并按 requestType 等待
	// 提交前校验签名；校验失败返回 ErrInvalidTransaction 且不发送
	ExecuteTransaction(ctx context.Context, signed *types.SignedTransaction, opts ExecuteOptions, requestType RequestType) (*ExecuteResponse, error)

	// ===== 状态查询 =====

	// GetObject 读取对象
	GetObject(ctx context.Context, id types.ObjectID, opts ObjectOptions) (*ObjectData, error)

	// GetNormalizedMoveFunction 读取函数的规范化签名
	GetNormalizedMoveFunction(ctx context.Context, pkg types.ObjectID, module, function string) (*NormalizedFunction, error)

	// CallRaw 调用任意 JSON-RPC 方法，result 为 nil 时丢弃结果
	CallRaw(ctx context.Context, method string, params []interface{}, result interface{}) error

	// Close 关闭客户端连接
	Close() error
}

// RequestType 提交后的等待方式
type RequestType string

const (
	// WaitForEffectsCert 等待效果证书
	WaitForEffectsCert RequestType = "WaitForEffectsCert"
	// WaitForLocalExecution 等待节点本地执行完成
	WaitForLocalExecution RequestType = "WaitForLocalExecution"
)

// ExecuteOptions 提交时请求返回的内容
type ExecuteOptions struct {
	ShowInput         bool `json:"showInput,omitempty"`
	ShowEffects       bool `json:"showEffects,omitempty"`
	ShowEvents        bool `json:"showEvents,omitempty"`
	ShowObjectChanges bool `json:"showObjectChanges,omitempty"`
}

// DefaultExecuteOptions 返回效果与对象变更
func DefaultExecuteOptions() ExecuteOptions {
	return ExecuteOptions{ShowEffects: true, ShowObjectChanges: true}
}

// ObjectOptions 读取对象时请求返回的内容
type ObjectOptions struct {
	ShowType    bool `json:"showType,omitempty"`
	ShowOwner   bool `json:"showOwner,omitempty"`
	ShowContent bool `json:"showContent,omitempty"`
}

// FullObjectOptions 类型、所有者与内容
func FullObjectOptions() ObjectOptions {
	return ObjectOptions{ShowType: true, ShowOwner: true, ShowContent: true}
}

// UnsignedTransaction 节点构建的未签名交易
type UnsignedTransaction struct {
	TxBytes []byte
}

// unsignedTransactionJSON 节点返回形式
type unsignedTransactionJSON struct {
	TxBytes string `json:"txBytes"`
}

// ExecuteResponse 提交结果
type ExecuteResponse struct {
	Digest                  types.Digest            `json:"digest"`
	Effects                 *types.ExecutionEffects `json:"effects,omitempty"`
	ObjectChanges           []types.ObjectChange    `json:"objectChanges,omitempty"`
	ConfirmedLocalExecution *bool                   `json:"confirmedLocalExecution,omitempty"`
	Errors                  []string                `json:"errors,omitempty"`
}

// ObjectData 对象数据
type ObjectData struct {
	ObjectID types.ObjectID `json:"objectId"`
	Version  types.U64      `json:"version"`
	Digest   string         `json:"digest"`
	Type     string         `json:"type,omitempty"`
	Owner    *types.Owner   `json:"owner,omitempty"`
	Content  *MoveContent   `json:"content,omitempty"`
}

// MoveContent 对象的 Move 内容
type MoveContent struct {
	DataType          string          `json:"dataType"` // moveObject | package
	Type              string          `json:"type,omitempty"`
	HasPublicTransfer bool            `json:"hasPublicTransfer,omitempty"`
	Fields            json.RawMessage `json:"fields,omitempty"`
}

// objectResponse sui_getObject 返回形式
type objectResponse struct {
	Data  *ObjectData     `json:"data,omitempty"`
	Error json.RawMessage `json:"error,omitempty"`
}

// NormalizedFunction 规范化的 Move 函数签名
//
// 参数类型保持节点返回的 JSON 形式，由 abi 包解析。
type NormalizedFunction struct {
	Visibility     string            `json:"visibility"`
	IsEntry        bool              `json:"isEntry"`
	TypeParameters []json.RawMessage `json:"typeParameters"`
	Parameters     []json.RawMessage `json:"parameters"`
	Return         []json.RawMessage `json:"return"`
}

// RPCError 节点返回的 JSON-RPC 错误
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}
