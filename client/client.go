// Package client 面向库使用者的客户端入口
//
// 命令行之外的程序通过本包组装交易执行流水线，无需依赖 internal/app。
package client

import (
	"context"
	"time"

	"github.com/expansion/v1/client/core/contract"
	"github.com/expansion/v1/client/core/effects"
	"github.com/expansion/v1/client/core/expansion"
	"github.com/expansion/v1/client/core/transport"
	"github.com/expansion/v1/client/core/wallet"
	logInterface "github.com/expansion/v1/pkg/interfaces/infrastructure/log"
	"github.com/expansion/v1/pkg/types"
)

// DefaultTimeout 单次请求默认超时
const DefaultTimeout = 30 * time.Second

// Client 账本客户端：传输 + 交易执行服务 + expansion 业务操作
type Client struct {
	transport transport.Client
	contract  *contract.Service
	expansion *expansion.Service
}

// New 创建新的客户端实例
// nodeURL: 节点 JSON-RPC 地址，如 "http://127.0.0.1:9000"
func New(nodeURL string, signer wallet.Signer, logger logInterface.Logger) *Client {
	return NewWithTimeout(nodeURL, DefaultTimeout, signer, logger)
}

// NewWithTimeout 创建带自定义超时的客户端实例
func NewWithTimeout(nodeURL string, timeout time.Duration, signer wallet.Signer, logger logInterface.Logger) *Client {
	return NewWithTransport(transport.NewJSONRPCClient(nodeURL, timeout, logger), signer, contract.DefaultConfig(), logger)
}

// NewWithTransport 使用自定义 transport 创建客户端
// 支持 JSON-RPC / WebSocket / 故障转移客户端
func NewWithTransport(t transport.Client, signer wallet.Signer, cfg contract.Config, logger logInterface.Logger, opts ...contract.Option) *Client {
	svc := contract.NewService(t, signer, cfg, logger, opts...)
	return &Client{
		transport: t,
		contract:  svc,
		expansion: expansion.NewService(svc, nil, logger),
	}
}

// Transport 获取底层的 transport 客户端
func (c *Client) Transport() transport.Client {
	return c.transport
}

// Contract 交易执行服务
func (c *Client) Contract() *contract.Service {
	return c.contract
}

// Expansion expansion 包的业务操作
func (c *Client) Expansion() *expansion.Service {
	return c.expansion
}

// ChainID 获取链标识
func (c *Client) ChainID(ctx context.Context) (string, error) {
	return c.transport.ChainIdentifier(ctx)
}

// Invoke 调用任意 Move 函数，params 按字段顺序编码为参数
func (c *Client) Invoke(ctx context.Context, desc types.CallDescriptor, params interface{}, rule effects.Rule) (*contract.Outcome, error) {
	return c.contract.Invoke(ctx, desc, params, rule)
}

// Close 关闭底层连接
func (c *Client) Close() error {
	return c.transport.Close()
}
