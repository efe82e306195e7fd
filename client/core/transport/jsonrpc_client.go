package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/expansion/v1/client/core/transport/retry"
	infralog "github.com/expansion/v1/internal/core/infrastructure/log"
	logInterface "github.com/expansion/v1/pkg/interfaces/infrastructure/log"
)

// maxResponseSize 单个响应体上限
const maxResponseSize = 32 << 20

// JSONRPCClient JSON-RPC 2.0 over HTTP 客户端
type JSONRPCClient struct {
	*rpcMethods

	endpoint   string
	httpClient *http.Client
	nextID     atomic.Uint64
	logger     logInterface.Logger
}

// NewJSONRPCClient 创建JSON-RPC客户端
//
// timeout 是查询与构建请求的超时，不作用于交易提交。
func NewJSONRPCClient(endpoint string, timeout time.Duration, logger logInterface.Logger) *JSONRPCClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	c := &JSONRPCClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: infralog.NewModuleLogger(logger, "transport"),
	}
	c.rpcMethods = &rpcMethods{caller: c, timeout: timeout}
	return c
}

// Endpoint 节点地址
func (c *JSONRPCClient) Endpoint() string {
	return c.endpoint
}

// jsonrpcRequest JSON-RPC 2.0 请求
type jsonrpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      uint64        `json:"id"`
}

// jsonrpcResponse JSON-RPC 2.0 响应
type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      uint64          `json:"id"`
}

// call 统一的JSON-RPC调用方法
func (c *JSONRPCClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	start := time.Now()
	req := &jsonrpcRequest{
		JSONRPC: jsonrpcVersion,
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request %s: %w", method, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("close response body: %v", err)
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.With(
		"method", method,
		"id", req.ID,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	).Debug("rpc call")

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return retry.Retryable(fmt.Errorf("%s: http status %d", method, resp.StatusCode))
	}

	return decodeResponse(method, req.ID, respBody, result)
}

// decodeResponse 解析 JSON-RPC 响应并写入 result
func decodeResponse(method string, id uint64, body []byte, result interface{}) error {
	var jsonResp jsonrpcResponse
	if err := json.Unmarshal(body, &jsonResp); err != nil {
		return fmt.Errorf("%s: unmarshal response: %w", method, err)
	}
	if jsonResp.ID != id {
		return fmt.Errorf("%s: response id %d does not match request %d", method, jsonResp.ID, id)
	}
	if jsonResp.Error != nil {
		return fmt.Errorf("%s: %w", method, jsonResp.Error)
	}

	if result != nil && len(jsonResp.Result) > 0 {
		if err := json.Unmarshal(jsonResp.Result, result); err != nil {
			return fmt.Errorf("%s: unmarshal result: %w", method, err)
		}
	}
	return nil
}

// Close 释放空闲连接
func (c *JSONRPCClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// 确保实现了Client接口
var _ Client = (*JSONRPCClient)(nil)
