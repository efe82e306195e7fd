package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	infralog "github.com/expansion/v1/internal/core/infrastructure/log"
	logInterface "github.com/expansion/v1/pkg/interfaces/infrastructure/log"
	"github.com/gorilla/websocket"
)

// WebSocketClient JSON-RPC over WebSocket 客户端
//
// 单连接；写入串行化，响应按请求 id 分发给等待方。
type WebSocketClient struct {
	*rpcMethods

	endpoint string
	conn     *websocket.Conn
	writeMu  sync.Mutex
	nextID   atomic.Uint64
	logger   logInterface.Logger

	mu      sync.Mutex
	pending map[uint64]chan wsResult
	readErr error

	closeCh   chan struct{}
	closeOnce sync.Once
}

// wsResult 单个请求的响应或连接错误
type wsResult struct {
	resp *jsonrpcResponse
	err  error
}

// NewWebSocketClient 建立连接并启动读循环
func NewWebSocketClient(ctx context.Context, endpoint string, logger logInterface.Logger) (*WebSocketClient, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}

	c := &WebSocketClient{
		endpoint: endpoint,
		conn:     conn,
		logger:   infralog.NewModuleLogger(logger, "transport"),
		pending:  make(map[uint64]chan wsResult),
		closeCh:  make(chan struct{}),
	}
	c.rpcMethods = &rpcMethods{caller: c}

	go c.readLoop()
	return c, nil
}

// Endpoint 节点地址
func (c *WebSocketClient) Endpoint() string {
	return c.endpoint
}

// readLoop 消息读取循环
func (c *WebSocketClient) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.failPending(fmt.Errorf("websocket read: %w", err))
			return
		}

		var resp jsonrpcResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			c.logger.Warnf("discard malformed websocket message: %v", err)
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()

		if !ok {
			// 订阅通知或已超时的请求
			continue
		}
		ch <- wsResult{resp: &resp}
	}
}

// failPending 连接断开后让所有等待方返回
func (c *WebSocketClient) failPending(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closeCh:
		err = ErrClosed
	default:
	}

	c.readErr = err
	for id, ch := range c.pending {
		ch <- wsResult{err: err}
		delete(c.pending, id)
	}
}

func (c *WebSocketClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	id := c.nextID.Add(1)
	ch := make(chan wsResult, 1)

	c.mu.Lock()
	if c.readErr != nil {
		err := c.readErr
		c.mu.Unlock()
		return err
	}
	c.pending[id] = ch
	c.mu.Unlock()

	req := &jsonrpcRequest{
		JSONRPC: jsonrpcVersion,
		Method:  method,
		Params:  params,
		ID:      id,
	}

	c.writeMu.Lock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	} else {
		_ = c.conn.SetWriteDeadline(time.Time{})
	}
	err := c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return fmt.Errorf("websocket write %s: %w", method, err)
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return res.err
		}
		if res.resp.Error != nil {
			return fmt.Errorf("%s: %w", method, res.resp.Error)
		}
		if result != nil && len(res.resp.Result) > 0 {
			if err := json.Unmarshal(res.resp.Result, result); err != nil {
				return fmt.Errorf("%s: unmarshal result: %w", method, err)
			}
		}
		return nil
	case <-ctx.Done():
		c.forget(id)
		return ctx.Err()
	}
}

func (c *WebSocketClient) forget(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Close 关闭WebSocket连接
func (c *WebSocketClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)

		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()

		err = c.conn.Close()
	})
	return err
}

// 确保实现了Client接口
var _ Client = (*WebSocketClient)(nil)
