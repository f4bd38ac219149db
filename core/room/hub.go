// Package room 听歌室的 WebSocket 连接管理
package room

import (
	"context"
	"encoding/json"
	"sync"

	"SyncMusic/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// sendBuffer 每个连接的待发送消息数
const sendBuffer = 256

// Handler 连接事件处理
type Handler interface {
	HandleConnect(connID, identity string)
	HandleMessage(ctx context.Context, connID string, raw []byte)
	HandleDisconnect(connID string)
}

// Hub 所有连接共享一个房间
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	handler Handler
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// SetHandler 设置事件处理器，必须在接受连接之前调用
func (h *Hub) SetHandler(handler Handler) {
	h.handler = handler
}

// NewClient 为新连接分配 ID
func (h *Hub) NewClient(conn *websocket.Conn, identity string) *Client {
	return &Client{
		Hub:      h,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		ID:       uuid.NewString(),
		Identity: identity,
	}
}

// Register 登记连接后再通知处理器，保证欢迎消息能送达
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	if h.handler != nil {
		h.handler.HandleConnect(client.ID, client.Identity)
	}
}

// Unregister 注销连接，重复调用无副作用
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client.ID]
	if ok {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	h.mu.Unlock()

	if ok && h.handler != nil {
		h.handler.HandleDisconnect(client.ID)
	}
}

// Count 当前连接数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Push 发给单个连接
func (h *Hub) Push(connID string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("消息序列化失败", logger.ErrorField(err))
		return
	}

	h.mu.RLock()
	client, ok := h.clients[connID]
	full := ok && !client.trySend(data)
	h.mu.RUnlock()

	if full {
		h.drop(client)
	}
}

// Broadcast 同一份消息发给所有连接
func (h *Hub) Broadcast(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("消息序列化失败", logger.ErrorField(err))
		return
	}
	h.BroadcastEach(func(string) interface{} { return json.RawMessage(data) })
}

// BroadcastEach 按连接构造消息
func (h *Hub) BroadcastEach(build func(connID string) interface{}) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	// build 可能访问其他锁，不在持锁时调用
	payloads := make(map[string][]byte, len(clients))
	for _, c := range clients {
		msg := build(c.ID)
		if msg == nil {
			continue
		}
		data, err := json.Marshal(msg)
		if err != nil {
			logger.Error("消息序列化失败", logger.ErrorField(err))
			continue
		}
		payloads[c.ID] = data
	}

	var slow []*Client
	h.mu.RLock()
	for id, data := range payloads {
		if c, ok := h.clients[id]; ok && !c.trySend(data) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.drop(c)
	}
}

// drop 发送缓冲区满的连接直接断开
func (h *Hub) drop(c *Client) {
	logger.Warn("发送缓冲区已满，断开连接", logger.String("conn", c.ID), logger.String("ip", c.Identity))
	h.Unregister(c)
	c.Conn.Close()
}

// Close 关闭所有连接
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		close(c.Send)
		if h.handler != nil {
			h.handler.HandleDisconnect(c.ID)
		}
	}
}
