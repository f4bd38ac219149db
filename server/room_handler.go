package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"SyncMusic/core/room"
	"SyncMusic/core/session"
	"SyncMusic/core/state"
	"SyncMusic/logger"
	"SyncMusic/model"

	"github.com/gorilla/websocket"
)

const defaultIdentity = "127.0.0.1"

// RoomHandler 听歌室 WebSocket 与状态接口
type RoomHandler struct {
	ctx        context.Context // 点歌流程使用，生命周期与服务一致
	hub        *room.Hub
	state      *state.State
	sessions   *session.Registry
	useXRealIP bool
	upgrader   websocket.Upgrader
}

func NewRoomHandler(ctx context.Context, hub *room.Hub, st *state.State, sessions *session.Registry, useXRealIP bool) *RoomHandler {
	return &RoomHandler{
		ctx:        ctx,
		hub:        hub,
		state:      st,
		sessions:   sessions,
		useXRealIP: useXRealIP,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// clientIdentity 客户端身份即远端 IP，反向代理部署时读取 X-Real-IP
func clientIdentity(r *http.Request, useXRealIP bool) string {
	if useXRealIP {
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
		return defaultIdentity
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return defaultIdentity
	}
	return host
}

// HandleWebSocket 升级连接并进入读写循环
func (h *RoomHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := h.hub.NewClient(conn, clientIdentity(r, h.useXRealIP))
	go client.WritePump()
	h.hub.Register(client)
	client.ReadPump(h.ctx)
}

// StatusResponse 房间状态
type StatusResponse struct {
	Online  int          `json:"online"`
	Current *model.Track `json:"current,omitempty"`
	Elapsed int64        `json:"elapsed"`
	Queue   int          `json:"queue"`
}

// GetStatusHandler 在线人数与播放进度
func (h *RoomHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	resp := &StatusResponse{
		Online:  h.sessions.Count(),
		Current: snap.Current,
		Elapsed: snap.Elapsed,
		Queue:   len(snap.Queue),
	}
	if resp.Current != nil {
		// 不对外暴露本地路径与歌词
		cur := *resp.Current
		cur.Path = ""
		cur.Lyrics = ""
		resp.Current = &cur
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
