package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AlanChernakoff/Photogame/internal/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// 观众端只发控制帧，限制得很小
	maxMessageSize = 512
)

// HubMessage 定义了在 Hub 内部通道传递的消息类型
type HubMessage struct {
	Type    string  // "register", "unregister", "broadcast"
	Client  *Client // 仅用于 register/unregister
	RawData []byte  // 仅用于 broadcast
}

// Hub 维护所有观看游戏的客户端，并把游戏事件广播给它们。
// 客户端集合只在 Run 所在的 goroutine 中修改。
type Hub struct {
	messageChan chan HubMessage
	done        chan struct{}
	stopOnce    sync.Once

	clients   map[*Client]bool
	clientsMu sync.RWMutex

	// 最近一次事件，新连接的客户端会先收到它
	lastEvent []byte
}

// NewHub 创建并返回一个新的 Hub 实例
func NewHub() *Hub {
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		done:        make(chan struct{}),
		clients:     make(map[*Client]bool),
	}
}

// Run 启动 Hub 的主事件处理循环，应该在单独的 goroutine 中运行，Stop 之后返回。
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	for {
		select {
		case msg := <-h.messageChan:
			switch msg.Type {
			case "register":
				h.registerClient(msg.Client)
			case "unregister":
				h.unregisterClient(msg.Client)
			case "broadcast":
				h.lastEvent = msg.RawData
				h.broadcast(msg.RawData)
			default:
				log.Warnf("Hub: Received unknown message type: %s", msg.Type)
			}
		case <-h.done:
			h.closeAll()
			log.Info("Hub is shutting down...")
			return
		}
	}
}

// Stop 让 Run 退出并关闭所有客户端的发送通道
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	h.clientsMu.Lock()
	h.clients[client] = true
	h.clientsMu.Unlock()
	logrus.WithField("user_id", client.UserID()).Info("Client registered to Hub")

	if h.lastEvent != nil {
		select {
		case client.send <- h.lastEvent:
		default:
			logrus.WithField("user_id", client.UserID()).Warn("Client send channel full when sending last event")
		}
	}
}

func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		return
	}
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	logrus.WithField("user_id", client.UserID()).Info("Client unregistered from Hub")
}

func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// broadcast 非阻塞地把消息发给所有客户端，发送队列满的客户端跳过本条消息
func (h *Hub) broadcast(message []byte) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			logrus.WithField("user_id", client.UserID()).Warn("Client send channel full during broadcast, skipping this client")
		}
	}
}

// QueueMessage 将消息放入 Hub 的处理队列 (非阻塞)。
// 返回 false 表示队列已满或 Hub 已停止。
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_type", msg.Type).Warn("Hub message channel full, dropping message")
		return false
	}
}

// Publish 实现 service.GameNotifier
func (h *Hub) Publish(event service.GameEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("Hub: Failed to marshal game event")
		return
	}
	h.QueueMessage(HubMessage{Type: "broadcast", RawData: data})
}

// ClientCount 返回当前连接的客户端数量
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}
