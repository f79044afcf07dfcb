package main

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"ml_signal_backtester/logx"

	"github.com/gorilla/websocket"
)

// WSHub manages WebSocket connections and broadcasts backtest telemetry to
// any attached dashboard. Glue only; the simulator reaches it through a
// BarHook and never blocks on it.
type WSHub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan WSMessage
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type string      `json:"type"` // "equity", "trade", "report", "progress", "status", "error"
	Data interface{} `json:"data"` // Payload data
	Time int64       `json:"time"` // Unix timestamp
}

var wsHub *WSHub
var webDashboardEnabled = false

// WSMessageType constants
const (
	MsgTypeEquity   = "equity"
	MsgTypeTrade    = "trade"
	MsgTypeReport   = "report"
	MsgTypeProgress = "progress"
	MsgTypeStatus   = "status"
	MsgTypeError    = "error"
)

// InitWebServer initializes the WebSocket hub
func InitWebServer() {
	wsHub = &WSHub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
	webDashboardEnabled = true
	go wsHub.run()
}

// StartWebServer starts the HTTP/WebSocket server
func StartWebServer(port int) error {
	InitWebServer()

	// Serve static files (dashboard.html)
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "dashboard.html")
	})

	// WebSocket endpoint
	http.HandleFunc("/ws", wsHub.handleWebSocket)

	handler := corsMiddleware(http.DefaultServeMux)

	addr := fmt.Sprintf(":%d", port)
	fmt.Printf("\n%s Dashboard running at http://localhost%s\n", logx.Info("i"), addr)

	return http.ListenAndServe(addr, handler)
}

// handleWebSocket handles WebSocket connections
func (hub *WSHub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Upgrade(w, r, nil, 0, 0)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	hub.register <- ws
	defer func() {
		hub.unregister <- ws
		ws.Close()
	}()

	hub.sendHello(ws)

	// Read messages from client (ping/heartbeat only)
	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			break
		}
	}
}

// run processes messages in the hub
func (hub *WSHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.mutex.Lock()
			hub.clients[client] = true
			hub.mutex.Unlock()

		case client := <-hub.unregister:
			hub.mutex.Lock()
			delete(hub.clients, client)
			hub.mutex.Unlock()

		case message := <-hub.broadcast:
			hub.mutex.RLock()
			for client := range hub.clients {
				if err := client.WriteJSON(message); err != nil {
					// Client disconnected, cleaned up by unregister
					continue
				}
			}
			hub.mutex.RUnlock()
		}
	}
}

// Broadcast sends a message to all connected clients
func Broadcast(msgType string, data interface{}) {
	if !webDashboardEnabled || wsHub == nil {
		return
	}

	msg := WSMessage{
		Type: msgType,
		Data: data,
		Time: time.Now().Unix(),
	}

	select {
	case wsHub.broadcast <- msg:
	default:
		// Channel full, skip this message (backpressure protection)
	}
}

func (hub *WSHub) sendHello(ws *websocket.Conn) {
	ws.WriteJSON(WSMessage{
		Type: MsgTypeStatus,
		Data: map[string]interface{}{"status": "running", "msg": "Dashboard connected"},
		Time: time.Now().Unix(),
	})
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// FindAvailablePort finds an available port starting from startPort
func FindAvailablePort(startPort int) int {
	for port := startPort; port < 9000; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err == nil {
			ln.Close()
			return port
		}
	}
	return startPort // fallback
}

// ProgressData reports how far a backtest has advanced.
type ProgressData struct {
	Bar     int     `json:"bar"`
	Total   int     `json:"total"`
	Equity  float64 `json:"equity"`
	Trades  int     `json:"trades"`
	Elapsed string  `json:"elapsed"`
}

// Helper functions for sending specific message types

func SendEquityPoint(pt EquityPoint) {
	Broadcast(MsgTypeEquity, pt)
}

func SendTrade(tr Trade) {
	Broadcast(MsgTypeTrade, tr)
}

func SendReport(r PerformanceReport) {
	Broadcast(MsgTypeReport, r)
}

func SendProgress(bar, total int, equity float64, trades int, elapsed time.Duration) {
	Broadcast(MsgTypeProgress, ProgressData{
		Bar:     bar,
		Total:   total,
		Equity:  equity,
		Trades:  trades,
		Elapsed: logx.FormatDuration(elapsed),
	})
}

func SendStatus(status, msg string) {
	Broadcast(MsgTypeStatus, map[string]interface{}{"status": status, "msg": msg})
}

func SendError(msg string) {
	Broadcast(MsgTypeError, msg)
}
