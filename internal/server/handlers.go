// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in chat page.
package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Tyrowin/chatrelay/internal/chat"
)

// Handler bundles the hub, configuration, and upgrader behind the HTTP
// endpoints.
type Handler struct {
	hub      *Hub
	cfg      *Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler wires the HTTP endpoints to the hub. The upgrader enforces the
// configured origin allow-list.
func NewHandler(hub *Hub, cfg *Config, logger *slog.Logger) *Handler {
	origins := newOriginChecker(cfg.Origins(), logger)
	return &Handler{
		hub:    hub,
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
	}
}

// WebSocket upgrades the HTTP connection, mints a connection identity, and
// registers the new client with the hub, which launches the pump goroutines.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	id := chat.ConnID(uuid.NewString())
	client := NewClient(id, conn, h.hub, r.RemoteAddr, h.cfg, h.logger)
	select {
	case h.hub.register <- client:
	case <-h.hub.ctx.Done():
		_ = conn.Close()
	}
}

// Health responds with a plain text message indicating the relay is running.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "Chat relay is running!")
}

// ChatPage serves a small HTML client for exercising the relay by hand:
// join, broadcast, private messages, typing indicators, and history.
func (h *Handler) ChatPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, chatPageHTML); err != nil {
		h.logger.Error("writing chat page", "error", err)
	}
}

const chatPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Chat Relay</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; display: flex; gap: 20px; }
        #main { flex: 1; }
        #messages {
            border: 1px solid #ccc;
            height: 320px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        #users { border: 1px solid #ccc; padding: 10px; min-width: 160px; }
        #users li { cursor: pointer; margin: 3px 0; }
        input[type="text"] { width: 280px; padding: 5px; margin-right: 8px; }
        button { padding: 5px 15px; background-color: #007cba; color: white; border: none; cursor: pointer; }
        button:hover { background-color: #005a87; }
        .notice { color: gray; font-style: italic; }
        .private { color: purple; }
        #typing { color: gray; font-size: 0.9em; min-height: 1.2em; }
    </style>
</head>
<body>
    <div id="main">
        <h1>Chat Relay</h1>
        <div>
            <input type="text" id="username" placeholder="Username...">
            <button onclick="join()">Join</button>
        </div>
        <div id="messages"></div>
        <div id="typing"></div>
        <div>
            <input type="text" id="messageInput" placeholder="Message... (click a user for private chat)">
            <button onclick="sendMessage()">Send</button>
        </div>
    </div>
    <div>
        <h3>Online</h3>
        <ul id="users"></ul>
    </div>

    <script>
        const ws = new WebSocket('ws://' + location.host + '/ws');
        const messagesDiv = document.getElementById('messages');
        const usersList = document.getElementById('users');
        const input = document.getElementById('messageInput');
        let privateTarget = null;
        let typingTimer = null;

        function emit(event, payload) {
            ws.send(JSON.stringify({ event: event, payload: payload }));
        }

        function addLine(text, cls) {
            const el = document.createElement('div');
            if (cls) el.className = cls;
            el.textContent = text;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        ws.onmessage = function (raw) {
            const frame = JSON.parse(raw.data);
            switch (frame.event) {
                case 'chat message':
                    addLine(frame.data);
                    break;
                case 'private message':
                    const tag = frame.data.to ? ' (to ' + frame.data.to + ')' : '';
                    addLine(frame.data.from + tag + ': ' + frame.data.message, 'private');
                    break;
                case 'online users':
                    usersList.innerHTML = '';
                    frame.data.forEach(function (name) {
                        const li = document.createElement('li');
                        li.textContent = name;
                        li.onclick = function () {
                            privateTarget = name;
                            emit('get chat history', { with: name });
                            addLine('Private chat with ' + name + ' (history below)', 'notice');
                        };
                        usersList.appendChild(li);
                    });
                    break;
                case 'chat history':
                    frame.data.messages.forEach(function (m) {
                        addLine(m.from + ': ' + m.message, 'private');
                    });
                    break;
                case 'typing':
                    document.getElementById('typing').textContent = frame.data + ' is typing...';
                    break;
                case 'stop typing':
                    document.getElementById('typing').textContent = '';
                    break;
                default:
                    addLine(frame.data, 'notice');
            }
        };

        function join() {
            emit('join', document.getElementById('username').value.trim());
        }

        function sendMessage() {
            const text = input.value.trim();
            if (!text) return;
            if (privateTarget) {
                emit('private message', { to: privateTarget, message: text });
            } else {
                emit('chat message', text);
            }
            input.value = '';
        }

        input.addEventListener('input', function () {
            if (!privateTarget) return;
            emit('typing', { to: privateTarget });
            clearTimeout(typingTimer);
            typingTimer = setTimeout(function () {
                emit('stop typing', { to: privateTarget });
            }, 1000);
        });

        input.addEventListener('keypress', function (e) {
            if (e.key === 'Enter') sendMessage();
        });
    </script>
</body>
</html>`
