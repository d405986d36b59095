package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"canbridge/pkg/log"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// envelope is the transport framing around one channel call: a caller-chosen
// id echoed back on the reply, the channel name and the codec payload.
type envelope struct {
	ID      string          `json:"id,omitempty"`
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

type reply struct {
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Server carries channel method calls over WebSocket connections. Each
// connection is handled by its own goroutine; calls on one connection are
// processed in order.
type Server struct {
	addr     string
	registry *Registry
	upgrader websocket.Upgrader
}

// NewServer creates a server dispatching into the given registry.
func NewServer(addr string, registry *Registry) *Server {
	return &Server{
		addr:     addr,
		registry: registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/channel", s.handleWS)

	srv := &http.Server{Addr: s.addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	log.Info("channel server listening", zap.String("addr", s.addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	client := uuid.New().String()
	log.Info("channel client connected", zap.String("client", client))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Debug("channel client gone", zap.String("client", client), zap.Error(err))
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Channel == "" {
			out := s.registry.errorResponse(CodeMalformedMessage, "the channel envelope was malformed")
			if writeErr := s.write(conn, reply{Payload: out}); writeErr != nil {
				return
			}
			continue
		}
		if env.ID == "" {
			env.ID = uuid.New().String()
		}

		out := s.registry.Dispatch(env.Channel, env.Payload)
		if err := s.write(conn, reply{ID: env.ID, Payload: out}); err != nil {
			log.Debug("channel write failed", zap.String("client", client), zap.Error(err))
			return
		}
	}
}

func (s *Server) write(conn *websocket.Conn, rep reply) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
