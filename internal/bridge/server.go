package bridge

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// pixelGIF is a 1x1 transparent GIF returned for every chunk beacon so
// the sender's image request completes cleanly.
var pixelGIF = []byte{
	'G', 'I', 'F', '8', '9', 'a', 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00,
	0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00, 0x00,
	0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00,
	0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// Server exposes the data bridge HTTP surface: chunk ingestion, state
// polling, health, and a websocket push of newly assembled states.
type Server struct {
	store *Store
	log   *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan json.RawMessage
}

func NewServer(store *Store, log *zap.Logger) *Server {
	s := &Server{
		store:   store,
		log:     log,
		clients: make(map[*websocket.Conn]chan json.RawMessage),
	}
	store.OnState(s.broadcast)
	return s
}

// App builds the fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	app.Get("/api/chunk", s.handleChunk)
	app.Get("/api/state", s.handleState)
	app.Get("/api/health", s.handleHealth)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/state", websocket.New(s.handleWS))
	return app
}

func (s *Server) handleChunk(c *fiber.Ctx) error {
	id := c.Query("id")
	hash := c.Query("h")
	index := c.QueryInt("i", -1)
	total := c.QueryInt("n", 0)
	data := c.Query("d")
	if id != "" && index >= 0 && total >= 1 {
		s.store.AddChunk(id, hash, index, total, data)
	}
	c.Set(fiber.HeaderContentType, "image/gif")
	return c.Send(pixelGIF)
}

func (s *Server) handleState(c *fiber.Ctx) error {
	state, ts := s.store.State()
	if state == nil {
		return c.JSON(fiber.Map{
			"state":     nil,
			"timestamp": nil,
			"age_ms":    nil,
			"message":   "No game data received yet",
		})
	}
	return c.JSON(fiber.Map{
		"state":     state,
		"timestamp": ts.Unix(),
		"age_ms":    s.store.now().Sub(ts).Milliseconds(),
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	state, _ := s.store.State()
	return c.JSON(fiber.Map{"status": "ok", "has_state": state != nil})
}

// handleWS pushes each newly assembled state to the client. The per
// client channel holds a single pending state: latest wins, slow
// clients just skip intermediates.
func (s *Server) handleWS(conn *websocket.Conn) {
	updates := make(chan json.RawMessage, 1)
	s.mu.Lock()
	s.clients[conn] = updates
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	if state, _ := s.store.State(); state != nil {
		if err := conn.WriteMessage(websocket.TextMessage, state); err != nil {
			return
		}
	}
	for state := range updates {
		if err := conn.WriteMessage(websocket.TextMessage, state); err != nil {
			return
		}
	}
}

func (s *Server) broadcast(state json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, updates := range s.clients {
		select {
		case updates <- state:
		default:
			// Drop the stale pending state and queue the newest.
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- state:
			default:
			}
		}
	}
	if s.log != nil {
		s.log.Debug("state broadcast", zap.Int("clients", len(s.clients)))
	}
}
