package transport

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"openboard/internal/client"
	"openboard/internal/handlers"
	"openboard/internal/middleware"
	"openboard/internal/room"
)

// Handler owns the /ws endpoint: IP limiting, upgrade, the auth handshake,
// room join, state replay and the per-connection read loop.
type Handler struct {
	limits    *middleware.Limits
	ipLimiter *middleware.IPRateLimit
	sessions  *client.SessionManager
	rooms     *room.Manager
	router    *handlers.Router
	processor *handlers.Processor
	domains   []string
	log       zerolog.Logger

	upgrader websocket.Upgrader
}

func NewHandler(
	limits *middleware.Limits,
	ipLimiter *middleware.IPRateLimit,
	sessions *client.SessionManager,
	rooms *room.Manager,
	router *handlers.Router,
	processor *handlers.Processor,
	domains []string,
	log zerolog.Logger,
) *Handler {
	h := &Handler{
		limits:    limits,
		ipLimiter: ipLimiter,
		sessions:  sessions,
		rooms:     rooms,
		router:    router,
		processor: processor,
		domains:   domains,
		log:       log.With().Str("component", "transport").Logger(),
	}
	h.upgrader = websocket.Upgrader{
		// CORS
		CheckOrigin: func(r *http.Request) bool {
			if len(h.domains) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range h.domains {
				if origin == strings.TrimSpace(allowed) {
					return true
				}
			}
			return false
		},
	}
	return h
}

// clientIP: extracts the client IP from the request.
// Uses RemoteAddr only - cannot be spoofed by the client.
func clientIP(r *http.Request) string {
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if !h.ipLimiter.Allow(ip) {
		h.log.Warn().Str("ip", ip).Msg("connection rate limit exceeded")
		http.Error(w, "Too many connections", http.StatusTooManyRequests)
		return
	}

	roomID, err := strconv.ParseInt(r.URL.Query().Get("room"), 10, 64)
	if err != nil || roomID <= 0 {
		http.Error(w, "missing or invalid room", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	auth, err := h.authenticate(conn, 5*time.Second)
	if err != nil {
		h.log.Warn().Err(err).Msg("authentication failed")
		return
	}

	session := h.sessions.GetOrCreate(auth.userID)
	session.LastRoom = roomID

	c := client.New(auth.userID, roomID, session, conn)
	if auth.languageID > 0 {
		c.LanguageID = auth.languageID
	}

	if err := c.SendJSON(map[string]any{
		"type":   "authenticated",
		"userId": auth.userID,
		"token":  session.Token,
		"color":  session.Color,
	}); err != nil {
		h.log.Warn().Err(err).Msg("auth response failed")
		return
	}

	rm, err := h.rooms.GetOrCreate(roomID)
	if err != nil {
		h.log.Warn().Int64("room", roomID).Err(err).Msg("room unavailable")
		return
	}
	h.grantRights(rm, c)
	if err := rm.Join(c, h.limits.MaxRoomSize); err != nil {
		h.log.Warn().Int64("room", roomID).Err(err).Msg("join refused")
		return
	}
	defer rm.Leave(c)

	if err := c.SendJSON(map[string]any{
		"type": "roomJoined",
		"room": roomID,
		"ruid": rm.Wbs.UID(),
	}); err != nil {
		return
	}

	// Replay current whiteboard state to the new participant.
	h.processor.LoadRoom(rm, c)

	h.run(conn, rm, c)
}

// grantRights: the first participant in a room moderates and presents;
// everyone else can draw.
func (h *Handler) grantRights(rm *room.Room, c *client.Client) {
	if rm.ClientCount() == 0 {
		c.Grant(client.RightModerator, client.RightPresenter, client.RightWhiteboard,
			client.RightAudio, client.RightVideo)
		return
	}
	c.Grant(client.RightWhiteboard, client.RightAudio, client.RightVideo)
}

type authResult struct {
	userID     string
	languageID int64
}

// authenticate reads the handshake message: a token resumes an existing
// session, otherwise a new user identity is minted.
func (h *Handler) authenticate(conn *websocket.Conn, timeout time.Duration) (*authResult, error) {
	conn.SetReadDeadline(time.Now().Add(timeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	conn.SetReadDeadline(time.Time{})

	var authMsg struct {
		Type       string `json:"type"`
		Token      string `json:"token"`
		LanguageID int64  `json:"languageId"`
	}
	if err := json.Unmarshal(msg, &authMsg); err != nil {
		return nil, err
	}
	if authMsg.Type != "authenticate" {
		return nil, errUnexpectedMessage(authMsg.Type)
	}

	if authMsg.Token != "" {
		if userID, valid := h.sessions.ValidateToken(authMsg.Token); valid {
			return &authResult{userID: userID, languageID: authMsg.LanguageID}, nil
		}
		h.log.Debug().Msg("invalid or expired token, treating as new user")
	}
	return &authResult{userID: client.NewUserID(), languageID: authMsg.LanguageID}, nil
}

// run: message loop for the connection.
func (h *Handler) run(conn *websocket.Conn, rm *room.Room, c *client.Client) {
	const (
		pongWait   = 60 * time.Second
		pingPeriod = (pongWait * 9) / 10
	)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := c.Ping(10 * time.Second); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			h.log.Debug().Str("uid", c.UID).Err(err).Msg("connection closed")
			return
		}

		if !h.limits.ValidateMessageSize(len(msg)) {
			h.log.Warn().Str("uid", c.UID).Int("size", len(msg)).Msg("message too large")
			continue
		}
		if !c.Session.RateLimiter.Allow() {
			h.log.Warn().Str("uid", c.UID).Msg("message rate limit exceeded")
			continue
		}

		res, err := h.router.Route(rm, c, msg)
		if err != nil {
			// Fire-and-forget failure model: malformed payloads are logged,
			// the sender gets nothing back.
			h.log.Error().Str("uid", c.UID).Err(err).Msg("action failed")
			continue
		}
		if res != handlers.Applied {
			h.log.Debug().Str("uid", c.UID).Stringer("result", res).Msg("action dropped")
		}
	}
}

type errUnexpectedMessage string

func (e errUnexpectedMessage) Error() string {
	return "expected authenticate message, got: " + string(e)
}
