package http

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"mafia/internal/app"
	"mafia/internal/domain"
	"mafia/internal/storage"
)

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CheckNicknameRequest is the body for nickname availability checks
type CheckNicknameRequest struct {
	Nickname string `json:"nickname"`
}

// CheckNicknameResponse reports nickname availability
type CheckNicknameResponse struct {
	IsUnique bool `json:"isUnique"`
}

// CreateUserRequest is the body for user registration
type CreateUserRequest struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// StatsResponse combines live hub counters with persisted totals
type StatsResponse struct {
	app.Stats
	TotalUsers int    `json:"totalUsers"`
	TotalGames int    `json:"totalGames"`
	Uptime     string `json:"uptime"`
}

// handleCheckNickname handles POST /api/check-nickname
func (s *Server) handleCheckNickname(w http.ResponseWriter, r *http.Request) {
	var req CheckNicknameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Nickname == "" {
		s.sendError(w, http.StatusBadRequest, "INVALID_REQUEST", "Nickname is required")
		return
	}

	exists, err := s.store.UserExists(r.Context(), req.Nickname)
	if err != nil {
		s.logger.Error("nickname check failed", "error", err)
		s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	s.sendSuccess(w, &CheckNicknameResponse{IsUnique: !exists})
}

// handleCreateUser handles POST /api/users
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	nickname := strings.TrimSpace(req.Nickname)
	if len(nickname) < 3 {
		s.sendError(w, http.StatusBadRequest, "INVALID_NICKNAME", "Nickname must be at least 3 characters")
		return
	}

	exists, err := s.store.UserExists(r.Context(), nickname)
	if err != nil {
		s.logger.Error("user creation failed", "error", err)
		s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}
	if exists {
		s.sendError(w, http.StatusConflict, "NICKNAME_TAKEN", "Nickname is already taken")
		return
	}

	user, err := s.store.CreateUser(r.Context(), nickname, req.Avatar)
	if err != nil {
		s.logger.Error("user creation failed", "error", err)
		s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(&Response{Success: true, Data: user})
}

// handleGetUser handles GET /api/users/{nickname}
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	nickname := r.PathValue("nickname")
	if nickname == "" {
		s.sendError(w, http.StatusBadRequest, "MISSING_NICKNAME", "Nickname is required")
		return
	}

	user, err := s.store.GetUser(r.Context(), nickname)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		} else {
			s.logger.Error("user lookup failed", "error", err)
			s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		}
		return
	}

	s.sendSuccess(w, user)
}

// handleGetRooms handles GET /api/rooms. Live rooms come from the registry,
// not the database mirror.
func (s *Server) handleGetRooms(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, s.registry.RoomInfos())
}

// handleGetRoomMessages handles GET /api/rooms/{roomID}/messages
func (s *Server) handleGetRoomMessages(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomID")
	if roomID == "" {
		s.sendError(w, http.StatusBadRequest, "MISSING_ROOM_ID", "Room ID is required")
		return
	}

	messages, err := s.store.RoomMessages(r.Context(), roomID, 50)
	if err != nil {
		s.logger.Error("message lookup failed", "error", err)
		s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	s.sendSuccess(w, messages)
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{
		Status: "ok",
		Uptime: s.Uptime().Round(time.Second).String(),
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.Counts(r.Context())
	if err != nil {
		s.logger.Warn("stats counts unavailable", "error", err)
	}

	s.sendSuccess(w, &StatsResponse{
		Stats:      s.registry.Stats(),
		TotalUsers: counts.TotalUsers,
		TotalGames: counts.TotalGames,
		Uptime:     s.Uptime().Round(time.Second).String(),
	})
}

var adminTemplate = template.Must(template.New("admin").Parse(`<!DOCTYPE html>
<html>
<head><title>Mafia Server Status</title></head>
<body>
<h1>Mafia Server Status</h1>
<p>Uptime: {{.Uptime}}</p>
<ul>
<li>Connected users: {{.Stats.ConnectedUsers}}</li>
<li>Active rooms: {{.Stats.ActiveRooms}}</li>
<li>Active games: {{.Stats.ActiveGames}}</li>
<li>Players in rooms: {{.Stats.TotalPlayers}}</li>
<li>Registered users: {{.TotalUsers}}</li>
<li>Games recorded: {{.TotalGames}}</li>
</ul>
<h2>Rooms</h2>
<table border="1" cellpadding="4">
<tr><th>ID</th><th>Name</th><th>Players</th><th>Status</th></tr>
{{range .Rooms}}<tr><td>{{.ID}}</td><td>{{.Name}}</td><td>{{len .Players}}/{{.MaxPlayers}}</td><td>{{.Status}}</td></tr>
{{end}}
</table>
</body>
</html>`))

// handleAdmin handles GET /admin with a plain HTML status page
func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.Counts(r.Context())
	if err != nil {
		s.logger.Warn("admin counts unavailable", "error", err)
	}

	data := struct {
		Uptime     string
		Stats      app.Stats
		TotalUsers int
		TotalGames int
		Rooms      []domain.RoomInfo
	}{
		Uptime:     s.Uptime().Round(time.Second).String(),
		Stats:      s.registry.Stats(),
		TotalUsers: counts.TotalUsers,
		TotalGames: counts.TotalGames,
		Rooms:      s.registry.RoomInfos(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := adminTemplate.Execute(w, data); err != nil {
		s.logger.Error("admin page render failed", "error", err)
	}
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}
