package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/meister-server/internal/auth"
	"github.com/vovakirdan/meister-server/internal/core"
	"github.com/vovakirdan/meister-server/internal/proto"
	"github.com/vovakirdan/meister-server/internal/service/stats"
	"github.com/vovakirdan/meister-server/internal/store"
)

// APIHandlers provides HTTP handlers for the lobby and admin endpoints.
type APIHandlers struct {
	authService  *auth.Service
	statsService *stats.Service
	manager      *core.Manager
	log          *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, statsService *stats.Service, manager *core.Manager, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService:  authService,
		statsService: statsService,
		manager:      manager,
		log:          logger,
	}
}

// LoginRequest is the admin login body.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries an admin session token.
type AuthResponse struct {
	Token string `json:"token"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UserRequest adds a name to the roster.
type UserRequest struct {
	Name string `json:"name" binding:"required"`
}

// UsersResponse returns the roster after a change.
type UsersResponse struct {
	Success bool     `json:"success"`
	Users   []string `json:"users"`
}

// OverrideRequest replaces a player's totals.
type OverrideRequest struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// OverrideResponse is one override ledger entry.
type OverrideResponse struct {
	Name      string    `json:"name"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Draws     int       `json:"draws"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MatchResponse is one finished game.
type MatchResponse struct {
	ID          string    `json:"id"`
	RoomID      int       `json:"roomId"`
	BlackPlayer string    `json:"blackPlayer"`
	WhitePlayer string    `json:"whitePlayer"`
	WinnerName  string    `json:"winnerName,omitempty"`
	LoserName   string    `json:"loserName,omitempty"`
	Draw        bool      `json:"draw"`
	Reason      string    `json:"reason"`
	BlackCount  int       `json:"blackCount"`
	WhiteCount  int       `json:"whiteCount"`
	Moves       int       `json:"moves"`
	Timestamp   time.Time `json:"timestamp"`
}

// Health reports liveness.
// GET /health
func (h *APIHandlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Rooms returns the lobby.
// GET /api/rooms
func (h *APIHandlers) Rooms(c *gin.Context) {
	c.JSON(http.StatusOK, proto.LobbyData{Rooms: roomSummaries(h.manager.Rooms())})
}

// Login exchanges the admin password for a session token.
// POST /api/admin/login
func (h *APIHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.Login(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
			return
		}
		h.log.Error().Err(err).Msg("failed to issue admin token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("remote", c.ClientIP()).Msg("admin logged in")
	c.JSON(http.StatusOK, AuthResponse{Token: token})
}

// ListUsers returns the roster.
// GET /api/admin/users
func (h *APIHandlers) ListUsers(c *gin.Context) {
	users, err := h.statsService.Users(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "failed to list users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// AddUser appends a name to the roster.
// POST /api/admin/users
func (h *APIHandlers) AddUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid name"})
		return
	}

	users, err := h.statsService.AddUser(c.Request.Context(), req.Name)
	switch {
	case errors.Is(err, stats.ErrInvalidName):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid name"})
		return
	case errors.Is(err, store.ErrExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "User already exists"})
		return
	case err != nil:
		h.internalError(c, err, "failed to add user")
		return
	}

	h.log.Info().Str("name", req.Name).Msg("roster user added")
	c.JSON(http.StatusOK, UsersResponse{Success: true, Users: users})
}

// RemoveUser deletes a name from the roster.
// DELETE /api/admin/users/:name
func (h *APIHandlers) RemoveUser(c *gin.Context) {
	name := c.Param("name")
	users, err := h.statsService.RemoveUser(c.Request.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to remove user")
		return
	}

	h.log.Info().Str("name", name).Msg("roster user removed")
	c.JSON(http.StatusOK, UsersResponse{Success: true, Users: users})
}

// History returns every finished game, oldest first.
// GET /api/admin/history
func (h *APIHandlers) History(c *gin.Context) {
	matches, err := h.statsService.History(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "failed to list history")
		return
	}

	out := make([]MatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, MatchResponse{
			ID:          m.ID,
			RoomID:      m.RoomID,
			BlackPlayer: m.BlackPlayer,
			WhitePlayer: m.WhitePlayer,
			WinnerName:  m.WinnerName,
			LoserName:   m.LoserName,
			Draw:        m.Draw(),
			Reason:      m.Reason,
			BlackCount:  m.BlackCount,
			WhiteCount:  m.WhiteCount,
			Moves:       m.Moves,
			Timestamp:   m.FinishedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

// Stats returns per-player records with overrides applied.
// GET /api/admin/stats
func (h *APIHandlers) Stats(c *gin.Context) {
	result, err := h.statsService.Stats(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "failed to aggregate stats")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListOverrides returns the override ledger.
// GET /api/admin/overrides
func (h *APIHandlers) ListOverrides(c *gin.Context) {
	overrides, err := h.statsService.Overrides(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "failed to list overrides")
		return
	}

	out := make([]OverrideResponse, 0, len(overrides))
	for _, o := range overrides {
		out = append(out, overrideResponse(o))
	}
	c.JSON(http.StatusOK, out)
}

// PutOverride replaces the totals of one player.
// PUT /api/admin/overrides/:name
func (h *APIHandlers) PutOverride(c *gin.Context) {
	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	o, err := h.statsService.SetOverride(c.Request.Context(), c.Param("name"), req.Wins, req.Losses, req.Draws)
	switch {
	case errors.Is(err, stats.ErrInvalidName), errors.Is(err, stats.ErrInvalidOverride):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		h.internalError(c, err, "failed to store override")
		return
	}

	h.log.Info().Str("name", o.Name).Int("wins", o.Wins).Int("losses", o.Losses).Int("draws", o.Draws).Msg("stat override set")
	c.JSON(http.StatusOK, overrideResponse(o))
}

// DeleteOverride drops the override of one player.
// DELETE /api/admin/overrides/:name
func (h *APIHandlers) DeleteOverride(c *gin.Context) {
	name := c.Param("name")
	err := h.statsService.ClearOverride(c.Request.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Override not found"})
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to delete override")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *APIHandlers) internalError(c *gin.Context, err error, msg string) {
	h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(msg)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

func overrideResponse(o *store.StatOverride) OverrideResponse {
	return OverrideResponse{
		Name:      o.Name,
		Wins:      o.Wins,
		Losses:    o.Losses,
		Draws:     o.Draws,
		UpdatedAt: o.UpdatedAt,
	}
}
