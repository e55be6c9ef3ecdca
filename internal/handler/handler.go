package handler

import (
	"errors"
	"net/http"

	"linkup/backend/internal/ledger"
	"linkup/backend/internal/relay"
	"linkup/backend/internal/store"

	"github.com/gin-gonic/gin"
)

// Handler bundles the HTTP surface's dependencies. The same handlers run
// against the database-backed store in production and the in-memory store
// in tests.
type Handler struct {
	store  store.Store
	ledger *ledger.Ledger
	hub    *relay.Hub
}

// New creates the handler set.
func New(st store.Store, ld *ledger.Ledger, hub *relay.Hub) *Handler {
	return &Handler{store: st, ledger: ld, hub: hub}
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// respondLedgerError maps ledger errors onto HTTP statuses. A full lobby and
// a vanished lobby are deliberately distinct conditions for the client.
func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Lobby not found"})
	case errors.Is(err, ledger.ErrFull):
		c.JSON(http.StatusConflict, gin.H{"error": "Lobby is full"})
	case errors.Is(err, ledger.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Capacity conflict"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

func currentUserName(c *gin.Context) string {
	name, _ := c.Get("userName")
	s, _ := name.(string)
	return s
}

func currentUserID(c *gin.Context) uint {
	id, _ := c.Get("userID")
	u, _ := id.(uint)
	return u
}
