package handler

import (
	"net/http"
	"strconv"

	"linkup/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// LobbyInput defines the structure for creating or updating a lobby.
type LobbyInput struct {
	Name     string `json:"name" binding:"required"`
	Tag      string `json:"tag" binding:"required"`
	Time     string `json:"time" binding:"required"`
	Location string `json:"location" binding:"required"`
	Max      int    `json:"max" binding:"required,min=1"`
}

// LobbyResponse is a lobby as returned to clients. People is the cached
// occupancy derived from membership records.
type LobbyResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Tag      string `json:"tag"`
	Time     string `json:"time"`
	Location string `json:"location"`
	Max      int    `json:"max"`
	People   int    `json:"people"`
	OwnerID  uint   `json:"ownerId"`
}

func newLobbyResponse(lobby models.Lobby) LobbyResponse {
	return LobbyResponse{
		ID:       lobby.ID,
		Name:     lobby.Name,
		Tag:      lobby.Tag,
		Time:     lobby.Time,
		Location: lobby.Location,
		Max:      lobby.Max,
		People:   lobby.People,
		OwnerID:  lobby.OwnerID,
	}
}

// endregion

func lobbyParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lobby id"})
		return 0, false
	}
	return uint(id), true
}

// CreateLobby godoc
// @Summary      Create a new lobby
// @Description  Creates a lobby owned by the authenticated user. Occupancy starts at zero.
// @Tags         lobbies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body LobbyInput true "Lobby Info"
// @Success      201  {object}  LobbyResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /lobbies [post]
func (h *Handler) CreateLobby(c *gin.Context) {
	var input LobbyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lobby := models.Lobby{
		OwnerID:  currentUserID(c),
		Name:     input.Name,
		Tag:      input.Tag,
		Time:     input.Time,
		Location: input.Location,
		Max:      input.Max,
	}
	if err := h.ledger.CreateLobby(c.Request.Context(), &lobby); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newLobbyResponse(lobby))
}

// ListLobbies godoc
// @Summary      List lobbies
// @Tags         lobbies
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} LobbyResponse
// @Router       /lobbies [get]
func (h *Handler) ListLobbies(c *gin.Context) {
	lobbies, err := h.ledger.ListLobbies(c.Request.Context())
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	response := make([]LobbyResponse, 0, len(lobbies))
	for _, lobby := range lobbies {
		response = append(response, newLobbyResponse(lobby))
	}
	c.JSON(http.StatusOK, response)
}

// GetLobby godoc
// @Summary      Get a lobby by ID
// @Description  Returns lobby details with occupancy reconciled against membership.
// @Tags         lobbies
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Lobby ID"
// @Success      200 {object} LobbyResponse
// @Failure      404 {object} ErrorResponse "Lobby not found"
// @Router       /lobbies/{id} [get]
func (h *Handler) GetLobby(c *gin.Context) {
	id, ok := lobbyParam(c)
	if !ok {
		return
	}

	lobby, err := h.ledger.GetLobby(c.Request.Context(), id)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, newLobbyResponse(*lobby))
}

// UpdateLobby godoc
// @Summary      Update a lobby (owner only)
// @Description  Rejects capacity edits that would drop max below the current member count.
// @Tags         lobbies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int        true "Lobby ID"
// @Param        input body LobbyInput true "New Lobby Info"
// @Success      200 {object} LobbyResponse
// @Failure      403 {object} ErrorResponse "Only the owner can update the lobby"
// @Failure      404 {object} ErrorResponse "Lobby not found"
// @Failure      409 {object} ErrorResponse "Capacity conflict"
// @Router       /lobbies/{id} [put]
func (h *Handler) UpdateLobby(c *gin.Context) {
	id, ok := lobbyParam(c)
	if !ok {
		return
	}

	existing, err := h.ledger.GetLobby(c.Request.Context(), id)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	if existing.OwnerID != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can update the lobby"})
		return
	}

	var input LobbyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lobby, err := h.ledger.UpdateLobby(c.Request.Context(), id, input.Name, input.Tag, input.Time, input.Location, input.Max)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, newLobbyResponse(*lobby))
}

// DeleteLobby godoc
// @Summary      Delete a lobby (owner or admin)
// @Description  Removes the lobby and cascades to all membership and chat records.
// @Tags         lobbies
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Lobby ID"
// @Success      204 "No Content"
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse "Lobby not found"
// @Router       /lobbies/{id} [delete]
func (h *Handler) DeleteLobby(c *gin.Context) {
	id, ok := lobbyParam(c)
	if !ok {
		return
	}

	lobby, err := h.ledger.GetLobby(c.Request.Context(), id)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	role, _ := c.Get("userRole")
	if lobby.OwnerID != currentUserID(c) && role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner or an admin can delete the lobby"})
		return
	}

	if err := h.ledger.DeleteLobby(c.Request.Context(), id); err != nil {
		respondLedgerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// JoinLobby godoc
// @Summary      Join a lobby
// @Description  Adds the authenticated user to the lobby. Joining twice is a no-op.
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Lobby ID"
// @Success      201 {array} string "Current member list"
// @Failure      404 {object} ErrorResponse "Lobby not found"
// @Failure      409 {object} ErrorResponse "Lobby is full"
// @Router       /lobbies/{id}/members [post]
func (h *Handler) JoinLobby(c *gin.Context) {
	id, ok := lobbyParam(c)
	if !ok {
		return
	}

	if err := h.ledger.Join(c.Request.Context(), id, currentUserName(c)); err != nil {
		respondLedgerError(c, err)
		return
	}

	members, err := h.ledger.Members(c.Request.Context(), id)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, members)
}

// LeaveLobby godoc
// @Summary      Leave a lobby
// @Description  Removes the authenticated user from the lobby. Leaving a lobby never joined is a no-op.
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Lobby ID"
// @Success      204 "No Content"
// @Failure      404 {object} ErrorResponse "Lobby not found"
// @Router       /lobbies/{id}/members [delete]
func (h *Handler) LeaveLobby(c *gin.Context) {
	id, ok := lobbyParam(c)
	if !ok {
		return
	}

	if err := h.ledger.Leave(c.Request.Context(), id, currentUserName(c)); err != nil {
		respondLedgerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMembers godoc
// @Summary      List a lobby's members
// @Description  Returns member names in join order.
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Lobby ID"
// @Success      200 {array} string
// @Failure      404 {object} ErrorResponse "Lobby not found"
// @Router       /lobbies/{id}/members [get]
func (h *Handler) ListMembers(c *gin.Context) {
	id, ok := lobbyParam(c)
	if !ok {
		return
	}

	members, err := h.ledger.Members(c.Request.Context(), id)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// MyLobbies godoc
// @Summary      List the lobbies the authenticated user belongs to
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} LobbyResponse
// @Router       /users/me/lobbies [get]
func (h *Handler) MyLobbies(c *gin.Context) {
	lobbies, err := h.ledger.LobbiesFor(c.Request.Context(), currentUserName(c))
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	response := make([]LobbyResponse, 0, len(lobbies))
	for _, lobby := range lobbies {
		response = append(response, newLobbyResponse(lobby))
	}
	c.JSON(http.StatusOK, response)
}
