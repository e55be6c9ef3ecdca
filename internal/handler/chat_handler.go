package handler

import (
	"net/http"
	"strings"
	"time"

	"linkup/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// ChatInput defines the structure for posting a chat message.
type ChatInput struct {
	Text string `json:"text" binding:"required"`
}

// ChatMessageResponse matches the wire payload relayed to room peers.
type ChatMessageResponse struct {
	User string `json:"user"`
	Text string `json:"text"`
	Ts   int64  `json:"ts"`
}

// endregion

// PostChat godoc
// @Summary      Post a chat message
// @Description  Appends the message to the lobby's durable history, then relays it to the lobby's room. Relay delivery is best-effort; history is the durable fallback.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int       true "Lobby ID"
// @Param        input body ChatInput true "Message"
// @Success      201 {object} ChatMessageResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse "Lobby not found"
// @Router       /lobbies/{id}/chat [post]
func (h *Handler) PostChat(c *gin.Context) {
	id, ok := lobbyParam(c)
	if !ok {
		return
	}

	var input ChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	text := strings.TrimSpace(input.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty message"})
		return
	}

	if _, err := h.ledger.GetLobby(c.Request.Context(), id); err != nil {
		respondLedgerError(c, err)
		return
	}

	msg := models.ChatMessage{
		LobbyID:  id,
		UserName: currentUserName(c),
		Text:     text,
		Ts:       time.Now().UnixMilli(),
	}
	if err := h.store.InsertMessage(c.Request.Context(), &msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save message"})
		return
	}

	payload := ChatMessageResponse{User: msg.UserName, Text: msg.Text, Ts: msg.Ts}
	h.hub.BroadcastToLobby(id, payload)

	c.JSON(http.StatusCreated, payload)
}

// GetChat godoc
// @Summary      Get a lobby's chat history
// @Description  Returns messages ordered by timestamp ascending.
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Lobby ID"
// @Success      200 {array} ChatMessageResponse
// @Failure      404 {object} ErrorResponse "Lobby not found"
// @Router       /lobbies/{id}/chat [get]
func (h *Handler) GetChat(c *gin.Context) {
	id, ok := lobbyParam(c)
	if !ok {
		return
	}

	if _, err := h.ledger.GetLobby(c.Request.Context(), id); err != nil {
		respondLedgerError(c, err)
		return
	}

	messages, err := h.store.ListMessages(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	response := make([]ChatMessageResponse, 0, len(messages))
	for _, msg := range messages {
		response = append(response, ChatMessageResponse{User: msg.UserName, Text: msg.Text, Ts: msg.Ts})
	}
	c.JSON(http.StatusOK, response)
}
