package handler

import (
	"errors"
	"net/http"
	"time"

	"linkup/backend/internal/models"
	"linkup/backend/internal/store"

	"github.com/gin-gonic/gin"
)

// ProfileInput defines the editable profile fields.
type ProfileInput struct {
	Bio           string   `json:"bio"`
	Interests     []string `json:"interests"`
	TopActivities []string `json:"topActivities"`
	AvatarURL     string   `json:"avatarUrl"`
}

// ProfileResponse is a profile as returned to clients.
type ProfileResponse struct {
	UserName      string   `json:"userName"`
	Bio           string   `json:"bio"`
	Interests     []string `json:"interests"`
	MemberSince   string   `json:"memberSince"`
	TopActivities []string `json:"topActivities"`
	AvatarURL     string   `json:"avatarUrl"`
}

func newProfileResponse(p models.Profile) ProfileResponse {
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}
	activities := p.TopActivities
	if activities == nil {
		activities = []string{}
	}
	return ProfileResponse{
		UserName:      p.UserName,
		Bio:           p.Bio,
		Interests:     interests,
		MemberSince:   p.MemberSince,
		TopActivities: activities,
		AvatarURL:     p.AvatarURL,
	}
}

func defaultProfile(userName string) models.Profile {
	return models.Profile{
		UserName:    userName,
		MemberSince: time.Now().Format("2006-01-02"),
		AvatarURL:   "DefaultProfileImg.png",
	}
}

// GetProfile godoc
// @Summary      Get the authenticated user's profile
// @Description  Creates a default profile on first read.
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} ProfileResponse
// @Router       /profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	userName := currentUserName(c)

	profile, err := h.store.FindProfile(c.Request.Context(), userName)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
			return
		}
		fresh := defaultProfile(userName)
		if err := h.store.SaveProfile(c.Request.Context(), &fresh); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create profile"})
			return
		}
		profile = &fresh
	}

	c.JSON(http.StatusOK, newProfileResponse(*profile))
}

// UpdateProfile godoc
// @Summary      Update the authenticated user's profile
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body ProfileInput true "Profile fields"
// @Success      200 {object} ProfileResponse
// @Router       /profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	userName := currentUserName(c)

	var input ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.store.FindProfile(c.Request.Context(), userName)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
			return
		}
		fresh := defaultProfile(userName)
		profile = &fresh
	}

	profile.Bio = input.Bio
	profile.Interests = input.Interests
	profile.TopActivities = input.TopActivities
	if input.AvatarURL != "" {
		profile.AvatarURL = input.AvatarURL
	}

	if err := h.store.SaveProfile(c.Request.Context(), profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save profile"})
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(*profile))
}

// GetPublicProfile godoc
// @Summary      Get a user's public profile
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        userName path string true "User name"
// @Success      200 {object} ProfileResponse
// @Failure      404 {object} ErrorResponse "User not found"
// @Router       /profiles/{userName} [get]
func (h *Handler) GetPublicProfile(c *gin.Context) {
	profile, err := h.store.FindProfile(c.Request.Context(), c.Param("userName"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(*profile))
}
