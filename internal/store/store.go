// Package store is the persistence collaborator for the ledger, chat, and
// account surfaces. It exposes plain CRUD operations; all coordination
// (capacity checks, occupancy recounts) lives in the callers.
package store

import (
	"context"
	"errors"

	"linkup/backend/internal/models"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("store: duplicate record")
)

// Store is the full persistence surface consumed by the ledger and handlers.
type Store interface {
	CreateLobby(ctx context.Context, lobby *models.Lobby) error
	FindLobby(ctx context.Context, id uint) (*models.Lobby, error)
	ListLobbies(ctx context.Context) ([]models.Lobby, error)
	SaveLobby(ctx context.Context, lobby *models.Lobby) error
	// DeleteLobby removes the lobby together with all of its membership and
	// chat records in a single transaction.
	DeleteLobby(ctx context.Context, id uint) error

	InsertMember(ctx context.Context, lobbyID uint, userName string) error
	DeleteMember(ctx context.Context, lobbyID uint, userName string) error
	HasMember(ctx context.Context, lobbyID uint, userName string) (bool, error)
	CountMembers(ctx context.Context, lobbyID uint) (int64, error)
	// ListMembers returns member names in join (insertion) order.
	ListMembers(ctx context.Context, lobbyID uint) ([]string, error)
	// ListLobbiesFor returns the lobbies a user belongs to, in join order.
	ListLobbiesFor(ctx context.Context, userName string) ([]models.Lobby, error)

	InsertMessage(ctx context.Context, msg *models.ChatMessage) error
	// ListMessages returns a lobby's chat history ordered by timestamp ascending.
	ListMessages(ctx context.Context, lobbyID uint) ([]models.ChatMessage, error)

	CreateUser(ctx context.Context, user *models.User) error
	FindUserByName(ctx context.Context, userName string) (*models.User, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)

	FindProfile(ctx context.Context, userName string) (*models.Profile, error)
	SaveProfile(ctx context.Context, profile *models.Profile) error
}
