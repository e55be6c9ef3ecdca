// Package ledger owns all authoritative membership state. Every join and
// leave goes through it; no other component mutates membership or the
// cached occupancy count directly.
package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"

	"linkup/backend/internal/models"
	"linkup/backend/internal/store"
)

var (
	// ErrNotFound means the lobby does not exist.
	ErrNotFound = errors.New("ledger: lobby not found")
	// ErrFull means a join was attempted against a lobby at capacity.
	ErrFull = errors.New("ledger: lobby is full")
	// ErrConflict means an edit would violate a capacity-derived invariant,
	// e.g. shrinking max below the current member count.
	ErrConflict = errors.New("ledger: capacity conflict")
)

// Ledger coordinates membership changes against the persistence collaborator.
// The capacity check-and-insert sequence is serialized per lobby; operations
// against different lobbies never contend on the same lock.
type Ledger struct {
	store store.Store

	mu    sync.Mutex // guards locks only, never held across store calls
	locks map[uint]*sync.Mutex
}

// New creates a Ledger backed by the given store.
func New(st store.Store) *Ledger {
	return &Ledger{store: st, locks: make(map[uint]*sync.Mutex)}
}

// Normalize canonicalizes a user identity for membership records.
func Normalize(userName string) string {
	return strings.TrimSpace(userName)
}

func (l *Ledger) lobbyLock(id uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[id]
	if !ok {
		lk = &sync.Mutex{}
		l.locks[id] = lk
	}
	return lk
}

// Join adds a user to a lobby. It is idempotent for existing members, fails
// with ErrNotFound for missing lobbies, and fails with ErrFull when the
// lobby is at capacity. The check and insert are atomic per lobby: with one
// slot left, concurrent joins produce at most one winner.
func (l *Ledger) Join(ctx context.Context, lobbyID uint, userName string) error {
	userName = Normalize(userName)

	lk := l.lobbyLock(lobbyID)
	lk.Lock()
	defer lk.Unlock()

	lobby, err := l.store.FindLobby(ctx, lobbyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	exists, err := l.store.HasMember(ctx, lobbyID, userName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	count, err := l.store.CountMembers(ctx, lobbyID)
	if err != nil {
		return err
	}
	if count >= int64(lobby.Max) {
		return ErrFull
	}

	if err := l.store.InsertMember(ctx, lobbyID, userName); err != nil {
		// The store re-enforces uniqueness; treat a duplicate as the
		// idempotent-success case.
		if errors.Is(err, store.ErrDuplicate) {
			return nil
		}
		return err
	}

	return l.syncOccupancy(ctx, lobby)
}

// Leave removes a user from a lobby. Leaving a lobby the user never joined
// is a no-op success and does not change occupancy.
func (l *Ledger) Leave(ctx context.Context, lobbyID uint, userName string) error {
	userName = Normalize(userName)

	lk := l.lobbyLock(lobbyID)
	lk.Lock()
	defer lk.Unlock()

	lobby, err := l.store.FindLobby(ctx, lobbyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := l.store.DeleteMember(ctx, lobbyID, userName); err != nil {
		return err
	}

	return l.syncOccupancy(ctx, lobby)
}

// Members returns the lobby's current members in join order.
func (l *Ledger) Members(ctx context.Context, lobbyID uint) ([]string, error) {
	if _, err := l.store.FindLobby(ctx, lobbyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l.store.ListMembers(ctx, lobbyID)
}

// LobbiesFor returns all lobbies a user currently belongs to, in join order.
func (l *Ledger) LobbiesFor(ctx context.Context, userName string) ([]models.Lobby, error) {
	return l.store.ListLobbiesFor(ctx, Normalize(userName))
}

// GetLobby fetches a lobby, reconciling the cached occupancy with the
// membership count when a concurrent writer elsewhere left it stale.
func (l *Ledger) GetLobby(ctx context.Context, lobbyID uint) (*models.Lobby, error) {
	lobby, err := l.store.FindLobby(ctx, lobbyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	count, err := l.store.CountMembers(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	if lobby.People != int(count) {
		lobby.People = int(count)
		if err := l.store.SaveLobby(ctx, lobby); err != nil {
			return nil, err
		}
	}
	return lobby, nil
}

// ListLobbies returns all lobbies with their cached occupancy.
func (l *Ledger) ListLobbies(ctx context.Context) ([]models.Lobby, error) {
	return l.store.ListLobbies(ctx)
}

// CreateLobby validates capacity and persists a new lobby. The occupancy
// cache always starts at zero regardless of the caller's input.
func (l *Ledger) CreateLobby(ctx context.Context, lobby *models.Lobby) error {
	if lobby.Max <= 0 {
		return ErrConflict
	}
	lobby.People = 0
	return l.store.CreateLobby(ctx, lobby)
}

// UpdateLobby applies field edits to a lobby. Shrinking max below the
// current member count is rejected with ErrConflict before any mutation.
func (l *Ledger) UpdateLobby(ctx context.Context, lobbyID uint, name, tag, when, location string, max int) (*models.Lobby, error) {
	if max <= 0 {
		return nil, ErrConflict
	}

	lk := l.lobbyLock(lobbyID)
	lk.Lock()
	defer lk.Unlock()

	lobby, err := l.store.FindLobby(ctx, lobbyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	count, err := l.store.CountMembers(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	if int64(max) < count {
		return nil, ErrConflict
	}

	lobby.Name = name
	lobby.Tag = tag
	lobby.Time = when
	lobby.Location = location
	lobby.Max = max
	lobby.People = int(count)
	if err := l.store.SaveLobby(ctx, lobby); err != nil {
		return nil, err
	}
	return lobby, nil
}

// DeleteLobby removes the lobby and cascades to all of its membership and
// chat records. A join racing the deletion either completes before it (and
// is swept away) or observes ErrNotFound; the per-lobby lock serializes the
// two so no dangling record survives.
func (l *Ledger) DeleteLobby(ctx context.Context, lobbyID uint) error {
	lk := l.lobbyLock(lobbyID)
	lk.Lock()
	defer lk.Unlock()

	if err := l.store.DeleteLobby(ctx, lobbyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	l.mu.Lock()
	delete(l.locks, lobbyID)
	l.mu.Unlock()
	return nil
}

// syncOccupancy recomputes the cached people count from the membership
// records. Called after every mutation, under that lobby's lock.
func (l *Ledger) syncOccupancy(ctx context.Context, lobby *models.Lobby) error {
	count, err := l.store.CountMembers(ctx, lobby.ID)
	if err != nil {
		return err
	}
	lobby.People = int(count)
	return l.store.SaveLobby(ctx, lobby)
}
