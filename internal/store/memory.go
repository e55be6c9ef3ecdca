package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"linkup/backend/internal/models"
)

// Memory is an in-memory Store used by tests and local development.
// It enforces the same uniqueness rules as the database-backed store.
type Memory struct {
	mu sync.Mutex

	nextLobbyID uint
	nextUserID  uint
	seq         uint64

	lobbies  map[uint]models.Lobby
	members  map[uint][]memberRecord // keyed by lobby id, in join order
	messages map[uint][]models.ChatMessage
	users    map[string]models.User
	profiles map[string]models.Profile
}

type memberRecord struct {
	userName string
	seq      uint64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		lobbies:  make(map[uint]models.Lobby),
		members:  make(map[uint][]memberRecord),
		messages: make(map[uint][]models.ChatMessage),
		users:    make(map[string]models.User),
		profiles: make(map[string]models.Profile),
	}
}

func (s *Memory) CreateLobby(_ context.Context, lobby *models.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLobbyID++
	lobby.ID = s.nextLobbyID
	lobby.CreatedAt = time.Now()
	s.lobbies[lobby.ID] = *lobby
	return nil
}

func (s *Memory) FindLobby(_ context.Context, id uint) (*models.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lobby, ok := s.lobbies[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &lobby, nil
}

func (s *Memory) ListLobbies(_ context.Context) ([]models.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Lobby, 0, len(s.lobbies))
	for _, lobby := range s.lobbies {
		out = append(out, lobby)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Memory) SaveLobby(_ context.Context, lobby *models.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lobbies[lobby.ID]; !ok {
		return ErrNotFound
	}
	s.lobbies[lobby.ID] = *lobby
	return nil
}

func (s *Memory) DeleteLobby(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lobbies[id]; !ok {
		return ErrNotFound
	}
	delete(s.lobbies, id)
	delete(s.members, id)
	delete(s.messages, id)
	return nil
}

func (s *Memory) InsertMember(_ context.Context, lobbyID uint, userName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members[lobbyID] {
		if m.userName == userName {
			return ErrDuplicate
		}
	}
	s.seq++
	s.members[lobbyID] = append(s.members[lobbyID], memberRecord{userName: userName, seq: s.seq})
	return nil
}

func (s *Memory) DeleteMember(_ context.Context, lobbyID uint, userName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.members[lobbyID]
	for i, m := range list {
		if m.userName == userName {
			s.members[lobbyID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Memory) HasMember(_ context.Context, lobbyID uint, userName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members[lobbyID] {
		if m.userName == userName {
			return true, nil
		}
	}
	return false, nil
}

func (s *Memory) CountMembers(_ context.Context, lobbyID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.members[lobbyID])), nil
}

func (s *Memory) ListMembers(_ context.Context, lobbyID uint) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.members[lobbyID]))
	for _, m := range s.members[lobbyID] {
		names = append(names, m.userName)
	}
	return names, nil
}

func (s *Memory) ListLobbiesFor(_ context.Context, userName string) ([]models.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type hit struct {
		lobby models.Lobby
		seq   uint64
	}
	var hits []hit
	for lobbyID, list := range s.members {
		for _, m := range list {
			if m.userName == userName {
				if lobby, ok := s.lobbies[lobbyID]; ok {
					hits = append(hits, hit{lobby: lobby, seq: m.seq})
				}
			}
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].seq < hits[j].seq })
	out := make([]models.Lobby, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.lobby)
	}
	return out, nil
}

func (s *Memory) InsertMessage(_ context.Context, msg *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = uint(len(s.messages[msg.LobbyID]) + 1)
	s.messages[msg.LobbyID] = append(s.messages[msg.LobbyID], *msg)
	return nil
}

func (s *Memory) ListMessages(_ context.Context, lobbyID uint) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.messages[lobbyID]))
	copy(out, s.messages[lobbyID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ts < out[j].Ts })
	return out, nil
}

func (s *Memory) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.UserName]; ok {
		return ErrDuplicate
	}
	s.nextUserID++
	user.ID = s.nextUserID
	user.CreatedAt = time.Now()
	if user.Role == "" {
		user.Role = "user"
	}
	s.users[user.UserName] = *user
	return nil
}

func (s *Memory) FindUserByName(_ context.Context, userName string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userName]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *Memory) FindUserByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == id {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) FindProfile(_ context.Context, userName string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userName]
	if !ok {
		return nil, ErrNotFound
	}
	return &profile, nil
}

func (s *Memory) SaveProfile(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if profile.ID == 0 {
		profile.ID = uint(len(s.profiles) + 1)
	}
	s.profiles[profile.UserName] = *profile
	return nil
}
