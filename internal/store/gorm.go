package store

import (
	"context"
	"errors"

	"linkup/backend/internal/models"

	"gorm.io/gorm"
)

// Gorm is the database-backed Store implementation.
type Gorm struct {
	db *gorm.DB
}

// NewGorm wraps an open gorm connection.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

func (s *Gorm) CreateLobby(ctx context.Context, lobby *models.Lobby) error {
	return translate(s.db.WithContext(ctx).Create(lobby).Error)
}

func (s *Gorm) FindLobby(ctx context.Context, id uint) (*models.Lobby, error) {
	var lobby models.Lobby
	if err := s.db.WithContext(ctx).First(&lobby, id).Error; err != nil {
		return nil, translate(err)
	}
	return &lobby, nil
}

func (s *Gorm) ListLobbies(ctx context.Context) ([]models.Lobby, error) {
	var lobbies []models.Lobby
	err := s.db.WithContext(ctx).Order("id").Find(&lobbies).Error
	return lobbies, translate(err)
}

func (s *Gorm) SaveLobby(ctx context.Context, lobby *models.Lobby) error {
	return translate(s.db.WithContext(ctx).Save(lobby).Error)
}

func (s *Gorm) DeleteLobby(ctx context.Context, id uint) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Lobby{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Unscoped().Where("lobby_id = ?", id).Delete(&models.Membership{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("lobby_id = ?", id).Delete(&models.ChatMessage{}).Error
	}))
}

func (s *Gorm) InsertMember(ctx context.Context, lobbyID uint, userName string) error {
	m := models.Membership{LobbyID: lobbyID, UserName: userName}
	return translate(s.db.WithContext(ctx).Create(&m).Error)
}

func (s *Gorm) DeleteMember(ctx context.Context, lobbyID uint, userName string) error {
	// Hard delete: a soft-deleted row would trip the unique index when the
	// user rejoins.
	return translate(s.db.WithContext(ctx).Unscoped().
		Where("lobby_id = ? AND user_name = ?", lobbyID, userName).
		Delete(&models.Membership{}).Error)
}

func (s *Gorm) HasMember(ctx context.Context, lobbyID uint, userName string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("lobby_id = ? AND user_name = ?", lobbyID, userName).
		Count(&count).Error
	return count > 0, translate(err)
}

func (s *Gorm) CountMembers(ctx context.Context, lobbyID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("lobby_id = ?", lobbyID).
		Count(&count).Error
	return count, translate(err)
}

func (s *Gorm) ListMembers(ctx context.Context, lobbyID uint) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("lobby_id = ?", lobbyID).
		Order("id").
		Pluck("user_name", &names).Error
	return names, translate(err)
}

func (s *Gorm) ListLobbiesFor(ctx context.Context, userName string) ([]models.Lobby, error) {
	var lobbies []models.Lobby
	err := s.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.lobby_id = lobbies.id").
		Where("memberships.user_name = ? AND memberships.deleted_at IS NULL", userName).
		Order("memberships.id").
		Find(&lobbies).Error
	return lobbies, translate(err)
}

func (s *Gorm) InsertMessage(ctx context.Context, msg *models.ChatMessage) error {
	return translate(s.db.WithContext(ctx).Create(msg).Error)
}

func (s *Gorm) ListMessages(ctx context.Context, lobbyID uint) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("lobby_id = ?", lobbyID).
		Order("ts, id").
		Find(&messages).Error
	return messages, translate(err)
}

func (s *Gorm) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *Gorm) FindUserByName(ctx context.Context, userName string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("user_name = ?", userName).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Gorm) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Gorm) FindProfile(ctx context.Context, userName string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).Where("user_name = ?", userName).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (s *Gorm) SaveProfile(ctx context.Context, profile *models.Profile) error {
	return translate(s.db.WithContext(ctx).Save(profile).Error)
}
