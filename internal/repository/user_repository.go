package repository

import (
	"github.com/Alex-T-Coder/lgcy-app/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByIDs(ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// PushTokens resolves device tokens for a recipient set. Users without a
// registered token are simply absent from the result; that is not an error.
func (r *UserRepository) PushTokens(ids []uint) (map[uint]string, error) {
	if len(ids) == 0 {
		return map[uint]string{}, nil
	}
	var users []models.User
	err := r.db.Select("id", "push_token").
		Where("id IN ? AND push_token IS NOT NULL AND push_token <> ''", ids).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	tokens := make(map[uint]string, len(users))
	for _, u := range users {
		if u.PushToken != nil {
			tokens[u.ID] = *u.PushToken
		}
	}
	return tokens, nil
}
