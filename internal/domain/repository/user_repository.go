package repository

import "github.com/eastgatechurch/eastgate-app/internal/domain/entity"

// UserRepository defines the interface for identity-record storage.
type UserRepository interface {
	Create(u *entity.User) error
	GetByID(id string) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	Update(u *entity.User) error
	SetVerified(id string) error
}
