package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/okovalenko/hotel-microservice/internal/trust"
	"github.com/okovalenko/hotel-microservice/internal/user/models"
	"github.com/okovalenko/hotel-microservice/internal/user/repository"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrLoginTaken         = errors.New("login already taken")
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrEmptyUpdate        = errors.New("nothing to update")
	ErrInvalidTrustLevel  = errors.New("trust level out of range")
)

type RegisterInput struct {
	Login       string
	Password    string
	PhoneNumber string
}

type UpdateUserInput struct {
	TrustLevel               *int
	ConsecutiveCancellations *int
	PhoneNumber              *string
}

type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, login, password string) (*models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id uint, input UpdateUserInput) (*models.User, error)
	ApplyCompletion(ctx context.Context, userID uint, completedCount int64) error
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if _, err := s.repo.FindByLogin(ctx, input.Login); err == nil {
		return nil, ErrLoginTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Login:        input.Login,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if input.PhoneNumber != "" {
		user.PhoneNumber = &input.PhoneNumber
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	user, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.FindAll(ctx)
}

func (s *userService) UpdateUser(ctx context.Context, id uint, input UpdateUserInput) (*models.User, error) {
	if input.TrustLevel == nil && input.ConsecutiveCancellations == nil && input.PhoneNumber == nil {
		return nil, ErrEmptyUpdate
	}
	if input.TrustLevel != nil && (*input.TrustLevel < 0 || *input.TrustLevel > trust.MaxLevel) {
		return nil, ErrInvalidTrustLevel
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.TrustLevel != nil {
		user.TrustLevel = *input.TrustLevel
	}
	if input.ConsecutiveCancellations != nil {
		user.ConsecutiveCancellations = *input.ConsecutiveCancellations
	}
	if input.PhoneNumber != nil {
		user.PhoneNumber = input.PhoneNumber
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ApplyCompletion recomputes the trust level from the absolute completed
// count carried by the event. Recomputing from a count rather than applying
// a delta makes redeliveries harmless.
func (s *userService) ApplyCompletion(ctx context.Context, userID uint, completedCount int64) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	level, consecutive := trust.ApplyCompletion(user.TrustLevel, user.ConsecutiveCancellations, completedCount)
	if level == user.TrustLevel && consecutive == user.ConsecutiveCancellations {
		return nil
	}

	user.TrustLevel = level
	user.ConsecutiveCancellations = consecutive
	return s.repo.Update(ctx, user)
}
