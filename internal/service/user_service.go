package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/repository"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/apperr"
)

var (
	ErrEmailTaken         = apperr.Conflict(apperr.CodeEmailTaken, "email is already registered")
	ErrInvalidCredentials = apperr.Unauthorized(apperr.CodeInvalidCredentials, "email or password is incorrect")
	ErrSignupInput        = apperr.InvalidOperation(apperr.CodeBadRequest, "email, password and name are required")
)

// TokenIssuer signs access tokens for a service.
type TokenIssuer interface {
	Issue(id model.ServiceID) (string, time.Time, error)
}

type SignupInput struct {
	Email      string
	Password   string
	Name       string
	Sector     string
	BirthDate  *time.Time
	ProfileImg string
}

type LoginResult struct {
	ServiceID   model.ServiceID `json:"service_id"`
	AccessToken string          `json:"access_token"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

type UserService interface {
	Signup(ctx context.Context, in SignupInput) (*model.Service, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	GetProfile(ctx context.Context, id model.ServiceID) (*model.Profile, error)
}

type userService struct {
	db       *gorm.DB
	services repository.ServiceRepository
	tokens   TokenIssuer
	cost     int
}

func NewUserService(db *gorm.DB, services repository.ServiceRepository, tokens TokenIssuer) UserService {
	return &userService{db: db, services: services, tokens: tokens, cost: bcrypt.DefaultCost}
}

func (s *userService) Signup(ctx context.Context, in SignupInput) (*model.Service, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" || in.Password == "" || in.Name == "" {
		return nil, ErrSignupInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, internalErr(err)
	}

	user := &model.User{Email: in.Email, PasswordHash: string(hash)}
	svc := &model.Service{
		Name:       in.Name,
		Sector:     strings.TrimSpace(in.Sector),
		BirthDate:  in.BirthDate,
		ProfileImg: in.ProfileImg,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.services.WithTx(tx)
		if _, err := repo.FindUserByEmail(ctx, in.Email); err == nil {
			return ErrEmailTaken
		} else if !isNotFound(err) {
			return err
		}
		return repo.CreateUser(ctx, user, svc)
	})
	if err != nil {
		// 동시 가입은 unique index 에서 걸린다
		return nil, storeError(err, apperr.CodeEmailTaken, ErrEmailTaken.Message)
	}
	return svc, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.services.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if isNotFound(err) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, internalErr(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	svc, err := s.services.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, internalErr(err)
	}
	token, exp, err := s.tokens.Issue(svc.ID)
	if err != nil {
		return nil, internalErr(err)
	}
	return &LoginResult{ServiceID: svc.ID, AccessToken: token, ExpiresAt: exp}, nil
}

func (s *userService) GetProfile(ctx context.Context, id model.ServiceID) (*model.Profile, error) {
	svc, err := s.services.FindByID(ctx, id)
	if isNotFound(err) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, internalErr(err)
	}
	p := svc.Profile(time.Now())
	return &p, nil
}
