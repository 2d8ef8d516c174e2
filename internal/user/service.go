package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("incorrect login or password")
	ErrInvalidRole        = errors.New("unknown role")
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int64, login, role string) (string, error)
}

type RegisterInput struct {
	Login       string
	Password    string
	FullName    string
	PhoneNumber string
	Role        Role
}

// Session is what a successful register or login hands back to the caller.
type Session struct {
	Token string
	User  *User
}

type Service struct {
	repo   Repository
	tokens TokenIssuer
	log    *zap.Logger
	cost   int
}

func NewService(repo Repository, tokens TokenIssuer, log *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		log:    log,
		cost:   bcrypt.DefaultCost,
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, in.Role)
	}

	login := strings.TrimSpace(in.Login)
	if _, err := s.repo.GetUserByLogin(ctx, login); err == nil {
		return nil, ErrLoginTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check login: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.CreateUser(ctx, User{
		Login:        login,
		PasswordHash: string(hashed),
		FullName:     in.FullName,
		PhoneNumber:  in.PhoneNumber,
		Role:         in.Role,
	})
	if err != nil {
		if errors.Is(err, ErrLoginTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered", zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))

	return s.session(u)
}

func (s *Service) Login(ctx context.Context, login, password string) (*Session, error) {
	u, err := s.repo.GetUserByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.log.Debug("password mismatch", zap.String("login", u.Login))
		return nil, ErrInvalidCredentials
	}

	return s.session(u)
}

func (s *Service) session(u *User) (*Session, error) {
	token, err := s.tokens.Issue(u.ID, u.Login, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, User: u}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Service) ListMasters(ctx context.Context) ([]Master, error) {
	masters, err := s.repo.ListMasters(ctx)
	if err != nil {
		return nil, fmt.Errorf("list masters: %w", err)
	}
	return masters, nil
}
