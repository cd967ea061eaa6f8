package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/roadhelper/user-service/app/entity"
	"github.com/roadhelper/user-service/app/mailer"
	"github.com/roadhelper/user-service/app/password"
	"github.com/roadhelper/user-service/app/token"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const (
	DefaultListLimit = 10
	DefaultListPage  = 1
)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	List(ctx context.Context, limit, offset int) ([]*entity.User, error)
	UpdateProfile(ctx context.Context, user *entity.User) (int64, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) (int64, error)
}

type RegisterFields struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	IsAdmin   bool
}

type ProfileFields struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type UserService interface {
	Register(ctx context.Context, fields RegisterFields) (*entity.User, string, error)
	Login(ctx context.Context, email, plaintext string) (string, error)
	ListUsers(ctx context.Context, limit, page int) ([]*entity.User, error)
	UpdateProfile(ctx context.Context, id string, fields ProfileFields) (*entity.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyResetToken(ctx context.Context, userID, resetToken string) (*entity.User, error)
	ConfirmPasswordReset(ctx context.Context, userID, resetToken, newPassword string) error
	VerifySessionToken(tokenString string) (*token.Claims, error)
}

type AsyncRunner func(task func())

type UserServiceOption func(*userService)

type userService struct {
	userRepo         userRepository
	sessions         *token.SessionIssuer
	resets           *token.ResetIssuer
	mailer           mailer.Mailer
	resetLinkBaseURL string
	asyncRunner      AsyncRunner
}

func NewUserService(
	userRepo userRepository,
	sessions *token.SessionIssuer,
	resets *token.ResetIssuer,
	m mailer.Mailer,
	resetLinkBaseURL string,
	opts ...UserServiceOption,
) UserService {
	svc := &userService{
		userRepo:         userRepo,
		sessions:         sessions,
		resets:           resets,
		mailer:           m,
		resetLinkBaseURL: resetLinkBaseURL,
		asyncRunner: func(task func()) {
			go task()
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithAsyncRunner(runner AsyncRunner) UserServiceOption {
	return func(s *userService) {
		if runner != nil {
			s.asyncRunner = runner
		}
	}
}

func (s *userService) Register(ctx context.Context, fields RegisterFields) (*entity.User, string, error) {
	existing, err := s.userRepo.FindByEmail(ctx, fields.Email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", ErrUserExists
	}

	passwordHash, err := password.Hash(fields.Password)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	user := &entity.User{
		ID:           uuid.New().String(),
		FirstName:    fields.FirstName,
		LastName:     fields.LastName,
		Email:        fields.Email,
		Phone:        fields.Phone,
		PasswordHash: passwordHash,
		IsAdmin:      fields.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	sessionToken, err := s.sessions.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	return user, sessionToken, nil
}

func (s *userService) Login(ctx context.Context, email, plaintext string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	if !password.Verify(plaintext, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	return s.sessions.Issue(user.ID, user.Email)
}

func (s *userService) ListUsers(ctx context.Context, limit, page int) ([]*entity.User, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if page <= 0 {
		page = DefaultListPage
	}
	return s.userRepo.List(ctx, limit, (page-1)*limit)
}

func (s *userService) UpdateProfile(ctx context.Context, id string, fields ProfileFields) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	user.FirstName = fields.FirstName
	user.LastName = fields.LastName
	user.Email = fields.Email
	user.Phone = fields.Phone

	// Zero affected rows here means the values were already identical, not
	// that the row vanished; retries with the same fields stay idempotent.
	if _, err = s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	resetToken, err := s.resets.Issue(user.ID, user.Email, user.PasswordHash)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/password/reset-password/%s/%s", s.resetLinkBaseURL, user.ID, resetToken)
	body := fmt.Sprintf(`<div>
		<h4>Click on the link below to reset your password</h4>
		<p>%s</p>
	</div>`, link)

	// Fire-and-forget: a failed send is logged, never surfaced to the caller.
	to := user.Email
	s.asyncRunner(func() {
		if sendErr := s.mailer.Send(to, "Reset Password", body); sendErr != nil {
			logrus.WithError(sendErr).WithField("email", to).Error("failed to send reset email")
		}
	})

	return nil
}

func (s *userService) VerifyResetToken(ctx context.Context, userID, resetToken string) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if _, err = s.resets.Verify(resetToken, user.PasswordHash); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) ConfirmPasswordReset(ctx context.Context, userID, resetToken, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	// Verify against the freshly loaded hash before paying for a new bcrypt
	// hash. The persisted hash update below is also what invalidates every
	// outstanding reset token for this account.
	if _, err = s.resets.Verify(resetToken, user.PasswordHash); err != nil {
		return err
	}

	newHash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}

	affected, err := s.userRepo.UpdatePasswordHash(ctx, user.ID, newHash)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *userService) VerifySessionToken(tokenString string) (*token.Claims, error) {
	return s.sessions.Verify(tokenString)
}
