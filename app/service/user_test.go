package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/roadhelper/user-service/app/entity"
	"github.com/roadhelper/user-service/app/password"
	"github.com/roadhelper/user-service/app/service"
	"github.com/roadhelper/user-service/app/token"
)

const resetLinkBaseURL = "http://localhost:8080"

// memoryUserRepo is an in-memory stand-in for the MySQL repository so the
// reset-flow scenarios can exercise full register/login/reset sequences
// without scripting SQL expectations for every step.
type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*entity.User)}
}

func (r *memoryUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memoryUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, nil
}

func (r *memoryUserRepo) List(_ context.Context, limit, offset int) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []*entity.User
	for _, user := range r.users {
		clone := *user
		clone.PasswordHash = ""
		users = append(users, &clone)
	}
	if offset >= len(users) {
		return nil, nil
	}
	users = users[offset:]
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *memoryUserRepo) UpdateProfile(_ context.Context, user *entity.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return 0, nil
	}
	if stored.FirstName == user.FirstName && stored.LastName == user.LastName &&
		stored.Email == user.Email && stored.Phone == user.Phone {
		return 0, nil
	}
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Email = user.Email
	stored.Phone = user.Phone
	return 1, nil
}

func (r *memoryUserRepo) UpdatePasswordHash(_ context.Context, id, passwordHash string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[id]
	if !ok {
		return 0, nil
	}
	stored.PasswordHash = passwordHash
	return 1, nil
}

type recordedMail struct {
	To      string
	Subject string
	Body    string
}

type recorderMailer struct {
	mu   sync.Mutex
	sent []recordedMail
	err  error
}

func (m *recorderMailer) Send(to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, recordedMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (m *recorderMailer) last(t *testing.T) recordedMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no mail was sent")
	}
	return m.sent[len(m.sent)-1]
}

func newTestService(t *testing.T, resetTTL time.Duration) (service.UserService, *memoryUserRepo, *recorderMailer) {
	t.Helper()

	repo := newMemoryUserRepo()
	mail := &recorderMailer{}
	svc := service.NewUserService(
		repo,
		token.NewSessionIssuer("test-secret", time.Hour),
		token.NewResetIssuer("test-secret", resetTTL),
		mail,
		resetLinkBaseURL,
		service.WithAsyncRunner(func(task func()) { task() }),
	)
	return svc, repo, mail
}

func registerSample(t *testing.T, svc service.UserService) *entity.User {
	t.Helper()

	user, sessionToken, err := svc.Register(context.Background(), service.RegisterFields{
		FirstName: "A",
		LastName:  "B",
		Email:     "a@x.com",
		Phone:     "123",
		Password:  "Secret1!",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if sessionToken == "" {
		t.Fatal("expected session token")
	}
	return user
}

// extractResetToken pulls the token out of the link embedded in the reset
// email body.
func extractResetToken(t *testing.T, body, userID string) string {
	t.Helper()

	prefix := resetLinkBaseURL + "/password/reset-password/" + userID + "/"
	idx := strings.Index(body, prefix)
	if idx == -1 {
		t.Fatalf("reset link not found in mail body: %s", body)
	}
	rest := body[idx+len(prefix):]
	end := strings.Index(rest, "<")
	if end == -1 {
		t.Fatalf("malformed mail body: %s", body)
	}
	return strings.TrimSpace(rest[:end])
}

func TestRegisterIssuesVerifiableSessionToken(t *testing.T) {
	svc, _, _ := newTestService(t, 10*time.Minute)

	user, sessionToken, err := svc.Register(context.Background(), service.RegisterFields{
		FirstName: "A",
		LastName:  "B",
		Email:     "a@x.com",
		Phone:     "123",
		Password:  "Secret1!",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.ID == "" {
		t.Fatal("expected generated user id")
	}
	if user.PasswordHash == "Secret1!" || user.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}
	if user.IsAdmin {
		t.Fatal("isAdmin must default to false")
	}

	claims, err := svc.VerifySessionToken(sessionToken)
	if err != nil {
		t.Fatalf("session token did not verify: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t, 10*time.Minute)
	registerSample(t, svc)

	_, _, err := svc.Register(context.Background(), service.RegisterFields{
		FirstName: "A",
		LastName:  "B",
		Email:     "a@x.com",
		Phone:     "123",
		Password:  "Secret1!",
	})
	if err != service.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService(t, 10*time.Minute)
	user := registerSample(t, svc)

	sessionToken, err := svc.Login(context.Background(), "a@x.com", "Secret1!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := svc.VerifySessionToken(sessionToken)
	if err != nil {
		t.Fatalf("session token did not verify: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id %s, got %s", user.ID, claims.UserID)
	}

	if _, err = svc.Login(context.Background(), "a@x.com", "wrong"); err != service.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err = svc.Login(context.Background(), "nobody@x.com", "Secret1!"); err != service.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newTestService(t, 10*time.Minute)
	user := registerSample(t, svc)

	fields := service.ProfileFields{FirstName: "New", LastName: "Name", Email: "a@x.com", Phone: "999"}
	updated, err := svc.UpdateProfile(context.Background(), user.ID, fields)
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.FirstName != "New" || updated.Phone != "999" {
		t.Fatalf("unexpected user: %+v", updated)
	}

	// Retrying with identical fields is idempotent, not an error.
	if _, err = svc.UpdateProfile(context.Background(), user.ID, fields); err != nil {
		t.Fatalf("idempotent retry failed: %v", err)
	}

	if _, err = svc.UpdateProfile(context.Background(), "missing-id", fields); err != service.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestListUsersDefaults(t *testing.T) {
	svc, _, _ := newTestService(t, 10*time.Minute)
	registerSample(t, svc)

	users, err := svc.ListUsers(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
}

func TestRequestPasswordResetSendsLink(t *testing.T) {
	svc, _, mail := newTestService(t, 10*time.Minute)
	user := registerSample(t, svc)

	if err := svc.RequestPasswordReset(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("request password reset failed: %v", err)
	}

	sent := mail.last(t)
	if sent.To != "a@x.com" || sent.Subject != "Reset Password" {
		t.Fatalf("unexpected mail: %+v", sent)
	}

	resetToken := extractResetToken(t, sent.Body, user.ID)
	if _, err := svc.VerifyResetToken(context.Background(), user.ID, resetToken); err != nil {
		t.Fatalf("issued reset token did not verify: %v", err)
	}
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t, 10*time.Minute)

	if err := svc.RequestPasswordReset(context.Background(), "nobody@x.com"); err != service.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRequestPasswordResetMailFailureIsSwallowed(t *testing.T) {
	svc, _, mail := newTestService(t, 10*time.Minute)
	registerSample(t, svc)
	mail.err = context.DeadlineExceeded

	if err := svc.RequestPasswordReset(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("mail failure must not fail the request: %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, mail := newTestService(t, 10*time.Minute)
	user := registerSample(t, svc)

	if err := svc.RequestPasswordReset(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("request password reset failed: %v", err)
	}
	resetToken := extractResetToken(t, mail.last(t).Body, user.ID)

	if err := svc.ConfirmPasswordReset(context.Background(), user.ID, resetToken, "NewPass1!"); err != nil {
		t.Fatalf("confirm password reset failed: %v", err)
	}

	if _, err := svc.Login(context.Background(), "a@x.com", "NewPass1!"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, err := svc.Login(context.Background(), "a@x.com", "Secret1!"); err != service.ErrInvalidCredentials {
		t.Fatalf("expected old password to be rejected, got %v", err)
	}

	// Replaying the consumed token must fail: the stored hash has changed,
	// so the derived signing secret no longer matches.
	if err := svc.ConfirmPasswordReset(context.Background(), user.ID, resetToken, "Another1!"); err != token.ErrResetTokenInvalid {
		t.Fatalf("expected ErrResetTokenInvalid on replay, got %v", err)
	}
}

func TestResetTokenInvalidatedByPasswordChange(t *testing.T) {
	svc, repo, mail := newTestService(t, 10*time.Minute)
	user := registerSample(t, svc)

	if err := svc.RequestPasswordReset(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("request password reset failed: %v", err)
	}
	resetToken := extractResetToken(t, mail.last(t).Body, user.ID)

	// The password changes out of band while the token is still well inside
	// its window.
	newHash, err := password.Hash("Changed1!")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if _, err := repo.UpdatePasswordHash(context.Background(), user.ID, newHash); err != nil {
		t.Fatalf("update password hash failed: %v", err)
	}

	if _, err := svc.VerifyResetToken(context.Background(), user.ID, resetToken); err != token.ErrResetTokenInvalid {
		t.Fatalf("expected ErrResetTokenInvalid, got %v", err)
	}
}

func TestResetTokenExpired(t *testing.T) {
	svc, _, mail := newTestService(t, -time.Minute)
	user := registerSample(t, svc)

	if err := svc.RequestPasswordReset(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("request password reset failed: %v", err)
	}
	resetToken := extractResetToken(t, mail.last(t).Body, user.ID)

	if err := svc.ConfirmPasswordReset(context.Background(), user.ID, resetToken, "NewPass1!"); err != token.ErrResetTokenExpired {
		t.Fatalf("expected ErrResetTokenExpired, got %v", err)
	}
}

func TestConfirmPasswordResetUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t, 10*time.Minute)

	if err := svc.ConfirmPasswordReset(context.Background(), "missing-id", "whatever", "NewPass1!"); err != service.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
