package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/beaufnet/quotes-api/internal/api/metrics"
	"github.com/beaufnet/quotes-api/internal/core/domain"
	"github.com/beaufnet/quotes-api/internal/core/policy"
	"github.com/beaufnet/quotes-api/internal/core/ports"
)

// ConfirmationStore holds single-use email-confirmation tokens (Redis).
type ConfirmationStore interface {
	Save(ctx context.Context, token, userID string) error
	// Consume removes the token and returns the user it belongs to.
	// ok is false when the token is unknown or already used.
	Consume(ctx context.Context, token string) (userID string, ok bool, err error)
}

// ConfirmationMailer delivers confirmation emails, asynchronously.
type ConfirmationMailer interface {
	EnqueueConfirmation(user *domain.User, token string)
}

// AdminBootstrap configures the admin account created at startup.
type AdminBootstrap struct {
	Username string
	// Password may be empty; a random one is generated and logged at warn.
	Password string
}

type userService struct {
	repo    ports.UserRepository
	captcha CaptchaVerifier
	tokens  ConfirmationStore
	mailer  ConfirmationMailer
	admin   AdminBootstrap
	log     zerolog.Logger
}

// NewUserService returns a UserService implementation.
func NewUserService(
	repo ports.UserRepository,
	captcha CaptchaVerifier,
	tokens ConfirmationStore,
	mailer ConfirmationMailer,
	admin AdminBootstrap,
	log zerolog.Logger,
) ports.UserService {
	return &userService{
		repo:    repo,
		captcha: captcha,
		tokens:  tokens,
		mailer:  mailer,
		admin:   admin,
		log:     log,
	}
}

// Signup registers a self-service account. The role is always forced to user:
// there is no caller-supplied-role path for anonymous registration.
func (s *userService) Signup(ctx context.Context, input ports.SignupInput) (policy.UserView, error) {
	ok, err := s.captcha.Verify(ctx, input.Captcha)
	if err != nil {
		return policy.UserView{}, fmt.Errorf("signup: verify captcha: %w", err)
	}
	if !ok {
		metrics.CaptchaChecksTotal.WithLabelValues("rejected").Inc()
		return policy.UserView{}, domain.ErrInvalidCaptcha
	}
	metrics.CaptchaChecksTotal.WithLabelValues("passed").Inc()

	if err := s.checkUnique(ctx, input.Username, input.Email); err != nil {
		return policy.UserView{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return policy.UserView{}, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         policy.SignupRole(),
		Confirmed:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return policy.UserView{}, err
	}

	s.startConfirmation(ctx, created)
	metrics.SignupsTotal.Inc()
	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user signed up")

	return policy.ProjectUser(created, policy.Private), nil
}

// Confirm consumes a confirmation token and flips the account to confirmed.
func (s *userService) Confirm(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrInvalidConfirmationToken
	}

	userID, ok, err := s.tokens.Consume(ctx, token)
	if err != nil {
		return fmt.Errorf("confirm: %w", err)
	}
	if !ok {
		return domain.ErrInvalidConfirmationToken
	}

	if err := s.repo.SetConfirmed(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// account deleted between signup and confirmation
			return domain.ErrInvalidConfirmationToken
		}
		return err
	}

	s.log.Info().Str("user_id", userID).Msg("email confirmed")
	return nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
// The admin is confirmed at creation; when no password is configured a random
// one is generated and logged.
func (s *userService) EnsureAdmin(ctx context.Context) error {
	if _, err := s.repo.FindByUsername(ctx, s.admin.Username); err == nil {
		s.log.Info().Str("username", s.admin.Username).Msg("admin already created")
		return nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	password := s.admin.Password
	if password == "" {
		password = randomPassword(12)
		s.log.Warn().Str("password", password).Msg("generated admin password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.repo.Create(ctx, &domain.User{
		Username:     s.admin.Username,
		Email:        "",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Confirmed:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("cannot create admin")
		return nil
	}

	s.log.Info().Str("username", s.admin.Username).Msg("admin account created")
	return nil
}

// Get returns the projection of the target user selected by policy. Reads are
// never denied; non-owners get the public view.
func (s *userService) Get(ctx context.Context, identity *policy.Identity, userID string) (policy.UserView, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return policy.UserView{}, err
	}

	decision := policy.CanReadUser(identity, user.ID)
	return policy.ProjectUser(user, decision.Visibility), nil
}

// List returns a page of public user views.
func (s *userService) List(ctx context.Context, page, perPage int) (*ports.UserPage, error) {
	page, perPage = clampPage(page, perPage)

	users, total, err := s.repo.List(ctx, page, perPage)
	if err != nil {
		return nil, err
	}

	views := make([]policy.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, policy.ProjectUser(u, policy.Public))
	}

	return &ports.UserPage{Page: page, PerPage: perPage, Total: total, Data: views}, nil
}

// Create makes an account on behalf of an admin. The new account still goes
// through email confirmation.
func (s *userService) Create(ctx context.Context, identity *policy.Identity, input ports.CreateUserInput) (policy.UserView, error) {
	if !policy.CanCreateUser(identity) {
		return policy.UserView{}, fmt.Errorf("create user: %w", domain.ErrForbidden)
	}

	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}

	if err := s.checkUnique(ctx, input.Username, input.Email); err != nil {
		return policy.UserView{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return policy.UserView{}, err
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         role,
		Confirmed:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return policy.UserView{}, err
	}

	s.startConfirmation(ctx, created)
	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user created by admin")

	return policy.ProjectUser(created, policy.Private), nil
}

// Patch applies a partial update. Fields are whitelisted explicitly so a new
// entity field never becomes patchable by accident. A role change from a
// non-admin caller is silently ignored, not rejected.
func (s *userService) Patch(ctx context.Context, identity *policy.Identity, userID string, patch ports.UserPatch) (policy.UserView, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return policy.UserView{}, err
	}

	if !policy.CanWriteUser(identity, user.ID) {
		return policy.UserView{}, fmt.Errorf("cannot modify another user's account: %w", domain.ErrForbidden)
	}

	if patch.Username != nil && *patch.Username != user.Username {
		if _, err := s.repo.FindByUsername(ctx, *patch.Username); err == nil {
			return policy.UserView{}, domain.ErrUsernameTaken
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return policy.UserView{}, err
		}
		user.Username = *patch.Username
	}

	if patch.Email != nil && *patch.Email != user.Email {
		if _, err := s.repo.FindByEmail(ctx, *patch.Email); err == nil {
			return policy.UserView{}, domain.ErrEmailTaken
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return policy.UserView{}, err
		}
		user.Email = *patch.Email
	}

	if patch.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return policy.UserView{}, err
		}
		user.PasswordHash = string(hash)
	}

	if patch.Role != nil && policy.CanSetRole(identity) && patch.Role.Valid() {
		user.Role = *patch.Role
	}

	user.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return policy.UserView{}, err
	}

	s.log.Info().Str("user_id", updated.ID).Msg("user patched")
	return policy.ProjectUser(updated, policy.Private), nil
}

// Delete removes an account; allowed for the owner and for admins.
func (s *userService) Delete(ctx context.Context, identity *policy.Identity, userID string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !policy.CanDeleteUser(identity, user.ID) {
		return fmt.Errorf("cannot delete another user's account: %w", domain.ErrForbidden)
	}

	if err := s.repo.Delete(ctx, user.ID); err != nil {
		return err
	}

	s.log.Info().Str("user_id", user.ID).Msg("user deleted")
	return nil
}

// checkUnique rejects the creation when the username or email is already in
// use. The unique Mongo indexes remain the backstop for concurrent inserts.
func (s *userService) checkUnique(ctx context.Context, username, email string) error {
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	return nil
}

// startConfirmation stores a fresh token and queues the confirmation mail.
// Failures are logged, not surfaced: the account exists either way and the
// mail can be re-sent.
func (s *userService) startConfirmation(ctx context.Context, user *domain.User) {
	if user.Email == "" {
		return
	}

	token := newConfirmationToken()
	if err := s.tokens.Save(ctx, token, user.ID); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to store confirmation token")
		return
	}
	s.mailer.EnqueueConfirmation(user, token)
}

// newConfirmationToken returns a 64-character hex token.
func newConfirmationToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

const passwordCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$&*-_"

// randomPassword builds a bootstrap admin password from crypto/rand bytes.
func randomPassword(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(fmt.Sprint(time.Now().UnixNano())))[:length]
	}
	out := make([]byte, length)
	for i, v := range b {
		out[i] = passwordCharset[int(v)%len(passwordCharset)]
	}
	return string(out)
}
