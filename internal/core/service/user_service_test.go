package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/beaufnet/quotes-api/internal/core/domain"
	"github.com/beaufnet/quotes-api/internal/core/policy"
	"github.com/beaufnet/quotes-api/internal/core/ports"
)

type stubUserRepo struct {
	users  map[string]*domain.User
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return nil, domain.ErrUsernameTaken
		}
		if user.Email != "" && existing.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	copy := cloneUser(user)
	r.nextID++
	copy.ID = fmt.Sprintf("u%d", r.nextID)
	r.users[copy.ID] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context, page, perPage int) ([]*domain.User, int64, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, int64(len(r.users)), nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) SetConfirmed(_ context.Context, id string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Confirmed = true
	return nil
}

type stubCaptcha struct {
	ok  bool
	err error
}

func (c *stubCaptcha) Verify(_ context.Context, _ string) (bool, error) {
	return c.ok, c.err
}

type stubTokenStore struct {
	tokens map[string]string
}

func newStubTokenStore() *stubTokenStore {
	return &stubTokenStore{tokens: make(map[string]string)}
}

func (s *stubTokenStore) Save(_ context.Context, token, userID string) error {
	s.tokens[token] = userID
	return nil
}

func (s *stubTokenStore) Consume(_ context.Context, token string) (string, bool, error) {
	userID, ok := s.tokens[token]
	if !ok {
		return "", false, nil
	}
	delete(s.tokens, token)
	return userID, true, nil
}

type stubMailer struct {
	sent []string // token per enqueued mail
}

func (m *stubMailer) EnqueueConfirmation(_ *domain.User, token string) {
	m.sent = append(m.sent, token)
}

type userFixture struct {
	repo   *stubUserRepo
	tokens *stubTokenStore
	mailer *stubMailer
	svc    ports.UserService
}

func newUserFixture(captchaOK bool) *userFixture {
	f := &userFixture{
		repo:   newStubUserRepo(),
		tokens: newStubTokenStore(),
		mailer: &stubMailer{},
	}
	f.svc = NewUserService(f.repo, &stubCaptcha{ok: captchaOK}, f.tokens, f.mailer,
		AdminBootstrap{Username: "admin", Password: "admin-secret"}, zerolog.Nop())
	return f
}

func adminIdentity(id string) *policy.Identity {
	return &policy.Identity{SubjectID: id, Role: domain.RoleAdmin}
}

func userIdentity(id string) *policy.Identity {
	return &policy.Identity{SubjectID: id, Role: domain.RoleUser}
}

func TestUserService_Signup_Success(t *testing.T) {
	f := newUserFixture(true)

	view, err := f.svc.Signup(context.Background(), ports.SignupInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-pass",
		Captcha:  "token",
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if view.Role != domain.RoleUser {
		t.Fatalf("signup role = %s, want %s", view.Role, domain.RoleUser)
	}
	if view.Confirmed {
		t.Fatalf("fresh signup must be unconfirmed")
	}
	if view.Email == nil || *view.Email != "alice@example.com" {
		t.Fatalf("signup returns the private view of the own account")
	}

	stored, err := f.repo.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if stored.PasswordHash == "s3cret-pass" {
		t.Fatalf("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected 1 confirmation mail, got %d", len(f.mailer.sent))
	}
	if len(f.tokens.tokens) != 1 {
		t.Fatalf("expected 1 stored confirmation token, got %d", len(f.tokens.tokens))
	}
}

func TestUserService_Signup_InvalidCaptcha(t *testing.T) {
	f := newUserFixture(false)

	_, err := f.svc.Signup(context.Background(), ports.SignupInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-pass",
		Captcha:  "bad",
	})
	if !errors.Is(err, domain.ErrInvalidCaptcha) {
		t.Fatalf("expected ErrInvalidCaptcha, got %v", err)
	}
	if len(f.repo.users) != 0 {
		t.Fatalf("no account must be created on captcha failure")
	}
}

func TestUserService_Signup_Duplicates(t *testing.T) {
	f := newUserFixture(true)

	first := ports.SignupInput{Username: "alice", Email: "alice@example.com", Password: "s3cret-pass", Captcha: "t"}
	if _, err := f.svc.Signup(context.Background(), first); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}

	_, err := f.svc.Signup(context.Background(), ports.SignupInput{
		Username: "alice", Email: "other@example.com", Password: "s3cret-pass", Captcha: "t",
	})
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	_, err = f.svc.Signup(context.Background(), ports.SignupInput{
		Username: "bob", Email: "alice@example.com", Password: "s3cret-pass", Captcha: "t",
	})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserService_Confirm(t *testing.T) {
	f := newUserFixture(true)

	view, err := f.svc.Signup(context.Background(), ports.SignupInput{
		Username: "alice", Email: "alice@example.com", Password: "s3cret-pass", Captcha: "t",
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	token := f.mailer.sent[0]
	if err := f.svc.Confirm(context.Background(), token); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	stored, _ := f.repo.FindByID(context.Background(), view.ID)
	if !stored.Confirmed {
		t.Fatalf("account not confirmed")
	}

	// single use: the same token must not work twice
	if err := f.svc.Confirm(context.Background(), token); !errors.Is(err, domain.ErrInvalidConfirmationToken) {
		t.Fatalf("expected ErrInvalidConfirmationToken on reuse, got %v", err)
	}
}

func TestUserService_Confirm_BadToken(t *testing.T) {
	f := newUserFixture(true)

	if err := f.svc.Confirm(context.Background(), ""); !errors.Is(err, domain.ErrInvalidConfirmationToken) {
		t.Fatalf("expected ErrInvalidConfirmationToken for empty token, got %v", err)
	}
	if err := f.svc.Confirm(context.Background(), "unknown"); !errors.Is(err, domain.ErrInvalidConfirmationToken) {
		t.Fatalf("expected ErrInvalidConfirmationToken for unknown token, got %v", err)
	}
}

func TestUserService_Confirm_DeletedAccount(t *testing.T) {
	f := newUserFixture(true)

	view, err := f.svc.Signup(context.Background(), ports.SignupInput{
		Username: "alice", Email: "alice@example.com", Password: "s3cret-pass", Captcha: "t",
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if err := f.repo.Delete(context.Background(), view.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	token := f.mailer.sent[0]
	if err := f.svc.Confirm(context.Background(), token); !errors.Is(err, domain.ErrInvalidConfirmationToken) {
		t.Fatalf("expected ErrInvalidConfirmationToken for deleted account, got %v", err)
	}
}

func TestUserService_EnsureAdmin(t *testing.T) {
	f := newUserFixture(true)

	if err := f.svc.EnsureAdmin(context.Background()); err != nil {
		t.Fatalf("ensure admin failed: %v", err)
	}

	admin, err := f.repo.FindByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if admin.Role != domain.RoleAdmin {
		t.Fatalf("admin role = %s", admin.Role)
	}
	if !admin.Confirmed {
		t.Fatalf("bootstrap admin must be confirmed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin-secret")); err != nil {
		t.Fatalf("admin password not set from config: %v", err)
	}

	// second call is a no-op
	if err := f.svc.EnsureAdmin(context.Background()); err != nil {
		t.Fatalf("second ensure admin failed: %v", err)
	}
	if len(f.repo.users) != 1 {
		t.Fatalf("expected 1 account, got %d", len(f.repo.users))
	}
}

func TestUserService_Get_Visibility(t *testing.T) {
	f := newUserFixture(true)

	view, err := f.svc.Signup(context.Background(), ports.SignupInput{
		Username: "alice", Email: "alice@example.com", Password: "s3cret-pass", Captcha: "t",
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	// anonymous and non-owner reads fall back to the public view, never a deny
	got, err := f.svc.Get(context.Background(), nil, view.ID)
	if err != nil {
		t.Fatalf("anonymous get failed: %v", err)
	}
	if got.Email != nil {
		t.Fatalf("anonymous get must not carry email")
	}

	got, err = f.svc.Get(context.Background(), userIdentity("someone-else"), view.ID)
	if err != nil {
		t.Fatalf("non-owner get failed: %v", err)
	}
	if got.Email != nil {
		t.Fatalf("non-owner get must not carry email")
	}

	got, err = f.svc.Get(context.Background(), userIdentity(view.ID), view.ID)
	if err != nil {
		t.Fatalf("owner get failed: %v", err)
	}
	if got.Email == nil {
		t.Fatalf("owner get must carry email")
	}

	got, err = f.svc.Get(context.Background(), adminIdentity("a1"), view.ID)
	if err != nil {
		t.Fatalf("admin get failed: %v", err)
	}
	if got.Email == nil {
		t.Fatalf("admin get must carry email")
	}
}

func TestUserService_Get_NotFound(t *testing.T) {
	f := newUserFixture(true)

	if _, err := f.svc.Get(context.Background(), adminIdentity("a1"), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_List_PublicViews(t *testing.T) {
	f := newUserFixture(true)

	for _, name := range []string{"alice", "bob"} {
		if _, err := f.svc.Signup(context.Background(), ports.SignupInput{
			Username: name, Email: name + "@example.com", Password: "s3cret-pass", Captcha: "t",
		}); err != nil {
			t.Fatalf("signup %s failed: %v", name, err)
		}
	}

	page, err := f.svc.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Page != 1 || page.PerPage != 50 {
		t.Fatalf("pagination not normalized: page=%d perPage=%d", page.Page, page.PerPage)
	}
	if page.Total != 2 || len(page.Data) != 2 {
		t.Fatalf("unexpected page: total=%d len=%d", page.Total, len(page.Data))
	}
	for _, v := range page.Data {
		if v.Email != nil {
			t.Fatalf("list must return public views only")
		}
	}
}

func TestUserService_Create_AdminOnly(t *testing.T) {
	f := newUserFixture(true)

	input := ports.CreateUserInput{
		Username: "mod", Email: "mod@example.com", Password: "s3cret-pass", Role: domain.RoleAdmin,
	}

	if _, err := f.svc.Create(context.Background(), userIdentity("u1"), input); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin, got %v", err)
	}
	if _, err := f.svc.Create(context.Background(), nil, input); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for anonymous, got %v", err)
	}

	view, err := f.svc.Create(context.Background(), adminIdentity("a1"), input)
	if err != nil {
		t.Fatalf("admin create failed: %v", err)
	}
	if view.Role != domain.RoleAdmin {
		t.Fatalf("admin-supplied role not honored: %s", view.Role)
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("created account must receive a confirmation mail")
	}
}

func TestUserService_Create_DefaultRole(t *testing.T) {
	f := newUserFixture(true)

	view, err := f.svc.Create(context.Background(), adminIdentity("a1"), ports.CreateUserInput{
		Username: "carol", Email: "carol@example.com", Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if view.Role != domain.RoleUser {
		t.Fatalf("empty role must default to user, got %s", view.Role)
	}
}

func TestUserService_Patch_OwnerAndForbidden(t *testing.T) {
	f := newUserFixture(true)

	view, err := f.svc.Signup(context.Background(), ports.SignupInput{
		Username: "alice", Email: "alice@example.com", Password: "s3cret-pass", Captcha: "t",
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	newName := "alicia"
	if _, err := f.svc.Patch(context.Background(), userIdentity("intruder"), view.ID, ports.UserPatch{Username: &newName}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner patch, got %v", err)
	}

	patched, err := f.svc.Patch(context.Background(), userIdentity(view.ID), view.ID, ports.UserPatch{Username: &newName})
	if err != nil {
		t.Fatalf("owner patch failed: %v", err)
	}
	if patched.Username != "alicia" {
		t.Fatalf("username not updated: %s", patched.Username)
	}
}

func TestUserService_Patch_RoleSilentlyIgnored(t *testing.T) {
	f := newUserFixture(true)

	view, err := f.svc.Signup(context.Background(), ports.SignupInput{
		Username: "alice", Email: "alice@example.com", Password: "s3cret-pass", Captcha: "t",
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	admin := domain.RoleAdmin
	patched, err := f.svc.Patch(context.Background(), userIdentity(view.ID), view.ID, ports.UserPatch{Role: &admin})
	if err != nil {
		t.Fatalf("patch must succeed, the role field is ignored: %v", err)
	}
	if patched.Role != domain.RoleUser {
		t.Fatalf("non-admin role escalation: %s", patched.Role)
	}

	patched, err = f.svc.Patch(context.Background(), adminIdentity("a1"), view.ID, ports.UserPatch{Role: &admin})
	if err != nil {
		t.Fatalf("admin patch failed: %v", err)
	}
	if patched.Role != domain.RoleAdmin {
		t.Fatalf("admin role change not honored: %s", patched.Role)
	}
}

func TestUserService_Patch_UsernameConflict(t *testing.T) {
	f := newUserFixture(true)

	if _, err := f.svc.Signup(context.Background(), ports.SignupInput{
		Username: "alice", Email: "alice@example.com", Password: "s3cret-pass", Captcha: "t",
	}); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	view, err := f.svc.Signup(context.Background(), ports.SignupInput{
		Username: "bob", Email: "bob@example.com", Password: "s3cret-pass", Captcha: "t",
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	taken := "alice"
	if _, err := f.svc.Patch(context.Background(), userIdentity(view.ID), view.ID, ports.UserPatch{Username: &taken}); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	takenMail := "alice@example.com"
	if _, err := f.svc.Patch(context.Background(), userIdentity(view.ID), view.ID, ports.UserPatch{Email: &takenMail}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserService_Patch_Password(t *testing.T) {
	f := newUserFixture(true)

	view, err := f.svc.Signup(context.Background(), ports.SignupInput{
		Username: "alice", Email: "alice@example.com", Password: "old-password", Captcha: "t",
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	newPass := "new-password"
	if _, err := f.svc.Patch(context.Background(), userIdentity(view.ID), view.ID, ports.UserPatch{Password: &newPass}); err != nil {
		t.Fatalf("patch failed: %v", err)
	}

	stored, _ := f.repo.FindByID(context.Background(), view.ID)
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("new-password")); err != nil {
		t.Fatalf("password not re-hashed: %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	f := newUserFixture(true)

	view, err := f.svc.Signup(context.Background(), ports.SignupInput{
		Username: "alice", Email: "alice@example.com", Password: "s3cret-pass", Captcha: "t",
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	if err := f.svc.Delete(context.Background(), userIdentity("intruder"), view.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner delete, got %v", err)
	}
	if err := f.svc.Delete(context.Background(), userIdentity(view.ID), view.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if _, err := f.repo.FindByID(context.Background(), view.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("account not deleted")
	}
}

func TestUserService_Delete_NotFound(t *testing.T) {
	f := newUserFixture(true)

	if err := f.svc.Delete(context.Background(), adminIdentity("a1"), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
