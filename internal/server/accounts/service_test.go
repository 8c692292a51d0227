package accounts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkovs/runbase/internal/common"
	"github.com/avolkovs/runbase/internal/security"
	"github.com/avolkovs/runbase/internal/server/auth"
	"github.com/avolkovs/runbase/internal/server/authtokens"
	"github.com/avolkovs/runbase/internal/server/config"
)

// --- fakes ---

type fakeRepo struct {
	byID    map[string]*User
	byEmail map[string]*User

	createErr error
	taken     bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[string]*User{}, byEmail: map[string]*User{}}
}

func (f *fakeRepo) put(u *User) {
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
}

func (f *fakeRepo) Create(ctx context.Context, user *User) (*User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[user.Email]; ok {
		return nil, common.ErrorEmailTaken
	}
	user.ID = "u-" + user.Email
	user.DateJoined = time.Now()
	f.put(user)
	return user, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRepo) EmailTaken(ctx context.Context, email, excludeUserID string) (bool, error) {
	return f.taken, nil
}

func (f *fakeRepo) Update(ctx context.Context, id string, params UpdateParams) (*User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if params.Email != nil {
		delete(f.byEmail, u.Email)
		u.Email = *params.Email
		f.byEmail[u.Email] = u
	}
	if params.FirstName != nil {
		u.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		u.LastName = *params.LastName
	}
	if params.FullName != nil {
		u.FullName = *params.FullName
	}
	if params.PreferredName != nil {
		u.PreferredName = *params.PreferredName
	}
	return u, nil
}

func (f *fakeRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.LastLogin = &at
	return nil
}

type fakeTokens struct {
	byKey    map[string]*authtokens.Token
	byUser   map[string]*authtokens.Token
	issueErr error
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{byKey: map[string]*authtokens.Token{}, byUser: map[string]*authtokens.Token{}}
}

func (f *fakeTokens) GetOrCreate(ctx context.Context, userID string) (*authtokens.Token, error) {
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	if t, ok := f.byUser[userID]; ok {
		return t, nil
	}
	key, err := common.MakeRandHexString(20)
	if err != nil {
		return nil, err
	}
	t := &authtokens.Token{Key: key, UserID: userID, CreatedAt: time.Now()}
	f.byKey[key] = t
	f.byUser[userID] = t
	return t, nil
}

func (f *fakeTokens) GetByKey(ctx context.Context, key string) (*authtokens.Token, error) {
	if t, ok := f.byKey[key]; ok {
		return t, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeTokens) Delete(ctx context.Context, key string) error {
	if _, ok := f.byKey[key]; !ok {
		return common.ErrorNotFound
	}
	t := f.byKey[key]
	delete(f.byKey, key)
	delete(f.byUser, t.UserID)
	return nil
}

type fakeMailer struct {
	to      []string
	subject string
	body    string
	sendErr error
	calls   int
}

func (f *fakeMailer) Send(to []string, subject, body string) error {
	f.calls++
	f.to = to
	f.subject = subject
	f.body = body
	return f.sendErr
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *fakeTokens, *fakeMailer) {
	t.Helper()
	repo := newFakeRepo()
	tokens := newFakeTokens()
	mailer := &fakeMailer{}
	cfg := &config.Config{
		SecretKey:                  "test-secret",
		ResetTokenValidityDuration: time.Hour,
	}
	return NewService(repo, tokens, mailer, cfg), repo, tokens, mailer
}

func mustRegister(t *testing.T, s *Service, email, password string) (*User, string) {
	t.Helper()
	u, key, err := s.Register(context.Background(), email, password, "")
	require.NoError(t, err)
	return u, key
}

// --- tests ---

func TestRegister_Success(t *testing.T) {
	s, repo, _, _ := newTestService(t)
	ctx := context.Background()

	user, key, err := s.Register(ctx, " TestUser@Example.com ", "testpassword123", "Test User")
	require.NoError(t, err)

	assert.Equal(t, "testuser@example.com", user.Email)
	assert.Equal(t, "Test", user.FirstName)
	assert.Equal(t, "User", user.LastName)
	assert.Equal(t, "Test User", user.FullName)
	assert.True(t, user.IsActive)
	assert.Len(t, key, 40)

	ok, err := security.VerifyPassword("testpassword123", repo.byID[user.ID].PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s, _, _, _ := newTestService(t)
	ctx := context.Background()

	mustRegister(t, s, "testuser@example.com", "testpassword123")

	_, _, err := s.Register(ctx, "testuser@example.com", "otherpassword", "")
	assert.ErrorIs(t, err, common.ErrorEmailTaken)
}

func TestLogin_Success(t *testing.T) {
	s, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, registeredKey := mustRegister(t, s, "testuser@example.com", "testpassword123")

	user, key, err := s.Login(ctx, "testuser@example.com", "testpassword123")
	require.NoError(t, err)

	assert.Equal(t, registeredKey, key, "login should return the existing token")
	require.NotNil(t, user.LastLogin)
	assert.WithinDuration(t, time.Now(), *user.LastLogin, time.Minute)
}

func TestLogin_WrongPassword(t *testing.T) {
	s, _, _, _ := newTestService(t)
	ctx := context.Background()

	mustRegister(t, s, "testuser@example.com", "testpassword123")

	_, _, err := s.Login(ctx, "testuser@example.com", "wrongpassword")
	assert.ErrorIs(t, err, common.ErrorInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	s, _, _, _ := newTestService(t)

	_, _, err := s.Login(context.Background(), "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, common.ErrorInvalidCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	s, repo, _, _ := newTestService(t)
	ctx := context.Background()

	u, _ := mustRegister(t, s, "inactive@example.com", "testpassword123")
	repo.byID[u.ID].IsActive = false

	_, _, err := s.Login(ctx, "inactive@example.com", "testpassword123")
	assert.ErrorIs(t, err, common.ErrorInactiveUser)
}

func TestLogout_RevokesToken(t *testing.T) {
	s, _, tokens, _ := newTestService(t)
	ctx := context.Background()

	_, key := mustRegister(t, s, "testuser@example.com", "testpassword123")

	require.NoError(t, s.Logout(ctx, key))
	_, ok := tokens.byKey[key]
	assert.False(t, ok)

	assert.ErrorIs(t, s.Logout(ctx, key), common.ErrInvalidToken)
}

func TestAuthenticate(t *testing.T) {
	s, repo, _, _ := newTestService(t)
	ctx := context.Background()

	u, key := mustRegister(t, s, "testuser@example.com", "testpassword123")

	got, err := s.Authenticate(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Authenticate(ctx, "invalidtoken123")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	repo.byID[u.ID].IsActive = false
	_, err = s.Authenticate(ctx, key)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestUpdateUser_EmailUniquenessChecked(t *testing.T) {
	s, repo, _, _ := newTestService(t)
	ctx := context.Background()

	u, _ := mustRegister(t, s, "testuser@example.com", "testpassword123")

	repo.taken = true
	email := "other@example.com"
	_, err := s.UpdateUser(ctx, u.ID, UpdateParams{Email: &email})
	assert.ErrorIs(t, err, common.ErrorEmailTaken)

	repo.taken = false
	got, err := s.UpdateUser(ctx, u.ID, UpdateParams{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "other@example.com", got.Email)
}

func TestUpdateUser_Names(t *testing.T) {
	s, _, _, _ := newTestService(t)
	ctx := context.Background()

	u, _ := mustRegister(t, s, "testuser@example.com", "testpassword123")

	first, last := "Updated", "Name"
	got, err := s.UpdateUser(ctx, u.ID, UpdateParams{FirstName: &first, LastName: &last})
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.FirstName)
	assert.Equal(t, "Name", got.LastName)
}

func TestChangePassword(t *testing.T) {
	s, repo, _, _ := newTestService(t)
	ctx := context.Background()

	u, _ := mustRegister(t, s, "testuser@example.com", "testpassword123")

	err := s.ChangePassword(ctx, u.ID, "wrongpassword", "newpassword456")
	assert.ErrorIs(t, err, common.ErrorPasswordMismatch)

	require.NoError(t, s.ChangePassword(ctx, u.ID, "testpassword123", "newpassword456"))

	ok, err := security.VerifyPassword("newpassword456", repo.byID[u.ID].PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRequestPasswordReset_SendsToken(t *testing.T) {
	s, _, _, mailer := newTestService(t)
	ctx := context.Background()

	u, _ := mustRegister(t, s, "testuser@example.com", "testpassword123")

	require.NoError(t, s.RequestPasswordReset(ctx, "testuser@example.com"))
	require.Equal(t, 1, mailer.calls)
	assert.Equal(t, []string{"testuser@example.com"}, mailer.to)

	// The mail body must contain a token that actually resolves back to
	// the user.
	lines := strings.Fields(mailer.body)
	var token string
	for _, l := range lines {
		if strings.Count(l, ".") == 2 {
			token = l
			break
		}
	}
	require.NotEmpty(t, token, "no token found in mail body: %s", mailer.body)

	userID, err := auth.GetUserIDFromResetToken(token, []byte("test-secret"))
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
}

func TestRequestPasswordReset_UnknownEmailSilent(t *testing.T) {
	s, _, _, mailer := newTestService(t)

	require.NoError(t, s.RequestPasswordReset(context.Background(), "ghost@example.com"))
	assert.Zero(t, mailer.calls)
}

func TestConfirmPasswordReset(t *testing.T) {
	s, repo, _, _ := newTestService(t)
	ctx := context.Background()

	u, _ := mustRegister(t, s, "testuser@example.com", "testpassword123")

	token, err := auth.GenerateResetToken(u.ID, []byte("test-secret"), time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.ConfirmPasswordReset(ctx, token, "newpassword456"))

	ok, err := security.VerifyPassword("newpassword456", repo.byID[u.ID].PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConfirmPasswordReset_BadToken(t *testing.T) {
	s, _, _, _ := newTestService(t)

	err := s.ConfirmPasswordReset(context.Background(), "garbage", "newpassword456")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestCreateSuperuser(t *testing.T) {
	s, _, _, _ := newTestService(t)

	u, err := s.CreateSuperuser(context.Background(), "admin@example.com", "secret123")
	require.NoError(t, err)
	assert.True(t, u.IsStaff)
	assert.True(t, u.IsSuperuser)
	assert.True(t, u.IsActive)
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in          string
		first, last string
	}{
		{"", "", ""},
		{"Plato", "Plato", ""},
		{"Test User", "Test", "User"},
		{"Anna Maria van der Berg", "Anna", "Maria van der Berg"},
	}
	for _, tt := range tests {
		first, last := splitName(tt.in)
		assert.Equal(t, tt.first, first, "input %q", tt.in)
		assert.Equal(t, tt.last, last, "input %q", tt.in)
	}
}

func TestShortName(t *testing.T) {
	u := &User{FullName: "Test User"}
	assert.Equal(t, "Test", u.ShortName())

	u.PreferredName = "Tester"
	assert.Equal(t, "Tester", u.ShortName())

	assert.Equal(t, "", (&User{}).ShortName())
}

func TestLogin_TokenIssueFailure(t *testing.T) {
	s, _, tokens, _ := newTestService(t)
	ctx := context.Background()

	mustRegister(t, s, "testuser@example.com", "testpassword123")
	tokens.byUser = map[string]*authtokens.Token{}
	tokens.byKey = map[string]*authtokens.Token{}
	tokens.issueErr = errors.New("db down")

	_, _, err := s.Login(ctx, "testuser@example.com", "testpassword123")
	assert.ErrorIs(t, err, common.ErrorInternal)
}
