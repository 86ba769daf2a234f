package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	registerArgs []string
	loginArgs    []string
	token        string
	closed       bool
	err          error
	profile      *client.Profile
}

func (f *fakeClient) Register(_ context.Context, fullName, email, password, role string) (string, error) {
	f.registerArgs = []string{fullName, email, password, role}
	if f.err != nil {
		return "", f.err
	}
	return "reg-token", nil
}

func (f *fakeClient) Login(_ context.Context, email, password string) (string, error) {
	f.loginArgs = []string{email, password}
	if f.err != nil {
		return "", f.err
	}
	return "login-token", nil
}

func (f *fakeClient) Profile(context.Context) (*client.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func (f *fakeClient) SetAccessToken(token string) { f.token = token }
func (f *fakeClient) Close() error                { f.closed = true; return nil }

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) { return []byte(pw), nil }
}

func testApp(t *testing.T, fc *fakeClient, input string) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{TokenFile: filepath.Join(t.TempDir(), "token")}
	var out bytes.Buffer
	return newApp(cfg, fc, strings.NewReader(input), &out), &out
}

func TestRun_Register(t *testing.T) {
	stubPassword(t, "pw123")
	fc := &fakeClient{}
	app, out := testApp(t, fc, "Ada Lovelace\nada@example.com\n\n")

	require.NoError(t, app.Run(context.Background(), []string{"-a", "h:1", "register"}))

	assert.Equal(t, []string{"Ada Lovelace", "ada@example.com", "pw123", ""}, fc.registerArgs)
	assert.True(t, fc.closed)
	assert.Contains(t, out.String(), "Registered")

	data, err := os.ReadFile(app.config.TokenFile)
	require.NoError(t, err)
	assert.Equal(t, "reg-token\n", string(data))
}

func TestRun_LoginThenProfile(t *testing.T) {
	stubPassword(t, "pw123")
	fc := &fakeClient{profile: &client.Profile{UserID: "u1", Email: "ada@example.com", Role: "User", IsActive: true}}
	app, out := testApp(t, fc, "ada@example.com\n")
	ctx := context.Background()

	require.NoError(t, app.Login(ctx))
	assert.Equal(t, []string{"ada@example.com", "pw123"}, fc.loginArgs)

	require.NoError(t, app.Profile(ctx))
	assert.Equal(t, "login-token", fc.token)
	assert.Contains(t, out.String(), "User ID:    u1")
	assert.NotContains(t, out.String(), "Last login")
}

func TestProfile_NoSavedToken(t *testing.T) {
	app, _ := testApp(t, &fakeClient{}, "")
	assert.ErrorIs(t, app.Profile(context.Background()), client.ErrNoToken)
}

func TestLogin_ErrorDoesNotSaveToken(t *testing.T) {
	stubPassword(t, "bad")
	fc := &fakeClient{err: client.ErrUnauthorized}
	app, _ := testApp(t, fc, "ada@example.com\n")

	assert.ErrorIs(t, app.Login(context.Background()), client.ErrUnauthorized)
	_, err := os.Stat(app.config.TokenFile)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLogout(t *testing.T) {
	app, out := testApp(t, &fakeClient{}, "")
	require.NoError(t, saveToken(app.config.TokenFile, "tok"))

	require.NoError(t, app.Run(context.Background(), []string{"logout"}))
	assert.Contains(t, out.String(), "Logged out")
	_, err := loadToken(app.config.TokenFile)
	assert.ErrorIs(t, err, client.ErrNoToken)

	require.NoError(t, app.Logout())
}

func TestRun_UnknownAndEmpty(t *testing.T) {
	app, out := testApp(t, &fakeClient{}, "")
	assert.ErrorIs(t, app.Run(context.Background(), []string{"dance"}), ErrUnknownCommand)
	assert.Contains(t, out.String(), "usage:")

	app, _ = testApp(t, &fakeClient{}, "")
	assert.NoError(t, app.Run(context.Background(), nil))
}

func TestCommand(t *testing.T) {
	assert.Equal(t, "login", command([]string{"-a", "h:1", "-t=3", "login"}))
	assert.Equal(t, "", command([]string{"-a", "h:1"}))
	assert.Equal(t, "profile", command([]string{"profile", "-a", "x"}))
}
