package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService("client-id", "client-secret", "http://localhost:8080/auth/callback", "test-secret")
	require.NoError(t, err)
	return svc
}

func TestNewService_MissingCredentials(t *testing.T) {
	_, err := NewService("", "", "http://localhost/cb", "secret")
	assert.Error(t, err)

	_, err = NewService("id", "secret", "http://localhost/cb", "")
	assert.Error(t, err)
}

func TestSession_RoundTrip(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.IssueSession("583231", "octocat", "gho_access")
	require.NoError(t, err)

	sess, err := svc.ParseSession(token)
	require.NoError(t, err)
	assert.Equal(t, "583231", sess.UserID)
	assert.Equal(t, "octocat", sess.Login)
	assert.Equal(t, "gho_access", sess.AccessToken)
}

func TestParseSession_RejectsWrongSecret(t *testing.T) {
	token, err := newTestService(t).IssueSession("1", "a", "tok")
	require.NoError(t, err)

	other, err := NewService("client-id", "client-secret", "http://localhost/cb", "another-secret")
	require.NoError(t, err)

	_, err = other.ParseSession(token)
	assert.Error(t, err)
}

func TestParseSession_RejectsGarbage(t *testing.T) {
	_, err := newTestService(t).ParseSession("not.a.jwt")
	assert.Error(t, err)
}

func TestAuthCodeURL_CarriesState(t *testing.T) {
	url := newTestService(t).AuthCodeURL("xyzzy")
	assert.Contains(t, url, "state=xyzzy")
	assert.Contains(t, url, "client_id=client-id")
}
