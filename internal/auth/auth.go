// Package auth owns the GitHub OAuth flow and the signed session contract.
// Sessions are stateless: the cookie is an HS256 JWT carrying the GitHub user
// id, login, and the access token used for starred-repo API calls.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

// SessionCookie is the cookie name carrying the signed session token.
const SessionCookie = "session"

const sessionTTL = 7 * 24 * time.Hour

// Session is the resolved identity of a signed-in user.
type Session struct {
	UserID      string // numeric GitHub user id, decimal string
	Login       string
	AccessToken string
}

// Service issues and verifies sessions and drives the OAuth code exchange.
type Service struct {
	oauth  *oauth2.Config
	secret []byte
}

// NewService validates the OAuth app credentials and session secret. A
// missing credential is a configuration error at first use.
func NewService(clientID, clientSecret, redirectURL, sessionSecret string) (*Service, error) {
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are not set")
	}
	if sessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is not set")
	}

	return &Service{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "public_repo"},
			Endpoint:     githuboauth.Endpoint,
		},
		secret: []byte(sessionSecret),
	}, nil
}

// AuthCodeURL builds the GitHub authorize URL for the given CSRF state.
func (s *Service) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// Exchange swaps an OAuth authorization code for an access token.
func (s *Service) Exchange(ctx context.Context, code string) (string, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("oauth code exchange failed: %w", err)
	}
	return token.AccessToken, nil
}

type sessionClaims struct {
	Login       string `json:"login"`
	AccessToken string `json:"accessToken"`
	jwt.RegisteredClaims
}

// IssueSession signs a session token for the given identity.
func (s *Service) IssueSession(userID, login, accessToken string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Login:       login,
		AccessToken: accessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseSession verifies a session token and returns the identity it carries.
func (s *Service) ParseSession(token string) (Session, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return Session{}, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return Session{}, errors.New("invalid session token")
	}

	return Session{
		UserID:      claims.Subject,
		Login:       claims.Login,
		AccessToken: claims.AccessToken,
	}, nil
}
