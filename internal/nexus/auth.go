package nexus

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hrnexus/nexus-web-ui/internal/models"
)

// Session is the authenticated context handed to every page handler. Role and organization
// are decoded from the access token exactly once, here at the auth boundary; presentation
// code reads this value and never touches the raw credential. The decode is a UI convenience,
// not a security check: the backend validates the token on every call.
type Session struct {
	Token          string
	Email          string
	UserID         string
	OrganizationID string
	Role           models.MemberRole
	ExpiresAt      time.Time
}

// Expired reports whether the access token's lifetime has passed. Tokens without an exp
// claim never expire client-side.
func (s Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// SignupRequest registers a new organization together with its first admin user.
type SignupRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	FullName         string `json:"full_name,omitempty"`
	OrganizationName string `json:"organization_name,omitempty"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type tokenClaims struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"`
	jwt.RegisteredClaims
}

// Login exchanges credentials for an access token and returns the decoded session.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var res tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", credentials{Email: email, Password: password}, &res); err != nil {
		return Session{}, err
	}
	return SessionFromToken(res.AccessToken)
}

// Signup registers a new organization and admin account, returning an already-authenticated
// session for it.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (Session, error) {
	var res tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", "", req, &res); err != nil {
		return Session{}, err
	}
	return SessionFromToken(res.AccessToken)
}

// VerifyEmail redeems an emailed verification token.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodGet, "/auth/verify/"+url.PathEscape(token), "", nil, nil)
}

// SessionFromToken decodes the claims the backend placed in the access token. The signature
// is deliberately not checked: this process holds no signing secret, and nothing here grants
// access the backend wouldn't re-verify.
func SessionFromToken(token string) (Session, error) {
	claims := tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Session{}, fmt.Errorf("error parsing access token: %w", err)
	}

	s := Session{
		Token:          token,
		Email:          claims.Subject,
		UserID:         claims.UserID,
		OrganizationID: claims.OrganizationID,
		Role:           models.MemberRole(claims.Role),
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}
