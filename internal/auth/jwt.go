// Package auth holds the credential store (bcrypt), the token service (JWT)
// and the HTTP authorization gate built on top of them.
//
// TOKEN NAMESPACES:
// Admins and users get tokens from the same TokenService and secret, but every
// token carries its scope in the "aud" claim. Validate is always called with
// the scope the route expects, so a user token never opens an admin route and
// the other way round.
//
//	HEADER.PAYLOAD.SIGNATURE
//	payload: {"iss":"eventhub","sub":"<id>","aud":["user"],"email":"...","iat":...,"exp":...}
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "eventhub"

// Token lifetimes per scope.
const (
	AdminTokenTTL = 24 * time.Hour
	UserTokenTTL  = 7 * 24 * time.Hour
)

// Scope names the namespace a token was issued for.
type Scope string

const (
	ScopeAdmin Scope = "admin"
	ScopeUser  Scope = "user"
)

var (
	// ErrTokenMalformed means the string is not a decodable JWT.
	ErrTokenMalformed = errors.New("auth: token malformed")
	// ErrTokenExpired means the token was valid but its exp has passed.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenInvalid covers a bad signature, wrong scope or issuer, or
	// missing subject.
	ErrTokenInvalid = errors.New("auth: token invalid")
)

// Identity is the claim a token proves. Username is set on admin tokens,
// Email on user tokens.
type Identity struct {
	ID       string
	Username string
	Email    string
}

type claims struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 session tokens.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService rejects secrets shorter than 16 characters.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for id with the given scope and lifetime.
func (s *TokenService) Issue(id Identity, scope Scope, ttl time.Duration) (string, error) {
	if id.ID == "" {
		return "", errors.New("auth: cannot issue a token without a subject")
	}
	now := s.now()

	c := claims{
		Username: id.Username,
		Email:    id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.ID,
			Audience:  jwt.ClaimStrings{string(scope)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// IssueUser issues a 7-day user session token.
func (s *TokenService) IssueUser(userID, email string) (string, error) {
	return s.Issue(Identity{ID: userID, Email: email}, ScopeUser, UserTokenTTL)
}

// IssueAdmin issues a 1-day admin token.
func (s *TokenService) IssueAdmin(adminID, username string) (string, error) {
	return s.Issue(Identity{ID: adminID, Username: username}, ScopeAdmin, AdminTokenTTL)
}

// Validate verifies tokenStr and checks it was issued for expected.
//
// The returned error is always one of ErrTokenMalformed, ErrTokenExpired or
// ErrTokenInvalid (wrapped), so callers can pick a message with errors.Is.
func (s *TokenService) Validate(tokenStr string, expected Scope) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(string(expected)),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Identity{}, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return Identity{}, ErrTokenExpired
		default:
			return Identity{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
		}
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, ErrTokenInvalid
	}
	if c.Subject == "" {
		return Identity{}, fmt.Errorf("%w: no subject", ErrTokenInvalid)
	}

	return Identity{ID: c.Subject, Username: c.Username, Email: c.Email}, nil
}
