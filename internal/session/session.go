package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/portal/internal/config"
)

// Session is the caller context every portal view is built against. It is
// passed explicitly instead of being looked up from ambient state.
type Session struct {
	UserID string
	Token  string

	// scope overrides UserID as the cache scope when the identity claim
	// could not be verified.
	scope string
}

// Scope returns the cache scope for the session's resources. Sessions from
// unverified tokens are scoped by the token itself, so a forged claim never
// reaches another customer's cached collections.
func (s Session) Scope() string {
	if s.scope != "" {
		return s.scope
	}
	return s.UserID
}

// Verified reports whether the identity was checked against the signing key.
func (s Session) Verified() bool {
	return s.scope == ""
}

func tokenScope(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "token-" + hex.EncodeToString(sum[:])
}

// ErrMissingToken is returned when no bearer token accompanies a request.
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken is returned when the bearer token cannot be verified.
var ErrInvalidToken = errors.New("invalid bearer token")

type ctxKey struct{}

// WithContext stores s on ctx.
func WithContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext extracts the session stored by WithContext.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// Module provides the bearer token verifier.
var Module = fx.Provide(NewVerifier)

// Verifier turns bearer tokens into sessions.
type Verifier struct {
	secret    []byte
	issuer    string
	parser    *jwt.Parser
	validator *jwt.Validator
	logger    *zap.Logger
}

// NewVerifier builds a Verifier. Without a secret, signatures are not checked;
// expiry and issuer still are, and the resulting sessions are scoped by token
// so the backend stays the authority on whose data is returned.
func NewVerifier(cfg config.Config, logger *zap.Logger) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Auth.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Auth.JWTIssuer))
	}
	if cfg.Auth.JWTSecret == "" && logger != nil {
		logger.Warn("AUTH_JWT_SECRET not set; bearer tokens are decoded without verification")
	}
	return &Verifier{
		secret:    []byte(cfg.Auth.JWTSecret),
		issuer:    cfg.Auth.JWTIssuer,
		parser:    jwt.NewParser(opts...),
		validator: jwt.NewValidator(opts...),
		logger:    logger,
	}
}

// FromAuthorization parses an Authorization header value.
func (v *Verifier) FromAuthorization(header string) (Session, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return Session{}, ErrMissingToken
	}
	return v.FromToken(strings.TrimSpace(token))
}

// FromToken validates token and extracts the user identity.
func (v *Verifier) FromToken(token string) (Session, error) {
	if token == "" {
		return Session{}, ErrMissingToken
	}

	claims := jwt.MapClaims{}
	verified := len(v.secret) > 0
	if !verified {
		if _, _, err := v.parser.ParseUnverified(token, claims); err != nil {
			return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		if err := v.validator.Validate(claims); err != nil {
			return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	} else {
		_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
			return v.secret, nil
		})
		if err != nil {
			return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	userID := userIDFromClaims(claims)
	if userID == "" {
		return Session{}, fmt.Errorf("%w: no user id claim", ErrInvalidToken)
	}
	sess := Session{UserID: userID, Token: token}
	if !verified {
		sess.scope = tokenScope(token)
	}
	return sess, nil
}

func userIDFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"userId", "id", "sub"} {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
