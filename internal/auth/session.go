// AngelaMos | 2026
// session.go

package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/templates/postboard/internal/authz"
	"github.com/carterperez-dev/templates/postboard/internal/config"
	"github.com/carterperez-dev/templates/postboard/internal/core"
)

const sessionTokenType = "session"

// RevocationStore records revoked session ids until they would have expired.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// SessionManager issues and verifies ES256 signed session tokens.
type SessionManager struct {
	privateKey jwk.Key
	publicKey  jwk.Key
	publicJWKS jwk.Set
	config     config.SessionConfig
	revoked    RevocationStore
	now        func() time.Time
}

func NewSessionManager(
	cfg config.SessionConfig,
	revoked RevocationStore,
) (*SessionManager, error) {
	privateKeyPEM, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read session key: %w", err)
	}

	privateKey, err := jwk.ParseKey(privateKeyPEM, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse session key: %w", err)
	}

	if setErr := privateKey.Set(jwk.AlgorithmKey, jwa.ES256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	if setErr := privateKey.Set(jwk.KeyIDKey, uuid.New().String()[:8]); setErr != nil {
		return nil, fmt.Errorf("set key id: %w", setErr)
	}

	publicKey, err := privateKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	if setErr := publicKey.Set(jwk.KeyUsageKey, "sig"); setErr != nil {
		return nil, fmt.Errorf("set key usage: %w", setErr)
	}

	publicJWKS := jwk.NewSet()
	if addErr := publicJWKS.AddKey(publicKey); addErr != nil {
		return nil, fmt.Errorf("add key to set: %w", addErr)
	}

	return &SessionManager{
		privateKey: privateKey,
		publicKey:  publicKey,
		publicJWKS: publicJWKS,
		config:     cfg,
		revoked:    revoked,
		now:        time.Now,
	}, nil
}

// GenerateKeyPair writes a fresh P-256 key pair as PEM files.
func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	jwkPrivate, err := jwk.Import(privateKey)
	if err != nil {
		return fmt.Errorf("import private key: %w", err)
	}

	privatePEM, err := jwk.Pem(jwkPrivate)
	if err != nil {
		return fmt.Errorf("encode private key: %w", err)
	}

	if writeErr := os.WriteFile(privateKeyPath, privatePEM, 0o600); writeErr != nil {
		return fmt.Errorf("write private key: %w", writeErr)
	}

	if publicKeyPath == "" {
		return nil
	}

	jwkPublic, err := jwkPrivate.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	publicPEM, err := jwk.Pem(jwkPublic)
	if err != nil {
		return fmt.Errorf("encode public key: %w", err)
	}

	//nolint:gosec // G306: public key is intentionally world-readable
	if writeErr := os.WriteFile(publicKeyPath, publicPEM, 0o644); writeErr != nil {
		return fmt.Errorf("write public key: %w", writeErr)
	}

	return nil
}

func (m *SessionManager) Issue(identity authz.Identity) (Session, error) {
	if !identity.IsAuthenticated() {
		return Session{}, core.Invalid("issue session", "user_id", "is required")
	}

	now := m.now()
	expiresAt := now.Add(m.config.TTL)
	jti := uuid.New().String()

	token, err := jwt.NewBuilder().
		JwtID(jti).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(identity.UserID).
		IssuedAt(now).
		Expiration(expiresAt).
		NotBefore(now).
		Claim("role", identity.Role).
		Claim("type", sessionTokenType).
		Build()
	if err != nil {
		return Session{}, fmt.Errorf("build session token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), m.privateKey))
	if err != nil {
		return Session{}, fmt.Errorf("sign session token: %w", err)
	}

	return Session{
		ID:        jti,
		Token:     string(signed),
		ExpiresAt: expiresAt,
	}, nil
}

// VerifySession checks signature, issuer, audience, expiry and revocation.
func (m *SessionManager) VerifySession(
	ctx context.Context,
	tokenString string,
) (authz.Identity, error) {
	token, err := m.parse(tokenString)
	if err != nil {
		return authz.Identity{}, err
	}

	jti, _ := token.JwtID()
	revoked, err := m.revoked.IsRevoked(ctx, jti)
	if err != nil {
		return authz.Identity{}, fmt.Errorf("verify session: %w", err)
	}
	if revoked {
		return authz.Identity{}, fmt.Errorf("verify session: %w", core.ErrTokenRevoked)
	}

	subject, _ := token.Subject()

	var role string
	if err := token.Get("role", &role); err != nil {
		return authz.Identity{}, fmt.Errorf(
			"verify session: missing role claim: %w",
			core.ErrTokenInvalid,
		)
	}

	return authz.Identity{
		UserID:    subject,
		Role:      role,
		SessionID: jti,
	}, nil
}

// Revoke invalidates tokenString for the rest of its lifetime.
func (m *SessionManager) Revoke(ctx context.Context, tokenString string) error {
	token, err := m.parse(tokenString)
	if err != nil {
		return err
	}

	jti, _ := token.JwtID()
	expiresAt, _ := token.Expiration()

	return m.revoked.Revoke(ctx, jti, expiresAt.Sub(m.now()))
}

func (m *SessionManager) parse(tokenString string) (jwt.Token, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.ES256(), m.publicKey),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify session: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify session: %w", core.ErrTokenInvalid)
	}

	var tokenType string
	if err := token.Get("type", &tokenType); err != nil ||
		tokenType != sessionTokenType {
		return nil, fmt.Errorf(
			"verify session: invalid token type: %w",
			core.ErrTokenInvalid,
		)
	}

	if subject, ok := token.Subject(); !ok || subject == "" {
		return nil, fmt.Errorf(
			"verify session: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	if jti, ok := token.JwtID(); !ok || jti == "" {
		return nil, fmt.Errorf(
			"verify session: missing jti: %w",
			core.ErrTokenInvalid,
		)
	}

	return token, nil
}

func isTokenExpiredError(err error) bool {
	return errors.Is(err, jwt.TokenExpiredError())
}

func (m *SessionManager) TTL() time.Duration {
	return m.config.TTL
}

func (m *SessionManager) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if err := json.NewEncoder(w).Encode(m.publicJWKS); err != nil {
			http.Error(
				w,
				"Internal Server Error",
				http.StatusInternalServerError,
			)
			return
		}
	}
}
