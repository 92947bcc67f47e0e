package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"friendsvc/internal/config"
)

// Purpose scopes a token to what it may be used for. Session tokens drive the
// authenticated routes; reset tokens are only proof that an OTP was verified
// and are rejected everywhere else.
type Purpose string

const (
	PurposeSession Purpose = "session"
	PurposeReset   Purpose = "password_reset"
)

// ResetTokenTTL bounds how long a verified OTP may be acted on.
const ResetTokenTTL = 10 * time.Minute

// Claims is the verified content of a token.
type Claims struct {
	UserID    uuid.UUID
	TokenID   uuid.UUID
	Purpose   Purpose
	ExpiresAt time.Time
}

// Remaining returns the token's remaining lifetime, zero if it never expires.
func (c Claims) Remaining() time.Duration {
	if c.ExpiresAt.IsZero() {
		return 0
	}
	return time.Until(c.ExpiresAt)
}

// Keys holds the ed25519 pair used to sign and verify tokens, plus the
// configured session lifetime.
type Keys struct {
	private    ed25519.PrivateKey
	public     ed25519.PublicKey
	sessionTTL time.Duration
}

// NewKeys generates a fresh key pair. Tokens do not survive a restart, which
// matches the session model: there is no durable session store to leak.
func NewKeys() (*Keys, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key pair: %w", err)
	}
	return &Keys{private: priv, public: pub, sessionTTL: sessionTTLFromEnv()}, nil
}

// NewKeysFromFiles loads a persisted key pair so tokens stay valid across
// deploys.
func NewKeysFromFiles(privatePath, publicPath string) (*Keys, error) {
	priv, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	pub, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	return &Keys{
		private:    ed25519.PrivateKey(priv),
		public:     ed25519.PublicKey(pub),
		sessionTTL: sessionTTLFromEnv(),
	}, nil
}

// sessionTTLFromEnv parses TOKEN_EXPIRE_TIME ("72h", "never"). Default 72h.
func sessionTTLFromEnv() time.Duration {
	raw := config.Getenv("TOKEN_EXPIRE_TIME", "72h")
	if raw == "never" || raw == "0" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 72 * time.Hour
	}
	return d
}

// SessionTTL returns the configured session token lifetime.
func (k *Keys) SessionTTL() time.Duration { return k.sessionTTL }

// IssueSession signs a session token for the given user.
func (k *Keys) IssueSession(userID uuid.UUID) (string, error) {
	return k.issue(userID, PurposeSession, k.sessionTTL)
}

// IssueReset signs a short-lived password-reset token. It is not a session:
// the auth middleware refuses it.
func (k *Keys) IssueReset(userID uuid.UUID) (string, error) {
	return k.issue(userID, PurposeReset, ResetTokenTTL)
}

func (k *Keys) issue(userID uuid.UUID, purpose Purpose, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":     userID.String(),
		"jti":     uuid.NewString(),
		"purpose": string(purpose),
	}
	if ttl > 0 {
		claims["exp"] = time.Now().Add(ttl).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(k.private)
}

// Verify checks the signature and expiry and returns the token's claims.
func (k *Keys) Verify(tokenString string) (Claims, error) {
	var out Claims

	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return k.public, nil
	})
	if err != nil {
		return out, fmt.Errorf("jwt parse: %w", err)
	}
	if !t.Valid {
		return out, fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return out, fmt.Errorf("invalid jwt claims")
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return out, fmt.Errorf("invalid sub claim")
	}
	jti, _ := claims["jti"].(string)
	tokenID, err := uuid.Parse(jti)
	if err != nil {
		return out, fmt.Errorf("invalid jti claim")
	}

	purpose, ok := claims["purpose"].(string)
	if !ok {
		return out, fmt.Errorf("missing purpose claim")
	}

	out.UserID = userID
	out.TokenID = tokenID
	out.Purpose = Purpose(purpose)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
