package domain

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/hearthhold/hearthhold/internal/platform/errors"
	"github.com/hearthhold/hearthhold/internal/platform/id"
)

// grantEnv holds raw env values before post-parse validation.
type grantEnv struct {
	Issuer     string `env:"HEARTHHOLD_FOUNDING_GRANT_ISSUER"`
	Audience   string `env:"HEARTHHOLD_FOUNDING_GRANT_AUDIENCE"`
	PrivateKey string `env:"HEARTHHOLD_FOUNDING_GRANT_PRIVATE_KEY"`
	PublicKey  string `env:"HEARTHHOLD_FOUNDING_GRANT_PUBLIC_KEY"`
}

// GrantSigner issues signed invite grants bound to one request and invitee.
type GrantSigner struct {
	Issuer   string
	Audience string
	Key      ed25519.PrivateKey
	TTL      time.Duration
	Now      func() time.Time
	NewID    func() (string, error)
}

// GrantVerifier validates invite grants presented by transport layers.
type GrantVerifier struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// GrantExpectation defines the identity a presented grant must match.
type GrantExpectation struct {
	RequestID     string
	ParticipantID string
}

// GrantClaims captures validated invite grant claims.
type GrantClaims struct {
	Issuer        string
	Audience      []string
	ExpiresAt     time.Time
	IssuedAt      time.Time
	JWTID         string
	RequestID     string
	ParticipantID string
	HoldName      string
}

// grantClaims is the internal claims type used for JWT parsing.
type grantClaims struct {
	jwt.RegisteredClaims
	RequestID     string `json:"request_id"`
	ParticipantID string `json:"participant_id"`
	HoldName      string `json:"hold_name"`
}

// LoadGrantSignerFromEnv reads invite grant signing configuration.
// The grant TTL matches the founding window so grants and requests
// expire together.
func LoadGrantSignerFromEnv(now func() time.Time) (*GrantSigner, error) {
	var raw grantEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse grant env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	privateKey := strings.TrimSpace(raw.PrivateKey)
	if issuer == "" {
		return nil, fmt.Errorf("HEARTHHOLD_FOUNDING_GRANT_ISSUER is required")
	}
	if audience == "" {
		return nil, fmt.Errorf("HEARTHHOLD_FOUNDING_GRANT_AUDIENCE is required")
	}
	if privateKey == "" {
		return nil, fmt.Errorf("HEARTHHOLD_FOUNDING_GRANT_PRIVATE_KEY is required")
	}
	keyBytes, err := decodeBase64(privateKey)
	if err != nil {
		return nil, fmt.Errorf("decode grant private key: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("grant private key must be %d bytes", ed25519.PrivateKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return &GrantSigner{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PrivateKey(keyBytes),
		TTL:      DefaultWindow,
		Now:      now,
	}, nil
}

// LoadGrantVerifierFromEnv reads invite grant verification configuration.
func LoadGrantVerifierFromEnv(now func() time.Time) (*GrantVerifier, error) {
	var raw grantEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse grant env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" {
		return nil, fmt.Errorf("HEARTHHOLD_FOUNDING_GRANT_ISSUER is required")
	}
	if audience == "" {
		return nil, fmt.Errorf("HEARTHHOLD_FOUNDING_GRANT_AUDIENCE is required")
	}
	if publicKey == "" {
		return nil, fmt.Errorf("HEARTHHOLD_FOUNDING_GRANT_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return nil, fmt.Errorf("decode grant public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("grant public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return &GrantVerifier{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// Issue signs one invite grant for a participant on a founding request.
func (s *GrantSigner) Issue(requestID string, participantID string, holdName string) (string, error) {
	if s == nil || s.Issuer == "" || s.Audience == "" || len(s.Key) != ed25519.PrivateKeySize {
		return "", errors.New("grant signer is not configured")
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	newID := s.NewID
	if newID == nil {
		newID = id.NewID
	}
	jti, err := newID()
	if err != nil {
		return "", fmt.Errorf("generate grant id: %w", err)
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultWindow
	}

	issuedAt := now().UTC()
	claims := grantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.Issuer,
			Audience:  jwt.ClaimStrings{s.Audience},
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ID:        jti,
		},
		RequestID:     requestID,
		ParticipantID: participantID,
		HoldName:      holdName,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(s.Key)
	if err != nil {
		return "", fmt.Errorf("sign grant: %w", err)
	}
	return token, nil
}

// Verify checks a grant token signature and validates expected claims.
func (v *GrantVerifier) Verify(grant string, expected GrantExpectation) (GrantClaims, error) {
	grant = strings.TrimSpace(grant)
	if grant == "" {
		return GrantClaims{}, apperrors.New(apperrors.CodeGrantInvalid, "grant is required")
	}
	if v == nil || v.Issuer == "" || v.Audience == "" || len(v.Key) != ed25519.PublicKeySize {
		return GrantClaims{}, errors.New("grant verifier is not configured")
	}
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}

	var parsed grantClaims
	_, err := jwt.ParseWithClaims(grant, &parsed, func(token *jwt.Token) (any, error) {
		return v.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return GrantClaims{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != v.Issuer {
		return GrantClaims{}, apperrors.WithMetadata(
			apperrors.CodeGrantMismatch,
			"grant issuer mismatch",
			map[string]string{"Field": "issuer"},
		)
	}
	if !audienceContains(parsed.Audience, v.Audience) {
		return GrantClaims{}, apperrors.WithMetadata(
			apperrors.CodeGrantMismatch,
			"grant audience mismatch",
			map[string]string{"Field": "audience"},
		)
	}
	if parsed.ID == "" {
		return GrantClaims{}, apperrors.New(apperrors.CodeGrantInvalid, "grant jti is required")
	}
	if parsed.ExpiresAt == nil {
		return GrantClaims{}, apperrors.New(apperrors.CodeGrantInvalid, "grant exp is required")
	}

	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now().UTC()) {
		return GrantClaims{}, apperrors.New(apperrors.CodeGrantExpired, "grant is expired")
	}

	if strings.TrimSpace(parsed.RequestID) == "" || parsed.RequestID != expected.RequestID {
		return GrantClaims{}, apperrors.WithMetadata(
			apperrors.CodeGrantMismatch,
			"grant request mismatch",
			map[string]string{"Field": "request_id"},
		)
	}
	if strings.TrimSpace(parsed.ParticipantID) == "" || parsed.ParticipantID != expected.ParticipantID {
		return GrantClaims{}, apperrors.WithMetadata(
			apperrors.CodeGrantMismatch,
			"grant participant mismatch",
			map[string]string{"Field": "participant_id"},
		)
	}

	claims := GrantClaims{
		Issuer:        parsed.Issuer,
		Audience:      []string(parsed.Audience),
		ExpiresAt:     exp,
		JWTID:         parsed.ID,
		RequestID:     parsed.RequestID,
		ParticipantID: parsed.ParticipantID,
		HoldName:      parsed.HoldName,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeGrantInvalid, "grant signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeGrantInvalid, "grant alg is invalid")
	}
	return apperrors.New(apperrors.CodeGrantInvalid, "grant is invalid")
}

// audienceContains reports whether the audience list contains the given value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
