package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/multigenqa/config"
	"github.com/FACorreiaa/multigenqa/internal/types"
)

// TokenService issues and verifies HS256 session tokens. Both operations take
// the current time as an argument and touch no other state.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewTokenService(cfg config.JWTConfig) (*TokenService, error) {
	if len(cfg.SecretKey) == 0 {
		return nil, errors.New("jwt secret key is not configured")
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, fmt.Errorf("jwt access token ttl must be positive, got %s", cfg.AccessTokenTTL)
	}
	return &TokenService{
		secret: []byte(cfg.SecretKey),
		ttl:    cfg.AccessTokenTTL,
		issuer: cfg.Issuer,
	}, nil
}

func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs sub=userID, iat=now, exp=now+TTL. NumericDate truncates both
// to whole seconds.
func (s *TokenService) Issue(userID uuid.UUID, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the subject of a token that verifies under the secret and
// has now < exp. Any decoding, algorithm, signature or claim problem is
// types.ErrTokenInvalid; an authentic token past its exp is
// types.ErrTokenExpired.
func (s *TokenService) Verify(tokenString string, now time.Time) (uuid.UUID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && s.authentic(tokenString) {
			return uuid.Nil, types.ErrTokenExpired
		}
		return uuid.Nil, fmt.Errorf("%w: %v", types.ErrTokenInvalid, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", types.ErrTokenInvalid)
	}
	return userID, nil
}

// authentic re-checks only the signature, so an expired report is never
// given for a forged token regardless of the order the parser validates in.
func (s *TokenService) authentic(tokenString string) bool {
	_, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithoutClaimsValidation(),
	)
	return err == nil
}

func (s *TokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.secret, nil
}
