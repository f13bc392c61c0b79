package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	jwtIssuer   = "classbook-api"
	jwtAudience = "classbook-clients"

	AccessTokenTTL = 15 * time.Minute

	RoleMember = "member"
	RoleStaff  = "staff"

	tokenTypeAccess = "access"
)

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrEmptyJWTSecret   = errors.New("jwt secret cannot be empty")
	ErrMissingIdentity  = errors.New("token has no member or gym")
)

// JWTClaims identify the caller: which member, acting for which gym.
type JWTClaims struct {
	MemberID  string `json:"member_id"`
	GymID     string `json:"gym_id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs a token in the format AuthMiddleware accepts.
// Production tokens are issued by the identity provider in front of this
// service; this exists for tests and local tooling that share the secret.
func GenerateAccessToken(memberID, gymID, role, secret string) (string, error) {
	return generateToken(memberID, gymID, role, tokenTypeAccess, secret, AccessTokenTTL)
}

func generateToken(memberID, gymID, role, tokenType, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptyJWTSecret
	}
	if memberID == "" || gymID == "" {
		return "", ErrMissingIdentity
	}

	now := time.Now()

	claims := &JWTClaims{
		MemberID:  memberID,
		GymID:     gymID,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Subject:   memberID,
			Audience:  []string{jwtAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(tokenString, secret string) (*JWTClaims, error) {
	if secret == "" {
		return nil, ErrEmptyJWTSecret
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&JWTClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(jwtIssuer),
		jwt.WithAudience(jwtAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != tokenTypeAccess {
		return nil, ErrInvalidTokenType
	}

	if claims.MemberID == "" || claims.GymID == "" {
		return nil, ErrMissingIdentity
	}

	return claims, nil
}
