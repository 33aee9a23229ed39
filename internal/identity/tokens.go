package identity

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophcontacts/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are carried by access tokens issued to signed-in users.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string
	Anonymous bool `json:",omitempty"`
}

// FederatedClaims are carried by ID tokens from the federated sign-in partner.
type FederatedClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

func GenerateToken(userID string, anonymous bool, secretKey []byte, validityDuration time.Duration) (string, error) {
	jti, err := common.MakeRandHexString(16)
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID:    userID,
		Anonymous: anonymous,
	})

	return token.SignedString(secretKey)
}

func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}
	if err := parse(tokenString, claims, secretKey); err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", common.ErrInvalidToken
	}
	return claims.UserID, nil
}

// SignFederatedToken mints an ID token the way the federated partner does.
func SignFederatedToken(subject, email string, verified bool, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, FederatedClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Email:         email,
		EmailVerified: verified,
	})
	return token.SignedString(secretKey)
}

func parseFederatedToken(tokenString string, secretKey []byte) (*FederatedClaims, error) {
	claims := &FederatedClaims{}
	if err := parse(tokenString, claims, secretKey); err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

func parse(tokenString string, claims jwt.Claims, secretKey []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return common.ErrTokenExpired
		}
		return common.ErrInvalidToken
	}
	if !token.Valid {
		return common.ErrInvalidToken
	}
	return nil
}
