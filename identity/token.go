package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/meinhoongagan/campus-booking/models"
)

// Claims is the JWT payload for an authenticated session.
type Claims struct {
	jwt.RegisteredClaims
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	ProfileID string      `json:"profile_id"`
}

// Principal converts verified claims into a Principal.
func (c *Claims) Principal() (*Principal, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	if !c.Role.Valid() {
		return nil, fmt.Errorf("invalid role %q", c.Role)
	}
	profileID, err := uuid.Parse(c.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("invalid profile id: %w", err)
	}
	return &Principal{UserID: userID, Email: c.Email, Role: c.Role, ProfileID: profileID}, nil
}

type Issuer struct {
	Secret []byte
	TTL    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{Secret: []byte(secret), TTL: ttl, now: time.Now}
}

// Issue signs a session token for user. The user's profile must be loaded.
func (i *Issuer) Issue(user *models.User) (string, time.Time, error) {
	profileID := user.ProfileID()
	if profileID == uuid.Nil {
		return "", time.Time{}, errors.New("user has no profile")
	}
	now := time.Now()
	if i.now != nil {
		now = i.now()
	}
	exp := now.Add(i.TTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email:     user.Email,
		Role:      user.Role,
		ProfileID: profileID.String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies a token outside of the HTTP middleware.
func (i *Issuer) Parse(raw string) (*Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims.Principal()
}
