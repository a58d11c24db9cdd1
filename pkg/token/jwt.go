// Package token issues and verifies the HS256 access/refresh token pair.
package token

import (
	"errors"
	"fmt"
	"time"

	"room-booking/pkg/apperr"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

type Claims struct {
	UserID string `json:"uid"`
	OpenID string `json:"openid"`
	Type   Type   `json:"typ"`
	jwt.RegisteredClaims
}

// Pair is what a login or refresh hands back to the client.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type Issuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret, issuer string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (i *Issuer) Issue(userID uuid.UUID, openID string) (*Pair, error) {
	now := i.now()

	access, accessExp, err := i.sign(userID, openID, TypeAccess, now, i.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := i.sign(userID, openID, TypeRefresh, now, i.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (i *Issuer) sign(userID uuid.UUID, openID string, typ Type, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := Claims{
		UserID: userID.String(),
		OpenID: openID,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, exp, nil
}

// Verify parses tokenStr and checks signature, expiry, issuer and type.
func (i *Issuer) Verify(tokenStr string, want Type) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.KindInvalidToken, err, "Token expired")
		}
		return nil, apperr.Wrap(apperr.KindInvalidToken, err, "Invalid token")
	}
	if !t.Valid || claims.Type != want {
		return nil, apperr.New(apperr.KindInvalidToken, "Invalid token")
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidToken, err, "Invalid token")
	}
	return claims, nil
}
