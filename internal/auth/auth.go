// Package auth parses access tokens minted by the identity service. This
// service never issues tokens itself.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sahan/donkeywatch/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(tokenString string) (model.Principal, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return model.Principal{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Principal{}, ErrInvalidToken
	}

	role := model.Role(claims.Role)
	switch role {
	case model.RoleCitizen, model.RolePolice, model.RoleInsurer:
	default:
		return model.Principal{}, ErrInvalidToken
	}

	return model.Principal{UserID: userID, Role: role}, nil
}
