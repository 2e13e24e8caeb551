// Package auth adapts externally-issued bearer tokens into domain actors.
// Token issuance and credential checks live with the identity provider; this
// adapter only verifies signatures and reads the identity claims.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"gatherings/internal/domain"
)

type actorClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type jwtVerifier struct {
	secret []byte
}

// NewJWTVerifier returns an ActorTokenVerifier that accepts HS256 tokens
// signed with the shared secret. The subject claim is the actor ID; the role
// claim defaults to the ordinary user role when absent.
func NewJWTVerifier(secret string) domain.ActorTokenVerifier {
	return &jwtVerifier{secret: []byte(secret)}
}

func (v *jwtVerifier) Verify(tokenString string) (domain.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &actorClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return domain.Actor{}, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*actorClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return domain.Actor{}, fmt.Errorf("invalid token claims")
	}
	role := claims.Role
	if role != domain.RoleAdmin {
		role = domain.RoleUser
	}
	return domain.Actor{ID: claims.Subject, Role: role}, nil
}
