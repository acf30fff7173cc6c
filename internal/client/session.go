package client

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Session es el estado de identidad visto por el cliente.
type Session struct {
	Authenticated bool
	Subject       string
	Username      string
}

// SessionChecker consulta la sesión sin forzar un login.
type SessionChecker interface {
	Check(ctx context.Context) (Session, error)
}

// TokenSession deriva la sesión del access token vigente.
// Sin fuente de tokens la sesión es anónima.
type TokenSession struct {
	source oauth2.TokenSource
}

// NewTokenSession crea un checker sobre source; source puede ser nil.
func NewTokenSession(source oauth2.TokenSource) *TokenSession {
	return &TokenSession{source: source}
}

type sessionClaims struct {
	jwt.RegisteredClaims
	PreferredUsername string `json:"preferred_username,omitempty"`
}

// Check implementa SessionChecker.
// El token no se verifica acá: el servidor lo valida en cada request protegida.
func (session *TokenSession) Check(ctx context.Context) (Session, error) {
	if session.source == nil {
		return Session{}, nil
	}

	token, err := session.source.Token()
	if err != nil {
		return Session{}, fmt.Errorf("client: session token: %w", err)
	}
	if !token.Valid() {
		return Session{}, nil
	}

	claims := &sessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token.AccessToken, claims); err != nil {
		return Session{}, fmt.Errorf("client: session claims: %w", err)
	}
	if claims.Subject == "" {
		return Session{}, nil
	}

	return Session{Authenticated: true, Subject: claims.Subject, Username: claims.PreferredUsername}, nil
}
