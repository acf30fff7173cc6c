package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Croco1609/collectorPerso/internal/config"
)

var (
	ErrorMissingToken = errors.New("missing bearer token")
	ErrorInvalidToken = errors.New("invalid bearer token")
)

// Subject es la identidad autenticada de un request.
// ID es el claim sub: la clave de autorización de los artículos (seller_id).
type Subject struct {
	ID       string
	Username string
}

// TokenVerifier valida un bearer token y devuelve su sujeto.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (Subject, error)
}

// Claims son los claims de un access token de Keycloak que nos interesan.
type Claims struct {
	jwt.RegisteredClaims
	AuthorizedParty   string `json:"azp,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
}

// JWTVerifier valida tokens firmados localmente contra las claves del realm.
type JWTVerifier struct {
	keyfunc  jwt.Keyfunc
	parser   *jwt.Parser
	clientID string
}

// NewJWTVerifier arma un verificador con una fuente de claves arbitraria.
// clientID vacío desactiva el chequeo de azp/aud.
func NewJWTVerifier(keys jwt.Keyfunc, issuer, clientID string) *JWTVerifier {
	return &JWTVerifier{
		keyfunc: keys,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512", "ES256", "ES384", "ES512"}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
		clientID: clientID,
	}
}

// NewKeycloakVerifier resuelve las claves de firma desde el JWKS del realm.
// Las claves se refrescan en background mientras ctx siga vivo.
func NewKeycloakVerifier(ctx context.Context, cfg config.Auth) (*JWTVerifier, error) {
	keys, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSURL()})
	if err != nil {
		return nil, fmt.Errorf("auth.NewKeycloakVerifier: jwks: %w", err)
	}
	return NewJWTVerifier(keys.Keyfunc, cfg.Issuer(), cfg.ClientID), nil
}

// Verify implementa TokenVerifier.
func (verifier *JWTVerifier) Verify(ctx context.Context, rawToken string) (Subject, error) {
	if strings.TrimSpace(rawToken) == "" {
		return Subject{}, ErrorMissingToken
	}

	claims := &Claims{}
	if _, err := verifier.parser.ParseWithClaims(rawToken, claims, verifier.keyfunc); err != nil {
		return Subject{}, fmt.Errorf("%w: %w", ErrorInvalidToken, err)
	}

	if claims.Subject == "" {
		return Subject{}, fmt.Errorf("%w: empty sub claim", ErrorInvalidToken)
	}

	if verifier.clientID != "" && claims.AuthorizedParty != verifier.clientID && !slices.Contains(claims.Audience, verifier.clientID) {
		return Subject{}, fmt.Errorf("%w: token not issued for %q", ErrorInvalidToken, verifier.clientID)
	}

	return Subject{ID: claims.Subject, Username: claims.PreferredUsername}, nil
}
