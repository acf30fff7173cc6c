package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/Croco1609/collectorPerso/internal/config"
)

const (
	testIssuer   = "http://localhost:8080/realms/collector-realm"
	testClientID = "collector-front"
)

func newTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func validClaims(sub string) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   sub,
			Audience:  jwt.ClaimStrings{"account"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		},
		AuthorizedParty:   testClientID,
		PreferredUsername: "alice",
	}
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims Claims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "test-key"
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func staticKey(key *rsa.PrivateKey) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}
}

func TestJWTVerifier_Verify(t *testing.T) {
	key := newTestKey(t)
	verifier := NewJWTVerifier(staticKey(key), testIssuer, testClientID)

	t.Run("valid token", func(t *testing.T) {
		subject, err := verifier.Verify(context.Background(), signToken(t, key, validClaims("seller-a")))

		require.NoError(t, err)
		require.Equal(t, Subject{ID: "seller-a", Username: "alice"}, subject)
	})

	t.Run("audience matches client id", func(t *testing.T) {
		claims := validClaims("seller-a")
		claims.AuthorizedParty = "other-client"
		claims.Audience = jwt.ClaimStrings{testClientID}

		subject, err := verifier.Verify(context.Background(), signToken(t, key, claims))

		require.NoError(t, err)
		require.Equal(t, "seller-a", subject.ID)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := verifier.Verify(context.Background(), " ")

		require.ErrorIs(t, err, ErrorMissingToken)
	})

	tests := []struct {
		name   string
		mutate func(claims *Claims)
	}{
		{name: "expired", mutate: func(claims *Claims) {
			claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		}},
		{name: "missing exp", mutate: func(claims *Claims) {
			claims.ExpiresAt = nil
		}},
		{name: "wrong issuer", mutate: func(claims *Claims) {
			claims.Issuer = "http://evil.example.com/realms/collector-realm"
		}},
		{name: "empty sub", mutate: func(claims *Claims) {
			claims.Subject = ""
		}},
		{name: "other client", mutate: func(claims *Claims) {
			claims.AuthorizedParty = "other-client"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := validClaims("seller-a")
			tt.mutate(&claims)

			_, err := verifier.Verify(context.Background(), signToken(t, key, claims))

			require.ErrorIs(t, err, ErrorInvalidToken)
		})
	}

	t.Run("signed by another key", func(t *testing.T) {
		_, err := verifier.Verify(context.Background(), signToken(t, newTestKey(t), validClaims("seller-a")))

		require.ErrorIs(t, err, ErrorInvalidToken)
	})

	t.Run("hmac is not accepted", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims("seller-a"))
		signed, err := token.SignedString([]byte("shared-secret"))
		require.NoError(t, err)

		_, err = verifier.Verify(context.Background(), signed)

		require.ErrorIs(t, err, ErrorInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := verifier.Verify(context.Background(), "not.a.jwt")

		require.ErrorIs(t, err, ErrorInvalidToken)
	})
}

func TestJWTVerifier_NoClientCheck(t *testing.T) {
	key := newTestKey(t)
	verifier := NewJWTVerifier(staticKey(key), testIssuer, "")

	claims := validClaims("seller-b")
	claims.AuthorizedParty = "anything"

	subject, err := verifier.Verify(context.Background(), signToken(t, key, claims))

	require.NoError(t, err)
	require.Equal(t, "seller-b", subject.ID)
}

func TestNewKeycloakVerifier_JWKS(t *testing.T) {
	key := newTestKey(t)

	paths := make(chan string, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case paths <- r.URL.Path:
		default:
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": "test-key",
				"use": "sig",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			}},
		})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Auth{URL: server.URL, Realm: "collector-realm", ClientID: testClientID}
	verifier, err := NewKeycloakVerifier(ctx, cfg)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(<-paths, "/realms/collector-realm/protocol/openid-connect/certs"))

	claims := validClaims("seller-c")
	claims.Issuer = cfg.Issuer()

	subject, err := verifier.Verify(ctx, signToken(t, key, claims))

	require.NoError(t, err)
	require.Equal(t, "seller-c", subject.ID)
}
