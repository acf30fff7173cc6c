package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Croco1609/collectorPerso/internal/httpx"
	"github.com/Croco1609/collectorPerso/internal/logger"
)

// SubjectHandlerFunc es un handler que recibe el sujeto autenticado como parámetro explícito.
type SubjectHandlerFunc func(w http.ResponseWriter, r *http.Request, subject Subject)

// Gate corta los requests sin token válido antes de llegar al handler.
type Gate struct {
	verifier TokenVerifier
	realm    string
	log      logger.Logger
}

// NewGate crea el gate; realm se anuncia en WWW-Authenticate.
func NewGate(verifier TokenVerifier, realm string, log logger.Logger) *Gate {
	return &Gate{verifier: verifier, realm: realm, log: log}
}

// Require protege un handler: sin sujeto no hay handler.
func (gate *Gate) Require(next SubjectHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawToken, err := BearerToken(r)
		if err != nil {
			gate.reject(w, r, err)
			return
		}

		subject, err := gate.verifier.Verify(r.Context(), rawToken)
		if err != nil {
			gate.reject(w, r, err)
			return
		}

		next(w, r, subject)
	}
}

func (gate *Gate) reject(w http.ResponseWriter, r *http.Request, err error) {
	gate.log.Warnw("request rejected by auth gate",
		"error", err,
		"path", r.URL.Path,
		"request_id", httpx.RequestIDFrom(r),
	)

	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm=%q`, gate.realm))

	message := "invalid or expired bearer token"
	if errors.Is(err, ErrorMissingToken) {
		message = "missing bearer token"
	}
	httpx.Fail(w, r, http.StatusUnauthorized, "unauthorized", message)
}

// BearerToken extrae el token de "Authorization: Bearer <token>".
// El esquema se compara sin distinguir mayúsculas.
func BearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ErrorMissingToken
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: unsupported authorization scheme", ErrorInvalidToken)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrorMissingToken
	}
	return token, nil
}
