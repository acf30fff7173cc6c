package articles

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Croco1609/collectorPerso/internal/auth"
	"github.com/Croco1609/collectorPerso/internal/httpx"
	"github.com/Croco1609/collectorPerso/internal/logger"
)

const maxBodyBytes = 1 << 20

// ServiceAPI define lo que el handler necesita.
// Permite testear handlers con stubs sin tocar DB.
type ServiceAPI interface {
	Create(ctx context.Context, sellerID string, input ArticleInput) (Article, error)
	List(ctx context.Context) ([]Article, error)
	ListMine(ctx context.Context, sellerID string) ([]Article, error)
	Get(ctx context.Context, id int64) (Article, error)
	Update(ctx context.Context, id int64, sellerID string, input ArticleInput) (Article, error)
	Delete(ctx context.Context, id int64, sellerID string) error
}

// Handler HTTP para artículos.
// Solo traduce HTTP <-> dominio (service). Las rutas protegidas reciben el sujeto como parámetro.
type Handler struct {
	service ServiceAPI
	log     logger.Logger
}

// NewHandler crea un handler de artículos.
func NewHandler(service ServiceAPI, log logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// List maneja GET /api/articles.
func (handler *Handler) List(writer http.ResponseWriter, request *http.Request) {
	articles, err := handler.service.List(request.Context())
	if err != nil {
		handler.internalError(writer, request, "list articles", err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, articles)
}

// GetByID maneja GET /api/articles/{id}.
func (handler *Handler) GetByID(writer http.ResponseWriter, request *http.Request) {
	id, ok := parseID(writer, request)
	if !ok {
		return
	}

	article, err := handler.service.Get(request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrorNotFound):
			httpx.Fail(writer, request, http.StatusNotFound, "not_found", "article not found")
		default:
			handler.internalError(writer, request, "get article", err)
		}
		return
	}

	httpx.OK(writer, request, http.StatusOK, article)
}

// Mine maneja GET /api/my-articles.
func (handler *Handler) Mine(writer http.ResponseWriter, request *http.Request, subject auth.Subject) {
	articles, err := handler.service.ListMine(request.Context(), subject.ID)
	if err != nil {
		handler.internalError(writer, request, "list seller articles", err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, articles)
}

// Create maneja POST /api/articles. El vendedor es siempre el sujeto del token.
func (handler *Handler) Create(writer http.ResponseWriter, request *http.Request, subject auth.Subject) {
	input, ok := decodeInput(writer, request)
	if !ok {
		return
	}

	article, err := handler.service.Create(request.Context(), subject.ID, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrorInvalidInput):
			httpx.Fail(writer, request, http.StatusBadRequest, "invalid_input", "invalid input data")
		default:
			handler.internalError(writer, request, "create article", err)
		}
		return
	}

	handler.log.Infow("article created", "article_id", article.ID, "seller_id", subject.ID)
	httpx.OK(writer, request, http.StatusCreated, article)
}

// Update maneja PUT /api/articles/{id}.
func (handler *Handler) Update(writer http.ResponseWriter, request *http.Request, subject auth.Subject) {
	id, ok := parseID(writer, request)
	if !ok {
		return
	}

	input, ok := decodeInput(writer, request)
	if !ok {
		return
	}

	article, err := handler.service.Update(request.Context(), id, subject.ID, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrorInvalidInput):
			httpx.Fail(writer, request, http.StatusBadRequest, "invalid_input", "invalid input data")
		case errors.Is(err, ErrorNotFound):
			httpx.Fail(writer, request, http.StatusNotFound, "not_found", "article not found or not authorized")
		default:
			handler.internalError(writer, request, "update article", err)
		}
		return
	}

	httpx.OK(writer, request, http.StatusOK, article)
}

// Delete maneja DELETE /api/articles/{id}.
func (handler *Handler) Delete(writer http.ResponseWriter, request *http.Request, subject auth.Subject) {
	id, ok := parseID(writer, request)
	if !ok {
		return
	}

	err := handler.service.Delete(request.Context(), id, subject.ID)
	if err != nil {
		switch {
		case errors.Is(err, ErrorNotFound):
			httpx.Fail(writer, request, http.StatusNotFound, "not_found", "article not found or not authorized")
		default:
			handler.internalError(writer, request, "delete article", err)
		}
		return
	}

	handler.log.Infow("article deleted", "article_id", id, "seller_id", subject.ID)
	httpx.OK(writer, request, http.StatusOK, httpx.Message{Message: "article deleted"})
}

// internalError loguea el detalle y responde un 500 sin filtrar nada.
func (handler *Handler) internalError(writer http.ResponseWriter, request *http.Request, action string, err error) {
	handler.log.Errorw(action+" failed",
		"error", err,
		"request_id", httpx.RequestIDFrom(request),
	)
	httpx.Fail(writer, request, http.StatusInternalServerError, "internal_error", "unexpected error")
}

// parseID valida que {id} sea un entero positivo; en DB es SERIAL.
func parseID(writer http.ResponseWriter, request *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(request, "id"), 10, 64)
	if err != nil || id < 1 {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func decodeInput(writer http.ResponseWriter, request *http.Request) (ArticleInput, bool) {
	var input ArticleInput
	if err := json.NewDecoder(http.MaxBytesReader(writer, request.Body, maxBodyBytes)).Decode(&input); err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return ArticleInput{}, false
	}
	return input, true
}
