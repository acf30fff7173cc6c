package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/Croco1609/collectorPerso/internal/articles"
	"github.com/Croco1609/collectorPerso/internal/httpx"
)

// ErrorNotAuthenticated se devuelve al llamar una operación protegida sin fuente de tokens.
var ErrorNotAuthenticated = errors.New("not authenticated")

// APIError es una respuesta no 2xx de la API.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (apiError *APIError) Error() string {
	if apiError.Code == "" {
		return fmt.Sprintf("api: status %d", apiError.Status)
	}
	return fmt.Sprintf("api: status %d: %s: %s", apiError.Status, apiError.Code, apiError.Message)
}

// IsNotFound indica si err es un 404 de la API (no existe o no es tuyo).
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized indica si err es un 401 de la API.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

func hasStatus(err error, status int) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.Status == status
}

// Client es un cliente HTTP tipado de la API del catálogo.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
}

// Option configura el Client.
type Option func(*Client)

// WithHTTPClient reemplaza el *http.Client por defecto.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) {
		client.httpClient = httpClient
	}
}

// WithTokenSource habilita las operaciones protegidas.
// La fuente se encarga de renovar el token cuando vence.
func WithTokenSource(tokens oauth2.TokenSource) Option {
	return func(client *Client) {
		client.tokens = tokens
	}
}

// New crea un cliente contra baseURL (ej: http://localhost:3000).
func New(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Authenticated indica si el cliente tiene fuente de tokens.
func (client *Client) Authenticated() bool {
	return client.tokens != nil
}

// Health consulta GET /health.
func (client *Client) Health(ctx context.Context) error {
	var body map[string]string
	return client.do(ctx, http.MethodGet, "/health", false, nil, &body)
}

// ListArticles consulta GET /api/articles.
func (client *Client) ListArticles(ctx context.Context) ([]articles.Article, error) {
	list := make([]articles.Article, 0)
	if err := client.do(ctx, http.MethodGet, "/api/articles", false, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// MyArticles consulta GET /api/my-articles.
func (client *Client) MyArticles(ctx context.Context) ([]articles.Article, error) {
	list := make([]articles.Article, 0)
	if err := client.do(ctx, http.MethodGet, "/api/my-articles", true, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetArticle consulta GET /api/articles/{id}.
func (client *Client) GetArticle(ctx context.Context, id int64) (articles.Article, error) {
	var article articles.Article
	err := client.do(ctx, http.MethodGet, articlePath(id), false, nil, &article)
	return article, err
}

// CreateArticle publica un artículo a nombre del usuario del token.
func (client *Client) CreateArticle(ctx context.Context, input articles.ArticleInput) (articles.Article, error) {
	var article articles.Article
	err := client.do(ctx, http.MethodPost, "/api/articles", true, input, &article)
	return article, err
}

// UpdateArticle reemplaza un artículo propio.
func (client *Client) UpdateArticle(ctx context.Context, id int64, input articles.ArticleInput) (articles.Article, error) {
	var article articles.Article
	err := client.do(ctx, http.MethodPut, articlePath(id), true, input, &article)
	return article, err
}

// DeleteArticle borra un artículo propio.
func (client *Client) DeleteArticle(ctx context.Context, id int64) error {
	var message httpx.Message
	return client.do(ctx, http.MethodDelete, articlePath(id), true, nil, &message)
}

func articlePath(id int64) string {
	return "/api/articles/" + strconv.FormatInt(id, 10)
}

func (client *Client) do(ctx context.Context, method, path string, protected bool, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("client: build %s %s: %w", method, path, err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("X-Request-Id", uuid.NewString())
	if in != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	if protected {
		if client.tokens == nil {
			return ErrorNotAuthenticated
		}
		token, err := client.tokens.Token()
		if err != nil {
			return fmt.Errorf("client: token: %w", err)
		}
		token.SetAuthHeader(request)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return decodeError(response)
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(response *http.Response) error {
	apiError := &APIError{Status: response.StatusCode, RequestID: response.Header.Get("X-Request-Id")}

	var body httpx.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(response.Body, 1<<16)).Decode(&body); err == nil {
		apiError.Code = body.Error.Code
		apiError.Message = body.Error.Message
		if body.Error.RequestID != "" {
			apiError.RequestID = body.Error.RequestID
		}
	}
	return apiError
}
