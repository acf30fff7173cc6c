package articles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Errores de dominio (no HTTP). El handler los traduce a status codes.
var (
	ErrorInvalidInput = errors.New("invalid input")
	ErrorNotFound     = errors.New("article not found")
)

var maxPrice = decimal.New(1, 8)

// RepositoryAPI es lo que el service necesita de la persistencia.
type RepositoryAPI interface {
	Insert(ctx context.Context, sellerID string, draft Draft) (Article, error)
	List(ctx context.Context) ([]Article, error)
	ListBySeller(ctx context.Context, sellerID string) ([]Article, error)
	GetByID(ctx context.Context, id int64) (Article, error)
	Update(ctx context.Context, id int64, sellerID string, draft Draft) (Article, error)
	Delete(ctx context.Context, id int64, sellerID string) error
}

// Service contiene las reglas del catálogo.
type Service struct {
	repository RepositoryAPI
	validate   *validator.Validate
}

// NewService crea un service de artículos.
func NewService(repository RepositoryAPI) *Service {
	return &Service{repository: repository, validate: validator.New()}
}

// Create valida el input y crea el artículo a nombre de sellerID.
func (service *Service) Create(ctx context.Context, sellerID string, input ArticleInput) (Article, error) {
	if strings.TrimSpace(sellerID) == "" {
		return Article{}, fmt.Errorf("%w: empty seller", ErrorInvalidInput)
	}

	draft, err := service.draftFrom(input)
	if err != nil {
		return Article{}, err
	}
	return service.repository.Insert(ctx, sellerID, draft)
}

// List devuelve el catálogo completo.
func (service *Service) List(ctx context.Context) ([]Article, error) {
	return service.repository.List(ctx)
}

// ListMine devuelve los artículos de sellerID.
func (service *Service) ListMine(ctx context.Context, sellerID string) ([]Article, error) {
	return service.repository.ListBySeller(ctx, sellerID)
}

// Get obtiene un artículo por id.
func (service *Service) Get(ctx context.Context, id int64) (Article, error) {
	return service.repository.GetByID(ctx, id)
}

// Update reemplaza el artículo id si sellerID es el dueño.
func (service *Service) Update(ctx context.Context, id int64, sellerID string, input ArticleInput) (Article, error) {
	draft, err := service.draftFrom(input)
	if err != nil {
		return Article{}, err
	}
	return service.repository.Update(ctx, id, sellerID, draft)
}

// Delete borra el artículo id si sellerID es el dueño.
func (service *Service) Delete(ctx context.Context, id int64, sellerID string) error {
	return service.repository.Delete(ctx, id, sellerID)
}

// draftFrom normaliza y valida el input.
// Los opcionales vacíos se guardan como NULL.
func (service *Service) draftFrom(input ArticleInput) (Draft, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = trimmedOrNil(input.Description)
	input.ImageURL = trimmedOrNil(input.ImageURL)

	if err := service.validate.Struct(input); err != nil {
		return Draft{}, fmt.Errorf("%w: %w", ErrorInvalidInput, err)
	}

	if input.Price == nil {
		return Draft{}, fmt.Errorf("%w: price is required", ErrorInvalidInput)
	}
	price := *input.Price
	switch {
	case price.IsNegative():
		return Draft{}, fmt.Errorf("%w: price must not be negative", ErrorInvalidInput)
	case !price.Equal(price.Round(2)):
		return Draft{}, fmt.Errorf("%w: price allows at most two decimals", ErrorInvalidInput)
	case price.GreaterThanOrEqual(maxPrice):
		return Draft{}, fmt.Errorf("%w: price is too large", ErrorInvalidInput)
	}

	return Draft{
		Title:       input.Title,
		Description: input.Description,
		Price:       price,
		ImageURL:    input.ImageURL,
	}, nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
