package articles

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// DB es lo mínimo que el repositorio necesita del pool.
// *pgxpool.Pool lo implementa; los tests usan fakes.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const table = "articles"

var columns = []string{"id", "title", "description", "price::text", "image_url", "seller_id", "created_at"}

const returning = "RETURNING id, title, description, price::text, image_url, seller_id, created_at"

// Repository accede a la tabla articles.
// La propiedad se resuelve en el WHERE: sin fila afectada no hay forma de distinguir
// "no existe" de "no es tuyo".
type Repository struct {
	database DB
	builder  squirrel.StatementBuilderType
}

// NewRepository crea un repositorio de artículos.
func NewRepository(database DB) *Repository {
	return &Repository{
		database: database,
		builder:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert crea un artículo a nombre de sellerID.
func (repository *Repository) Insert(ctx context.Context, sellerID string, draft Draft) (Article, error) {
	const op = "articles.Repository.Insert"

	query, args, err := repository.builder.Insert(table).
		Columns("title", "description", "price", "image_url", "seller_id").
		Values(draft.Title, draft.Description, squirrel.Expr("?::numeric", draft.Price.StringFixed(2)), draft.ImageURL, sellerID).
		Suffix(returning).
		ToSql()
	if err != nil {
		return Article{}, fmt.Errorf("%s: building query: %w", op, err)
	}

	article, err := scanArticle(repository.database.QueryRow(ctx, query, args...))
	if err != nil {
		return Article{}, fmt.Errorf("%s: %w", op, err)
	}
	return article, nil
}

// List devuelve todos los artículos, el más reciente primero.
func (repository *Repository) List(ctx context.Context) ([]Article, error) {
	return repository.list(ctx, "articles.Repository.List", repository.selectArticles())
}

// ListBySeller devuelve los artículos de sellerID, el más reciente primero.
func (repository *Repository) ListBySeller(ctx context.Context, sellerID string) ([]Article, error) {
	return repository.list(ctx, "articles.Repository.ListBySeller",
		repository.selectArticles().Where(squirrel.Eq{"seller_id": sellerID}))
}

func (repository *Repository) selectArticles() squirrel.SelectBuilder {
	return repository.builder.Select(columns...).From(table)
}

func (repository *Repository) list(ctx context.Context, op string, selectBuilder squirrel.SelectBuilder) ([]Article, error) {
	query, args, err := selectBuilder.OrderBy("created_at DESC", "id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	rows, err := repository.database.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	// Nunca nil: una tabla vacía se serializa como [].
	result := make([]Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: rows scan: %w", op, err)
		}
		result = append(result, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return result, nil
}

// GetByID busca un artículo por id.
func (repository *Repository) GetByID(ctx context.Context, id int64) (Article, error) {
	const op = "articles.Repository.GetByID"

	query, args, err := repository.selectArticles().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return Article{}, fmt.Errorf("%s: building query: %w", op, err)
	}

	article, err := scanArticle(repository.database.QueryRow(ctx, query, args...))
	if err != nil {
		return Article{}, fmt.Errorf("%s: %w", op, err)
	}
	return article, nil
}

// Update reemplaza los campos editables si sellerID es el dueño.
// id, seller_id y created_at no se tocan.
func (repository *Repository) Update(ctx context.Context, id int64, sellerID string, draft Draft) (Article, error) {
	const op = "articles.Repository.Update"

	query, args, err := repository.builder.Update(table).
		Set("title", draft.Title).
		Set("description", draft.Description).
		Set("price", squirrel.Expr("?::numeric", draft.Price.StringFixed(2))).
		Set("image_url", draft.ImageURL).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"seller_id": sellerID}).
		Suffix(returning).
		ToSql()
	if err != nil {
		return Article{}, fmt.Errorf("%s: building query: %w", op, err)
	}

	article, err := scanArticle(repository.database.QueryRow(ctx, query, args...))
	if err != nil {
		return Article{}, fmt.Errorf("%s: %w", op, err)
	}
	return article, nil
}

// Delete borra el artículo si sellerID es el dueño.
func (repository *Repository) Delete(ctx context.Context, id int64, sellerID string) error {
	const op = "articles.Repository.Delete"

	query, args, err := repository.builder.Delete(table).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"seller_id": sellerID}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: building query: %w", op, err)
	}

	var deletedID int64
	if err := repository.database.QueryRow(ctx, query, args...).Scan(&deletedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrorNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Count devuelve el total de artículos.
func (repository *Repository) Count(ctx context.Context) (int64, error) {
	const op = "articles.Repository.Count"

	query, args, err := repository.builder.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: building query: %w", op, err)
	}

	var total int64
	if err := repository.database.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner) (Article, error) {
	var article Article
	err := row.Scan(
		&article.ID,
		&article.Title,
		&article.Description,
		&article.Price,
		&article.ImageURL,
		&article.SellerID,
		&article.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Article{}, ErrorNotFound
		}
		return Article{}, err
	}
	return article, nil
}
