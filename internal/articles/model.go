package articles

import (
	"time"

	"github.com/shopspring/decimal"
)

// Article representa una fila de la tabla articles.
// Price es string para no perder precisión: la DB lo devuelve como numeric(10,2) en texto.
type Article struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Price       string    `json:"price"`
	ImageURL    *string   `json:"image_url"`
	SellerID    *string   `json:"seller_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsOwnedBy indica si sellerID es el dueño del artículo.
func (article Article) IsOwnedBy(sellerID string) bool {
	return sellerID != "" && article.SellerID != nil && *article.SellerID == sellerID
}

// ArticleInput es el body de POST y PUT.
// Price acepta número JSON o string numérico.
type ArticleInput struct {
	Title       string           `json:"title" validate:"required,max=255"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"image_url,omitempty" validate:"omitempty,url"`
}

// Draft son los valores ya validados que se persisten.
type Draft struct {
	Title       string
	Description *string
	Price       decimal.Decimal
	ImageURL    *string
}
