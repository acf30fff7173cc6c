package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Croco1609/collectorPerso/internal/articles"
	"github.com/Croco1609/collectorPerso/internal/logger"
)

// PlaceholderImageURL se muestra cuando un artículo no tiene imagen.
const PlaceholderImageURL = "https://via.placeholder.com/300x200?text=No+image"

// LoginNotice reemplaza al formulario de alta cuando no hay sesión.
const LoginNotice = "Log in to put an article up for sale."

var (
	ErrorNotOwner    = errors.New("article belongs to another seller")
	ErrorInvalidForm = errors.New("invalid form")
)

// CatalogAPI es lo que la vista necesita de la API; *Client lo implementa.
type CatalogAPI interface {
	ListArticles(ctx context.Context) ([]articles.Article, error)
	CreateArticle(ctx context.Context, input articles.ArticleInput) (articles.Article, error)
	UpdateArticle(ctx context.Context, id int64, input articles.ArticleInput) (articles.Article, error)
	DeleteArticle(ctx context.Context, id int64) error
}

// Form es el formulario de alta tal como lo escribe el usuario.
type Form struct {
	Title       string
	Description string
	Price       string
	ImageURL    string
}

// ConfirmFunc decide si se borra el artículo; false cancela sin tocar la red.
type ConfirmFunc func(article articles.Article) bool

// View mantiene el estado de la pantalla del catálogo.
// Arranca anónima y cargando; Mount resuelve ambas cosas.
type View struct {
	api     CatalogAPI
	session SessionChecker
	log     logger.Logger

	mu       sync.Mutex
	state    Session
	loading  bool
	articles []articles.Article
	form     Form
}

// NewView crea la vista en estado inicial.
func NewView(api CatalogAPI, session SessionChecker, log logger.Logger) *View {
	return &View{api: api, session: session, log: log, loading: true}
}

// Mount consulta la sesión y el catálogo en paralelo, sin orden entre ambos.
// Un error de sesión deja la vista anónima; un error de catálogo se devuelve.
func (view *View) Mount(ctx context.Context) error {
	var group errgroup.Group

	group.Go(func() error {
		session, err := view.session.Check(ctx)
		if err != nil {
			view.log.Warnw("session check failed", "error", err)
			session = Session{}
		}
		view.mu.Lock()
		view.state = session
		view.mu.Unlock()
		return nil
	})

	group.Go(func() error {
		return view.Refresh(ctx)
	})

	return group.Wait()
}

// Refresh vuelve a traer el catálogo completo.
func (view *View) Refresh(ctx context.Context) error {
	list, err := view.api.ListArticles(ctx)
	if err != nil {
		view.log.Errorw("fetch articles failed", "error", err)
		return err
	}

	view.mu.Lock()
	view.articles = list
	view.loading = false
	view.mu.Unlock()
	return nil
}

// Loading indica si el catálogo todavía no llegó.
func (view *View) Loading() bool {
	view.mu.Lock()
	defer view.mu.Unlock()
	return view.loading
}

// Session devuelve la sesión actual.
func (view *View) Session() Session {
	view.mu.Lock()
	defer view.mu.Unlock()
	return view.state
}

// Articles devuelve una copia del catálogo cargado.
func (view *View) Articles() []articles.Article {
	view.mu.Lock()
	defer view.mu.Unlock()
	return append([]articles.Article(nil), view.articles...)
}

// CanCreate indica si se muestra el formulario de alta.
func (view *View) CanCreate() bool {
	return view.Session().Authenticated
}

// Notice devuelve el aviso de login cuando no se puede publicar.
func (view *View) Notice() string {
	if view.CanCreate() {
		return ""
	}
	return LoginNotice
}

// CanDelete indica si el usuario actual es el vendedor de article.
func (view *View) CanDelete(article articles.Article) bool {
	session := view.Session()
	return session.Authenticated && article.IsOwnedBy(session.Subject)
}

// Form devuelve el formulario actual.
func (view *View) Form() Form {
	view.mu.Lock()
	defer view.mu.Unlock()
	return view.form
}

// SetForm reemplaza el formulario.
func (view *View) SetForm(form Form) {
	view.mu.Lock()
	view.form = form
	view.mu.Unlock()
}

// Submit publica el formulario. Sólo limpia el form si la API confirmó el alta.
func (view *View) Submit(ctx context.Context) (articles.Article, error) {
	if !view.CanCreate() {
		return articles.Article{}, ErrorNotAuthenticated
	}

	input, err := view.Form().input()
	if err != nil {
		return articles.Article{}, err
	}

	article, err := view.api.CreateArticle(ctx, input)
	if err != nil {
		view.log.Errorw("create article failed", "error", err)
		return articles.Article{}, err
	}

	view.SetForm(Form{})
	if err := view.Refresh(ctx); err != nil {
		return article, err
	}
	return article, nil
}

// Update reemplaza los campos de un artículo propio y vuelve a cargar el catálogo.
func (view *View) Update(ctx context.Context, article articles.Article, form Form) (articles.Article, error) {
	if !view.CanDelete(article) {
		return articles.Article{}, ErrorNotOwner
	}

	input, err := form.input()
	if err != nil {
		return articles.Article{}, err
	}

	updated, err := view.api.UpdateArticle(ctx, article.ID, input)
	if err != nil {
		view.log.Errorw("update article failed", "error", err, "article_id", article.ID)
		return articles.Article{}, err
	}

	if err := view.Refresh(ctx); err != nil {
		return updated, err
	}
	return updated, nil
}

// Delete borra article si confirm lo aprueba. Devuelve false si no se envió nada.
func (view *View) Delete(ctx context.Context, article articles.Article, confirm ConfirmFunc) (bool, error) {
	if !view.CanDelete(article) {
		return false, ErrorNotOwner
	}
	if confirm == nil || !confirm(article) {
		return false, nil
	}

	if err := view.api.DeleteArticle(ctx, article.ID); err != nil {
		view.log.Errorw("delete article failed", "error", err, "article_id", article.ID)
		return false, err
	}

	if err := view.Refresh(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// ImageURL devuelve la imagen del artículo o el placeholder.
func ImageURL(article articles.Article) string {
	if article.ImageURL == nil || strings.TrimSpace(*article.ImageURL) == "" {
		return PlaceholderImageURL
	}
	return *article.ImageURL
}

func (form Form) input() (articles.ArticleInput, error) {
	title := strings.TrimSpace(form.Title)
	if title == "" {
		return articles.ArticleInput{}, fmt.Errorf("%w: title is required", ErrorInvalidForm)
	}

	price, err := decimal.NewFromString(strings.TrimSpace(form.Price))
	if err != nil {
		return articles.ArticleInput{}, fmt.Errorf("%w: price: %w", ErrorInvalidForm, err)
	}

	return articles.ArticleInput{
		Title:       title,
		Description: optional(form.Description),
		Price:       &price,
		ImageURL:    optional(form.ImageURL),
	}, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
