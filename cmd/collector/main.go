package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/ilyakaznacheev/cleanenv"
	"golang.org/x/oauth2"

	"github.com/Croco1609/collectorPerso/internal/articles"
	"github.com/Croco1609/collectorPerso/internal/client"
	"github.com/Croco1609/collectorPerso/internal/config"
	"github.com/Croco1609/collectorPerso/internal/logger"
)

const serviceName = "collector-cli"

// cliConfig se lee del entorno; los flags pisan lo que venga de ahí.
type cliConfig struct {
	APIURL   string `env:"COLLECTOR_API_URL"  env-default:"http://localhost:3000"`
	Username string `env:"COLLECTOR_USERNAME"`
	Password string `env:"COLLECTOR_PASSWORD"`

	Auth   config.Auth   `env-prefix:"KEYCLOAK_"`
	Logger config.Logger `env-prefix:"LOG_"`
}

const usage = `usage: collector [flags] <command> [args]

commands:
  list                      public catalog
  mine                      articles you are selling
  create -title -price ...  put an article up for sale
  update <id> -title ...    replace one of your articles
  delete <id>               remove one of your articles (asks first)
`

var fatalf = log.Fatal

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fatalf(err)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	var cfg cliConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return fmt.Errorf("collector: read env: %w", err)
	}

	flags := flag.NewFlagSet("collector", flag.ContinueOnError)
	flags.SetOutput(stdout)
	flags.Usage = func() { fmt.Fprint(stdout, usage) }
	flags.StringVar(&cfg.APIURL, "api", cfg.APIURL, "catalog API base URL")
	flags.StringVar(&cfg.Username, "user", cfg.Username, "Keycloak username")
	flags.StringVar(&cfg.Password, "password", cfg.Password, "Keycloak password")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return errors.New("collector: missing command")
	}

	appLog, err := logger.New(cfg.Logger, serviceName, "cli")
	if err != nil {
		return err
	}
	defer func() { _ = appLog.Sync() }()

	tokens, err := login(ctx, cfg)
	if err != nil {
		return err
	}

	api := client.New(cfg.APIURL, client.WithTokenSource(tokens))
	app := &app{
		api:  api,
		view: client.NewView(api, client.NewTokenSession(tokens), appLog),
		in:   bufio.NewReader(stdin),
		out:  stdout,
	}
	return app.execute(ctx, flags.Arg(0), flags.Args()[1:])
}

// login usa el direct-access grant del realm. Sin usuario la sesión queda anónima.
func login(ctx context.Context, cfg cliConfig) (oauth2.TokenSource, error) {
	if cfg.Username == "" {
		return nil, nil
	}

	oauthConfig := &oauth2.Config{
		ClientID: cfg.Auth.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.Auth.AuthURL(),
			TokenURL:  cfg.Auth.TokenURL(),
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: []string{"openid"},
	}

	token, err := oauthConfig.PasswordCredentialsToken(ctx, cfg.Username, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("collector: login: %w", err)
	}
	// El TokenSource renueva con el refresh token cuando el access token vence.
	return oauthConfig.TokenSource(context.Background(), token), nil
}

type app struct {
	api  *client.Client
	view *client.View
	in   *bufio.Reader
	out  io.Writer
}

func (app *app) execute(ctx context.Context, command string, args []string) error {
	switch command {
	case "list":
		if err := app.view.Mount(ctx); err != nil {
			return err
		}
		app.render(app.view.Articles())
		if !app.view.CanCreate() {
			fmt.Fprintln(app.out, app.view.Notice())
		}
		return nil

	case "mine":
		list, err := app.api.MyArticles(ctx)
		if err != nil {
			return err
		}
		app.render(list)
		return nil

	case "create":
		form, _, err := parseForm("create", args, client.Form{})
		if err != nil {
			return err
		}
		if err := app.view.Mount(ctx); err != nil {
			return err
		}
		if !app.view.CanCreate() {
			return errors.New(app.view.Notice())
		}
		app.view.SetForm(form)
		article, err := app.view.Submit(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.out, "created article %d\n", article.ID)
		return nil

	case "update":
		article, rest, err := app.target(ctx, args)
		if err != nil {
			return err
		}
		form, _, err := parseForm("update", rest, formOf(article))
		if err != nil {
			return err
		}
		updated, err := app.view.Update(ctx, article, form)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.out, "updated article %d\n", updated.ID)
		return nil

	case "delete":
		article, _, err := app.target(ctx, args)
		if err != nil {
			return err
		}
		deleted, err := app.view.Delete(ctx, article, app.confirm)
		if err != nil {
			return err
		}
		if !deleted {
			fmt.Fprintln(app.out, "cancelled")
			return nil
		}
		fmt.Fprintf(app.out, "deleted article %d\n", article.ID)
		return nil
	}

	fmt.Fprint(app.out, usage)
	return fmt.Errorf("collector: unknown command %q", command)
}

// target resuelve el artículo del primer argumento y monta la vista.
func (app *app) target(ctx context.Context, args []string) (articles.Article, []string, error) {
	if len(args) == 0 {
		return articles.Article{}, nil, errors.New("collector: missing article id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id < 1 {
		return articles.Article{}, nil, fmt.Errorf("collector: invalid article id %q", args[0])
	}

	if err := app.view.Mount(ctx); err != nil {
		return articles.Article{}, nil, err
	}
	article, err := app.api.GetArticle(ctx, id)
	if err != nil {
		return articles.Article{}, nil, err
	}
	return article, args[1:], nil
}

func (app *app) confirm(article articles.Article) bool {
	fmt.Fprintf(app.out, "Delete %q? [y/N] ", article.Title)
	answer, err := app.in.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func (app *app) render(list []articles.Article) {
	writer := tabwriter.NewWriter(app.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tTITLE\tPRICE\tSELLER\tIMAGE\t")
	for _, article := range list {
		seller := "-"
		if article.SellerID != nil {
			seller = *article.SellerID
		}
		if app.view.CanDelete(article) {
			seller += " (you)"
		}
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\t\n", article.ID, article.Title, article.Price, seller, client.ImageURL(article))
	}
	_ = writer.Flush()
}

// parseForm lee los flags del formulario partiendo de base.
func parseForm(name string, args []string, base client.Form) (client.Form, []string, error) {
	form := base
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.StringVar(&form.Title, "title", form.Title, "article title")
	flags.StringVar(&form.Price, "price", form.Price, "price with at most two decimals")
	flags.StringVar(&form.Description, "description", form.Description, "free text description")
	flags.StringVar(&form.ImageURL, "image", form.ImageURL, "image URL")
	if err := flags.Parse(args); err != nil {
		return client.Form{}, nil, err
	}
	return form, flags.Args(), nil
}

func formOf(article articles.Article) client.Form {
	form := client.Form{Title: article.Title, Price: article.Price}
	if article.Description != nil {
		form.Description = *article.Description
	}
	if article.ImageURL != nil {
		form.ImageURL = *article.ImageURL
	}
	return form
}
