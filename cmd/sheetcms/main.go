// Command sheetcms is a small terminal client for the content backend. It
// keeps its session in a local file, so consecutive invocations stay logged
// in until the session expires or logout is called.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/amanihub/sheetcms/internal/infra/config"
	"github.com/amanihub/sheetcms/internal/infra/logging"
	"github.com/amanihub/sheetcms/internal/svc/apiclient"
	"github.com/amanihub/sheetcms/internal/svc/authsvc"
	"github.com/amanihub/sheetcms/internal/svc/uploadsvc"
)

const (
	appName = "sheetcms"
	svcName = "cli"
)

type Config struct {
	config.EnvConfig

	Log       logging.LoggerConfig      `envPrefix:"LOG_"`
	Transport apiclient.TransportConfig `envPrefix:"API_"`
	Auth      authsvc.ManagerConfig     `envPrefix:"AUTH_"`
	Session   authsvc.FileStoreConfig   `envPrefix:"SESSION_"`
	Upload    uploadsvc.UploaderConfig  `envPrefix:"UPLOAD_"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	_ = godotenv.Load()

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type client struct {
	auth   *authsvc.Manager
	public *apiclient.PublicAPI
	admin  *apiclient.AdminAPI
	upload *uploadsvc.Uploader
}

func newClient(cfg Config) *client {
	transport := apiclient.NewTransport(cfg.Transport, nil, nil)
	auth := authsvc.NewManager(transport, authsvc.NewFileStore(cfg.Session), cfg.Auth)
	admin := apiclient.NewAdminAPI(transport)

	return &client{
		auth:   auth,
		public: apiclient.NewPublicAPI(transport),
		admin:  admin,
		upload: uploadsvc.NewUploader(nil, admin, cfg.Upload),
	}
}

//nolint:cyclop
func run(ctx context.Context, cfg Config, args []string) error {
	if len(args) == 0 {
		return usage()
	}

	cli := newClient(cfg)

	command, args := args[0], args[1:]

	switch command {
	case "login":
		return cli.login(ctx, args)
	case "logout":
		cli.auth.Logout(ctx)

		fmt.Println("logged out")

		return nil
	case "whoami":
		return cli.whoami(ctx)
	case "posts":
		return cli.posts(ctx, args)
	case "post":
		return cli.post(ctx, args)
	case "search":
		return cli.search(ctx, args)
	case "categories":
		return printJSON(cli.public.ListCategories(ctx))
	case "awards":
		return printJSON(cli.public.ListAwards(ctx))
	case "publications":
		return printJSON(cli.public.ListPublications(ctx))
	case "links":
		return printJSON(cli.public.ListSocialLinks(ctx))
	case "profile":
		return printJSON(cli.public.GetProfile(ctx))
	case "donate":
		return printJSON(cli.public.GetDonateInfo(ctx))
	case "users":
		return printJSON(cli.admin.ListUsers(ctx))
	case "upload":
		return cli.uploadFiles(ctx, args)
	default:
		return usage()
	}
}

func (c *client) login(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("login", flag.ExitOnError)
	email := flags.String("email", "", "account email")
	password := flags.String("password", "", "account password")

	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	user, err := c.auth.Login(ctx, *email, *password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	fmt.Printf("logged in as %s (%s)\n", user.Name, user.Email)

	return nil
}

func (c *client) whoami(ctx context.Context) error {
	user, ok := c.auth.CurrentUser()
	if !ok {
		fmt.Println("not logged in")

		return nil
	}

	super, err := c.admin.CheckSuperAdmin(ctx)
	if err != nil {
		return fmt.Errorf("check super admin: %w", err)
	}

	fmt.Printf("%s (%s) super_admin=%v\n", user.Name, user.Email, super)

	return nil
}

func (c *client) posts(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("posts", flag.ExitOnError)
	status := flags.String("status", "", "filter by status (admin sessions may use \"all\")")
	category := flags.Int64("category", 0, "filter by category id")

	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	if *status == "all" {
		return printJSON(c.admin.ListPosts(ctx))
	}

	return printJSON(c.public.ListPosts(ctx, apiclient.ListPostsParams{
		Status:     *status,
		CategoryID: *category,
	}))
}

func (c *client) post(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("post", flag.ExitOnError)
	id := flags.Int64("id", 0, "post id")

	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	return printJSON(c.public.GetPost(ctx, *id))
}

func (c *client) search(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("search", flag.ExitOnError)
	query := flags.String("q", "", "search query")

	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	return printJSON(c.public.SearchPosts(ctx, *query))
}

func (c *client) uploadFiles(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return usage()
	}

	files := make([]uploadsvc.File, 0, len(paths))

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		files = append(files, uploadsvc.File{
			Name:     filepath.Base(path),
			MIMEType: mimeTypeOf(path),
			Data:     data,
		})
	}

	summary, err := c.upload.UploadAll(ctx, files, func(percent int) {
		fmt.Printf("\rupload %3d%%", percent)
	})

	fmt.Println()

	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	for _, url := range summary.URLs {
		fmt.Println(url)
	}

	for _, warning := range summary.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", warning)
	}

	return nil
}

func printJSON(data any, err error) error {
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	return nil
}

func mimeTypeOf(path string) string {
	if mimeType := mime.TypeByExtension(filepath.Ext(path)); mimeType != "" {
		return mimeType
	}

	return "application/octet-stream"
}

func usage() error {
	fmt.Fprintln(os.Stderr, strings.TrimSpace(`
usage: sheetcms <command> [flags]

commands:
  login -email <email> -password <password>
  logout
  whoami
  posts [-status <status|all>] [-category <id>]
  post -id <id>
  search -q <query>
  categories | awards | publications | links | profile | donate
  users
  upload <file>...
`))

	return flag.ErrHelp
}
