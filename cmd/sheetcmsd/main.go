package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"

	"github.com/amanihub/sheetcms/internal/infra/config"
	"github.com/amanihub/sheetcms/internal/infra/logging"
	"github.com/amanihub/sheetcms/internal/infra/transport/http"
	"github.com/amanihub/sheetcms/internal/repo/content"
	"github.com/amanihub/sheetcms/internal/repo/media"
	"github.com/amanihub/sheetcms/internal/repo/user"
	"github.com/amanihub/sheetcms/internal/svc/sheetsvc"
)

const (
	appName = "sheetcms"
	svcName = "sheetcmsd"
)

type Config struct {
	config.EnvConfig

	Log     logging.LoggerConfig                  `envPrefix:"LOG_"`
	Sheet   sheetsvc.SheetConfig                  `envPrefix:"SHEET_"`
	HTTP    sheetsvc.HTTPTransportConfig          `envPrefix:"HTTP_"`
	User    user.SQLiteUserRepositoryConfig       `envPrefix:"USER_"`
	Content content.SQLiteContentRepositoryConfig `envPrefix:"CONTENT_"`
	Media   media.FileSystemMediaRepositoryConfig `envPrefix:"MEDIA_"`
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

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	defer func() {
		log := logging.GetLogger("cmd.sheetcmsd")

		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
			panic(err)
		}

		log.InfoContext(ctx, "shutdown")
	}()

	sheetSvc, err := sheetsvc.NewSheetService(
		ctx,
		user.SQLiteUserRepositoryFactory(cfg.User),
		content.SQLiteContentRepositoryFactory(cfg.Content),
		media.FileSystemMediaRepositoryFactory(cfg.Media),
		cfg.Sheet,
	)
	if err != nil {
		return fmt.Errorf("new sheet service: %w", err)
	}
	defer sheetSvc.Close()

	httpTransport := sheetsvc.NewHTTPTransport(sheetSvc, cfg.HTTP)

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
