package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/jinford/sheet-rag/internal/interface/httpapi"
)

// ServerStartAction はHTTP APIサーバを起動するコマンドのアクション
func ServerStartAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	port := cmd.Int("port")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if port <= 0 {
		port = appCtx.Config.Server.Port
	}

	handler := httpapi.NewHandler(
		appCtx.Container.IngestService,
		appCtx.Container.SearchService,
		appCtx.Container.SQLQueryService,
		appCtx.Container.Suggester,
		appCtx.Container.HistoryRepo,
		httpapi.WithHandlerLogger(appCtx.Logger()),
		httpapi.WithMaxUploadSize(appCtx.Config.Upload.MaxFileSize),
	)

	server := httpapi.NewServer(handler, port, appCtx.Logger())
	return server.Run(ctx)
}
