package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/jinford/sheet-rag/internal/core/sqlquery"
)

// SQLQueryAction は自然言語からのSQL検索を実行するコマンドのアクション
func SQLQueryAction(ctx context.Context, cmd *cli.Command) error {
	query := cmd.String("query")
	tableContext := cmd.String("context")
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	result, err := appCtx.Container.SQLQueryService.Query(ctx, sqlquery.QueryParams{
		NaturalQuery: query,
		TableContext: tableContext,
	})
	if err != nil {
		return err
	}

	return printJSON(result)
}
