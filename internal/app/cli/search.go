package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/jinford/sheet-rag/internal/core/search"
	"github.com/jinford/sheet-rag/internal/core/suggest"
)

// SearchAction は意味検索を実行するコマンドのアクション
func SearchAction(ctx context.Context, cmd *cli.Command) error {
	query := cmd.String("query")
	limit := cmd.Int("limit")
	threshold := cmd.Float("threshold")
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	response, err := appCtx.Container.SearchService.Search(ctx, search.SearchParams{
		Query:     query,
		Limit:     limit,
		Threshold: threshold,
	})
	if err != nil {
		return err
	}

	return printJSON(response)
}

// SuggestAction はクエリサジェストを表示するコマンドのアクション
// 固定プールからの決定的なフィルタリングのみで、DB接続は不要
func SuggestAction(ctx context.Context, cmd *cli.Command) error {
	query := cmd.String("query")
	limit := cmd.Int("limit")

	generator := suggest.NewGenerator()
	return printJSON(map[string]any{
		"query":       query,
		"suggestions": generator.Suggest(query, limit),
	})
}
