package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/jinford/sheet-rag/internal/core/ingest"
)

// IngestAction はスプレッドシートを取り込むコマンドのアクション
func IngestAction(ctx context.Context, cmd *cli.Command) error {
	filePath := cmd.String("file")
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("ファイルの読み込みに失敗: %w", err)
	}

	result, err := appCtx.Container.IngestService.Ingest(ctx, ingest.IngestParams{
		Content:          content,
		OriginalFilename: filepath.Base(filePath),
	})
	if err != nil {
		return err
	}

	appCtx.Logger().Info("取り込みが完了しました",
		"fileID", result.FileID,
		"rows", result.RowCount,
		"embeddings", result.EmbeddingsCount,
		"metadataRecords", result.MetadataCount,
	)

	return printJSON(map[string]any{
		"fileID":          result.FileID,
		"filename":        result.Filename,
		"headers":         result.Headers,
		"rowCount":        result.RowCount,
		"embeddingsCount": result.EmbeddingsCount,
		"metadataCount":   result.MetadataCount,
	})
}
