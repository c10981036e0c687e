package extract

import (
	"bytes"
	"crypto/md5"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/samber/mo"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFileType は許可されていない拡張子のエラー
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrEmptyFile は空または解析不能なファイルのエラー
	ErrEmptyFile = errors.New("file is empty or could not be parsed")
)

// 削除対象のプレースホルダーヘッダー名（小文字比較）
var placeholderHeaders = map[string]struct{}{
	"unnamed": {},
	"index":   {},
}

// Extractor はスプレッドシートを解析してセル単位の型付きデータに変換する
type Extractor struct {
	allowedExtensions []string
}

// NewExtractor は新しい Extractor を作成する
// allowedExtensions が空の場合はデフォルト（.xlsx/.xls/.csv）を使用する
func NewExtractor(allowedExtensions []string) *Extractor {
	if len(allowedExtensions) == 0 {
		allowedExtensions = []string{".xlsx", ".xls", ".csv"}
	}
	return &Extractor{allowedExtensions: allowedExtensions}
}

// Extract はファイルのバイト列を解析し、ヘッダーとセルデータを抽出する
// テキスト系セル（text/formula）と数値系セル（number/percentage/currency/decimal）に分割して返す
func (e *Extractor) Extract(content []byte, filename string) (*ExtractedData, error) {
	if !e.isSupportedFile(filename) {
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFileType, filename, strings.Join(e.allowedExtensions, ", "))
	}

	if len(content) == 0 {
		return nil, ErrEmptyFile
	}

	// 重複アップロード検出用のコンテンツハッシュ
	// バイト列のみから決定されるため、同一内容は常に同一ハッシュになる
	sum := md5.Sum(content)
	contentHash := hex.EncodeToString(sum[:])

	rows, err := e.readRows(content, filename)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	headers, columnIndexes := cleanHeaders(rows[0])
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: no usable headers found", ErrEmptyFile)
	}

	dataRows := rows[1:]

	var textCells, numericalCells []Cell
	for rowIdx, row := range dataRows {
		for i, header := range headers {
			colIdx := columnIndexes[i]
			if colIdx >= len(row) {
				continue
			}

			raw := strings.TrimSpace(row[colIdx])
			if raw == "" {
				// 欠損セルはスキップ
				continue
			}

			cell := classifyCell(rowIdx, header, raw)
			if cell.Type.IsNumerical() {
				numericalCells = append(numericalCells, cell)
			} else {
				textCells = append(textCells, cell)
			}
		}
	}

	return &ExtractedData{
		Filename:       filename,
		Headers:        headers,
		TextCells:      textCells,
		NumericalCells: numericalCells,
		RowCount:       len(dataRows),
		ContentHash:    contentHash,
	}, nil
}

// isSupportedFile は拡張子が許可リストに含まれるかを判定する
func (e *Extractor) isSupportedFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range e.allowedExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// readRows はファイル形式に応じて全行を文字列の2次元配列として読み込む
func (e *Extractor) readRows(content []byte, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return readCSVRows(content)
	case ".xlsx", ".xls":
		return readExcelRows(content, filename)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, filename)
	}
}

func readCSVRows(content []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	// 行ごとの列数のばらつきを許容する
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading csv content: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readExcelRows(content []byte, filename string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", filename, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	// 先頭シートのみを対象とする
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// cleanHeaders はヘッダー行を整形し、採用したヘッダー名と元の列インデックスを返す
// 空白をトリムし、プレースホルダー名（unnamed/index）の列は除外する
func cleanHeaders(headerRow []string) ([]string, []int) {
	headers := make([]string, 0, len(headerRow))
	indexes := make([]int, 0, len(headerRow))

	for i, h := range headerRow {
		header := strings.TrimSpace(h)
		if header == "" {
			continue
		}
		if _, ok := placeholderHeaders[strings.ToLower(header)]; ok {
			continue
		}
		headers = append(headers, header)
		indexes = append(indexes, i)
	}
	return headers, indexes
}

// classifyCell はセルの生文字列を分類してCellを作成する
// 判定順序: 数値 → 数式（"="始まり）→ テキスト
func classifyCell(rowIdx int, columnName string, raw string) Cell {
	if value, ok := parseNumeric(raw); ok {
		return Cell{
			RowIndex:       rowIdx,
			ColumnName:     columnName,
			NumericalValue: mo.Some(value),
			Type:           classifyNumericalType(value, raw),
		}
	}

	if strings.HasPrefix(raw, "=") {
		// 数式セルは生の数式文字列を保持する
		return Cell{
			RowIndex:   rowIdx,
			ColumnName: columnName,
			TextValue:  mo.Some(raw),
			Type:       CellTypeFormula,
			Formula:    mo.Some(raw),
		}
	}

	return Cell{
		RowIndex:   rowIdx,
		ColumnName: columnName,
		TextValue:  mo.Some(raw),
		Type:       CellTypeText,
	}
}

// classifyNumericalType は数値の分類タグを決定する
// 判定順序: percentage → currency → decimal → number
func classifyNumericalType(value float64, raw string) CellType {
	if strings.Contains(raw, "%") || (value >= 0 && value <= 1) {
		return CellTypePercentage
	}

	for _, symbol := range currencySymbols {
		if strings.Contains(raw, symbol) {
			return CellTypeCurrency
		}
	}

	if hasFractionalPart(raw) {
		return CellTypeDecimal
	}

	return CellTypeNumber
}
