package extract

import (
	"github.com/samber/mo"
)

// CellType はセル値の分類タグを表す
type CellType string

const (
	CellTypeText       CellType = "text"
	CellTypeFormula    CellType = "formula"
	CellTypeNumber     CellType = "number"
	CellTypePercentage CellType = "percentage"
	CellTypeCurrency   CellType = "currency"
	CellTypeDecimal    CellType = "decimal"
)

// IsNumerical は数値系の分類タグかどうかを返す
func (t CellType) IsNumerical() bool {
	switch t {
	case CellTypeNumber, CellTypePercentage, CellTypeCurrency, CellTypeDecimal:
		return true
	default:
		return false
	}
}

// Cell はスプレッドシートの1セルから抽出した値を表す
// テキスト値と数値はどちらか一方のみが設定される（数式セルは生の数式文字列を保持する）
type Cell struct {
	RowIndex       int
	ColumnName     string
	TextValue      mo.Option[string]
	NumericalValue mo.Option[float64]
	Type           CellType
	Formula        mo.Option[string]
}

// ExtractedData はファイル解析の結果を表す
// TextCells は埋め込み対象、NumericalCells はメタデータとして保存される
type ExtractedData struct {
	Filename       string
	Headers        []string
	TextCells      []Cell
	NumericalCells []Cell
	RowCount       int
	ContentHash    string
}

// CellCount は抽出した全セル数を返す
func (d *ExtractedData) CellCount() int {
	return len(d.TextCells) + len(d.NumericalCells)
}
