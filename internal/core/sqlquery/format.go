package sqlquery

import (
	"fmt"
	"strings"
)

// formatRows は表示用の注釈を行に付加する
//
// column_name がパーセンテージを示唆する行はパーセント表記、
// 売上・ノルマを示唆する行は通貨表記の formatted_value を追加する
// 元の数値自体は変更しない
func formatRows(rows []Row) []Row {
	for _, row := range rows {
		value, hasValue := numericValue(row["numerical_value"])
		columnName, hasColumn := row["column_name"].(string)
		if !hasValue || !hasColumn {
			continue
		}

		lowered := strings.ToLower(columnName)
		switch {
		case strings.Contains(lowered, "performance") || strings.Contains(columnName, "%"):
			row["formatted_value"] = formatPercent(value)
		case strings.Contains(lowered, "sales") || strings.Contains(lowered, "quota"):
			row["formatted_value"] = formatCurrency(value)
		}
	}
	return rows
}

// numericValue は行の値を float64 として解釈する
func numericValue(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int64:
		return float64(value), true
	case int:
		return float64(value), true
	default:
		return 0, false
	}
}

// formatPercent は比率をパーセント文字列に変換する（0.85 -> "85.00%"）
func formatPercent(value float64) string {
	return fmt.Sprintf("%.2f%%", value*100)
}

// formatCurrency は数値を通貨文字列に変換する（150000 -> "$150,000.00"）
func formatCurrency(value float64) string {
	negative := value < 0
	if negative {
		value = -value
	}

	whole := fmt.Sprintf("%.2f", value)
	parts := strings.SplitN(whole, ".", 2)
	grouped := groupThousands(parts[0])

	result := fmt.Sprintf("$%s.%s", grouped, parts[1])
	if negative {
		return "-" + result
	}
	return result
}

// groupThousands は整数部を3桁区切りにする
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var sb strings.Builder
	offset := len(digits) % 3
	if offset > 0 {
		sb.WriteString(digits[:offset])
	}
	for i := offset; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}
