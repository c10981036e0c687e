package extract

import (
	"strconv"
	"strings"
)

// 通貨判定に使用する記号
var currencySymbols = []string{"$", "€", "£", "¥", "₹"}

// parseNumeric は通貨記号・桁区切り・%記号を取り除いた上で数値として解釈を試みる
// "1,200.50"、"$300"、"85%" のような表記も数値セルとして扱う
func parseNumeric(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(raw)
	for _, symbol := range currencySymbols {
		cleaned = strings.ReplaceAll(cleaned, symbol, "")
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSuffix(cleaned, "%")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// hasFractionalPart は数値文字列が小数表現を含むかを判定する
func hasFractionalPart(raw string) bool {
	return strings.Contains(raw, ".")
}
