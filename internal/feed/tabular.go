package feed

import (
	"strings"
)

// DetectDelimiter picks ';' when the first line holds strictly more
// semicolons than commas, ',' otherwise. Spreadsheets exported with a
// pt-BR locale use ';' because ',' is the decimal separator.
func DetectDelimiter(text string) rune {
	first := text
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		first = text[:i]
	}
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}
	return ','
}

// Parse splits delimited text into rows of cells.
//
// A '"' toggles quoting wherever it appears; inside quotes, '""' is a
// literal quote, and delimiters and line breaks are part of the cell. Rows end
// on an unquoted "\n", "\r\n" or lone "\r". Trailing rows made only of blank
// cells are dropped. Parse never fails: malformed input still yields rows,
// and interpreting them is up to the caller.
func Parse(text string) [][]string {
	delim := DetectDelimiter(text)

	var (
		rows     [][]string
		row      []string
		cell     strings.Builder
		inQuotes bool
	)

	endCell := func() {
		row = append(row, cell.String())
		cell.Reset()
	}
	endRow := func() {
		endCell()
		rows = append(rows, row)
		row = nil
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				cell.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == delim && !inQuotes:
			endCell()
		case (ch == '\n' || ch == '\r') && !inQuotes:
			if ch == '\r' && i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			endRow()
		default:
			cell.WriteRune(ch)
		}
	}
	endRow()

	return trimBlankTail(rows)
}

func trimBlankTail(rows [][]string) [][]string {
	for len(rows) > 0 && isBlankRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return nil
	}
	return rows
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
