package grid

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"eventplanner/internal/dates"
	"eventplanner/internal/model"
)

const (
	dateColWidth   = 12
	minColumnWidth = 14
	defaultWidth   = 120
)

// Render writes a plain-text agenda of the grid: one line per day of win,
// one column per (category, subcategory) row. Columns that do not fit in
// width are dropped and reported on the last line. Cell text is truncated by
// display width, so accented labels stay aligned.
func Render(w io.Writer, idx *Index, win Window, width int) error {
	if width <= 0 {
		width = defaultWidth
	}
	rows := idx.Rows()
	bw := bufio.NewWriter(w)

	if len(rows) == 0 {
		fmt.Fprintln(bw, "Sem eventos.")
		return bw.Flush()
	}

	fit := (width - dateColWidth) / (minColumnWidth + 1)
	if fit < 1 {
		fit = 1
	}
	shown := rows
	if len(shown) > fit {
		shown = shown[:fit]
	}
	colWidth := (width-dateColWidth)/len(shown) - 1
	if colWidth < minColumnWidth {
		colWidth = minColumnWidth
	}

	header := make([]string, 0, len(shown))
	sub := make([]string, 0, len(shown))
	for _, key := range shown {
		header = append(header, pad(key.Category, colWidth))
		sub = append(sub, pad(key.Subcategory, colWidth))
	}
	fmt.Fprintln(bw, pad("", dateColWidth)+strings.Join(header, " "))
	fmt.Fprintln(bw, pad("", dateColWidth)+strings.Join(sub, " "))

	for _, day := range win.Dates() {
		iso := dates.FormatISO(day)
		cells := make([]string, 0, len(shown))
		for _, key := range shown {
			cells = append(cells, pad(cellText(idx.CellByKey(key, iso)), colWidth))
		}
		line := pad(day.Format("Mon 02/01"), dateColWidth) + strings.Join(cells, " ")
		fmt.Fprintln(bw, strings.TrimRight(line, " "))
	}

	if hidden := len(rows) - len(shown); hidden > 0 {
		fmt.Fprintf(bw, "(+%d linhas ocultas; aumente a largura)\n", hidden)
	}
	return bw.Flush()
}

func cellText(recs []model.Event) string {
	if len(recs) == 0 {
		return ""
	}
	first := recs[0]
	text := first.Name
	if first.IsGap {
		text = "· " + text
	} else if first.Time != "" {
		text = first.Time + " " + text
	}
	if len(recs) > 1 {
		text = fmt.Sprintf("%s (+%d)", text, len(recs)-1)
	}
	return text
}

func pad(s string, width int) string {
	s = runewidth.Truncate(s, width, "…")
	return runewidth.FillRight(s, width)
}
