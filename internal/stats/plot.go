package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series is a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight = 6
	minPlotWidth      = 10
	axisWidth         = 8
	axisSeparator     = " │"
	fallbackWidth     = 80
	colorReset        = "\x1b[0m"
)

var (
	eighths = []rune(" ▁▂▃▄▅▆▇█")
	palette = []string{"\x1b[36m", "\x1b[35m", "\x1b[33m", "\x1b[32m"}
)

// PlotSeries renders each series as a column chart scaled to its own range.
// A width of zero sizes the chart to the terminal.
func PlotSeries(w io.Writer, title string, series []Series, width, height int) error {
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minPlotWidth)
	color := useColor(w)

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for i, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		lines := columnChart(resample(s.Values, width), height)
		lo, hi := seriesRange(s.Values)
		header := fmt.Sprintf("%s (min %.2f, max %.2f)", s.Name, lo, hi)
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
		for row, line := range lines {
			label := ""
			switch row {
			case 0:
				label = fmt.Sprintf("%.1f", hi)
			case len(lines) - 1:
				label = fmt.Sprintf("%.1f", lo)
			}
			if color {
				line = palette[i%len(palette)] + line + colorReset
			}
			out := runewidth.FillLeft(runewidth.Truncate(label, axisWidth, ""), axisWidth) + axisSeparator + line
			if _, err := fmt.Fprintln(w, out); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// PlotWidthFor returns the chart width that fits beside the axis labels.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(totalWidth-axisWidth-runewidth.StringWidth(axisSeparator), minPlotWidth)
}

// columnChart draws one column per value, top row first.
func columnChart(values []float64, height int) []string {
	lo, hi := seriesRange(values)
	span := hi - lo
	levels := height * (len(eighths) - 1)
	filled := make([]int, len(values))
	for i, v := range values {
		if span < 1e-9 {
			filled[i] = levels / 2
			continue
		}
		filled[i] = clamp(int(math.Round((v-lo)/span*float64(levels))), 0, levels)
	}
	lines := make([]string, height)
	step := len(eighths) - 1
	for row := 0; row < height; row++ {
		floor := (height - row - 1) * step
		var b strings.Builder
		for _, f := range filled {
			b.WriteRune(eighths[clamp(f-floor, 0, step)])
		}
		lines[row] = b.String()
	}
	return lines
}

// resample stretches or averages values to exactly width points.
func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	n := len(values)
	switch {
	case n == 0:
		return out
	case n >= width:
		for i := range out {
			start := i * n / width
			end := max((i+1)*n/width, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	default:
		for i := range out {
			out[i] = values[i*n/width]
		}
	}
	return out
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

func useColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
