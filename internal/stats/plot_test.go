package stats

import (
	"bytes"
	"strings"
	"testing"
)

func TestPlotSeries(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Test Plot", []Series{
		{Name: "A", Values: []float64{1, 2, 3, 2, 1}},
		{Name: "B", Values: []float64{1, 1, 2, 3, 4}},
		{Name: "Empty"},
	}, 10, 4)
	if err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Test Plot") {
		t.Fatalf("expected title in output")
	}
	if !strings.Contains(out, "A (min 1.00, max 3.00)") || !strings.Contains(out, "B (min 1.00, max 4.00)") {
		t.Fatalf("expected series headers, got:\n%s", out)
	}
	if strings.Contains(out, "Empty") {
		t.Fatalf("expected empty series to be skipped")
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if want := 1 + 2*(1+4); len(lines) != want {
		t.Fatalf("expected %d lines, got %d", want, len(lines))
	}
}

func TestColumnChartFillsToMax(t *testing.T) {
	lines := columnChart([]float64{0, 10}, 2)
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(lines))
	}
	if lines[0] != " █" || lines[1] != " █" {
		t.Fatalf("unexpected chart: %q", lines)
	}
}

func TestResample(t *testing.T) {
	if got := resample([]float64{1, 3, 5, 7}, 2); got[0] != 2 || got[1] != 6 {
		t.Fatalf("expected bucket averages, got %v", got)
	}
	if got := resample([]float64{1, 2}, 4); got[0] != 1 || got[3] != 2 {
		t.Fatalf("expected stretched values, got %v", got)
	}
}

func TestPlotWidthFor(t *testing.T) {
	if got := PlotWidthFor(80); got != 80-axisWidth-2 {
		t.Fatalf("unexpected width %d", got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width, got %d", got)
	}
}
