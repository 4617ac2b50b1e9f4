package report

import (
	"fmt"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/reelworks/tapeprep/internal/session"
)

// maxChartPoints caps the points per chart; longer tracks are
// downsampled by stride to keep the HTML payload reasonable.
const maxChartPoints = 2000

// WriteLevelChart renders each track's level series as a line chart on
// a single HTML page, one chart per track.
func WriteLevelChart(path string, tracks []*session.Track) error {
	page := components.NewPage()
	for _, track := range tracks {
		page.AddCharts(levelChart(track))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("failed to render level chart: %w", err)
	}
	return nil
}

// levelChart builds one track's left/right level plot on the meter's
// 0-1 scale.
func levelChart(track *session.Track) *charts.Line {
	samples := track.Series.Samples
	stride := chartStride(len(samples))

	x := make([]string, 0, len(samples)/stride+1)
	left := make([]opts.LineData, 0, len(samples)/stride+1)
	right := make([]opts.LineData, 0, len(samples)/stride+1)
	for i := 0; i < len(samples); i += stride {
		s := samples[i]
		x = append(x, fmt.Sprintf("%.1fs", float64(s.TimeMS)/1000))
		left = append(left, opts.LineData{Value: s.Left})
		right = append(right, opts.LineData{Value: s.Right})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "tapeprep levels", Theme: "dark", Width: "1200px", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    track.Name,
			Subtitle: fmt.Sprintf("%s, peak %.1f dBFS, %d samples at %dms", formatDurationHMS(track.DurationSeconds), track.PeakDBFS, len(samples), track.Series.ChunkMS),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Level", Min: 0, Max: 1}),
	)

	line.SetXAxis(x).
		AddSeries("left", left, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)})).
		AddSeries("right", right, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}

// chartStride picks the sampling stride that keeps n points under the
// chart cap.
func chartStride(n int) int {
	if n <= maxChartPoints {
		return 1
	}
	return int(math.Ceil(float64(n) / float64(maxChartPoints)))
}
