package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"

	"vidbits/internal/pipeline"
)

// renderSimilarityChart plots adjacent and reference similarity per frame
// against the gate threshold.
func renderSimilarityChart(w io.Writer, profile pipeline.Profile) error {
	if len(profile.Points) < 2 {
		return errors.New("chart needs at least two frames")
	}
	xs := make([]float64, 0, len(profile.Points))
	adjacent := make([]float64, 0, len(profile.Points))
	reference := make([]float64, 0, len(profile.Points))
	threshold := make([]float64, 0, len(profile.Points))
	for _, pt := range profile.Points {
		xs = append(xs, float64(pt.Index))
		adjacent = append(adjacent, pt.Adjacent)
		reference = append(reference, pt.Reference)
		threshold = append(threshold, profile.Threshold)
	}

	graph := chart.Chart{
		Title:  "Frame similarity",
		Width:  1200,
		Height: 480,
		XAxis:  chart.XAxis{Name: "frame"},
		YAxis: chart.YAxis{
			Name:  "similarity %",
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: "adjacent", XValues: xs, YValues: adjacent},
			chart.ContinuousSeries{Name: "reference", XValues: xs, YValues: reference},
			chart.ContinuousSeries{
				Name:    "threshold",
				XValues: xs,
				YValues: threshold,
				Style:   chart.Style{StrokeDashArray: []float64{5, 5}},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
