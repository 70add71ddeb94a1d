// cmd/chartrender renders a chart frame from SQLite history to a standalone
// SVG file. It drives the same engine the server uses, so a rendered file is
// a faithful offline snapshot of what a connected client would see.
//
// Usage:
//
//	go run ./cmd/chartrender --db=data/chart.db --symbol=AAPL --resolution=1d --out=chart.svg
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"chart-systemv1/internal/chart"
	"chart-systemv1/internal/model"
	sqlitestore "chart-systemv1/internal/store/sqlite"

	"gopkg.in/yaml.v3"
)

// Style controls the visual appearance of the rendered SVG. It maps directly
// to the YAML style file; zero values fall back to the defaults below.
type Style struct {
	Background string `yaml:"background"`
	Curve      struct {
		PreMarket  string  `yaml:"pre_market"`
		Regular    string  `yaml:"regular"`
		AfterHours string  `yaml:"after_hours"`
		Width      float64 `yaml:"width"`
	} `yaml:"curve"`
	Divider struct {
		Color string  `yaml:"color"`
		Width float64 `yaml:"width"`
	} `yaml:"divider"`
	PrevClose struct {
		Color string `yaml:"color"`
		Dash  string `yaml:"dash"`
	} `yaml:"prev_close"`
	Marker struct {
		Fill     string  `yaml:"fill"`
		Radius   float64 `yaml:"radius"`
		Text     string  `yaml:"text"`
		FontSize int     `yaml:"font_size"`
	} `yaml:"marker"`
}

func defaultStyle() Style {
	var s Style
	s.Background = "#ffffff"
	s.Curve.PreMarket = "#8a8a8a"
	s.Curve.Regular = "#1a73e8"
	s.Curve.AfterHours = "#8a8a8a"
	s.Curve.Width = 1.5
	s.Divider.Color = "#cccccc"
	s.Divider.Width = 1
	s.PrevClose.Color = "#999999"
	s.PrevClose.Dash = "4,3"
	s.Marker.Fill = "#f9ab00"
	s.Marker.Radius = 5
	s.Marker.Text = "#333333"
	s.Marker.FontSize = 10
	return s
}

func loadStyle(path string) (Style, error) {
	if path == "" {
		return defaultStyle(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Style{}, fmt.Errorf("read style file: %w", err)
	}
	s := defaultStyle()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Style{}, fmt.Errorf("parse style file: %w", err)
	}
	return s, nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	dbPath := flag.String("db", "data/chart.db", "Path to SQLite database")
	symbol := flag.String("symbol", "AAPL", "Symbol to render")
	resStr := flag.String("resolution", "1d", "Past resolution (1d, 1w, 1m, 3m, 6m, 1y, 5y)")
	horStr := flag.String("horizon", "3m", "Future horizon (1m, 3m, 6m, 1y, 3y)")
	atStr := flag.String("at", "", "Render instant, RFC3339 (default: now)")
	width := flag.Float64("width", 780, "Viewport width in pixels")
	height := flag.Float64("height", 520, "Viewport height in pixels")
	pastFrac := flag.Float64("past", 0.6, "Past region fraction of the width")
	stylePath := flag.String("style", "", "Optional YAML style file")
	outPath := flag.String("out", "chart.svg", "Output SVG path")
	flag.Parse()

	res, err := model.ParseResolution(*resStr)
	if err != nil {
		log.Fatalf("[chartrender] %v", err)
	}
	hor, err := model.ParseHorizon(*horStr)
	if err != nil {
		log.Fatalf("[chartrender] %v", err)
	}

	now := time.Now()
	if *atStr != "" {
		now, err = time.Parse(time.RFC3339, *atStr)
		if err != nil {
			log.Fatalf("[chartrender] bad --at: %v", err)
		}
	}

	vp := model.Viewport{WidthPx: *width, HeightPx: *height, PastFraction: *pastFrac}
	if !vp.Valid() {
		log.Fatalf("[chartrender] invalid viewport %+v", vp)
	}

	style, err := loadStyle(*stylePath)
	if err != nil {
		log.Fatalf("[chartrender] %v", err)
	}

	reader, err := sqlitestore.NewReader(*dbPath)
	if err != nil {
		log.Fatalf("[chartrender] sqlite open failed: %v", err)
	}
	defer reader.Close()

	samples, err := reader.ReadSamples(*symbol, now.Add(-res.Window()), now)
	if err != nil {
		log.Fatalf("[chartrender] read samples: %v", err)
	}
	events, err := reader.ReadCatalysts(*symbol, now.Add(hor.Duration()))
	if err != nil {
		log.Fatalf("[chartrender] read catalysts: %v", err)
	}

	engine := chart.New(res, hor, vp)
	engine.SetSamples(samples)
	engine.SetCatalysts(events)
	if close, ok, err := reader.ReadPreviousClose(*symbol, now); err != nil {
		log.Fatalf("[chartrender] read previous close: %v", err)
	} else if ok {
		engine.SetPreviousClose(close)
	}

	frame, err := engine.Render(now)
	if err != nil {
		log.Fatalf("[chartrender] render: %v", err)
	}

	svg := generateSVG(frame, style)
	if err := os.WriteFile(*outPath, []byte(svg), 0o644); err != nil {
		log.Fatalf("[chartrender] write %s: %v", *outPath, err)
	}

	log.Printf("[chartrender] wrote %s (%d samples, %d segments, %d markers)",
		*outPath, len(samples), len(frame.Past), len(frame.Markers))
}

// generateSVG turns a rendered frame into a standalone SVG document.
func generateSVG(f model.Frame, style Style) string {
	var svg strings.Builder

	w := f.Viewport.WidthPx
	h := f.Viewport.HeightPx
	svg.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg width="%s" height="%s" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
`, fmtPx(w), fmtPx(h), style.Background))

	// Previous-close reference line spans the past region only.
	if f.HasPrevClose {
		svg.WriteString(fmt.Sprintf(`<line x1="0" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="1" stroke-dasharray="%s"/>`,
			fmtPx(f.PrevCloseY), fmtPx(f.DividerX), fmtPx(f.PrevCloseY),
			style.PrevClose.Color, style.PrevClose.Dash))
		svg.WriteString("\n")
	}

	for _, seg := range f.Past {
		svg.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="%s" stroke-width="%s" opacity="%s"/>`,
			seg.Path, curveColor(seg.Session, style), fmtPx(style.Curve.Width), fmtPx(seg.Opacity)))
		svg.WriteString("\n")
	}

	// Divider between past and future regions.
	svg.WriteString(fmt.Sprintf(`<line x1="%s" y1="0" x2="%s" y2="%s" stroke="%s" stroke-width="%s"/>`,
		fmtPx(f.DividerX), fmtPx(f.DividerX), fmtPx(h),
		style.Divider.Color, fmtPx(style.Divider.Width)))
	svg.WriteString("\n")

	for _, m := range f.Markers {
		svg.WriteString(fmt.Sprintf(`<circle cx="%s" cy="%s" r="%s" fill="%s"/>`,
			fmtPx(m.X), fmtPx(m.Y), fmtPx(style.Marker.Radius), style.Marker.Fill))
		svg.WriteString("\n")
		if m.Count > 1 {
			svg.WriteString(fmt.Sprintf(`<text x="%s" y="%s" font-size="%d" fill="%s" text-anchor="middle">%d</text>`,
				fmtPx(m.X), fmtPx(m.Y-style.Marker.Radius-2), style.Marker.FontSize,
				style.Marker.Text, m.Count))
			svg.WriteString("\n")
		}
	}

	svg.WriteString("</svg>\n")
	return svg.String()
}

func curveColor(tag model.SessionTag, style Style) string {
	switch tag {
	case model.PreMarket:
		return style.Curve.PreMarket
	case model.AfterHours:
		return style.Curve.AfterHours
	default:
		return style.Curve.Regular
	}
}

func fmtPx(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
