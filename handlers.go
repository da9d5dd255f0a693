package main

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"time"

	"github.com/kwv/wifimesh/field"
)

// newHTTPServer creates an HTTP server serving the latest coverage maps and
// model comparison results.
func newHTTPServer(app *App) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		snap := app.Snapshot()
		status := struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			Samples   int       `json:"samples"`
			Trained   bool      `json:"trained"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
			Samples:   app.SampleCount(),
			Trained:   snap != nil && snap.Field != nil,
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding health status: %v", err)
		}
	})

	// Model comparison results
	mux.HandleFunc("/results.json", func(w http.ResponseWriter, r *http.Request) {
		snap := app.Snapshot()
		if snap == nil {
			http.Error(w, "No results yet", http.StatusServiceUnavailable)
			return
		}
		payload := struct {
			RunID   string                   `json:"runId"`
			Best    string                   `json:"best,omitempty"`
			Results []field.EvaluationResult `json:"results"`
		}{
			RunID:   snap.Info.ID,
			Best:    snap.Best,
			Results: snap.Results,
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("Error encoding results: %v", err)
		}
	})

	// Coverage heatmap endpoint. ?ap=<id> renders a single access point's
	// field instead of the best-signal composite.
	mux.HandleFunc("/coverage.png", func(w http.ResponseWriter, r *http.Request) {
		snap := app.Snapshot()
		if snap == nil || snap.Field == nil {
			http.Error(w, "No coverage field available", http.StatusServiceUnavailable)
			return
		}

		renderer := field.NewHeatmapRenderer()
		var img image.Image
		if apID := r.URL.Query().Get("ap"); apID != "" {
			perAP, err := renderer.RenderAP(snap.Field, apID, app.Config.AccessPoints, app.Materials)
			if err != nil {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			img = perAP
		} else {
			img = renderer.Render(snap.Field, app.Config.AccessPoints, app.Materials)
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := png.Encode(w, img); err != nil {
			log.Printf("Error encoding coverage PNG: %v", err)
		}
	})

	// Coverage vector endpoint
	mux.HandleFunc("/coverage.svg", func(w http.ResponseWriter, r *http.Request) {
		snap := app.Snapshot()
		if snap == nil || snap.Field == nil {
			http.Error(w, "No coverage field available", http.StatusServiceUnavailable)
			return
		}

		renderer := field.NewVectorRenderer(snap.Field, app.Config.AccessPoints, app.Materials)
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderToSVG(w); err != nil {
			log.Printf("Error encoding coverage SVG: %v", err)
		}
	})

	// Default route serves HTML page embedding the SVG map
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = fmt.Fprint(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>wifimesh</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
html,body{width:100%;height:100%;overflow:hidden;background:#1a1a1a}
img{display:block;width:100vw;height:100vh;object-fit:contain}
</style>
</head>
<body>
<img src="/coverage.svg" alt="Coverage Map">
</body>
</html>`)
	})

	// Wrap mux with logging middleware
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		mux.ServeHTTP(w, r)
	})
}
