package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/kwv/wifimesh/field"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	configFile = flag.String("config", "config.yaml", "Path to configuration file")
	dataFile   = flag.String("data", "", "Path to survey dataset CSV (omit to generate a synthetic survey)")
	surveyOnly = flag.Bool("survey", false, "Generate a synthetic survey CSV and exit")
	surveyOut  = flag.String("survey-out", "survey.csv", "Output file for --survey mode")
	spacing    = flag.Float64("spacing", 2.0, "Synthetic survey sample spacing in meters")
	augmentTo  = flag.Int("augment", 0, "Augment measured data with synthetic samples up to this count")
	runsDir    = flag.String("runs-dir", "runs", "Base directory for run artifacts")
	mqttMode   = flag.Bool("mqtt", false, "Run MQTT service mode for live survey ingestion")
	httpMode   = flag.Bool("http", false, "Enable HTTP server for serving coverage maps and results")
	httpPort   = flag.Int("http-port", 8080, "HTTP server port (default 8080)")
	seed       = flag.Int64("seed", 0, "Override the training seed from config")
	// Rendering flags
	renderFormat = flag.String("format", "raster", "Render format: raster, vector, or both")
)

func main() {
	flag.Parse()
	fmt.Printf("wifimesh version: %s\n", Version)

	// Optional .env for broker credentials and path overrides.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg, err := field.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if *seed != 0 {
		cfg.Training.Seed = *seed
	}

	if *surveyOnly {
		runSurvey(cfg)
		return
	}

	if *mqttMode || *httpMode {
		runService(cfg, *httpMode, *httpPort)
		return
	}

	runOffline(cfg)
}

// runSurvey generates a synthetic survey dataset from the propagation model
// and the configured building layout.
func runSurvey(cfg *field.Config) {
	mm, err := field.NewMaterialMap(cfg.Building, cfg.Materials, cfg.Attenuation)
	if err != nil {
		log.Fatalf("Error building material map: %v", err)
	}
	model := field.NewPropagationModel(cfg.Propagation, cfg.Attenuation)

	samples := field.GenerateSurvey(cfg.AccessPoints, mm, model, field.SurveyOptions{
		Spacing:  *spacing,
		NoiseStd: cfg.Propagation.NoiseStd,
		Seed:     cfg.Training.Seed,
	})
	if err := field.SaveSamples(*surveyOut, samples); err != nil {
		log.Fatalf("Error writing survey: %v", err)
	}
	log.Printf("Wrote %d synthetic samples to %s", len(samples), *surveyOut)
}

// runOffline executes one batch pipeline run and writes the run artifacts.
func runOffline(cfg *field.Config) {
	samples := loadOrGenerate(cfg)

	result, err := field.RunPipeline(cfg, samples)
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	dir, err := field.NewRunDir(*runsDir, time.Now())
	if err != nil {
		log.Fatalf("Error creating run directory: %v", err)
	}
	if err := field.SaveRunInfo(dir, result.Info); err != nil {
		log.Fatalf("Error saving run info: %v", err)
	}
	log.Printf("Run %s artifacts in %s", result.Info.ID, dir)

	for _, r := range result.Results {
		if r.Skipped {
			log.Printf("  %-8s skipped: %s", r.Model, r.Fault)
			continue
		}
		log.Printf("  %-8s RMSE=%.2f R2=%.3f CV=%.2f+/-%.2f", r.Model, r.RMSE, r.R2, r.CVRMSE, r.CVRMSEStd)
	}

	if result.Field == nil {
		log.Println("No model trained, skipping coverage render")
		return
	}
	renderField(cfg, result, dir)
}

func renderField(cfg *field.Config, result *field.PipelineResult, dir string) {
	mm, err := field.NewMaterialMap(cfg.Building, cfg.Materials, cfg.Attenuation)
	if err != nil {
		log.Fatalf("Error building material map: %v", err)
	}

	if *renderFormat == "raster" || *renderFormat == "both" {
		out := filepath.Join(dir, "coverage.png")
		renderer := field.NewHeatmapRenderer()
		if err := renderer.RenderToFile(out, result.Field, cfg.AccessPoints, mm); err != nil {
			log.Fatalf("Error rendering coverage: %v", err)
		}
		log.Printf("Coverage heatmap written to %s", out)
	}

	if *renderFormat == "vector" || *renderFormat == "both" {
		out := filepath.Join(dir, "coverage.svg")
		f, err := os.Create(out)
		if err != nil {
			log.Fatalf("Error creating %s: %v", out, err)
		}
		vr := field.NewVectorRenderer(result.Field, cfg.AccessPoints, mm)
		if err := vr.RenderToSVG(f); err != nil {
			f.Close()
			log.Fatalf("Error rendering SVG: %v", err)
		}
		f.Close()
		log.Printf("Coverage vector plot written to %s", out)
	}
}

// loadOrGenerate loads the measured dataset, or falls back to a synthetic
// survey when none is given. With --augment, sparse measured data is topped
// up from the propagation model.
func loadOrGenerate(cfg *field.Config) []field.Sample {
	mm, err := field.NewMaterialMap(cfg.Building, cfg.Materials, cfg.Attenuation)
	if err != nil {
		log.Fatalf("Error building material map: %v", err)
	}
	model := field.NewPropagationModel(cfg.Propagation, cfg.Attenuation)
	opt := field.SurveyOptions{
		Spacing:  *spacing,
		NoiseStd: cfg.Propagation.NoiseStd,
		Seed:     cfg.Training.Seed,
	}

	if *dataFile == "" {
		log.Println("No dataset given, generating synthetic survey")
		return field.GenerateSurvey(cfg.AccessPoints, mm, model, opt)
	}

	samples, err := field.LoadSamples(*dataFile)
	if err != nil {
		log.Fatalf("Error loading dataset: %v", err)
	}
	log.Printf("Loaded %d samples from %s", len(samples), *dataFile)

	if *augmentTo > len(samples) {
		samples = field.AugmentSamples(samples, *augmentTo, cfg.AccessPoints, mm, model, opt)
		log.Printf("Augmented dataset to %d samples", len(samples))
	}
	return samples
}
