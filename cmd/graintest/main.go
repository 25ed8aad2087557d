// Command graintest runs grain detection on a micrograph and outputs results.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"grain-tracer/internal/classic"
	"grain-tracer/internal/grain"
	"grain-tracer/internal/mask"
	"grain-tracer/internal/ml"
	"grain-tracer/internal/modelstore"
	"grain-tracer/internal/preprocess"
	"grain-tracer/internal/raster"
	"grain-tracer/internal/version"
)

func main() {
	imagePath := flag.String("image", "", "Path to thin-section image (TIFF, PNG, or JPEG)")
	method := flag.String("method", "classic", "Detection method: classic or ml")
	tracer := flag.String("tracer", "moore", "Contour tracer: moore or marching")
	jsonOut := flag.String("json", "", "Write grains as JSON to this path")
	preview := flag.String("preview", "", "Write a JPEG preview of the input image to this path")
	verbose := flag.Bool("v", false, "Verbose logging")
	showVersion := flag.Bool("version", false, "Print version and exit")

	sensitivity := flag.Int("sensitivity", 50, "Classic: edge sensitivity 0-100")
	minGrainSize := flag.Float64("min-grain-size", 100, "Classic: minimum grain area in px^2")
	edgeContrast := flag.Int("edge-contrast", 50, "Classic: edge contrast 0-100")
	tolerance := flag.Float64("tolerance", 1.0, "Outline simplification tolerance in px")

	modelPath := flag.String("model", getEnv("MODEL_PATH", ""), "ML: path to ONNX weights")
	modelURL := flag.String("model-url", getEnv("MODEL_URL", ""), "ML: URL to fetch weights from")
	cacheDir := flag.String("cache-dir", getEnv("MODEL_CACHE_DIR", ".cache"), "ML: weights cache directory")
	conf := flag.Float64("conf", 0.4, "ML: confidence threshold")
	iou := flag.Float64("iou", 0.7, "ML: NMS IoU threshold")
	minAreaPct := flag.Float64("min-area", 0.05, "ML: minimum area as percent of image")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *imagePath == "" {
		fmt.Println("Usage: graintest -image <path> [-method classic|ml] ...")
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	img, err := raster.Load(*imagePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load image")
	}
	bounds := img.Bounds()
	fmt.Printf("Loaded image: %dx%d pixels\n", bounds.Dx(), bounds.Dy())

	if *preview != "" {
		if err := raster.SaveJPEG(img, *preview, 85); err != nil {
			log.Fatal().Err(err).Msg("failed to write preview")
		}
		fmt.Printf("Wrote preview %s\n", *preview)
	}

	strategy := mask.StrategyMoore
	if *tracer == "marching" {
		strategy = mask.StrategyMarchingSquares
	}
	asm := grain.NewAssembler(grain.AssembleOptions{
		Strategy:          strategy,
		Simplify:          true,
		SimplifyTolerance: *tolerance,
		MinVertices:       3,
	}, log)

	sink := func(phase string, percent int) {
		log.Debug().Str("phase", phase).Int("percent", percent).Msg("progress")
	}

	var grains []grain.Grain
	switch *method {
	case "classic":
		settings := classic.Settings{
			Sensitivity:       *sensitivity,
			MinGrainSize:      *minGrainSize,
			EdgeContrast:      *edgeContrast,
			SimplifyOutlines:  true,
			SimplifyTolerance: *tolerance,
		}
		seg := &classic.Segmenter{Log: log}
		outcome := <-grain.DetectClassicAsync(context.Background(), seg, asm, grain.ClassicRequest{
			Image:    img,
			Settings: settings,
			Progress: sink,
		})
		if outcome.Err != nil {
			log.Fatal().Err(outcome.Err).Msg("classic detection failed")
		}
		grains = outcome.Grains

	case "ml":
		store := modelstore.New(*cacheDir, *modelURL, log)
		path := *modelPath
		if path == "" {
			path, err = store.Path(context.Background(), sink)
			if err != nil {
				log.Fatal().Err(err).Msg("model weights unavailable")
			}
		}

		session, err := ml.NewLoader(log).Load(path)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load model")
		}
		defer session.Close()

		tensor, info, err := preprocess.Letterbox(img, preprocess.DefaultInputSize)
		if err != nil {
			log.Fatal().Err(err).Msg("preprocessing failed")
		}

		params := ml.DefaultParams()
		params.ConfidenceThreshold = *conf
		params.IoUThreshold = *iou
		params.MinAreaPercent = *minAreaPct

		detections, err := ml.NewSegmenter(session, log).Detect(tensor, info, params)
		if err != nil {
			log.Fatal().Err(err).Msg("ml detection failed")
		}
		grains = asm.FromML(detections, info, preprocess.DefaultInputSize)

	default:
		log.Fatal().Str("method", *method).Msg("unknown detection method")
	}

	summary := grain.Summarize(grains)
	fmt.Printf("\nDetected %d grains\n", summary.Count)
	if summary.Count > 0 {
		fmt.Printf("Mean area: %.1f px^2 (stddev %.1f)\n", summary.MeanArea, summary.StdDevArea)
		fmt.Printf("Mean circularity: %.3f\n", summary.MeanCircularity)
	}
	for _, g := range grains {
		fmt.Printf("  %s: %d vertices, area %.1f, circularity %.3f", g.ID, len(g.Polygon), g.Area, g.Circularity)
		if g.Confidence != nil {
			fmt.Printf(", confidence %.2f", *g.Confidence)
		}
		fmt.Println()
	}

	if *jsonOut != "" {
		data, err := json.MarshalIndent(grains, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to marshal grains")
		}
		if err := os.WriteFile(*jsonOut, data, 0o644); err != nil {
			log.Fatal().Err(err).Msg("failed to write JSON")
		}
		fmt.Printf("\nWrote %s\n", *jsonOut)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
