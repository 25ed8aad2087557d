// Package classic implements the computer-vision grain segmenter: edge
// detection over an enhanced grayscale image, a distance transform to seed
// markers, and marker-controlled watershed to split touching grains.
package classic

import (
	"errors"
	"image"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"grain-tracer/internal/mask"
	"grain-tracer/internal/progress"
)

// ErrInvalidInput is returned for zero-area input images.
var ErrInvalidInput = errors.New("invalid input image")

// Processing-space limits and fixed pipeline parameters.
const (
	maxProcessingDim = 1024
	blurKernel       = 5
	claheClipLimit   = 2.0
	claheTileSize    = 8
	sureFgThreshold  = 0.4 * 255
	sureBgIterations = 3
)

// Settings controls the classic detection pipeline.
type Settings struct {
	Sensitivity       int     // 0-100, higher detects fainter boundaries
	MinGrainSize      float64 // minimum grain area in original-image px^2
	EdgeContrast      int     // 0-100, higher thins the edge dilation
	SimplifyOutlines  bool
	SimplifyTolerance float64 // Douglas-Peucker epsilon, processing-space px
}

// DefaultSettings returns sensible defaults for thin-section micrographs.
func DefaultSettings() Settings {
	return Settings{
		Sensitivity:       50,
		MinGrainSize:      100,
		EdgeContrast:      50,
		SimplifyOutlines:  true,
		SimplifyTolerance: 1.0,
	}
}

// Result holds the masks produced by one segmentation run. ScaleFactor is
// the processing-space/original-space ratio applied when the input was
// downscaled; coordinates divide by it to map back. The simplification
// settings are carried along so the assembly step honors them.
type Result struct {
	Masks             []*mask.Binary
	ScaleFactor       float64
	SimplifyOutlines  bool
	SimplifyTolerance float64
}

// Segmenter runs the watershed pipeline. Stateless apart from its logger;
// each Segment call is independent.
type Segmenter struct {
	Log zerolog.Logger
}

// Segment converts a raster image into per-grain binary masks. An image
// with no detectable foreground yields zero masks, not an error.
func (s *Segmenter) Segment(img image.Image, settings Settings, sink progress.Sink) (*Result, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrInvalidInput
	}

	src, err := imageToMat(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	// Downscale large images, remembering the factor for inverse mapping.
	scaleFactor := 1.0
	if maxDim := max(w, h); maxDim > maxProcessingDim {
		scaleFactor = float64(maxProcessingDim) / float64(maxDim)
		resized := gocv.NewMat()
		gocv.Resize(src, &resized, image.Point{
			X: int(math.Round(float64(w) * scaleFactor)),
			Y: int(math.Round(float64(h) * scaleFactor)),
		}, 0, 0, gocv.InterpolationArea)
		src.Close()
		src = resized
	}

	progress.Report(sink, "enhance", 10)
	enhanced := enhance(src)
	defer enhanced.Close()

	progress.Report(sink, "edges", 30)
	edges := detectEdges(enhanced, settings)
	defer edges.Close()

	// No edges means no grain boundaries anywhere: a featureless image
	// succeeds with zero results rather than segmenting the whole frame.
	if gocv.CountNonZero(edges) == 0 {
		progress.Report(sink, "regions", 100)
		return &Result{
			ScaleFactor:       scaleFactor,
			SimplifyOutlines:  settings.SimplifyOutlines,
			SimplifyTolerance: settings.SimplifyTolerance,
		}, nil
	}

	progress.Report(sink, "markers", 50)
	markers := seedMarkers(edges)
	defer markers.Close()

	progress.Report(sink, "watershed", 70)
	// Watershed wants the 3-channel enhanced image.
	enhancedBGR := gocv.NewMat()
	defer enhancedBGR.Close()
	gocv.CvtColor(enhanced, &enhancedBGR, gocv.ColorGrayToBGR)
	gocv.Watershed(enhancedBGR, &markers)

	progress.Report(sink, "regions", 90)
	minArea := settings.MinGrainSize * scaleFactor * scaleFactor
	masks := collectRegions(markers, minArea)

	s.Log.Debug().
		Int("regions", len(masks)).
		Float64("scale_factor", scaleFactor).
		Msg("classic segmentation complete")

	progress.Report(sink, "regions", 100)
	return &Result{
		Masks:             masks,
		ScaleFactor:       scaleFactor,
		SimplifyOutlines:  settings.SimplifyOutlines,
		SimplifyTolerance: settings.SimplifyTolerance,
	}, nil
}

// enhance converts to grayscale, blurs, and applies CLAHE.
func enhance(src gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: blurKernel, Y: blurKernel}, 0, 0, gocv.BorderDefault)

	clahe := gocv.NewCLAHEWithParams(claheClipLimit, image.Point{X: claheTileSize, Y: claheTileSize})
	defer clahe.Close()

	enhanced := gocv.NewMat()
	clahe.Apply(blurred, &enhanced)
	return enhanced
}

// detectEdges runs Canny with sensitivity-derived thresholds and dilates
// the result so grain boundaries close into connected walls.
func detectEdges(enhanced gocv.Mat, settings Settings) gocv.Mat {
	low := math.Max(30, 150-float64(settings.Sensitivity))
	high := math.Max(100, 250-float64(settings.Sensitivity))

	edges := gocv.NewMat()
	gocv.Canny(enhanced, &edges, float32(low), float32(high))

	kernelSize := max(1, int(math.Round(3-float64(settings.EdgeContrast)/50)))
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: kernelSize, Y: kernelSize})
	defer kernel.Close()
	gocv.Dilate(edges, &edges, kernel)

	return edges
}

// seedMarkers builds the watershed marker matrix: connected components of
// the sure-foreground regions (distance-transform cores), offset by one so
// the background label is never zero, with the unknown band reset to zero.
func seedMarkers(edges gocv.Mat) gocv.Mat {
	// Invert edges to get candidate grain interiors.
	interior := gocv.NewMat()
	defer interior.Close()
	gocv.BitwiseNot(edges, &interior)

	dist := gocv.NewMat()
	defer dist.Close()
	distLabels := gocv.NewMat()
	defer distLabels.Close()
	gocv.DistanceTransform(interior, &dist, &distLabels, gocv.DistL2, gocv.DistanceMask5, gocv.DistanceLabelCComp)
	gocv.Normalize(dist, &dist, 0, 255, gocv.NormMinMax)

	sureFgF := gocv.NewMat()
	defer sureFgF.Close()
	gocv.Threshold(dist, &sureFgF, sureFgThreshold, 255, gocv.ThresholdBinary)

	sureFg := gocv.NewMat()
	defer sureFg.Close()
	sureFgF.ConvertTo(&sureFg, gocv.MatTypeCV8U)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: 3, Y: 3})
	defer kernel.Close()

	sureBg := interior.Clone()
	defer sureBg.Close()
	for i := 0; i < sureBgIterations; i++ {
		gocv.Dilate(sureBg, &sureBg, kernel)
	}

	unknown := gocv.NewMat()
	defer unknown.Close()
	gocv.Subtract(sureBg, sureFg, &unknown)

	markers := gocv.NewMat()
	gocv.ConnectedComponents(sureFg, &markers)

	// Offset labels so background is 1, and zero out the unknown band for
	// the watershed to fill.
	rows, cols := markers.Rows(), markers.Cols()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			label := markers.GetIntAt(y, x) + 1
			if unknown.GetUCharAt(y, x) != 0 {
				label = 0
			}
			markers.SetIntAt(y, x, label)
		}
	}

	return markers
}

// collectRegions turns each watershed label > 1 into a binary mask,
// dropping regions below the minimum area. Label 1 is background and -1 is
// the watershed boundary.
func collectRegions(markers gocv.Mat, minArea float64) []*mask.Binary {
	rows, cols := markers.Rows(), markers.Cols()

	areas := make(map[int32]int)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			label := markers.GetIntAt(y, x)
			if label > 1 {
				areas[label]++
			}
		}
	}

	keep := make(map[int32]*mask.Binary, len(areas))
	var order []int32
	for label, area := range areas {
		if float64(area) >= minArea {
			keep[label] = mask.NewBinary(cols, rows)
			order = append(order, label)
		}
	}
	if len(keep) == 0 {
		return nil
	}

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if m, ok := keep[markers.GetIntAt(y, x)]; ok {
				m.Set(x, y, 1)
			}
		}
	}

	// Deterministic ordering by label id.
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	masks := make([]*mask.Binary, 0, len(order))
	for _, label := range order {
		masks = append(masks, keep[label])
	}
	return masks
}

// imageToMat converts a Go image.Image to a BGR gocv.Mat.
func imageToMat(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat, nil
}
