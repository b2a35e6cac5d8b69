/**
 * Image preprocessing for the OCR pipeline.
 *
 * Normalizes a raw page scan into a binary image a recognition engine can
 * work with. The steps are fixed, in order: luminance grayscale, 3x3 median
 * filter, Otsu global threshold, 2x2 morphological closing. Varying print and
 * scan contrast converges to consistent black/white without per-image tuning.
 */

package processor

import (
	"image"
	"image/color"
	"sort"

	"github.com/disintegration/imaging"

	apperrors "github.com/foliolab/folio-worker/internal/errors"
)

const (
	medianKernelSize  = 3
	closingKernelSize = 2
)

// LoadImage decodes a page scan from disk. Decode failures are fatal to the
// OCR run that requested them.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, apperrors.NewImageLoadError(path, err)
	}
	return img, nil
}

// Preprocess runs the full normalization chain. Pure: the input image is
// never modified.
func Preprocess(img image.Image) *image.Gray {
	gray := toGray(img)
	gray = medianFilter(gray, medianKernelSize)
	gray = binarize(gray, otsuThreshold(gray))
	gray = closeBinary(gray, closingKernelSize)
	return gray
}

// toGray converts any image to a single-channel luminance image.
func toGray(img image.Image) *image.Gray {
	src := imaging.Grayscale(img)
	bounds := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			// Grayscale output has R==G==B, any one channel is the luminance.
			px := src.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
			dst.SetGray(x, y, color.Gray{Y: px.R})
		}
	}
	return dst
}

// medianFilter suppresses speckle noise while preserving edges by replacing
// each pixel with the median of its kernel neighborhood. Border pixels use
// the clamped neighborhood.
func medianFilter(img *image.Gray, kernelSize int) *image.Gray {
	if kernelSize <= 1 {
		return img
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(bounds)
	half := kernelSize / 2
	window := make([]uint8, 0, kernelSize*kernelSize)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			window = window[:0]
			for ky := -half; ky <= half; ky++ {
				for kx := -half; kx <= half; kx++ {
					nx, ny := clampInt(x+kx, 0, width-1), clampInt(y+ky, 0, height-1)
					window = append(window, img.GrayAt(nx, ny).Y)
				}
			}
			sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
			dst.SetGray(x, y, color.Gray{Y: window[len(window)/2]})
		}
	}
	return dst
}

// otsuThreshold selects the global threshold that maximizes between-class
// variance over the image histogram.
func otsuThreshold(img *image.Gray) uint8 {
	var histogram [256]int
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 128
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			histogram[img.GrayAt(x, y).Y]++
		}
	}

	var sum float64
	for i, count := range histogram {
		sum += float64(i) * float64(count)
	}

	var sumBackground float64
	var weightBackground int
	var maxVariance float64
	var threshold uint8

	for t := 0; t < 256; t++ {
		weightBackground += histogram[t]
		if weightBackground == 0 {
			continue
		}
		weightForeground := total - weightBackground
		if weightForeground == 0 {
			break
		}

		sumBackground += float64(t) * float64(histogram[t])
		meanBackground := sumBackground / float64(weightBackground)
		meanForeground := (sum - sumBackground) / float64(weightForeground)

		diff := meanBackground - meanForeground
		variance := float64(weightBackground) * float64(weightForeground) * diff * diff
		if variance > maxVariance {
			maxVariance = variance
			threshold = uint8(t)
		}
	}

	return threshold
}

// binarize maps every pixel to pure black or white around the threshold.
func binarize(img *image.Gray, threshold uint8) *image.Gray {
	bounds := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			if img.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y > threshold {
				dst.SetGray(x, y, color.Gray{Y: 255})
			} else {
				dst.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return dst
}

// closeBinary applies a morphological closing (dilate then erode) with a
// minimal structuring element. Removes sub-kernel black specks in the white
// background without eroding glyph strokes.
func closeBinary(img *image.Gray, kernelSize int) *image.Gray {
	if kernelSize <= 1 {
		return img
	}
	return erode(dilate(img, kernelSize), kernelSize)
}

// dilate expands bright regions: each pixel becomes the maximum over the
// kernel anchored at its top-left.
func dilate(img *image.Gray, kernelSize int) *image.Gray {
	return morph(img, kernelSize, func(a, b uint8) uint8 {
		if a > b {
			return a
		}
		return b
	}, 0)
}

// erode shrinks bright regions: each pixel becomes the minimum over the
// kernel anchored at its top-left.
func erode(img *image.Gray, kernelSize int) *image.Gray {
	return morph(img, kernelSize, func(a, b uint8) uint8 {
		if a < b {
			return a
		}
		return b
	}, 255)
}

func morph(img *image.Gray, kernelSize int, pick func(a, b uint8) uint8, identity uint8) *image.Gray {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			value := identity
			for ky := 0; ky < kernelSize; ky++ {
				for kx := 0; kx < kernelSize; kx++ {
					nx, ny := x+kx, y+ky
					if nx >= width || ny >= height {
						continue
					}
					value = pick(value, img.GrayAt(bounds.Min.X+nx, bounds.Min.Y+ny).Y)
				}
			}
			dst.SetGray(x, y, color.Gray{Y: value})
		}
	}
	return dst
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
