// Package fingerprint computes DCT-based perceptual fingerprints of images
// and compares them by Hamming distance. Fingerprints are approximate
// similarity primitives: visually similar images yield nearby bit vectors.
// They are not cryptographic hashes and must never be used as such.
package fingerprint

import (
	"fmt"
	"image"
	"math"
	mathbits "math/bits"
	"sort"
	"strconv"

	"gocv.io/x/gocv"
)

const (
	// hashSize is the edge of the low-frequency block kept from the DCT
	hashSize = 8
	// dctSize is the edge the image is resized to before the DCT
	dctSize = 32

	// HashBits is the number of bits in a fingerprint
	HashBits = hashSize * hashSize
	// HexLength is the length of the canonical lowercase hex encoding
	HexLength = HashBits / 4

	// Version tags the fingerprint algorithm configuration. Stored alongside
	// each fingerprint; changing hashSize or the algorithm must bump this so
	// old rows are never compared against incompatible bit vectors.
	Version = 1
)

// ComputeFingerprint calculates the perceptual fingerprint of raw encoded
// image bytes and returns it as a 16-character lowercase hex string.
// Deterministic: identical bytes always yield an identical fingerprint.
func ComputeFingerprint(data []byte) (string, error) {
	fp, _, _, err := Analyze(data)
	return fp, err
}

// Analyze decodes the bytes once and returns the fingerprint together with
// the decoded pixel dimensions, for callers that also store image metadata.
func Analyze(data []byte) (fp string, width, height int, err error) {
	img, err := decodeGray(data)
	if err != nil {
		return "", 0, 0, err
	}
	defer img.Close()

	width, height = img.Cols(), img.Rows()
	if width == 0 || height == 0 {
		return "", 0, 0, &FingerprintError{Reason: "decoded image has zero size"}
	}

	fp, err = computeFromMat(img)
	if err != nil {
		return "", 0, 0, err
	}
	return fp, width, height, nil
}

// computeFromMat hashes an already decoded grayscale image
func computeFromMat(img gocv.Mat) (string, error) {
	// Resize to 32x32 for DCT
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Point{X: dctSize, Y: dctSize}, 0, 0, gocv.InterpolationArea)

	// Convert to float for DCT
	floatImg := gocv.NewMat()
	defer floatImg.Close()
	resized.ConvertTo(&floatImg, gocv.MatTypeCV32F)

	dct := gocv.NewMat()
	gocv.DCT(floatImg, &dct, 0)
	if dct.Empty() {
		// Some OpenCV builds ship without DCT support
		dct.Close()
		dct = applyDCT(floatImg)
	}
	defer dct.Close()

	// Extract the 8x8 low frequency components
	lowFreq := dct.Region(image.Rect(0, 0, hashSize, hashSize))
	defer lowFreq.Close()

	values := make([]float32, 0, HashBits)
	for y := 0; y < lowFreq.Rows(); y++ {
		for x := 0; x < lowFreq.Cols(); x++ {
			values = append(values, lowFreq.GetFloatAt(y, x))
		}
	}

	// Each bit records whether its coefficient sits above the median
	median := calculateMedian(values)

	var word uint64
	for _, val := range values {
		word <<= 1
		if val > median {
			word |= 1
		}
	}

	return fmt.Sprintf("%016x", word), nil
}

// HammingDistance counts the number of differing bits between two fingerprints
func HammingDistance(a, b string) (int, error) {
	wordA, err := parseFingerprint(a)
	if err != nil {
		return 0, err
	}
	wordB, err := parseFingerprint(b)
	if err != nil {
		return 0, err
	}

	return mathbits.OnesCount64(wordA ^ wordB), nil
}

// Compare returns the similarity between two fingerprints in [0.0, 1.0].
// Identical fingerprints score 1.0, maximally different ones 0.0; the result
// is symmetric in its arguments.
func Compare(a, b string) (float64, error) {
	distance, err := HammingDistance(a, b)
	if err != nil {
		return 0, err
	}

	return 1.0 - float64(distance)/float64(HashBits), nil
}

// parseFingerprint validates the canonical encoding and returns the bit vector
func parseFingerprint(s string) (uint64, error) {
	if len(s) != HexLength {
		return 0, &FingerprintError{
			Reason: fmt.Sprintf("fingerprint %q has length %d, want %d", s, len(s), HexLength),
		}
	}

	word, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, &FingerprintError{
			Reason: fmt.Sprintf("fingerprint %q is not valid hex", s),
			Err:    err,
		}
	}

	return word, nil
}

// applyDCT applies a Discrete Cosine Transform to an image.
// Simplified implementation used when OpenCV's DCT is not available.
func applyDCT(img gocv.Mat) gocv.Mat {
	rows, cols := img.Rows(), img.Cols()
	result := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV32F)

	for u := 0; u < rows; u++ {
		for v := 0; v < cols; v++ {
			sum := float32(0.0)
			for i := 0; i < rows; i++ {
				for j := 0; j < cols; j++ {
					// DCT-II formula
					cosU := float32(math.Cos(math.Pi * float64(u) * (2*float64(i) + 1) / (2 * float64(rows))))
					cosV := float32(math.Cos(math.Pi * float64(v) * (2*float64(j) + 1) / (2 * float64(cols))))
					sum += img.GetFloatAt(i, j) * cosU * cosV
				}
			}

			scaleU := float32(1.0)
			if u == 0 {
				scaleU = 1.0 / float32(math.Sqrt(2.0))
			}

			scaleV := float32(1.0)
			if v == 0 {
				scaleV = 1.0 / float32(math.Sqrt(2.0))
			}

			scaleFactor := (2.0 * scaleU * scaleV) / float32(math.Sqrt(float64(rows*cols)))
			result.SetFloatAt(u, v, sum*scaleFactor)
		}
	}

	return result
}

// calculateMedian calculates the median value of a float32 slice
func calculateMedian(values []float32) float32 {
	valuesCopy := make([]float32, len(values))
	copy(valuesCopy, values)

	sort.Slice(valuesCopy, func(i, j int) bool {
		return valuesCopy[i] < valuesCopy[j]
	})

	length := len(valuesCopy)
	switch {
	case length == 0:
		return 0
	case length%2 == 0:
		return (valuesCopy[length/2-1] + valuesCopy[length/2]) / 2
	default:
		return valuesCopy[length/2]
	}
}
