package fingerprint

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexPattern = regexp.MustCompile(`^[0-9a-f]{16}$`)

// encodePNG renders an image to PNG bytes for feeding the engine
func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// gradientImage produces a smooth horizontal luminance ramp
func gradientImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 255 / w)})
		}
	}
	return img
}

// noiseImage produces deterministic per-seed noise
func noiseImage(seed int64, w, h int) *image.Gray {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(rng.Intn(256))})
		}
	}
	return img
}

func TestComputeFingerprintDeterministic(t *testing.T) {
	data := encodePNG(t, gradientImage(64, 64))

	first, err := ComputeFingerprint(data)
	require.NoError(t, err)
	second, err := ComputeFingerprint(data)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Regexp(t, hexPattern, first)
}

func TestComputeFingerprintCanonicalEncoding(t *testing.T) {
	fp, err := ComputeFingerprint(encodePNG(t, noiseImage(7, 48, 48)))
	require.NoError(t, err)

	assert.Len(t, fp, HexLength)
	assert.Regexp(t, hexPattern, fp)
}

func TestComputeFingerprintScaleTolerance(t *testing.T) {
	small := encodePNG(t, gradientImage(64, 64))
	large := encodePNG(t, gradientImage(128, 128))

	fpSmall, err := ComputeFingerprint(small)
	require.NoError(t, err)
	fpLarge, err := ComputeFingerprint(large)
	require.NoError(t, err)

	similarity, err := Compare(fpSmall, fpLarge)
	require.NoError(t, err)

	// Same content at different resolutions lands close in hash space;
	// this is the whole basis of similarity ranking
	assert.GreaterOrEqual(t, similarity, 0.85)
}

func TestComputeFingerprintDistinctContent(t *testing.T) {
	fpA, err := ComputeFingerprint(encodePNG(t, noiseImage(1, 64, 64)))
	require.NoError(t, err)
	fpB, err := ComputeFingerprint(encodePNG(t, noiseImage(2, 64, 64)))
	require.NoError(t, err)

	assert.NotEqual(t, fpA, fpB)
}

func TestComputeFingerprintRejectsUndecodable(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("this is not an image")},
		{"truncated png header", []byte{0x89, 0x50, 0x4e, 0x47, 0x0d}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeFingerprint(tc.data)
			require.Error(t, err)

			var fpErr *FingerprintError
			assert.True(t, errors.As(err, &fpErr), "want *FingerprintError, got %T", err)
		})
	}
}

func TestCompareIdentity(t *testing.T) {
	fp, err := ComputeFingerprint(encodePNG(t, gradientImage(32, 32)))
	require.NoError(t, err)

	similarity, err := Compare(fp, fp)
	require.NoError(t, err)
	assert.Equal(t, 1.0, similarity)
}

func TestCompareSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"0000000000000000", "ffffffffffffffff"},
		{"a5a5a5a5a5a5a5a5", "5a5a5a5a5a5a5a5a"},
		{"0123456789abcdef", "fedcba9876543210"},
	}

	for _, pair := range pairs {
		ab, err := Compare(pair[0], pair[1])
		require.NoError(t, err)
		ba, err := Compare(pair[1], pair[0])
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
	}
}

func TestCompareKnownDistances(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "0123456789abcdef", "0123456789abcdef", 1.0},
		{"maximally different", "0000000000000000", "ffffffffffffffff", 0.0},
		{"eight bits apart", "0000000000000000", "00000000000000ff", 1.0 - 8.0/64.0},
		{"one bit apart", "0000000000000000", "0000000000000001", 1.0 - 1.0/64.0},
		{"ten bits apart", "0000000000000000", "00000000000003ff", 1.0 - 10.0/64.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Compare(tc.a, tc.b)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-12)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestCompareRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		a, b string
	}{
		{"too short", "abc", "0000000000000000"},
		{"too long", "0000000000000000", "00000000000000000"},
		{"non-hex", "zzzzzzzzzzzzzzzz", "0000000000000000"},
		{"empty", "", "0000000000000000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compare(tc.a, tc.b)
			require.Error(t, err)

			var fpErr *FingerprintError
			assert.True(t, errors.As(err, &fpErr), "want *FingerprintError, got %T", err)
		})
	}
}

func TestHammingDistance(t *testing.T) {
	distance, err := HammingDistance("0000000000000000", "000000000000000f")
	require.NoError(t, err)
	assert.Equal(t, 4, distance)

	distance, err = HammingDistance("ffffffffffffffff", "ffffffffffffffff")
	require.NoError(t, err)
	assert.Equal(t, 0, distance)
}
