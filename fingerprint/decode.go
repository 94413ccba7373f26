package fingerprint

import (
	"bytes"
	"image"
	"image/color"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// decodeGray turns raw encoded image bytes into a grayscale Mat. OpenCV's
// decoder is tried first; bytes it rejects go through the Go image packages,
// so BMP and WebP uploads still decode on builds where OpenCV lacks those
// codecs. Both paths fully decode the stream, so truncated files fail here
// rather than during hashing.
func decodeGray(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.NewMat(), &FingerprintError{Reason: "empty image data"}
	}

	img, err := gocv.IMDecode(data, gocv.IMReadGrayScale)
	if err == nil && !img.Empty() {
		return img, nil
	}
	if err == nil {
		img.Close()
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return gocv.NewMat(), &FingerprintError{Reason: "cannot decode image data", Err: err}
	}

	return grayMatFromImage(decoded)
}

// grayMatFromImage converts a Go standard library image to a grayscale Mat
func grayMatFromImage(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return gocv.NewMat(), &FingerprintError{Reason: "decoded image has zero size"}
	}

	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8U)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := color.GrayModel.Convert(img.At(x+bounds.Min.X, y+bounds.Min.Y)).(color.Gray)
			mat.SetUCharAt(y, x, g.Y)
		}
	}

	return mat, nil
}
