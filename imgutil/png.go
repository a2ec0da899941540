// Package imgutil converts model output into PNG.
package imgutil

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/http"

	_ "golang.org/x/image/webp"
)

// MIMETypePNG is the only image format handed to callers.
const MIMETypePNG = "image/png"

// ToPNG re-encodes image data (PNG, JPEG, GIF, WebP) as PNG.
// PNG input is returned unchanged.
func ToPNG(data []byte) ([]byte, error) {
	if DetectMIMEType(data) == MIMETypePNG {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DetectMIMEType sniffs the MIME type of data.
func DetectMIMEType(data []byte) string {
	return http.DetectContentType(data)
}
