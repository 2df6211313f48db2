package mapview

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	ErrNotImage   = errors.New("file is not a supported image")
	ErrTooLarge   = errors.New("image is too large")
	ErrBadDataURL = errors.New("malformed data URL")
)

// Upload is a decoded floor-plan image ready to become a FloorPlan.
type Upload struct {
	Name        string
	ContentType string
	Width       int
	Height      int
	DataURL     string
}

// ReadUpload reads one image file, learns its pixel size and encodes it as a
// data URL. Files over maxBytes are rejected with ErrTooLarge; maxBytes <= 0
// means no limit.
func ReadUpload(name string, r io.Reader, maxBytes int64) (Upload, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Upload{}, fmt.Errorf("read %s: %w", name, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Upload{}, fmt.Errorf("%s: %w", name, ErrTooLarge)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Upload{}, fmt.Errorf("%s (%s): %w", name, http.DetectContentType(data), ErrNotImage)
	}
	contentType := "image/" + format
	return Upload{
		Name:        strings.TrimSuffix(path.Base(name), path.Ext(name)),
		ContentType: contentType,
		Width:       cfg.Width,
		Height:      cfg.Height,
		DataURL:     "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

// DecodeDataURL splits a data URL into its media type and payload.
func DecodeDataURL(s string) (contentType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrBadDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrBadDataURL
	}
	contentType, isBase64 := strings.CutSuffix(meta, ";base64")
	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(payload)
	} else {
		var text string
		text, err = url.PathUnescape(payload)
		data = []byte(text)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	if contentType == "" {
		contentType = "text/plain"
	}
	return contentType, data, nil
}

// ImageSize returns the pixel dimensions of encoded image data.
func ImageSize(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, ErrNotImage
	}
	return cfg.Width, cfg.Height, nil
}
