// Package share turns a plan into something another person can open: a
// self-contained URL fragment, or a short link backed by a key/value record
// that expires.
package share

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/yonbergman/electric-planner/plan"
)

// maxFragmentBytes bounds the decompressed size of a fragment.
const maxFragmentBytes = 32 << 20

// EncodeFragment serializes s as gzip-compressed JSON in standard base64,
// suitable for a URL fragment.
func EncodeFragment(s plan.Snapshot) (string, error) {
	data, err := s.Encode()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeFragment inverts EncodeFragment. A leading "#" and percent-encoding
// added by browsers are accepted. Every failure wraps plan.ErrInvalidSnapshot.
func DecodeFragment(fragment string) (plan.Snapshot, error) {
	fragment = strings.TrimPrefix(strings.TrimSpace(fragment), "#")
	if strings.Contains(fragment, "%") {
		unescaped, err := url.PathUnescape(fragment)
		if err != nil {
			return plan.Snapshot{}, fmt.Errorf("%w: %v", plan.ErrInvalidSnapshot, err)
		}
		fragment = unescaped
	}
	compressed, err := base64.StdEncoding.DecodeString(fragment)
	if err != nil {
		return plan.Snapshot{}, fmt.Errorf("%w: %v", plan.ErrInvalidSnapshot, err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return plan.Snapshot{}, fmt.Errorf("%w: %v", plan.ErrInvalidSnapshot, err)
	}
	defer zr.Close()
	data, err := io.ReadAll(io.LimitReader(zr, maxFragmentBytes))
	if err != nil {
		return plan.Snapshot{}, fmt.Errorf("%w: %v", plan.ErrInvalidSnapshot, err)
	}
	return plan.Decode(data)
}
