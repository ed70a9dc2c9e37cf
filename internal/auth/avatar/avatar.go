// Package avatar turns an uploaded picture into the stored 250x250 PNG.
package avatar

import (
	"bytes"
	"errors"
	"image"
	_ "image/jpeg" // register decoder
	"image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	dErrors "taskmanager/pkg/domain-errors"
)

const (
	// FieldName is the multipart form field carrying the file.
	FieldName = "avatar"
	// MaxBytes bounds the uploaded file, not the whole request.
	MaxBytes = 1 << 20
	// Size is the edge length of the stored square image.
	Size = 250
	// MaxDimension bounds the decoded width and height.
	MaxDimension = 4096

	multipartOverhead = 64 << 10
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

var (
	errNotImage = dErrors.New(dErrors.CodeValidation, "Please upload an image")
	errTooLarge = dErrors.New(dErrors.CodeValidation, "avatar must be at most 1MB")
	errEmpty    = dErrors.New(dErrors.CodeValidation, "avatar is empty")
	errTooWide  = dErrors.New(dErrors.CodeValidation, "avatar must be at most 4096x4096 pixels")
)

// FromRequest reads the avatar field of a multipart request and returns the
// normalized PNG.
func FromRequest(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(MaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errTooLarge
		}
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart body")
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(FieldName)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "avatar file is required")
	}
	defer file.Close()

	if header.Size > MaxBytes {
		return nil, errTooLarge
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
		return nil, errNotImage
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxBytes+1))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read avatar")
	}
	if len(data) > MaxBytes {
		return nil, errTooLarge
	}
	return Normalize(data)
}

// Normalize decodes a JPEG or PNG, scales it to Size x Size and re-encodes
// it as PNG.
func Normalize(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errEmpty
	}
	if len(data) > MaxBytes {
		return nil, errTooLarge
	}
	if !allowedContentTypes[http.DetectContentType(data)] {
		return nil, errNotImage
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errNotImage
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errNotImage
	}
	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return nil, errTooWide
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errNotImage
	}

	dst := image.NewRGBA(image.Rect(0, 0, Size, Size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode avatar")
	}
	return buf.Bytes(), nil
}
