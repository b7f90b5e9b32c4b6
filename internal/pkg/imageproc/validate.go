package imageproc

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrMissingFile        = errors.New("이미지 파일이 필요합니다")
	ErrEmptyFile          = errors.New("빈 파일은 업로드할 수 없습니다")
	ErrInvalidContentType = errors.New("이미지 파일만 업로드 가능합니다")
	ErrInvalidExtension   = errors.New("지원하지 않는 파일 형식입니다")
	ErrTooLarge           = errors.New("파일 크기가 너무 큽니다")
)

// AllowedExtensions are the accepted upload extensions, lower-cased.
var AllowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".bmp":  {},
	".gif":  {},
}

type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Validate checks the declared content type, the extension and the sniffed
// content. maxBytes <= 0 disables the size check.
func Validate(u Upload, maxBytes int64) error {
	if u.Filename == "" && len(u.Data) == 0 {
		return ErrMissingFile
	}
	if len(u.Data) == 0 {
		return ErrEmptyFile
	}
	if maxBytes > 0 && int64(len(u.Data)) > maxBytes {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, len(u.Data))
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(u.ContentType)), "image/") {
		return ErrInvalidContentType
	}
	ext := strings.ToLower(filepath.Ext(u.Filename))
	if _, ok := AllowedExtensions[ext]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
	}
	if mt := mimetype.Detect(u.Data); !strings.HasPrefix(mt.String(), "image/") {
		return fmt.Errorf("%w: detected %s", ErrInvalidContentType, mt.String())
	}
	return nil
}

// IsValidationError reports whether err came from Validate.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingFile) ||
		errors.Is(err, ErrEmptyFile) ||
		errors.Is(err, ErrInvalidContentType) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrTooLarge)
}
