package middleware

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"anoa.com/civicreport/pkg/apperror"
	"github.com/gin-gonic/gin"
)

// ImageFile reads the named multipart field and checks it is an image no
// larger than maxBytes. The caller closes the returned file.
func ImageFile(c *gin.Context, field string, maxBytes int64) (multipart.File, *multipart.FileHeader, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil || fileHeader == nil {
		return nil, nil, fmt.Errorf("no image provided: %w", apperror.ErrValidation)
	}

	if maxBytes > 0 && fileHeader.Size > maxBytes {
		return nil, nil, fmt.Errorf("image must be at most %d MB: %w", maxBytes>>20, apperror.ErrValidation)
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return nil, nil, fmt.Errorf("unsupported file format: %w", apperror.ErrValidation)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image: %w", apperror.ErrValidation)
	}

	// sniff the real type in case the client lied about it
	head := make([]byte, 512)
	n, _ := file.Read(head)
	if !strings.HasPrefix(http.DetectContentType(head[:n]), "image/") {
		file.Close()
		return nil, nil, fmt.Errorf("unsupported file format: %w", apperror.ErrValidation)
	}
	if _, err := file.Seek(0, 0); err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to read image: %w", apperror.ErrValidation)
	}

	return file, fileHeader, nil
}
