package utils

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Upload subdirectories, routed by content type.
const (
	AudioDir    = "audio"
	ImagesDir   = "images"
	DocumentDir = "documents"
)

// MaxUploadSize caps multipart uploads at 10MB.
const MaxUploadSize = 10 << 20

// EnsureDirectoryExists creates dirPath (and parents) when missing.
func EnsureDirectoryExists(dirPath string) error {
	return os.MkdirAll(dirPath, 0o755)
}

// DeleteFile removes a stored file. Returns false without error when the file
// is already gone.
func DeleteFile(path string) (bool, error) {
	err := os.Remove(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to delete file: %w", err)
}

// GenerateUniqueFilename keeps the original extension and prefixes a
// timestamp plus a random component, matching the stored-name scheme the
// frontend already expects.
func GenerateUniqueFilename(originalName string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(1e9))
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%d-%d%s", time.Now().UnixMilli(), n.Int64(), ext)
}

// UploadSubdir maps a content type onto the upload tree. Unsupported types
// return an error so handlers can reject the file before saving it.
func UploadSubdir(contentType string) (string, error) {
	switch {
	case strings.HasPrefix(contentType, "audio/"):
		return AudioDir, nil
	case strings.HasPrefix(contentType, "image/"):
		return ImagesDir, nil
	case contentType == "text/csv", contentType == "application/csv",
		contentType == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return DocumentDir, nil
	default:
		return "", errors.New("Only audio, image, .csv, and .xlsx files are allowed")
	}
}
