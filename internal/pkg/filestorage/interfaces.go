package filestorage

import "mime/multipart"

// FileStorage defines the interface for storing uploaded paper files.
type FileStorage interface {
	// SaveFile saves an uploaded file under an optional subdirectory and
	// returns the stored relative path.
	SaveFile(fileHeader *multipart.FileHeader, subPath string) (string, error)

	// DeleteFile removes a stored file. Deleting a missing file is not an error.
	DeleteFile(filePath string) error

	// GetFullPath resolves a stored relative path to a filesystem path.
	GetFullPath(filePath string) string
}
