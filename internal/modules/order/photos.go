package order

import "fmt"

const (
	// MaxPhotoSize is 5 MiB per file, matching what the front end promises
	// clients before upload.
	MaxPhotoSize  = 5 * 1024 * 1024
	MaxPhotoBatch = 10

	// PhotoURLBase is where stored photos are served from.
	PhotoURLBase = "/uploads/orders/photos/"
)

var allowedPhotoMimes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// PhotoUpload describes one uploaded file before it becomes an order
// photo. Path is where the file store put it (used for cleanup when the
// save fails downstream).
type PhotoUpload struct {
	Filename     string
	OriginalName string
	MimeType     string
	Size         int64
	Path         string
	Alt          string
}

// ValidatePhotos checks an upload batch before it may join an order. The
// whole batch is rejected on the first offending file; cleanup of any
// files already written is the caller's job.
func ValidatePhotos(photos []PhotoUpload) error {
	if len(photos) > MaxPhotoBatch {
		return fmt.Errorf("%w: too many photos in one upload (max %d)", ErrValidation, MaxPhotoBatch)
	}
	for _, p := range photos {
		if !allowedPhotoMimes[p.MimeType] {
			return fmt.Errorf("%w: invalid file type for photo %s: %s (only JPEG, PNG, GIF and WebP are allowed)",
				ErrValidation, p.OriginalName, p.MimeType)
		}
		if p.Size > MaxPhotoSize {
			return fmt.Errorf("%w: photo file too large: %s (maximum size is 5MB)",
				ErrValidation, p.OriginalName)
		}
	}
	return nil
}
