package models

// Upload describes an object stored in the media bucket.
type Upload struct {
	// Key is the object-storage key (path) of the stored image.
	Key string `json:"key"`
	// URL is where a browser can fetch the image; presigned unless a public base URL is configured.
	URL string `json:"url"`
	// ContentType is the detected MIME type.
	ContentType string `json:"contentType"`
	// Size is the stored object size in bytes.
	Size int64 `json:"size"`
}
