package docstore

// Document is the persisted metadata record for one uploaded file.
// JSON field names are part of the stored format — do not rename them.
type Document struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Institution string   `json:"institution"`
	Tags        []string `json:"tags"`
	BlobPath    string   `json:"blobPath"`

	// StorageKey is the object key inside the bucket. Documents written by
	// older builds lack it; readers fall back to parsing BlobPath.
	StorageKey string `json:"storageKey,omitempty"`

	UploadedAt  string `json:"uploadedAt"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`

	// Version is the optimistic-concurrency counter maintained by the store.
	// It lives in its own column, not in the document body.
	Version int64 `json:"-"`
}

// Summary is the projection of a Document returned by List.
type Summary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Institution string   `json:"institution"`
	Tags        []string `json:"tags"`
	BlobPath    string   `json:"blobPath"`
	UploadedAt  string   `json:"uploadedAt"`
}

// SummaryOf projects a Document down to its Summary fields.
func SummaryOf(d *Document) Summary {
	return Summary{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Institution: d.Institution,
		Tags:        d.Tags,
		BlobPath:    d.BlobPath,
		UploadedAt:  d.UploadedAt,
	}
}
