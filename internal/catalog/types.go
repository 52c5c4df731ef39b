package catalog

import (
	"encoding/json"
	"strings"

	"github.com/arkivio/arkiv/internal/errs"
)

// CreateRequest carries the inputs for creating a file. Content arrives
// base64-encoded; Title, Filename and ContentBase64 are required.
type CreateRequest struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Institution   string  `json:"institution"`
	Tags          TagList `json:"tags"`
	Filename      string  `json:"filename"`
	ContentType   string  `json:"contentType"`
	ContentBase64 string  `json:"contentBase64"`
}

// UpdatePatch carries a partial metadata update. Nil fields are left
// untouched; only metadata may change after creation.
type UpdatePatch struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Institution *string  `json:"institution"`
	Tags        *TagList `json:"tags"`
}

// TagList is a []string that rejects non-array JSON, so a scalar "tags"
// value fails validation instead of being silently coerced.
type TagList []string

func (t *TagList) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = nil
		return nil
	}
	var ss []string
	if err := json.Unmarshal(b, &ss); err != nil {
		return errs.New(errs.ErrKindValidation, "tags must be an array")
	}
	*t = ss
	return nil
}

// sanitizeFilename replaces path separators so the derived storage key can
// never be interpreted as a nested path.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "_")
	return strings.ReplaceAll(name, "/", "_")
}

// cleanTags trims every tag and drops empty entries, preserving order.
// The result is never nil so the persisted document serialises as [].
func cleanTags(tags []string) []string {
	out := []string{}
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// storageKeyFromBlobPath recovers the object key from a stored blobPath of
// the form "<bucket>/<key>". Only needed for documents written before the
// storageKey field existed.
func storageKeyFromBlobPath(blobPath string) string {
	if i := strings.Index(blobPath, "/"); i >= 0 {
		return blobPath[i+1:]
	}
	return ""
}
