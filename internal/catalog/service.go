// Package catalog implements the file catalog: it keeps one logical file
// entity consistent across the blob store (content), the document store
// (metadata, source of truth) and the search index (best-effort keyword
// projection).
package catalog

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/arkivio/arkiv/internal/blobstore"
	"github.com/arkivio/arkiv/internal/docstore"
	"github.com/arkivio/arkiv/internal/errs"
	"github.com/arkivio/arkiv/internal/logger"
	"github.com/arkivio/arkiv/internal/searchindex"
	"github.com/google/uuid"
)

// searchFields are the document fields keyword queries run against.
var searchFields = []string{"title", "description", "institution", "tags"}

const (
	// searchLimit caps keyword search results.
	searchLimit = 20

	defaultContentType = "application/octet-stream"
)

// Service orchestrates the three backends. It holds no mutable state between
// requests beyond the injected adapter handles, so concurrent invocations for
// distinct ids never interact. Concurrent writes to the same id are resolved
// by the document store's version check.
type Service struct {
	blobs  blobstore.Store
	docs   docstore.Store
	index  searchindex.Index
	bucket string
	log    *logger.Logger

	// Injection points for deterministic tests.
	now   func() time.Time
	newID func() string
}

// New assembles a Service. A nil index disables search mirroring
// (searchindex.Noop); a nil log discards log output.
func New(blobs blobstore.Store, docs docstore.Store, index searchindex.Index, bucket string, log *logger.Logger) *Service {
	if index == nil {
		index = searchindex.Noop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		blobs:  blobs,
		docs:   docs,
		index:  index,
		bucket: bucket,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Create validates the request, stores the decoded content in the blob store,
// persists the metadata document and mirrors it into the search index.
//
// The blob write and the document write are both required: a blob failure
// aborts before any metadata exists, and a metadata failure after the blob
// was written leaves an orphan object behind. Orphans are harmless — keys
// embed a fresh uuid, so they can never collide — and are not cleaned up.
// The index upsert is best-effort.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*docstore.Document, error) {
	title := strings.TrimSpace(req.Title)
	filename := strings.TrimSpace(req.Filename)
	encoded := strings.TrimSpace(req.ContentBase64)
	if title == "" || filename == "" || encoded == "" {
		return nil, errs.New(errs.ErrKindValidation, "missing required fields: title, filename, contentBase64")
	}

	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindValidation, "contentBase64 is not valid base64", err)
	}

	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		contentType = defaultContentType
	}

	id := s.newID()
	storageKey := id + "_" + sanitizeFilename(filename)

	doc := &docstore.Document{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Institution: strings.TrimSpace(req.Institution),
		Tags:        cleanTags(req.Tags),
		BlobPath:    s.bucket + "/" + storageKey,
		StorageKey:  storageKey,
		UploadedAt:  s.now().UTC().Format(time.RFC3339),
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   int64(len(content)),
	}

	if err := s.blobs.EnsureBucket(ctx, s.bucket); err != nil {
		return nil, err
	}
	if err := s.blobs.Put(ctx, s.bucket, storageKey, content, contentType); err != nil {
		return nil, err
	}
	if err := s.docs.Insert(ctx, doc); err != nil {
		return nil, err
	}

	s.bestEffort("index upsert", id, s.index.Upsert(ctx, projectionOf(doc)))

	return doc, nil
}

// Get returns the document with the given id.
func (s *Service) Get(ctx context.Context, id string) (*docstore.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errs.New(errs.ErrKindValidation, "missing id")
	}
	return s.docs.Get(ctx, id)
}

// List returns the summary projection of every document, in store-native
// order.
func (s *Service) List(ctx context.Context) ([]docstore.Summary, error) {
	return s.docs.List(ctx)
}

// Update applies the patch to the stored document and writes the merged
// document back. Fields absent from the patch are left untouched. The write
// is version-checked: a concurrent writer since the read surfaces as a
// conflict. The index merge is best-effort.
func (s *Service) Update(ctx context.Context, id string, patch UpdatePatch) (*docstore.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errs.New(errs.ErrKindValidation, "missing id")
	}

	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		doc.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		doc.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Institution != nil {
		doc.Institution = strings.TrimSpace(*patch.Institution)
	}
	if patch.Tags != nil {
		doc.Tags = cleanTags(*patch.Tags)
	}

	if err := s.docs.Replace(ctx, doc); err != nil {
		return nil, err
	}

	s.bestEffort("index merge", id, s.index.Merge(ctx, projectionOf(doc)))

	return doc, nil
}

// Delete removes the file: the blob best-effort, the document
// authoritatively, the index entry best-effort. A failed document delete
// aborts the operation; a failed blob delete does not, so a record whose
// object was removed out-of-band can still be deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errs.New(errs.ErrKindValidation, "missing id")
	}

	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return err
	}

	if key := s.storageKey(doc); key != "" {
		s.bestEffort("blob delete", id, s.blobs.Delete(ctx, s.bucket, key))
	}

	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}

	s.bestEffort("index delete", id, s.index.DeleteByID(ctx, id))

	return nil
}

// Search runs a keyword query against the search index, capped at
// searchLimit hits. Unlike the index mutations this is user-facing: a
// backend failure surfaces to the caller.
func (s *Service) Search(ctx context.Context, q string) ([]searchindex.Hit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, errs.New(errs.ErrKindValidation, "missing query parameter q")
	}
	return s.index.Query(ctx, q, searchFields, searchLimit)
}

// Content opens the stored bytes for streaming. The caller must close the
// returned object.
func (s *Service) Content(ctx context.Context, id string) (*docstore.Document, blobstore.Object, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	key := s.storageKey(doc)
	if key == "" {
		return nil, nil, errs.New(errs.ErrKindNotFound, "document has no stored content")
	}
	obj, err := s.blobs.Get(ctx, s.bucket, key)
	if err != nil {
		return nil, nil, err
	}
	return doc, obj, nil
}

// DownloadURL returns a time-limited presigned URL for the file's content.
func (s *Service) DownloadURL(ctx context.Context, id string, ttl time.Duration) (string, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	key := s.storageKey(doc)
	if key == "" {
		return "", errs.New(errs.ErrKindNotFound, "document has no stored content")
	}
	return s.blobs.PresignGetURL(ctx, s.bucket, key, ttl)
}

// storageKey returns the object key for doc, falling back to parsing
// blobPath for documents written before the storageKey field existed.
func (s *Service) storageKey(doc *docstore.Document) string {
	if doc.StorageKey != "" {
		return doc.StorageKey
	}
	return storageKeyFromBlobPath(doc.BlobPath)
}

// bestEffort logs a failed secondary-store call and drops it. The enclosing
// operation's result is unaffected.
func (s *Service) bestEffort(op, id string, err error) {
	if err == nil {
		return
	}
	s.log.WarnWith("best-effort call failed", err, map[string]interface{}{
		"op": op,
		"id": id,
	})
}

// projectionOf maps a document to its indexed field subset.
func projectionOf(doc *docstore.Document) *searchindex.Projection {
	return &searchindex.Projection{
		ID:          doc.ID,
		Title:       doc.Title,
		Description: doc.Description,
		Institution: doc.Institution,
		Tags:        doc.Tags,
		UploadedAt:  doc.UploadedAt,
		BlobPath:    doc.BlobPath,
	}
}
