package catalog

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/arkivio/arkiv/internal/blobstore"
	"github.com/arkivio/arkiv/internal/docstore"
	"github.com/arkivio/arkiv/internal/errs"
	"github.com/arkivio/arkiv/internal/searchindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeBlobs struct {
	buckets   map[string]bool
	objects   map[string][]byte
	types     map[string]string
	deleted   []string
	ensureErr error
	putErr    error
	deleteErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{
		buckets: map[string]bool{},
		objects: map[string][]byte{},
		types:   map[string]string{},
	}
}

func (f *fakeBlobs) Ping(context.Context) error { return nil }

func (f *fakeBlobs) Close() error { return nil }

func (f *fakeBlobs) EnsureBucket(_ context.Context, bucket string) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.buckets[bucket] = true
	return nil
}

func (f *fakeBlobs) Put(_ context.Context, bucket, key string, data []byte, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[bucket+"/"+key] = data
	f.types[bucket+"/"+key] = contentType
	return nil
}

func (f *fakeBlobs) Get(context.Context, string, string) (blobstore.Object, error) {
	return nil, errs.New(errs.ErrKindNotFound, "not implemented")
}

func (f *fakeBlobs) Stat(context.Context, string, string) (*blobstore.ObjectInfo, error) {
	return nil, errs.New(errs.ErrKindNotFound, "not implemented")
}

func (f *fakeBlobs) Delete(_ context.Context, bucket, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, bucket+"/"+key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeBlobs) PresignGetURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://blobs.example/" + bucket + "/" + key + "?signed", nil
}

type fakeDocs struct {
	docs       map[string]*docstore.Document
	insertErr  error
	replaceErr error
	deleteErr  error
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: map[string]*docstore.Document{}}
}

func (f *fakeDocs) Ping(context.Context) error { return nil }

func (f *fakeDocs) Close() error { return nil }

func (f *fakeDocs) Get(_ context.Context, id string) (*docstore.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "document not found")
	}
	cp := *doc
	return &cp, nil
}

func (f *fakeDocs) Insert(_ context.Context, doc *docstore.Document) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.docs[doc.ID]; ok {
		return errs.New(errs.ErrKindConflict, "duplicate id")
	}
	doc.Version = 1
	cp := *doc
	f.docs[doc.ID] = &cp
	return nil
}

func (f *fakeDocs) Replace(_ context.Context, doc *docstore.Document) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	stored, ok := f.docs[doc.ID]
	if !ok || stored.Version != doc.Version {
		return errs.New(errs.ErrKindConflict, "document was modified concurrently")
	}
	doc.Version++
	cp := *doc
	f.docs[doc.ID] = &cp
	return nil
}

func (f *fakeDocs) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.docs[id]; !ok {
		return errs.New(errs.ErrKindNotFound, "document not found")
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeDocs) List(_ context.Context) ([]docstore.Summary, error) {
	out := []docstore.Summary{}
	for _, doc := range f.docs {
		out = append(out, docstore.SummaryOf(doc))
	}
	return out, nil
}

type fakeIndex struct {
	upserts    []searchindex.Projection
	merges     []searchindex.Projection
	deleted    []string
	mutateErr  error
	queryErr   error
	hits       []searchindex.Hit
	lastQuery  string
	lastFields []string
	lastLimit  int
}

func (f *fakeIndex) Ping(context.Context) error { return nil }

func (f *fakeIndex) Close() error { return nil }

func (f *fakeIndex) Upsert(_ context.Context, p *searchindex.Projection) error {
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.upserts = append(f.upserts, *p)
	return nil
}

func (f *fakeIndex) Merge(_ context.Context, p *searchindex.Projection) error {
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.merges = append(f.merges, *p)
	return nil
}

func (f *fakeIndex) DeleteByID(_ context.Context, id string) error {
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Query(_ context.Context, q string, fields []string, limit int) ([]searchindex.Hit, error) {
	f.lastQuery = q
	f.lastFields = fields
	f.lastLimit = limit
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.hits, nil
}

// --- helpers ---

type testEnv struct {
	svc   *Service
	blobs *fakeBlobs
	docs  *fakeDocs
	index *fakeIndex
}

func newTestEnv() *testEnv {
	blobs := newFakeBlobs()
	docs := newFakeDocs()
	index := &fakeIndex{}
	return &testEnv{
		svc:   New(blobs, docs, index, "files", nil),
		blobs: blobs,
		docs:  docs,
		index: index,
	}
}

func validCreate() CreateRequest {
	return CreateRequest{
		Title:         "Report",
		Filename:      "report.pdf",
		ContentType:   "application/pdf",
		ContentBase64: base64.StdEncoding.EncodeToString([]byte("hello world")),
	}
}

// --- create ---

func TestCreate_Success(t *testing.T) {
	env := newTestEnv()

	doc, err := env.svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "Report", doc.Title)
	assert.Equal(t, int64(len("hello world")), doc.SizeBytes)
	assert.Equal(t, doc.ID+"_report.pdf", doc.StorageKey)
	assert.Equal(t, "files/"+doc.StorageKey, doc.BlobPath)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, []string{}, doc.Tags)

	_, err = time.Parse(time.RFC3339, doc.UploadedAt)
	assert.NoError(t, err)

	// content landed in the bucket, metadata in the store, projection in the index
	assert.True(t, env.blobs.buckets["files"])
	assert.Equal(t, []byte("hello world"), env.blobs.objects["files/"+doc.StorageKey])
	assert.Contains(t, env.docs.docs, doc.ID)
	require.Len(t, env.index.upserts, 1)
	assert.Equal(t, doc.ID, env.index.upserts[0].ID)
}

func TestCreate_UniqueIDs(t *testing.T) {
	env := newTestEnv()

	a, err := env.svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	b, err := env.svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestCreate_SanitizesFilename(t *testing.T) {
	env := newTestEnv()

	req := validCreate()
	req.Filename = "a/b.pdf"
	req.ContentBase64 = base64.StdEncoding.EncodeToString([]byte("hi"))

	doc, err := env.svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(2), doc.SizeBytes)
	assert.Equal(t, doc.ID+"_a_b.pdf", doc.StorageKey)
	// the original filename is preserved untouched
	assert.Equal(t, "a/b.pdf", doc.Filename)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateRequest)
	}{
		{"empty title", func(r *CreateRequest) { r.Title = "" }},
		{"whitespace title", func(r *CreateRequest) { r.Title = "   " }},
		{"empty filename", func(r *CreateRequest) { r.Filename = "" }},
		{"missing content", func(r *CreateRequest) { r.ContentBase64 = "" }},
		{"invalid base64", func(r *CreateRequest) { r.ContentBase64 = "not base64!!!" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			req := validCreate()
			tt.mutate(&req)

			_, err := env.svc.Create(context.Background(), req)
			assert.True(t, errs.IsValidation(err), "want validation error, got %v", err)
			assert.Empty(t, env.docs.docs)
			assert.Empty(t, env.blobs.objects)
		})
	}
}

func TestCreate_CleansTags(t *testing.T) {
	env := newTestEnv()

	req := validCreate()
	req.Tags = TagList{" physics ", "", "archive", "  "}

	doc, err := env.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"physics", "archive"}, doc.Tags)
}

func TestCreate_DefaultsContentType(t *testing.T) {
	env := newTestEnv()

	req := validCreate()
	req.ContentType = ""

	doc, err := env.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", doc.ContentType)
}

func TestCreate_BlobFailureWritesNoMetadata(t *testing.T) {
	env := newTestEnv()
	env.blobs.putErr = errs.New(errs.ErrKindStorage, "disk full")

	_, err := env.svc.Create(context.Background(), validCreate())
	assert.True(t, errs.IsStorage(err))
	assert.Empty(t, env.docs.docs)
	assert.Empty(t, env.index.upserts)
}

func TestCreate_MetadataFailureLeavesOrphanBlob(t *testing.T) {
	env := newTestEnv()
	env.docs.insertErr = errs.New(errs.ErrKindPersistence, "store down")

	_, err := env.svc.Create(context.Background(), validCreate())
	assert.True(t, errs.IsPersistence(err))
	// the blob stays behind; generated keys cannot collide, so no cleanup
	assert.Len(t, env.blobs.objects, 1)
	assert.Empty(t, env.index.upserts)
}

func TestCreate_IndexFailureIsSwallowed(t *testing.T) {
	env := newTestEnv()
	env.index.mutateErr = errs.New(errs.ErrKindSearchUnavailable, "redis down")

	doc, err := env.svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	assert.Contains(t, env.docs.docs, doc.ID)
}

// --- get / list ---

func TestGet(t *testing.T) {
	env := newTestEnv()
	doc, err := env.svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	got, err := env.svc.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)

	_, err = env.svc.Get(context.Background(), "missing")
	assert.True(t, errs.IsNotFound(err))

	_, err = env.svc.Get(context.Background(), "")
	assert.True(t, errs.IsValidation(err))
}

func TestList_RoundTrip(t *testing.T) {
	env := newTestEnv()

	req := validCreate()
	req.Description = "annual numbers"
	req.Institution = "acme"
	req.Tags = TagList{"b", "a", "b"}

	doc, err := env.svc.Create(context.Background(), req)
	require.NoError(t, err)

	files, err := env.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)

	assert.Equal(t, doc.ID, files[0].ID)
	assert.Equal(t, "Report", files[0].Title)
	assert.Equal(t, "annual numbers", files[0].Description)
	assert.Equal(t, "acme", files[0].Institution)
	assert.Equal(t, []string{"b", "a", "b"}, files[0].Tags)
}

// --- update ---

func strPtr(s string) *string { return &s }

func TestUpdate_Partial(t *testing.T) {
	env := newTestEnv()

	req := validCreate()
	req.Description = "original description"
	req.Institution = "acme"
	req.Tags = TagList{"x"}
	doc, err := env.svc.Create(context.Background(), req)
	require.NoError(t, err)

	updated, err := env.svc.Update(context.Background(), doc.ID, UpdatePatch{
		Title: strPtr("  Renamed  "),
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "original description", updated.Description)
	assert.Equal(t, "acme", updated.Institution)
	assert.Equal(t, []string{"x"}, updated.Tags)

	// immutable fields are untouched
	assert.Equal(t, doc.BlobPath, updated.BlobPath)
	assert.Equal(t, doc.UploadedAt, updated.UploadedAt)
	assert.Equal(t, doc.SizeBytes, updated.SizeBytes)

	require.Len(t, env.index.merges, 1)
	assert.Equal(t, "Renamed", env.index.merges[0].Title)
}

func TestUpdate_Tags(t *testing.T) {
	env := newTestEnv()
	doc, err := env.svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	tags := TagList{" a ", "", "b"}
	updated, err := env.svc.Update(context.Background(), doc.ID, UpdatePatch{Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, updated.Tags)
}

func TestUpdate_NotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Update(context.Background(), "missing", UpdatePatch{Title: strPtr("x")})
	assert.True(t, errs.IsNotFound(err))
}

func TestUpdate_MissingID(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Update(context.Background(), " ", UpdatePatch{Title: strPtr("x")})
	assert.True(t, errs.IsValidation(err))
}

func TestUpdate_ConcurrentWriterConflicts(t *testing.T) {
	env := newTestEnv()
	doc, err := env.svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	// a concurrent writer lands between this update's read and its write
	env.docs.replaceErr = errs.New(errs.ErrKindConflict, "document was modified concurrently")

	_, err = env.svc.Update(context.Background(), doc.ID, UpdatePatch{Title: strPtr("x")})
	assert.True(t, errs.IsConflict(err))
}

func TestUpdate_IndexFailureIsSwallowed(t *testing.T) {
	env := newTestEnv()
	doc, err := env.svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	env.index.mutateErr = errs.New(errs.ErrKindSearchUnavailable, "redis down")

	updated, err := env.svc.Update(context.Background(), doc.ID, UpdatePatch{Title: strPtr("x")})
	require.NoError(t, err)
	assert.Equal(t, "x", updated.Title)
}

// --- delete ---

func TestDelete(t *testing.T) {
	env := newTestEnv()
	doc, err := env.svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	require.NoError(t, env.svc.Delete(context.Background(), doc.ID))

	assert.Empty(t, env.docs.docs)
	assert.Equal(t, []string{doc.StorageKey}, env.blobs.deleted)
	assert.Equal(t, []string{doc.ID}, env.index.deleted)

	// deleting twice never succeeds the second time
	err = env.svc.Delete(context.Background(), doc.ID)
	assert.True(t, errs.IsNotFound(err))
}

func TestDelete_MissingID(t *testing.T) {
	env := newTestEnv()
	assert.True(t, errs.IsValidation(env.svc.Delete(context.Background(), "")))
}

func TestDelete_UnknownID(t *testing.T) {
	env := newTestEnv()
	assert.True(t, errs.IsNotFound(env.svc.Delete(context.Background(), "missing")))
}

func TestDelete_BlobAlreadyGone(t *testing.T) {
	env := newTestEnv()
	doc, err := env.svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	// blob removed out-of-band; the store now errors on delete
	env.blobs.deleteErr = errs.New(errs.ErrKindStorage, "gone")

	require.NoError(t, env.svc.Delete(context.Background(), doc.ID))
	assert.Empty(t, env.docs.docs)
	assert.Equal(t, []string{doc.ID}, env.index.deleted)
}

func TestDelete_LegacyBlobPathFallback(t *testing.T) {
	env := newTestEnv()
	env.docs.docs["old"] = &docstore.Document{
		ID:       "old",
		BlobPath: "files/old_legacy.pdf",
		Version:  1,
	}

	require.NoError(t, env.svc.Delete(context.Background(), "old"))
	assert.Equal(t, []string{"old_legacy.pdf"}, env.blobs.deleted)
}

func TestDelete_AuthoritativeDeleteFailureAborts(t *testing.T) {
	env := newTestEnv()
	doc, err := env.svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	env.docs.deleteErr = errs.New(errs.ErrKindPersistence, "store down")

	err = env.svc.Delete(context.Background(), doc.ID)
	assert.True(t, errs.IsPersistence(err))
	// the index entry is only removed after the authoritative delete
	assert.Empty(t, env.index.deleted)
}

// --- search ---

func TestSearch(t *testing.T) {
	env := newTestEnv()
	env.index.hits = []searchindex.Hit{{ID: "a"}, {ID: "b"}}

	hits, err := env.svc.Search(context.Background(), "annual report")
	require.NoError(t, err)

	assert.Len(t, hits, 2)
	assert.Equal(t, "annual report", env.index.lastQuery)
	assert.Equal(t, []string{"title", "description", "institution", "tags"}, env.index.lastFields)
	assert.Equal(t, 20, env.index.lastLimit)
}

func TestSearch_EmptyQuery(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Search(context.Background(), "  ")
	assert.True(t, errs.IsValidation(err))
}

func TestSearch_BackendUnavailable(t *testing.T) {
	env := newTestEnv()
	env.index.queryErr = errs.New(errs.ErrKindSearchUnavailable, "redis down")

	_, err := env.svc.Search(context.Background(), "x")
	assert.True(t, errs.IsSearchUnavailable(err))
}

func TestSearch_NoopIndex(t *testing.T) {
	blobs := newFakeBlobs()
	docs := newFakeDocs()
	svc := New(blobs, docs, nil, "files", nil)

	// writes still succeed with search disabled
	doc, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), doc.ID))

	_, err = svc.Search(context.Background(), "x")
	assert.True(t, errs.IsSearchUnavailable(err))
}

// --- download ---

func TestDownloadURL(t *testing.T) {
	env := newTestEnv()
	doc, err := env.svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	url, err := env.svc.DownloadURL(context.Background(), doc.ID, time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, doc.StorageKey)

	_, err = env.svc.DownloadURL(context.Background(), "missing", time.Minute)
	assert.True(t, errs.IsNotFound(err))
}
