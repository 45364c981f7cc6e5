package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{
	0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n',
	0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R',
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

func pngDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
}

type memoryBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	failPut bool
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryBackend) EnsureBucket(context.Context) error { return nil }

func (m *memoryBackend) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if m.failPut {
		return errors.New("backend down")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryBackend) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryBackend) Bucket() string { return "incidents" }

func (m *memoryBackend) Scheme() string { return "mem" }

func TestDecodeAcceptsImageDataURI(t *testing.T) {
	img, err := NewImageStore(nil, 1024).Decode(pngDataURI())
	require.NoError(t, err)
	require.Equal(t, "image/png", img.ContentType)
	require.Equal(t, ".png", img.Extension)
	require.Equal(t, pngHeader, img.Data)
}

func TestDecodeRejectsNonImages(t *testing.T) {
	store := NewImageStore(nil, 1024)

	text := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("just some text, not a picture"))
	_, err := store.Decode(text)
	require.ErrorIs(t, err, ErrInvalidImage)

	_, err = store.Decode("https://example.com/cat.png")
	require.ErrorIs(t, err, ErrInvalidImage)

	_, err = store.Decode("data:image/png,rawbytes")
	require.ErrorIs(t, err, ErrInvalidImage)

	_, err = store.Decode("data:image/png;base64,%%%")
	require.ErrorIs(t, err, ErrInvalidImage)
}

func TestDecodeEnforcesSizeLimit(t *testing.T) {
	store := NewImageStore(nil, 16)
	_, err := store.Decode(pngDataURI())
	require.ErrorIs(t, err, ErrImageTooLarge)
}

func TestInlineStoreKeepsDataURI(t *testing.T) {
	store := NewImageStore(nil, 1024)
	require.True(t, store.Inline())

	img, err := store.Decode(pngDataURI())
	require.NoError(t, err)
	ref, err := store.Save(context.Background(), "RPT-1", img)
	require.NoError(t, err)
	require.Equal(t, pngDataURI(), ref)

	opened, err := store.Open(context.Background(), ref)
	require.NoError(t, err)
	require.Equal(t, pngHeader, opened.Data)
}

func TestBackendStoreUploadsAndOpens(t *testing.T) {
	backend := newMemoryBackend()
	store := NewImageStore(backend, 1024)
	ctx := context.Background()

	img, err := store.Decode(pngDataURI())
	require.NoError(t, err)
	ref, err := store.Save(ctx, "RPT-ABC", img)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref, "mem://incidents/reports/RPT-ABC/"), ref)
	require.True(t, strings.HasSuffix(ref, ".png"), ref)

	_, _, key, err := ParseObjectRef(ref)
	require.NoError(t, err)
	require.Equal(t, "image/png", backend.types[key])

	opened, err := store.Open(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, pngHeader, opened.Data)
	require.Equal(t, "image/png", opened.ContentType)

	require.NoError(t, store.Delete(ctx, ref))
	require.Empty(t, backend.objects)

	_, err = store.Open(ctx, "s3://other/key.png")
	require.ErrorIs(t, err, ErrUnknownReference)
}

func TestBackendUploadFailure(t *testing.T) {
	backend := newMemoryBackend()
	backend.failPut = true
	store := NewImageStore(backend, 1024)

	img, err := store.Decode(pngDataURI())
	require.NoError(t, err)
	_, err = store.Save(context.Background(), "RPT-1", img)
	require.Error(t, err)
}

func TestParseObjectRef(t *testing.T) {
	scheme, bucket, key, err := ParseObjectRef("s3://bucket/reports/a/b.png")
	require.NoError(t, err)
	require.Equal(t, "s3", scheme)
	require.Equal(t, "bucket", bucket)
	require.Equal(t, "reports/a/b.png", key)

	for _, bad := range []string{"", "bucket/key", "s3://bucket", "s3:///key"} {
		_, _, _, err := ParseObjectRef(bad)
		require.Error(t, err, bad)
	}
}
