package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	// ErrInvalidImage marks input that is not a base64 image data URI.
	ErrInvalidImage = errors.New("invalid image")
	// ErrImageTooLarge marks an image above the configured size limit.
	ErrImageTooLarge = errors.New("image too large")
	// ErrUnknownReference marks a stored reference no backend can open.
	ErrUnknownReference = errors.New("unknown image reference")
)

// Image is a decoded, sniffed image payload.
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// DataURI re-encodes the image as a data URI.
func (img *Image) DataURI() string {
	return "data:" + img.ContentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// ImageStore validates submitted images and persists them to the configured backend.
type ImageStore struct {
	backend  ObjectStorage
	maxBytes int64
}

// NewImageStore wraps backend; a nil backend keeps images inline as data URIs.
func NewImageStore(backend ObjectStorage, maxBytes int64) *ImageStore {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &ImageStore{backend: backend, maxBytes: maxBytes}
}

// Inline reports whether images are stored on the report row.
func (s *ImageStore) Inline() bool {
	return s.backend == nil
}

// Decode parses a data:<mime>;base64,<payload> URI and checks that the
// content really is an image within the size limit.
func (s *ImageStore) Decode(dataURI string) (*Image, error) {
	trimmed := strings.TrimSpace(dataURI)
	if !strings.HasPrefix(trimmed, "data:") {
		return nil, fmt.Errorf("%w: expected data URI", ErrInvalidImage)
	}
	header, payload, ok := strings.Cut(trimmed[len("data:"):], ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: expected base64 payload", ErrInvalidImage)
	}

	if int64(base64.StdEncoding.DecodedLen(len(payload))) > s.maxBytes+3 {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrImageTooLarge, s.maxBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrImageTooLarge, s.maxBytes)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: content is %s", ErrInvalidImage, mtype.String())
	}
	contentType, _, _ := strings.Cut(mtype.String(), ";")
	return &Image{Data: data, ContentType: contentType, Extension: mtype.Extension()}, nil
}

// Save stores an already decoded image for the report and returns the
// reference to persist.
func (s *ImageStore) Save(ctx context.Context, customID string, img *Image) (string, error) {
	if s.backend == nil {
		return img.DataURI(), nil
	}
	key := fmt.Sprintf("reports/%s/%s%s", customID, uuid.NewString(), img.Extension)
	if err := s.backend.Put(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data)), img.ContentType); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return ObjectRef(s.backend, key), nil
}

// Open loads the image behind a stored reference.
func (s *ImageStore) Open(ctx context.Context, ref string) (*Image, error) {
	if strings.HasPrefix(ref, "data:") {
		return s.Decode(ref)
	}
	if s.backend == nil {
		return nil, ErrUnknownReference
	}
	scheme, bucket, key, err := ParseObjectRef(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownReference, err)
	}
	if scheme != s.backend.Scheme() || bucket != s.backend.Bucket() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReference, ref)
	}

	rc, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, s.maxBytes+1))
	if err != nil {
		return nil, err
	}
	mtype := mimetype.Detect(data)
	contentType, _, _ := strings.Cut(mtype.String(), ";")
	return &Image{Data: data, ContentType: contentType, Extension: mtype.Extension()}, nil
}

// Delete removes a stored object; inline references are ignored.
func (s *ImageStore) Delete(ctx context.Context, ref string) error {
	if s.backend == nil || strings.HasPrefix(ref, "data:") {
		return nil
	}
	_, _, key, err := ParseObjectRef(ref)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownReference, err)
	}
	return s.backend.Delete(ctx, key)
}
