package files

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// BlobStore keeps file bodies on disk, addressed by their sha256 digest.
// A body is written once; later uploads of identical bytes reuse it.
type BlobStore struct {
	root string
}

// NewBlobStore creates the blob directory under dataDir.
func NewBlobStore(dataDir string) (*BlobStore, error) {
	root := filepath.Join(dataDir, "blobs")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &BlobStore{root: root}, nil
}

func (s *BlobStore) path(digest string) string {
	// Shard by the first two hex characters to keep directories small.
	return filepath.Join(s.root, digest[:2], digest[2:])
}

// Write streams r to the store and returns the digest and size. The body
// lands under a temporary name first so a partial write never aliases a
// digest.
func (s *BlobStore) Write(r io.Reader) (digest string, size int64, err error) {
	tmp := filepath.Join(s.root, "tmp-"+uuid.NewString())
	f, err := os.Create(tmp)
	if err != nil {
		return "", 0, fmt.Errorf("create temp blob: %w", err)
	}
	defer os.Remove(tmp)

	h := sha256.New()
	size, err = io.Copy(io.MultiWriter(f, h), r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", 0, fmt.Errorf("write temp blob: %w", err)
	}

	digest = hex.EncodeToString(h.Sum(nil))
	final := s.path(digest)

	if _, err := os.Stat(final); err == nil {
		// Identical content already stored.
		return digest, size, nil
	}
	if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return "", 0, fmt.Errorf("create blob shard: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return "", 0, fmt.Errorf("finalize blob: %w", err)
	}
	return digest, size, nil
}

// Open returns a reader over the blob with the given digest.
func (s *BlobStore) Open(digest string) (io.ReadCloser, error) {
	if len(digest) < 3 {
		return nil, fmt.Errorf("malformed digest %q", digest)
	}
	return os.Open(s.path(digest))
}

// Remove deletes the blob with the given digest. Called only once its
// reference count reaches zero.
func (s *BlobStore) Remove(digest string) error {
	if len(digest) < 3 {
		return fmt.Errorf("malformed digest %q", digest)
	}
	err := os.Remove(s.path(digest))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
