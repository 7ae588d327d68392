package relay

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/Luismorlan/teamfeed/utils"
)

// ObjectStore is the storage backend the relay fronts. Keys are opaque to
// callers, generated by GenerateKey on upload and handed back verbatim on
// read.
type ObjectStore interface {
	// Put writes the object bytes under key with the given content type.
	Put(ctx context.Context, key string, contentType string, body io.Reader) error

	// Get streams the object back. The returned ReadCloser must be closed
	// by the caller. Returns ErrKeyNotFound when the key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)

	// Exists reports whether the key is already stored.
	Exists(ctx context.Context, key string) bool
}

// ErrKeyNotFound is returned by Get for keys never uploaded.
var ErrKeyNotFound = errors.New("relay: key not found")

// GenerateKey derives the storage key for an uploaded file. The md5 of
// company id, file name and a random nonce keeps keys opaque and collision
// free even when the same user uploads the same file twice; the original
// extension is preserved so content type can be re-sniffed from the key.
func GenerateKey(companyId, folder, fileName string) (string, error) {
	hash, err := utils.TextToMd5Hash(companyId + "/" + fileName + "/" + utils.RandomAlphabetString(8))
	if err != nil {
		return "", err
	}
	key := hash + utils.GetFileExtNameWithDot(fileName)
	if folder != "" {
		key = folder + "/" + key
	}
	return key, nil
}
