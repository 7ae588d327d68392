package relay

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const TmpFileDirPrefix = "_tmp_file_store_"

// LocalStore keeps relay objects in a directory on disk, mainly for
// development and testing. Content type is re-sniffed on read (extension
// first, byte sniffing as fallback) instead of being stored alongside.
type LocalStore struct {
	bucket     string
	folderName string
}

func NewLocalStore(bucket string) (*LocalStore, error) {
	folderName, err := createFolder(bucket)
	if err != nil {
		return nil, err
	}
	return &LocalStore{bucket: bucket, folderName: folderName}, nil
}

func createFolder(bucket string) (string, error) {
	folderName := TmpFileDirPrefix + bucket
	err := os.MkdirAll(folderName, os.ModePerm)
	if err != nil && strings.Contains(err.Error(), "file exists") {
		return folderName, nil
	}
	return folderName, err
}

func (s *LocalStore) path(key string) string {
	// Keys may contain a folder segment, flatten it so a hostile key can
	// never escape the store directory.
	return filepath.Join(s.folderName, strings.ReplaceAll(key, "/", "__"))
}

func (s *LocalStore) Put(ctx context.Context, key string, contentType string, body io.Reader) error {
	file, err := os.Create(s.path(key))
	if err != nil {
		return err
	}
	defer file.Close()

	// Use io.Copy to just dump the body to the file. This supports huge files
	_, err = io.Copy(file, body)
	return err
}

func (s *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	file, err := os.Open(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrKeyNotFound
		}
		return nil, "", err
	}

	contentType := mimeTypeByExtOrSniff(key, file)
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, "", err
	}
	return file, contentType, nil
}

func (s *LocalStore) Exists(ctx context.Context, key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}

// CleanUp removes the whole store directory.
func (s *LocalStore) CleanUp() error {
	return os.RemoveAll(s.folderName)
}

func mimeTypeByExtOrSniff(key string, file *os.File) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}

	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	return http.DetectContentType(buf[:n])
}
