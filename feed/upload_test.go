package feed

import (
	"context"
	"strings"
	"testing"

	"github.com/Luismorlan/teamfeed/relay"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// flakyUploader fails uploads whose file name it was told to fail.
type flakyUploader struct {
	failNames map[string]bool
	uploaded  []string
}

func (f *flakyUploader) Upload(ctx context.Context, image relay.ImageUpload, folder string) (string, error) {
	if f.failNames[image.FileName] {
		return "", errors.New("store unreachable")
	}
	key := folder + "/" + image.FileName
	f.uploaded = append(f.uploaded, key)
	return key, nil
}

func TestCreatePostWithImages(t *testing.T) {
	base, db := newTestService(t)
	bus := base.bus

	t.Run("partial upload failure still creates the post", func(t *testing.T) {
		uploader := &flakyUploader{failNames: map[string]bool{"b.png": true}}
		s := NewFeedServiceWithUploader(db, bus, uploader)

		images := []relay.ImageUpload{
			{FileName: "a.png", ContentType: "image/png", Body: strings.NewReader("a")},
			{FileName: "b.png", ContentType: "image/png", Body: strings.NewReader("b")},
			{FileName: "c.png", ContentType: "image/png", Body: strings.NewReader("c")},
		}
		post, failed, err := s.CreatePostWithImages(context.Background(), testAuthor, testCompany, "look", images, nil)
		require.NoError(t, err)
		require.Equal(t, 1, failed)
		require.Len(t, post.ImageKeyList(), 2)
	})

	t.Run("no content and every upload failed is a validation error", func(t *testing.T) {
		uploader := &flakyUploader{failNames: map[string]bool{"a.png": true}}
		s := NewFeedServiceWithUploader(db, bus, uploader)

		images := []relay.ImageUpload{
			{FileName: "a.png", ContentType: "image/png", Body: strings.NewReader("a")},
		}
		_, failed, err := s.CreatePostWithImages(context.Background(), testAuthor, testCompany, "", images, nil)
		require.ErrorIs(t, err, ErrValidationFailed)
		require.Equal(t, 1, failed)
	})

	t.Run("service without uploader refuses", func(t *testing.T) {
		s := NewFeedService(db, bus)
		_, _, err := s.CreatePostWithImages(context.Background(), testAuthor, testCompany, "x", nil, nil)
		require.Error(t, err)
	})
}
