package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storedesk/pkg/errors"
)

type stubUploader struct {
	url  string
	err  error
	seen string
}

func (s *stubUploader) Upload(ctx context.Context, r io.Reader, contentType string, progress func(int64)) (string, error) {
	data, _ := io.ReadAll(r)
	s.seen = string(data)
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

func TestFallbackUploaderPrefersPrimary(t *testing.T) {
	primary := &stubUploader{url: "https://primary/x"}
	secondary := &stubUploader{url: "https://secondary/x"}
	u := NewFallbackUploader(primary, secondary)

	url, err := u.Upload(context.Background(), strings.NewReader("payload"), "image/png", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://primary/x", url)
	assert.Empty(t, secondary.seen, "secondary must not be touched on success")
}

func TestFallbackUploaderReplaysBytesToSecondary(t *testing.T) {
	primary := &stubUploader{err: fmt.Errorf("bucket down")}
	secondary := &stubUploader{url: "https://secondary/x"}
	u := NewFallbackUploader(primary, secondary)

	url, err := u.Upload(context.Background(), strings.NewReader("payload"), "image/png", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://secondary/x", url)
	// The secondary sees the full payload even though the primary already
	// consumed the reader.
	assert.Equal(t, "payload", secondary.seen)
}

func TestFallbackUploaderWithoutSecondary(t *testing.T) {
	primary := &stubUploader{err: fmt.Errorf("bucket down")}
	u := NewFallbackUploader(primary, nil)

	_, err := u.Upload(context.Background(), strings.NewReader("payload"), "image/png", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "UPLOAD_FAILED"))
}

func TestFallbackUploaderBothFail(t *testing.T) {
	primary := &stubUploader{err: fmt.Errorf("primary down")}
	secondary := &stubUploader{err: fmt.Errorf("secondary down")}
	u := NewFallbackUploader(primary, secondary)

	_, err := u.Upload(context.Background(), strings.NewReader("payload"), "image/png", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "UPLOAD_FAILED"))
}
