package s3_test

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quka-ai/studymate/pkg/object-storage/s3"
	"github.com/quka-ai/studymate/pkg/testutils"
)

func newClient(t *testing.T) *s3.S3 {
	testutils.LoadEnv()
	if os.Getenv("TEST_STUDYMATE_S3_BUCKET") == "" {
		t.Skip("TEST_STUDYMATE_S3_BUCKET not set")
	}
	return s3.NewS3Client(
		os.Getenv("TEST_STUDYMATE_S3_ENDPOINT"),
		os.Getenv("TEST_STUDYMATE_S3_REGION"),
		os.Getenv("TEST_STUDYMATE_S3_BUCKET"),
		os.Getenv("TEST_STUDYMATE_S3_ACCESS_KEY"),
		os.Getenv("TEST_STUDYMATE_S3_SECRET_KEY"),
		s3.WithPathStyle(os.Getenv("TEST_STUDYMATE_S3_PATH_STYLE") == "true"),
	)
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "text/plain; charset=utf-8", s3.DetectContentType([]byte("hello world")))
	assert.Equal(t, "application/pdf", s3.DetectContentType([]byte("%PDF-1.7\n")))
}

func TestUploadAndGet(t *testing.T) {
	cli := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	key := "/test/studymate.txt"
	require.NoError(t, cli.Upload(ctx, key, bytes.NewReader([]byte("hello")), "text/plain"))
	defer cli.Delete(ctx, key)

	res, err := cli.GetObject(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(res.File))

	url, err := cli.GenGetObjectPreSignURL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, url)
}
