package imagestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore is a mock implementation of the Store interface for testing.
type mockStore struct {
	putFunc func(ctx context.Context, key, contentType string, data []byte) (string, error)
}

func (m *mockStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if m.putFunc != nil {
		return m.putFunc(ctx, key, contentType, data)
	}
	return "", errors.New("not implemented")
}

// mockPutObject records PutObject calls.
type mockPutObject struct {
	input *s3.PutObjectInput
	err   error
}

func (m *mockPutObject) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.input = params
	if m.err != nil {
		return nil, m.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestExtension(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
		wantErr     bool
	}{
		{contentType: "image/jpeg", want: ".jpg"},
		{contentType: "IMAGE/PNG", want: ".png"},
		{contentType: "image/svg+xml; charset=utf-8", want: ".svg"},
		{contentType: "application/pdf", wantErr: true},
		{contentType: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			got, err := Extension(tt.contentType)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObjectKey(t *testing.T) {
	a, err := ObjectKey("p-1", "image/webp")
	require.NoError(t, err)
	b, err := ObjectKey("p-1", "image/webp")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "p-1-"))
	assert.True(t, strings.HasSuffix(a, ".webp"))
	assert.NotEqual(t, a, b)

	_, err = ObjectKey("p-1", "text/plain")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestS3Store_Put(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		publicBaseURL string
		wantURL       string
	}{
		{
			name:    "Virtual-hosted URL",
			wantURL: "https://steel-images.s3.ap-south-1.amazonaws.com/products/p-1.jpg",
		},
		{
			name:          "Public base URL",
			publicBaseURL: "https://cdn.example.com/",
			wantURL:       "https://cdn.example.com/products/p-1.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockPutObject{}
			store := newS3Store(client, "steel-images", "ap-south-1", "products/", tt.publicBaseURL, zerolog.Nop())

			url, err := store.Put(ctx, "p-1.jpg", "image/jpeg", []byte("jpeg-bytes"))

			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, url)
			require.NotNil(t, client.input)
			assert.Equal(t, "steel-images", aws.ToString(client.input.Bucket))
			assert.Equal(t, "products/p-1.jpg", aws.ToString(client.input.Key))
			assert.Equal(t, "image/jpeg", aws.ToString(client.input.ContentType))
			assert.Equal(t, int64(10), aws.ToInt64(client.input.ContentLength))
		})
	}
}

func TestS3Store_PutError(t *testing.T) {
	client := &mockPutObject{err: errors.New("access denied")}
	store := newS3Store(client, "steel-images", "ap-south-1", "products/", "", zerolog.Nop())

	url, err := store.Put(context.Background(), "p-1.jpg", "image/jpeg", []byte("x"))

	require.Error(t, err)
	assert.Empty(t, url)
	assert.Contains(t, err.Error(), "key=products/p-1.jpg")
}

func TestFileStore_Put(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	store := NewFileStore(dir, "/images/", zerolog.Nop())

	url, err := store.Put(context.Background(), "p-1.png", "image/png", []byte("png-bytes"))

	require.NoError(t, err)
	assert.Equal(t, "/images/p-1.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "p-1.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should be cleaned up")
}

func TestFileStore_PutStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, "/images", zerolog.Nop())

	url, err := store.Put(context.Background(), "../../etc/passwd.png", "image/png", []byte("x"))

	require.NoError(t, err)
	assert.Equal(t, "/images/passwd.png", url)
	_, err = os.Stat(filepath.Join(dir, "passwd.png"))
	assert.NoError(t, err)
}

func TestFileStore_PutCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewFileStore(t.TempDir(), "/images", zerolog.Nop())
	_, err := store.Put(ctx, "p-1.png", "image/png", []byte("x"))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFallbackStore_S3Success(t *testing.T) {
	s3Mock := &mockStore{
		putFunc: func(ctx context.Context, key, contentType string, data []byte) (string, error) {
			assert.Equal(t, "p-1.jpg", key)
			return "https://s3/p-1.jpg", nil
		},
	}
	file := &mockStore{
		putFunc: func(ctx context.Context, key, contentType string, data []byte) (string, error) {
			t.Error("file store should not be called when S3 succeeds")
			return "", errors.New("should not be called")
		},
	}

	url, err := NewFallbackStore(s3Mock, file, true, zerolog.Nop()).Put(context.Background(), "p-1.jpg", "image/jpeg", []byte("x"))

	require.NoError(t, err)
	assert.Equal(t, "https://s3/p-1.jpg", url)
}

func TestFallbackStore_S3FailsFallsBackToLocal(t *testing.T) {
	s3Mock := &mockStore{
		putFunc: func(ctx context.Context, key, contentType string, data []byte) (string, error) {
			return "", errors.New("S3 connection failed")
		},
	}
	file := &mockStore{
		putFunc: func(ctx context.Context, key, contentType string, data []byte) (string, error) {
			assert.Equal(t, []byte("x"), data)
			return "/images/p-1.jpg", nil
		},
	}

	url, err := NewFallbackStore(s3Mock, file, true, zerolog.Nop()).Put(context.Background(), "p-1.jpg", "image/jpeg", []byte("x"))

	require.NoError(t, err)
	assert.Equal(t, "/images/p-1.jpg", url)
}

func TestFallbackStore_S3DisabledOrNil(t *testing.T) {
	calledS3 := false
	s3Mock := &mockStore{
		putFunc: func(ctx context.Context, key, contentType string, data []byte) (string, error) {
			calledS3 = true
			return "https://s3/x", nil
		},
	}
	file := &mockStore{
		putFunc: func(ctx context.Context, key, contentType string, data []byte) (string, error) {
			return "/images/x", nil
		},
	}

	for name, store := range map[string]Store{
		"Disabled": NewFallbackStore(s3Mock, file, false, zerolog.Nop()),
		"Nil S3":   NewFallbackStore(nil, file, true, zerolog.Nop()),
	} {
		t.Run(name, func(t *testing.T) {
			url, err := store.Put(context.Background(), "x", "image/png", nil)
			require.NoError(t, err)
			assert.Equal(t, "/images/x", url)
		})
	}
	assert.False(t, calledS3)
}
