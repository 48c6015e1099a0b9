package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"agritech/internal/config"
	"agritech/internal/usecase"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	puts    []*s3.PutObjectInput
	bodies  [][]byte
	deletes []string
	putErr  error
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Uploader_Upload(t *testing.T) {
	api := &fakeObjects{}
	u := newS3Uploader(api, "produce", "/agrli-app/", "https://cdn.example.com/", nil)

	got, err := u.Upload(context.Background(), usecase.ImageFile{
		Filename:    "Maize.PNG",
		ContentType: "image/png",
		Data:        []byte("png-bytes"),
	})
	require.NoError(t, err)
	require.Len(t, api.puts, 1)

	put := api.puts[0]
	assert.Equal(t, "produce", aws.ToString(put.Bucket))
	assert.Equal(t, "image/png", aws.ToString(put.ContentType))
	assert.Equal(t, []byte("png-bytes"), api.bodies[0])

	key := aws.ToString(put.Key)
	assert.True(t, strings.HasPrefix(key, "agrli-app/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.Equal(t, key, got.PublicID)
	assert.Equal(t, "https://cdn.example.com/"+key, got.URL)
}

func TestS3Uploader_ExtensionFromContentType(t *testing.T) {
	api := &fakeObjects{}
	u := newS3Uploader(api, "produce", "", "https://cdn.example.com", nil)

	got, err := u.Upload(context.Background(), usecase.ImageFile{Filename: "blob", ContentType: "image/jpeg", Data: []byte{1}})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got.PublicID, ".jpg"))
	assert.NotContains(t, got.PublicID, "/")
}

func TestS3Uploader_PutError(t *testing.T) {
	api := &fakeObjects{putErr: errors.New("access denied")}
	u := newS3Uploader(api, "produce", "x", "https://cdn.example.com", nil)

	_, err := u.Upload(context.Background(), usecase.ImageFile{Filename: "a.png", Data: []byte{1}})
	assert.ErrorContains(t, err, "access denied")
}

func TestS3Uploader_Delete(t *testing.T) {
	api := &fakeObjects{}
	u := newS3Uploader(api, "produce", "x", "https://cdn.example.com", nil)

	require.NoError(t, u.Delete(context.Background(), "x/a.png"))
	require.NoError(t, u.Delete(context.Background(), ""))
	assert.Equal(t, []string{"x/a.png"}, api.deletes)
}

func TestNewS3Uploader_NoBucket(t *testing.T) {
	_, err := NewS3Uploader(context.Background(), config.StorageConfig{}, nil)
	assert.ErrorIs(t, err, ErrUploadDisabled)
}

func TestDefaultBaseURL(t *testing.T) {
	assert.Equal(t, "https://produce.s3.eu-west-1.amazonaws.com",
		defaultBaseURL(config.StorageConfig{Bucket: "produce", Region: "eu-west-1"}))
	assert.Equal(t, "http://localhost:9000/produce",
		defaultBaseURL(config.StorageConfig{Bucket: "produce", Endpoint: "http://localhost:9000/"}))
}

func TestDisabledUploader(t *testing.T) {
	var u DisabledUploader
	_, err := u.Upload(context.Background(), usecase.ImageFile{})
	assert.ErrorIs(t, err, ErrUploadDisabled)
	assert.NoError(t, u.Delete(context.Background(), "anything"))
}
