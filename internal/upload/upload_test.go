package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clean-street/internal/apperr"
	"clean-street/internal/config"
	"clean-street/internal/logger"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func TestSniff(t *testing.T) {
	file, err := Sniff("dir/photo.PNG", pngHeader, 1024)
	require.NoError(t, err)
	assert.Equal(t, "photo.PNG", file.Name)
	assert.Equal(t, "image/png", file.ContentType)
	assert.Equal(t, ".png", file.Extension())

	_, err = Sniff("notes.txt", []byte("just some text"), 1024)
	assert.Equal(t, ErrNotImage, err)

	_, err = Sniff("evil.png", []byte("<html><script>alert(1)</script></html>"), 1024)
	assert.Equal(t, ErrNotImage, err)

	_, err = Sniff("big.png", pngHeader, 4)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = Sniff("empty.png", nil, 1024)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestFromMultipart(t *testing.T) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("photo", "pothole.png")
	require.NoError(t, err)
	_, err = part.Write(pngHeader)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	fh := req.MultipartForm.File["photo"][0]

	file, err := FromMultipart(fh, 1024)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, file.Data)

	_, err = FromMultipart(fh, 8)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Upload(context.Background(), &File{})
	assert.Equal(t, ErrNotConfigured, err)
}

func TestNew_SelectsProvider(t *testing.T) {
	log := logger.Discard()

	up, err := New(context.Background(), &config.Config{}, log)
	require.NoError(t, err)
	assert.IsType(t, Disabled{}, up)

	_, err = New(context.Background(), &config.Config{UploadProvider: ProviderCloudinary}, log)
	assert.Error(t, err)

	_, err = New(context.Background(), &config.Config{UploadProvider: "ftp"}, log)
	assert.Error(t, err)

	up, err = New(context.Background(), &config.Config{
		UploadProvider:      ProviderCloudinary,
		CloudinaryCloudName: "demo",
		CloudinaryAPIKey:    "key",
		CloudinaryAPISecret: "secret",
	}, log)
	require.NoError(t, err)
	assert.IsType(t, &Cloudinary{}, up)
}

func TestSign(t *testing.T) {
	params := map[string]string{
		"timestamp": "1315060510",
		"public_id": "sample_image",
		"eager":     "w_400,h_300,c_pad|w_260,h_200,c_crop",
	}
	assert.Equal(t, "bfd09f95f331f558cbd1320e67aa8d488770583e", Sign(params, "abcd"))
}

func TestCloudinary_Upload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1_1/demo/image/upload", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "key", r.FormValue("api_key"))
		assert.Equal(t, "clean-street", r.FormValue("folder"))
		assert.Equal(t, "1700000000", r.FormValue("timestamp"))
		assert.Equal(t, "e8c9f2091e59ab8a0bc0d04a0503d03c4b238fe7", r.FormValue("signature"))

		f, fh, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "pothole.png", fh.Filename)
		assert.Equal(t, pngHeader, data)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"secure_url": "https://res.cloudinary.com/demo/image/upload/v1/clean-street/abc.png",
			"public_id":  "clean-street/abc",
		})
	}))
	defer server.Close()

	up := NewCloudinary(CloudinaryOptions{
		CloudName: "demo",
		APIKey:    "key",
		APISecret: "secret",
		Folder:    "clean-street",
		BaseURL:   server.URL,
	}, logger.Discard())
	up.now = func() time.Time { return time.Unix(1700000000, 0) }

	url, err := up.Upload(context.Background(), &File{Name: "pothole.png", ContentType: "image/png", Data: pngHeader})
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/v1/clean-street/abc.png", url)
}

func TestCloudinary_UploadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid Signature"}}`))
	}))
	defer server.Close()

	up := NewCloudinary(CloudinaryOptions{CloudName: "demo", BaseURL: server.URL}, logger.Discard())

	_, err := up.Upload(context.Background(), &File{Name: "a.png", Data: pngHeader})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid Signature")
}

type mockPutter struct {
	mock.Mock
}

func (m *mockPutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.PutObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestS3_Upload(t *testing.T) {
	putter := new(mockPutter)
	putter.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "reports" &&
			*in.Key == "clean-street/fixed-key.png" &&
			*in.ContentType == "image/png" &&
			*in.ContentLength == int64(len(pngHeader))
	})).Return(&s3.PutObjectOutput{}, nil)

	up := NewS3WithClient(S3Options{
		Bucket:    "reports",
		Folder:    "clean-street",
		PublicURL: "https://cdn.example.com/",
	}, putter, logger.Discard())
	up.newKey = func() string { return "fixed-key" }

	url, err := up.Upload(context.Background(), &File{Name: "x.png", ContentType: "image/png", Data: pngHeader})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/clean-street/fixed-key.png", url)
	putter.AssertExpectations(t)
}

func TestS3_ObjectURL(t *testing.T) {
	up := NewS3WithClient(S3Options{Bucket: "b", Region: "eu-west-1"}, nil, logger.Discard())
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/k.png", up.objectURL("k.png"))

	up = NewS3WithClient(S3Options{Bucket: "b", Endpoint: "http://minio:9000/"}, nil, logger.Discard())
	assert.Equal(t, "http://minio:9000/b/k.png", up.objectURL("k.png"))
}
