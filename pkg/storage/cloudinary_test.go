package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"anoa.com/civicreport/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cloudinaryCall struct {
	method string
	path   string
	form   map[string]string
	body   string
}

// fakeCloudinary answers every request with the configured status and body
// and records what the client sent.
type fakeCloudinary struct {
	mu     sync.Mutex
	calls  []cloudinaryCall
	status int
	body   string
}

func (f *fakeCloudinary) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := cloudinaryCall{method: r.Method, path: r.URL.Path, form: map[string]string{}}
	switch {
	case strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"):
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for key, values := range r.MultipartForm.Value {
				call.form[key] = values[0]
			}
		}
	case r.Method == http.MethodPost:
		// form posts arrive without a content type
		raw, _ := io.ReadAll(r.Body)
		if values, err := url.ParseQuery(string(raw)); err == nil {
			for key := range values {
				call.form[key] = values.Get(key)
			}
		}
	default:
		raw, _ := io.ReadAll(r.Body)
		call.body = string(raw)
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	status, body := f.status, f.body
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeCloudinary) respond(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.body = status, body
	f.calls = nil
}

func (f *fakeCloudinary) lastCall(t *testing.T) cloudinaryCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func newTestStorage(t *testing.T) (ImageStorage, *fakeCloudinary) {
	t.Helper()
	fake := &fakeCloudinary{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	images, err := NewCloudinaryStorage(CloudinaryConfig{
		CloudName:    "demo",
		APIKey:       "key",
		APISecret:    "secret",
		UploadPrefix: srv.URL,
	})
	require.NoError(t, err)
	return images, fake
}

func TestUploadImage(t *testing.T) {
	images, fake := newTestStorage(t)
	ctx := context.Background()

	t.Run("converts images to webp", func(t *testing.T) {
		fake.respond(http.StatusOK, `{"public_id":"reports/1-pothole","secure_url":"https://res.cloudinary.com/demo/image/upload/reports/1-pothole.webp"}`)

		res, err := images.UploadImage(ctx, strings.NewReader("png bytes"), "reports", "pothole.png")
		require.NoError(t, err)
		assert.Equal(t, "reports/1-pothole", res.PublicID)
		assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/reports/1-pothole.webp", res.URL)

		call := fake.lastCall(t)
		assert.Equal(t, http.MethodPost, call.method)
		assert.Equal(t, "/v1_1/demo/auto/upload", call.path)
		assert.Equal(t, "reports", call.form["folder"])
		assert.Equal(t, "webp", call.form["format"])
		assert.True(t, strings.HasSuffix(call.form["public_id"], "-pothole"))
	})

	t.Run("api error", func(t *testing.T) {
		fake.respond(http.StatusBadRequest, `{"error":{"message":"Invalid image file"}}`)

		_, err := images.UploadImage(ctx, strings.NewReader("junk"), "reports", "junk.png")
		assert.ErrorIs(t, err, ErrUpload)
		assert.ErrorIs(t, err, apperror.ErrUpstream)
		assert.Contains(t, err.Error(), "Invalid image file")
	})

	t.Run("missing public id", func(t *testing.T) {
		fake.respond(http.StatusOK, `{"secure_url":"https://res.cloudinary.com/demo/image/upload/x.webp"}`)

		_, err := images.UploadImage(ctx, strings.NewReader("png bytes"), "reports", "x.png")
		assert.ErrorIs(t, err, ErrUpload)
	})
}

func TestDeleteImage(t *testing.T) {
	images, fake := newTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"deleted", `{"result":"ok"}`, false},
		{"already gone", `{"result":"not found"}`, false},
		{"rejected", `{"result":"error"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake.respond(http.StatusOK, tt.body)

			err := images.DeleteImage(ctx, "reports/1-pothole")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrRemove)
			} else {
				assert.NoError(t, err)
			}

			call := fake.lastCall(t)
			assert.Equal(t, "/v1_1/demo/image/destroy", call.path)
			assert.Equal(t, "reports/1-pothole", call.form["public_id"])
			assert.Equal(t, "true", call.form["invalidate"])
		})
	}
}

func TestDeleteImages(t *testing.T) {
	images, fake := newTestStorage(t)
	ctx := context.Background()

	t.Run("batch", func(t *testing.T) {
		fake.respond(http.StatusOK, `{"deleted":{"reports/a":"deleted","reports/b":"deleted"},"partial":false}`)

		require.NoError(t, images.DeleteImages(ctx, []string{"reports/a", "reports/b"}))

		call := fake.lastCall(t)
		assert.Equal(t, http.MethodDelete, call.method)
		assert.Contains(t, call.body, "reports/a")
		assert.Contains(t, call.body, "reports/b")
	})

	t.Run("api error", func(t *testing.T) {
		fake.respond(http.StatusTooManyRequests, `{"error":{"message":"Rate Limit Exceeded"}}`)

		err := images.DeleteImages(ctx, []string{"reports/a"})
		assert.ErrorIs(t, err, ErrRemove)
		assert.Contains(t, err.Error(), "Rate Limit Exceeded")
	})

	t.Run("nothing to release", func(t *testing.T) {
		fake.respond(http.StatusOK, `{}`)

		require.NoError(t, images.DeleteImages(ctx, nil))
		fake.mu.Lock()
		defer fake.mu.Unlock()
		assert.Empty(t, fake.calls)
	})
}

func TestUninitializedStorage(t *testing.T) {
	var images *cloudinaryStorage
	ctx := context.Background()

	_, err := images.UploadImage(ctx, strings.NewReader("x"), "reports", "x.png")
	assert.Error(t, err)
	assert.Error(t, images.DeleteImage(ctx, "x"))
	assert.Error(t, images.DeleteImages(ctx, []string{"x"}))
}
