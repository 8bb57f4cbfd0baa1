package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload_ReturnsSecureURL(t *testing.T) {
	var gotPreset, gotFile, gotName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotPreset = r.FormValue("upload_preset")
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		gotFile, gotName = string(b), hdr.Filename
		_, _ = w.Write([]byte(`{"secure_url":"https://res.example/doc.jpg"}`))
	}))
	defer srv.Close()

	u := NewUploader(srv.URL, "kyc_unsigned", nil)
	url, err := u.Upload(context.Background(), "doc.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "https://res.example/doc.jpg", url)
	assert.Equal(t, "kyc_unsigned", gotPreset)
	assert.Equal(t, "jpeg-bytes", gotFile)
	assert.Equal(t, "doc.jpg", gotName)
}

func TestUpload_HostError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	}))
	defer srv.Close()

	_, err := NewUploader(srv.URL, "missing", nil).Upload(context.Background(), "selfie.jpg", strings.NewReader("x"))
	assert.ErrorContains(t, err, "Upload preset not found")
}
