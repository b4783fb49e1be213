package article

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExtract_TitleAndDescription(t *testing.T) {
	srv := serve(t, http.StatusOK, `<html><head>
		<title>Plain Title</title>
		<meta name="description" content="The page   description.">
	</head><body></body></html>`)

	meta, err := New(time.Second).Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL, meta.URL)
	assert.Equal(t, "Plain Title", meta.Title)
	assert.Equal(t, "The page description.", meta.Description)
}

func TestExtract_OpenGraphPreferred(t *testing.T) {
	srv := serve(t, http.StatusOK, `<html><head>
		<title>Fallback</title>
		<meta property="og:title" content="OG &amp; Title">
		<meta property="og:description" content="og description">
	</head></html>`)

	meta, err := New(time.Second).Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "OG & Title", meta.Title, "og:title wins and entities decode")
	assert.Equal(t, "og description", meta.Description)
}

func TestExtract_NoMetadata(t *testing.T) {
	srv := serve(t, http.StatusOK, `<html><body>nothing useful</body></html>`)

	_, err := New(time.Second).Extract(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestExtract_HTTPError(t *testing.T) {
	srv := serve(t, http.StatusNotFound, "gone")

	_, err := New(time.Second).Extract(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "status 404")
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", cleanText("  a\n b\t c "))
	assert.Equal(t, `quotes "here"`, cleanText("quotes &quot;here&quot;"))
}
