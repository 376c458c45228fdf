package netx

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutStream_Success(t *testing.T) {
	payload := []byte("hello, permaweb")

	var gotBody []byte
	var gotMethod, gotMeta string
	var gotLen int64

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotMeta = r.Header.Get("X-Amz-Meta-Owner")
		gotLen = r.ContentLength
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	h := http.Header{}
	h.Set("X-Amz-Meta-Owner", "abc")

	err := PutStream(context.Background(), ts.Client(), ts.URL+"/bucket/key?X-Amz-Signature=x", bytes.NewReader(payload), int64(len(payload)), h)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "abc", gotMeta)
	assert.Equal(t, int64(len(payload)), gotLen)
	assert.Equal(t, payload, gotBody)
}

func TestPutStream_EmptyBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if len(b) != 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	require.NoError(t, PutStream(context.Background(), nil, ts.URL, bytes.NewReader(nil), 0, nil))
}

func TestPutStream_NonSuccessStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("SignatureDoesNotMatch"))
	}))
	defer ts.Close()

	err := PutStream(context.Background(), ts.Client(), ts.URL, strings.NewReader("x"), 1, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "SignatureDoesNotMatch")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
}

func TestPutStream_BadURL(t *testing.T) {
	err := PutStream(context.Background(), nil, "://bad", strings.NewReader("x"), 1, nil)
	require.Error(t, err)
}

func TestPutStream_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := PutStream(ctx, ts.Client(), ts.URL, strings.NewReader("x"), 1, nil)
	require.Error(t, err)
}
