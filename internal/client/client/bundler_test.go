package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/turbouploader/internal/client/models"
	"github.com/dmitrijs2005/turbouploader/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundlerClient_UploadFile(t *testing.T) {
	w := sponsoredWallet(t)
	data := []byte("some file content")

	var got struct {
		path, owner, sig, tags, paidBy string
		body                           []byte
		length                         int64
	}
	ts := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.owner = r.Header.Get(HeaderOwner)
		got.sig = r.Header.Get(HeaderSignature)
		got.tags = r.Header.Get(HeaderTags)
		got.paidBy = r.Header.Get(HeaderPaidBy)
		got.length = r.ContentLength
		got.body, _ = io.ReadAll(r.Body)

		sig, _ := base64.RawURLEncoding.DecodeString(got.sig)
		rw.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(rw).Encode(map[string]string{"id": cryptox.ItemID(sig)})
	}))
	defer ts.Close()

	c, err := NewBundlerClient(ts.URL+"/", "arweave", w, ts.Client(), nil)
	require.NoError(t, err)

	req := request(data, models.Tag{Name: "Content-Type", Value: "text/plain"})
	req.PaidBy = "sponsor-address"
	rec := &recorder{}

	res, err := c.UploadFile(context.Background(), req, rec)
	require.NoError(t, err)

	assert.Equal(t, "/v1/tx/arweave", got.path)
	assert.Equal(t, data, got.body)
	assert.Equal(t, int64(len(data)), got.length)
	assert.Equal(t, "sponsor-address", got.paidBy)

	owner, _ := w.Owner(context.Background())
	assert.Equal(t, owner, got.owner)
	assert.Equal(t, owner, res.Owner)

	tagsJSON, err := base64.RawURLEncoding.DecodeString(got.tags)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Content-Type","value":"text/plain"}]`, string(tagsJSON))

	sig, err := base64.RawURLEncoding.DecodeString(got.sig)
	require.NoError(t, err)
	assert.Equal(t, cryptox.ItemID(sig), res.ID)

	assert.Equal(t, []string{"signing", "progress"}, rec.kinds())
	assert.Equal(t, int64(len(data)), rec.last)
}

func TestBundlerClient_EmptyFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if len(b) != 0 || r.Header.Get(HeaderPaidBy) != "" {
			rw.WriteHeader(http.StatusBadRequest)
			return
		}
		rw.WriteHeader(http.StatusCreated)
		_, _ = rw.Write([]byte(`{"id":"empty-item"}`))
	}))
	defer ts.Close()

	c, err := NewBundlerClient(ts.URL, "arweave", sponsoredWallet(t), ts.Client(), nil)
	require.NoError(t, err)

	rec := &recorder{}
	res, err := c.UploadFile(context.Background(), request(nil), rec)
	require.NoError(t, err)
	assert.Equal(t, "empty-item", res.ID)
	assert.Equal(t, []string{"signing", "progress"}, rec.kinds())
}

func TestBundlerClient_MissingID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c, err := NewBundlerClient(ts.URL, "arweave", sponsoredWallet(t), ts.Client(), nil)
	require.NoError(t, err)

	res, err := c.UploadFile(context.Background(), request([]byte("x")), nil)
	require.NoError(t, err)
	assert.Empty(t, res.ID)
}

func TestBundlerClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{name: "payment required", status: http.StatusPaymentRequired, body: "top up", wantErr: ErrInsufficientBalance, wantMsg: "insufficient balance: top up"},
		{name: "server error", status: http.StatusInternalServerError, body: "oops", wantMsg: "500"},
		{name: "bad json", status: http.StatusOK, body: "{", wantMsg: "decode response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				rw.WriteHeader(tt.status)
				_, _ = rw.Write([]byte(tt.body))
			}))
			defer ts.Close()

			c, err := NewBundlerClient(ts.URL, "arweave", sponsoredWallet(t), ts.Client(), nil)
			require.NoError(t, err)

			rec := &recorder{}
			_, err = c.UploadFile(context.Background(), request([]byte("abc")), rec)
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, []string{"signing", "progress", "upload-error"}, rec.kinds())
		})
	}
}

func TestBundlerClient_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c, err := NewBundlerClient(url, "arweave", sponsoredWallet(t), nil, nil)
	require.NoError(t, err)

	_, err = c.UploadFile(context.Background(), request([]byte("abc")), nil)
	require.ErrorIs(t, err, ErrNetwork)
	assert.Contains(t, err.Error(), "network")
}

func TestNewBundlerClient_RequiresSigner(t *testing.T) {
	_, err := NewBundlerClient("http://x", "arweave", nil, nil, nil)
	require.ErrorIs(t, err, ErrNoSigner)
}
