package client

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/turbouploader/internal/client/models"
	"github.com/dmitrijs2005/turbouploader/internal/client/wallet"
	"github.com/dmitrijs2005/turbouploader/internal/cryptox"
)

// UploadEvents receives progress from a client while an upload runs.
type UploadEvents interface {
	OnSigningProgress()
	OnSigningError(err error)
	OnUploadProgress(sent, total int64)
	OnUploadError(err error)
}

// Uploader sends one file to the storage network. A nil error with an empty
// result ID means the service answered without an identifier.
type Uploader interface {
	UploadFile(ctx context.Context, req models.UploadRequest, events UploadEvents) (*models.UploadResult, error)
}

// NopEvents discards all events.
type NopEvents struct{}

func (NopEvents) OnSigningProgress()            {}
func (NopEvents) OnSigningError(error)          {}
func (NopEvents) OnUploadProgress(int64, int64) {}
func (NopEvents) OnUploadError(error)           {}

// signedItem is an upload request after signing.
type signedItem struct {
	ID        string
	Owner     string
	Signature []byte
	TagsB64   string
}

var itemSeparator = []byte{0}

// ItemDigest hashes owner, payer, tags JSON and the data stream into the
// message that gets signed.
func ItemDigest(owner, paidBy string, tagsJSON []byte, data io.Reader) ([]byte, error) {
	h := sha256.New()
	h.Write([]byte(owner))
	h.Write(itemSeparator)
	h.Write([]byte(paidBy))
	h.Write(itemSeparator)
	h.Write(tagsJSON)
	h.Write(itemSeparator)
	if _, err := io.Copy(h, data); err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	return h.Sum(nil), nil
}

// signItem reads the request stream once, signs it with signer and rewinds
// the stream for sending.
func signItem(ctx context.Context, signer wallet.Signer, req models.UploadRequest, body io.ReadSeeker) (*signedItem, error) {
	owner, err := signer.Owner(ctx)
	if err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}

	tagsJSON, err := json.Marshal(req.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	digest, err := ItemDigest(owner, req.PaidBy, tagsJSON, io.LimitReader(body, req.Size))
	if err != nil {
		return nil, err
	}

	sig, err := signer.Sign(ctx, digest)
	if err != nil {
		return nil, err
	}
	if len(sig) == 0 {
		return nil, errors.New("invalid signature: empty")
	}

	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind data: %w", err)
	}

	return &signedItem{
		ID:        cryptox.ItemID(sig),
		Owner:     owner,
		Signature: sig,
		TagsB64:   base64.RawURLEncoding.EncodeToString(tagsJSON),
	}, nil
}

// prepare opens the request stream and signs it, reporting signing events.
// The caller closes the returned stream.
func prepare(ctx context.Context, signer wallet.Signer, req models.UploadRequest, events UploadEvents) (models.ReadSeekCloser, *signedItem, error) {
	if signer == nil {
		return nil, nil, ErrNoSigner
	}
	if req.Open == nil {
		return nil, nil, errors.New("upload request has no data")
	}

	body, err := req.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open data: %w", err)
	}

	events.OnSigningProgress()
	item, err := signItem(ctx, signer, req, body)
	if err != nil {
		_ = body.Close()
		events.OnSigningError(err)
		return nil, nil, err
	}
	return body, item, nil
}

// progressReader reports bytes read to events.
type progressReader struct {
	r      io.Reader
	sent   int64
	total  int64
	events UploadEvents
}

func newProgressReader(r io.Reader, total int64, events UploadEvents) *progressReader {
	return &progressReader{r: io.LimitReader(r, total), total: total, events: events}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.events.OnUploadProgress(p.sent, p.total)
	}
	return n, err
}

func eventsOrNop(e UploadEvents) UploadEvents {
	if e == nil {
		return NopEvents{}
	}
	return e
}
