package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/turbouploader/internal/client/models"
	"github.com/dmitrijs2005/turbouploader/internal/client/wallet"
	"github.com/dmitrijs2005/turbouploader/internal/logging"
	"github.com/dmitrijs2005/turbouploader/internal/netx"
)

// Headers carried by a bundler upload.
const (
	HeaderOwner     = "X-Owner"
	HeaderSignature = "X-Signature"
	HeaderTags      = "X-Tags"
	HeaderPaidBy    = "X-Paid-By"
)

// BundlerClient posts signed items to an upload service at
// {baseURL}/v1/tx/{token}.
type BundlerClient struct {
	baseURL    string
	token      string
	signer     wallet.Signer
	httpClient *http.Client
	log        logging.Logger
}

// NewBundlerClient builds a client that signs with signer. A nil httpClient
// means http.DefaultClient.
func NewBundlerClient(baseURL, token string, signer wallet.Signer, httpClient *http.Client, log logging.Logger) (*BundlerClient, error) {
	if signer == nil {
		return nil, ErrNoSigner
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logging.Nop()
	}
	return &BundlerClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		signer:     signer,
		httpClient: httpClient,
		log:        log.With("component", "bundler"),
	}, nil
}

type txResponse struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
}

func (c *BundlerClient) UploadFile(ctx context.Context, req models.UploadRequest, events UploadEvents) (*models.UploadResult, error) {
	events = eventsOrNop(events)

	body, item, err := prepare(ctx, c.signer, req, events)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	events.OnUploadProgress(0, req.Size)

	res, err := c.post(ctx, req, item, newProgressReader(body, req.Size, events))
	if err != nil {
		events.OnUploadError(err)
		return nil, err
	}
	return res, nil
}

func (c *BundlerClient) post(ctx context.Context, req models.UploadRequest, item *signedItem, body io.Reader) (*models.UploadResult, error) {
	url := fmt.Sprintf("%s/v1/tx/%s", c.baseURL, c.token)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	httpReq.ContentLength = req.Size
	if req.Size == 0 {
		httpReq.Body = http.NoBody
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")
	httpReq.Header.Set(HeaderOwner, item.Owner)
	httpReq.Header.Set(HeaderSignature, base64.RawURLEncoding.EncodeToString(item.Signature))
	httpReq.Header.Set(HeaderTags, item.TagsB64)
	if req.PaidBy != "" {
		httpReq.Header.Set(HeaderPaidBy, req.PaidBy)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
	case http.StatusPaymentRequired:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("%w: %s", ErrInsufficientBalance, strings.TrimSpace(string(msg)))
	default:
		return nil, netx.NewStatusError(resp)
	}

	var tx txResponse
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.log.Debug(ctx, "item accepted", "id", tx.ID, "local_id", item.ID)

	owner := tx.Owner
	if owner == "" {
		owner = item.Owner
	}
	return &models.UploadResult{ID: tx.ID, Owner: owner}, nil
}
