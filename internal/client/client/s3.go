package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/turbouploader/internal/client/models"
	"github.com/dmitrijs2005/turbouploader/internal/client/wallet"
	"github.com/dmitrijs2005/turbouploader/internal/logging"
	"github.com/dmitrijs2005/turbouploader/internal/netx"
)

// presignExpiry bounds how long a presigned PUT stays usable.
const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// S3Config addresses an S3-compatible gateway.
type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// S3Client stores signed items in an S3-compatible bucket under their
// item id. Signature, owner, tags and payer travel as object metadata.
type S3Client struct {
	bucket     string
	presign    *s3.PresignClient
	signer     wallet.Signer
	httpClient *http.Client
	log        logging.Logger
}

// NewS3Client loads AWS config with static credentials and builds a
// path-style presign client for cfg.BaseEndpoint.
func NewS3Client(ctx context.Context, cfg S3Config, signer wallet.Signer, httpClient *http.Client, log logging.Logger) (*S3Client, error) {
	if signer == nil {
		return nil, ErrNoSigner
	}
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logging.Nop()
	}
	return &S3Client{
		bucket:     cfg.Bucket,
		presign:    s3.NewPresignClient(client),
		signer:     signer,
		httpClient: httpClient,
		log:        log.With("component", "s3"),
	}, nil
}

func (c *S3Client) UploadFile(ctx context.Context, req models.UploadRequest, events UploadEvents) (*models.UploadResult, error) {
	events = eventsOrNop(events)

	body, item, err := prepare(ctx, c.signer, req, events)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	events.OnUploadProgress(0, req.Size)

	if err := c.put(ctx, req, item, newProgressReader(body, req.Size, events)); err != nil {
		events.OnUploadError(err)
		return nil, err
	}
	return &models.UploadResult{ID: item.ID, Owner: item.Owner}, nil
}

func (c *S3Client) put(ctx context.Context, req models.UploadRequest, item *signedItem, body io.Reader) error {
	meta := map[string]string{
		"owner":     item.Owner,
		"signature": base64.RawURLEncoding.EncodeToString(item.Signature),
		"tags":      item.TagsB64,
	}
	if req.PaidBy != "" {
		meta["paid-by"] = req.PaidBy
	}

	in := &s3.PutObjectInput{
		Bucket:   aws.String(c.bucket),
		Key:      aws.String(item.ID),
		Metadata: meta,
	}
	if ct := contentTypeOf(req.Tags); ct != "" {
		in.ContentType = aws.String(ct)
	}

	presigned, err := presignPutObject(c.presign, ctx, in, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return fmt.Errorf("presign: %w", err)
	}

	c.log.Debug(ctx, "putting object", "key", item.ID, "size", req.Size)

	err = netx.PutStream(ctx, c.httpClient, presigned.URL, body, req.Size, presigned.SignedHeader)
	var statusErr *netx.StatusError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &statusErr), errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
}

func contentTypeOf(tags []models.Tag) string {
	for _, t := range tags {
		if strings.EqualFold(t.Name, "Content-Type") {
			return t.Value
		}
	}
	return ""
}
