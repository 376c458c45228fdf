package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/turbouploader/internal/address"
	"github.com/dmitrijs2005/turbouploader/internal/client/client"
	"github.com/dmitrijs2005/turbouploader/internal/client/models"
	"github.com/dmitrijs2005/turbouploader/internal/client/wallet"
	"github.com/dmitrijs2005/turbouploader/internal/common"
	"github.com/dmitrijs2005/turbouploader/internal/logging"
	"github.com/google/uuid"
)

// Tag names attached to every upload.
const (
	TagAppName     = "App-Name"
	TagAnchor      = "anchor"
	TagContentType = "Content-Type"
)

// anchorLayout renders the anchor tag like JavaScript's toISOString.
const anchorLayout = "2006-01-02T15:04:05.000Z"

// UploadObserver receives a snapshot of the job after every status change.
type UploadObserver func(job models.UploadJob)

// UploadOptions configures the pipeline.
type UploadOptions struct {
	AppName     string
	GatewayHost string
}

// UploadService drives one upload at a time through
// Preparing, Signing, Transmitting and a terminal Succeeded or Failed.
//
// Submit blocks until the job is terminal. Precondition failures return a nil
// job; every other failure returns the Failed job together with its
// *common.Error. There is no retry.
type UploadService interface {
	SetClient(c client.Uploader)
	Ready() bool
	Submit(ctx context.Context, file *models.File, h wallet.Handle, sponsor string) (*models.UploadJob, error)
	Status() *models.UploadJob
	Acknowledge()
	Subscribe(fn UploadObserver)
}

type uploadService struct {
	opts UploadOptions
	log  logging.Logger

	mu        sync.Mutex
	client    client.Uploader
	job       *models.UploadJob
	observers []UploadObserver
}

// NewUploadService builds the pipeline. A client must be set with SetClient
// before uploads are accepted.
func NewUploadService(opts UploadOptions, log logging.Logger) UploadService {
	if opts.GatewayHost == "" {
		opts.GatewayHost = common.DefaultGatewayHost
	}
	if log == nil {
		log = logging.Nop()
	}
	return &uploadService{opts: opts, log: log.With("component", "upload")}
}

func (s *uploadService) SetClient(c client.Uploader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = c
}

func (s *uploadService) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

func (s *uploadService) Subscribe(fn UploadObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *uploadService) Status() *models.UploadJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return nil
	}
	j := *s.job
	return &j
}

// Acknowledge discards a terminal job. In-flight jobs are kept.
func (s *uploadService) Acknowledge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job != nil && s.job.Status.Terminal() {
		s.job = nil
	}
}

func (s *uploadService) Submit(ctx context.Context, file *models.File, h wallet.Handle, sponsor string) (*models.UploadJob, error) {
	sponsor = strings.TrimSpace(sponsor)

	s.mu.Lock()
	uploader := s.client
	s.mu.Unlock()

	switch {
	case file == nil:
		return nil, common.NewError(common.KindNoFile, "Please select a file first", nil)
	case h == nil:
		return nil, common.NewError(common.KindNoWallet, "Please connect a wallet first", nil)
	case uploader == nil:
		return nil, common.NewError(common.KindClientNotReady, "Upload client is not ready", nil)
	case sponsor != "" && !address.IsValid(sponsor):
		return nil, common.NewError(common.KindInvalidSponsorAddress, "Invalid sponsor address", nil)
	}

	job, err := s.start(file, sponsor)
	if err != nil {
		return nil, err
	}
	log := s.log.With("job_id", job.ID)
	log.Info(ctx, "upload started", "file", file.Name, "size", file.Size, "sponsored", sponsor != "")

	paidBy := sponsor
	if paidBy == h.Address() {
		paidBy = ""
	}

	req := models.UploadRequest{
		Open:   file.Open,
		Size:   file.Size,
		Tags:   s.tags(file),
		PaidBy: paidBy,
	}

	res, err := uploader.UploadFile(ctx, req, &jobEvents{s: s, job: job})
	switch {
	case err != nil:
		kind, msg := classifyException(err)
		s.fail(job, common.NewError(kind, msg, err))
	case res == nil || res.ID == "":
		s.fail(job, common.NewError(common.KindMissingResult, "no identifier received", nil))
	default:
		s.succeed(job, res.ID)
	}

	final := s.snapshot(job)
	if final.Failure != nil {
		log.Warn(ctx, "upload failed", "kind", string(final.Failure.Kind), "error", final.Failure.Error())
		return &final, final.Failure
	}
	log.Info(ctx, "upload finished", "content_id", final.ContentID)
	return &final, nil
}

func (s *uploadService) tags(file *models.File) []models.Tag {
	ct := file.ContentType
	if ct == "" {
		ct = common.DefaultContentType
	}
	return []models.Tag{
		{Name: TagAppName, Value: s.opts.AppName},
		{Name: TagAnchor, Value: timeNow().UTC().Format(anchorLayout)},
		{Name: TagContentType, Value: ct},
	}
}

// start installs a fresh job in Preparing, unless one is in flight.
func (s *uploadService) start(file *models.File, payer string) (*models.UploadJob, error) {
	s.mu.Lock()
	if s.job != nil && s.job.Status.InFlight() {
		s.mu.Unlock()
		return nil, common.NewError(common.KindAlreadyInProgress, "An upload is already in progress", nil)
	}
	job := &models.UploadJob{
		ID:        uuid.NewString(),
		FileName:  file.Name,
		FileSize:  file.Size,
		Payer:     payer,
		Status:    models.UploadPreparing,
		CreatedAt: timeNow(),
	}
	s.job = job
	snap := *job
	s.mu.Unlock()

	s.emit(snap)
	return job, nil
}

var stageOrder = map[models.UploadStatus]int{
	models.UploadPreparing:    1,
	models.UploadSigning:      2,
	models.UploadTransmitting: 3,
	models.UploadSucceeded:    4,
}

var stages = []models.UploadStatus{
	models.UploadPreparing,
	models.UploadSigning,
	models.UploadTransmitting,
	models.UploadSucceeded,
}

// advance moves job forward to target, passing through any skipped stage.
// Terminal jobs and backward or repeated moves are ignored.
func (s *uploadService) advance(job *models.UploadJob, target models.UploadStatus, set func(*models.UploadJob)) {
	var snaps []models.UploadJob

	s.mu.Lock()
	if !job.Status.Terminal() {
		for _, st := range stages[stageOrder[job.Status]:] {
			if stageOrder[st] > stageOrder[target] {
				break
			}
			job.Status = st
			if st == target && set != nil {
				set(job)
			}
			snaps = append(snaps, *job)
		}
	}
	s.mu.Unlock()

	for _, snap := range snaps {
		s.emit(snap)
	}
}

func (s *uploadService) succeed(job *models.UploadJob, id string) {
	s.advance(job, models.UploadSucceeded, func(j *models.UploadJob) {
		j.ContentID = id
		j.Locator = fmt.Sprintf("https://%s/%s", s.opts.GatewayHost, id)
	})
}

func (s *uploadService) fail(job *models.UploadJob, e *common.Error) {
	s.mu.Lock()
	if job.Status.Terminal() {
		s.mu.Unlock()
		return
	}
	job.Status = models.UploadFailed
	job.Failure = e
	snap := *job
	s.mu.Unlock()

	s.emit(snap)
}

func (s *uploadService) snapshot(job *models.UploadJob) models.UploadJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *job
}

func (s *uploadService) emit(job models.UploadJob) {
	s.mu.Lock()
	observers := append([]UploadObserver(nil), s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(job)
	}
}

// jobEvents maps client events onto one job.
type jobEvents struct {
	s   *uploadService
	job *models.UploadJob
}

func (e *jobEvents) OnSigningProgress() {
	e.s.advance(e.job, models.UploadSigning, nil)
}

func (e *jobEvents) OnSigningError(err error) {
	e.s.fail(e.job, common.NewError(common.KindSigning, "Failed to sign the upload", err))
}

func (e *jobEvents) OnUploadProgress(sent, total int64) {
	e.s.advance(e.job, models.UploadTransmitting, nil)
}

func (e *jobEvents) OnUploadError(err error) {
	kind, msg := classifyUploadError(err)
	e.s.fail(e.job, common.NewError(kind, msg, err))
}

// classifyUploadError maps an upload-error event by its message.
func classifyUploadError(err error) (common.Kind, string) {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient balance"):
		return common.KindInsufficientBalance, "Insufficient balance to pay for this upload"
	case strings.Contains(msg, "network"):
		return common.KindNetwork, "Network error during upload"
	default:
		return common.KindUpload, "Upload failed"
	}
}

// classifyException maps an error returned by the client that no event
// reported.
func classifyException(err error) (common.Kind, string) {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "network"):
		return common.KindNetwork, "Network error during upload"
	case strings.Contains(msg, "invalid signature"):
		return common.KindSigning, "Failed to sign the upload"
	case strings.Contains(msg, "balance"):
		return common.KindInsufficientBalance, "Insufficient balance to pay for this upload"
	default:
		return common.KindUpload, "Upload failed"
	}
}
