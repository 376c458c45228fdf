package models

import (
	"time"

	"github.com/dmitrijs2005/turbouploader/internal/common"
)

// UploadStatus is the stage of an upload job.
type UploadStatus string

const (
	UploadIdle         UploadStatus = "Idle"
	UploadPreparing    UploadStatus = "Preparing"
	UploadSigning      UploadStatus = "Signing"
	UploadTransmitting UploadStatus = "Transmitting"
	UploadSucceeded    UploadStatus = "Succeeded"
	UploadFailed       UploadStatus = "Failed"
)

// Terminal reports whether s is Succeeded or Failed.
func (s UploadStatus) Terminal() bool {
	return s == UploadSucceeded || s == UploadFailed
}

// InFlight reports whether s is one of the working stages.
func (s UploadStatus) InFlight() bool {
	return s == UploadPreparing || s == UploadSigning || s == UploadTransmitting
}

// UploadJob is one upload attempt. It is never persisted.
type UploadJob struct {
	ID        string
	FileName  string
	FileSize  int64
	Payer     string
	Status    UploadStatus
	Locator   string
	ContentID string
	Failure   *common.Error
	CreatedAt time.Time
}

// Tag is a metadata name/value pair attached to an uploaded item.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// UploadRequest is what the pipeline hands to a storage-network client.
// Size is the exact byte length of the stream opened by Open.
type UploadRequest struct {
	Open   func() (ReadSeekCloser, error)
	Size   int64
	Tags   []Tag
	PaidBy string
}

// UploadResult is a client's answer for a completed upload. An empty ID means
// the transport did not report an identifier.
type UploadResult struct {
	ID    string
	Owner string
}
