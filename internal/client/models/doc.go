// Package models defines the client-side data types: the persisted profile,
// the ephemeral upload job and the request/result shapes exchanged with the
// storage-network clients.
package models
