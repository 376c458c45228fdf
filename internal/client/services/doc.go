// Package services holds the uploader's application services: the federated
// identity session, the wallet connection manager and the upload pipeline.
// Each is an interface with an unexported implementation built by its
// constructor; failures surface as *common.Error values.
package services

import "time"

// timeNow is the clock used by the services.
var timeNow = time.Now
