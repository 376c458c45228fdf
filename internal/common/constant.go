// Package common contains shared constants, the error taxonomy and small
// helpers used across uploader components.
package common

// AgentSessionHeaderName is the HTTP header carrying the session issued by
// the local signer agent on every call after connect.
const AgentSessionHeaderName = "X-Agent-Session"

// DefaultGatewayHost serves uploaded content at https://{host}/{id}.
const DefaultGatewayHost = "arweave.net"

// DefaultContentType is used for files that declare no media type.
const DefaultContentType = "application/octet-stream"
