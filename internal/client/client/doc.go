// Package client contains the client-side infrastructure of the uploader.
//
// # Overview
//
// The package provides:
//  1. The storage-network upload contract (Uploader, UploadEvents) and two
//     implementations: BundlerClient, which posts signed items to an upload
//     service over HTTP, and S3Client, which writes them to an S3-compatible
//     gateway through presigned PUT URLs.
//  2. Item signing shared by both clients: the request is hashed together with
//     the owner, payer and tags, signed with the wallet, and identified by the
//     hash of the signature.
//  3. Local persistence bootstrap (OpenDatabase, RunMigrations, NewRepositories)
//     wiring an SQLite database and applying embedded goose migrations.
//
// # Events
//
// Clients report progress through UploadEvents in a fixed order: signing
// progress, then upload progress (starting at zero bytes), with at most one
// error event. The returned error repeats any reported failure.
package client
