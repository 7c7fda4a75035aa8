/*
Package storage persists layout records.

Every backend stores exactly one record per user and replaces it on save.
The SQLite and Redis backends keep records as sonic-encoded JSON compressed
with zstd; the remote backend talks JSON to another server's record endpoints.

Backends:
  - memory: process local, used in tests and single-device setups
  - sqlite: local file, WAL journal, one writer
  - redis: shared between servers, publishes change notices
  - remote: GET/PUT /records/:user on another cardspace server
*/
package storage
