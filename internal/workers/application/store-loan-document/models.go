// internal/workers/application/store-loan-document/models.go
package storeloandocument

import "io"

// Input is one uploaded file as received from the client. The content is
// stored as-is; nothing about it is validated.
type Input struct {
	OriginalName string
	ContentType  string
	Content      io.Reader
}
