// Package storage persists chat attachments and hands back the URL stored on
// the message as attachmentUrl.
package storage

import "context"

type Store interface {
	// Save writes the file and returns the URL clients use to fetch it.
	Save(ctx context.Context, filename, contentType string, data []byte) (string, error)
}
