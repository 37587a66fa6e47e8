// Package limits centralizes request and upload size ceilings.
// Oversized attachments are rejected before any network or storage
// call is made.
package limits

import "sync"

const (
	// DefaultMaxAttachmentBytes is the standard ceiling for a complaint
	// attachment. Submissions carrying a larger file abort with a
	// validation error and perform zero writes.
	DefaultMaxAttachmentBytes = 1 << 20 // 1 MiB

	// formHeadroomBytes is the allowance for the text fields of a
	// multipart submission on top of the attachment ceiling.
	formHeadroomBytes = 64 << 10

	// MaxJSONBodyBytes bounds plain JSON request bodies.
	MaxJSONBodyBytes = 1 << 20
)

var (
	mu            sync.RWMutex
	maxAttachment int64 = DefaultMaxAttachmentBytes
)

// MaxAttachmentBytes returns the hard ceiling for a complaint
// attachment.
func MaxAttachmentBytes() int64 {
	mu.RLock()
	defer mu.RUnlock()
	return maxAttachment
}

// MaxSubmitFormBytes bounds the whole multipart submission body: the
// attachment ceiling plus headroom for the text fields.
func MaxSubmitFormBytes() int64 {
	return MaxAttachmentBytes() + formHeadroomBytes
}

// SetMaxAttachmentBytes overrides the attachment ceiling. Call during
// startup, before handlers are registered; values <= 0 are ignored.
func SetMaxAttachmentBytes(n int64) {
	if n <= 0 {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	maxAttachment = n
}
