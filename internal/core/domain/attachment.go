package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Upload policy
const (
	MaxAttachmentsPerItem = 5
	MaxAttachmentSize     = 5_000_000
)

// Upload policy errors
var (
	ErrAttachmentNotFound       = errors.New("attachment not found")
	ErrAttachmentTypeNotAllowed = errors.New("file type not allowed")
	ErrAttachmentTooLarge       = errors.New("file exceeds maximum size")
	ErrAttachmentLimitReached   = errors.New("attachment limit reached")
	ErrCompressionInsufficient  = errors.New("image is still too large after compression")
)

var allowedAttachmentTypes = map[string]string{
	"image/jpeg":         ".jpg",
	"image/png":          ".png",
	"image/gif":          ".gif",
	"image/webp":         ".webp",
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/vnd.ms-excel": ".xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": ".xlsx",
	"text/plain": ".txt",
	"text/csv":   ".csv",
}

// Attachment is a file stored against an item
type Attachment struct {
	ID         uuid.UUID `json:"id"`
	ItemID     uuid.UUID `json:"itemId"`
	FileName   string    `json:"fileName"`
	MimeType   string    `json:"mimeType"`
	SizeBytes  int64     `json:"sizeBytes"`
	StorageKey string    `json:"-"`
	Compressed bool      `json:"compressed"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NormalizeMimeType strips parameters and lower-cases a MIME type
func NormalizeMimeType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// IsAllowedAttachmentType reports whether mimeType is on the allow-list
func IsAllowedAttachmentType(mimeType string) bool {
	_, ok := allowedAttachmentTypes[NormalizeMimeType(mimeType)]
	return ok
}

// IsImageType reports whether mimeType is an image
func IsImageType(mimeType string) bool {
	return strings.HasPrefix(NormalizeMimeType(mimeType), "image/")
}

// AttachmentExtension returns the canonical file extension for an allowed type
func AttachmentExtension(mimeType string) string {
	return allowedAttachmentTypes[NormalizeMimeType(mimeType)]
}

// CheckAttachment applies the upload policy to a single file before any processing.
// Oversized images pass and are expected to be compressed by the caller.
func CheckAttachment(mimeType string, size int64) error {
	if !IsAllowedAttachmentType(mimeType) {
		return fmt.Errorf("%w: %s", ErrAttachmentTypeNotAllowed, mimeType)
	}
	if size > MaxAttachmentSize && !IsImageType(mimeType) {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrAttachmentTooLarge, size, MaxAttachmentSize)
	}
	return nil
}

// CheckAttachmentCount rejects an upload that would push an item over the limit
func CheckAttachmentCount(existing, incoming int) error {
	if existing+incoming > MaxAttachmentsPerItem {
		return fmt.Errorf("%w: item has %d, adding %d (max %d)",
			ErrAttachmentLimitReached, existing, incoming, MaxAttachmentsPerItem)
	}
	return nil
}

// StorageKeyFor builds the object key of an attachment
func StorageKeyFor(itemID, attachmentID uuid.UUID, fileName, mimeType string) string {
	ext := AttachmentExtension(mimeType)
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(fileName))
	}
	return fmt.Sprintf("items/%s/attachments/%s%s", itemID, attachmentID, ext)
}
