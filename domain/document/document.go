// Package document provides the untyped document value types the engine
// interprets. This package has NO dependencies on I/O or external packages.
package document

// Reserved metadata property names. These exist on every revision managed by
// the host platform and are never subject to property validation at the
// document root.
const (
	PropertyID          = "_id"
	PropertyRevision    = "_rev"
	PropertyDeleted     = "_deleted"
	PropertyRevisions   = "_revisions"
	PropertyAttachments = "_attachments"
)

// ReservedProperties lists the metadata properties that are always permitted
// at the root of a document, regardless of its declared validators.
var ReservedProperties = []string{
	PropertyID,
	PropertyRevision,
	PropertyDeleted,
	PropertyRevisions,
	PropertyAttachments,
}

// Document is an untyped tree of scalars, sequences, and string-keyed maps,
// as produced by decoding JSON. A nil Document represents an absent revision.
// The engine never mutates a Document.
type Document map[string]any

// ID returns the document's identity, or the empty string if unset.
func (d Document) ID() string {
	id, _ := d[PropertyID].(string)
	return id
}

// Deleted reports whether this revision is a deletion tombstone.
func (d Document) Deleted() bool {
	deleted, _ := d[PropertyDeleted].(bool)
	return deleted
}

// Attachment describes one entry in a document's attachment map.
type Attachment struct {
	ContentType string
	Length      int64
}

// Attachments returns the document's attachment map keyed by filename.
// Returns an empty map when the document carries no attachments.
func (d Document) Attachments() map[string]Attachment {
	raw, _ := d[PropertyAttachments].(map[string]any)
	attachments := make(map[string]Attachment, len(raw))
	for name, value := range raw {
		meta, _ := value.(map[string]any)
		att := Attachment{}
		if ct, ok := meta["content_type"].(string); ok {
			att.ContentType = ct
		}
		switch length := meta["length"].(type) {
		case float64:
			att.Length = int64(length)
		case int:
			att.Length = int64(length)
		case int64:
			att.Length = length
		}
		attachments[name] = att
	}
	return attachments
}

// HasAttachments reports whether the document carries at least one attachment.
func (d Document) HasAttachments() bool {
	raw, _ := d[PropertyAttachments].(map[string]any)
	return len(raw) > 0
}

// EffectiveOld returns the prior revision that counts as a comparable prior
// state: nil when the stored revision is absent or is itself a deletion
// tombstone.
func EffectiveOld(oldDoc Document) Document {
	if oldDoc == nil || oldDoc.Deleted() {
		return nil
	}
	return oldDoc
}
