package validation

import (
	"sort"
	"strings"

	"github.com/artpar/syncgate/core/schema"
)

// validateAttachmentPolicy enforces the document-wide attachment rules: the
// allowAttachments flag and, when configured, the type's attachment
// constraints. The reference requirement is deferred until after the
// property walk, which records which attachments were referenced.
func (w *walker) validateAttachmentPolicy(docType *schema.DocumentType) {
	if !w.doc.HasAttachments() {
		return
	}
	if !docType.AllowAttachments {
		w.addError("document type does not support attachments")
		return
	}

	constraints := docType.AttachmentConstraints
	if constraints == nil {
		return
	}

	attachments := w.doc.Attachments()
	names := make([]string, 0, len(attachments))
	for name := range attachments {
		names = append(names, name)
	}
	sort.Strings(names)

	if maximum, ok := constraints.MaximumAttachmentCount.ResolveInt(w.doc, w.oldDoc, nil, nil); ok {
		if len(attachments) > maximum {
			w.addError("documents of this type must not have more than %d attachments", maximum)
		}
	}

	var totalSize int64
	for _, name := range names {
		attachment := attachments[name]
		totalSize += attachment.Length

		if maximum, ok := constraints.MaximumIndividualSize.ResolveInt(w.doc, w.oldDoc, nil, nil); ok {
			if attachment.Length > int64(maximum) {
				w.addError("attachment %q must not be larger than %d bytes", name, maximum)
			}
		}
		if constraints.SupportedExtensions != nil && !hasSupportedExtension(name, constraints.SupportedExtensions) {
			w.addError("attachment %q must have a supported file extension (%s)",
				name, strings.Join(constraints.SupportedExtensions, ","))
		}
		if constraints.SupportedContentTypes != nil && !contains(constraints.SupportedContentTypes, attachment.ContentType) {
			w.addError("attachment %q must have a supported content type (%s)",
				name, strings.Join(constraints.SupportedContentTypes, ","))
		}
	}

	if maximum, ok := constraints.MaximumTotalSize.ResolveInt(w.doc, w.oldDoc, nil, nil); ok {
		if totalSize > int64(maximum) {
			w.addError("documents of this type must not have a combined attachment size greater than %d bytes", maximum)
		}
	}
}

// validateAttachmentReferenceRequirement rejects attachments that no
// attachmentReference property named during the walk.
func (w *walker) validateAttachmentReferenceRequirement(docType *schema.DocumentType) {
	constraints := docType.AttachmentConstraints
	if constraints == nil || !constraints.RequireAttachmentReferences.ResolveBool(w.doc, w.oldDoc, nil, nil) {
		return
	}

	attachments := w.doc.Attachments()
	names := make([]string, 0, len(attachments))
	for name := range attachments {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !w.referenced[name] {
			w.addError("attachment %q must be referenced by an attachment reference property", name)
		}
	}
}

// validateAttachmentReference checks a single attachmentReference item. The
// referenced attachment may legitimately be absent (its upload can be a
// separate operation from the document write); absence is never an error.
func (w *walker) validateAttachmentReference(validator *schema.Validator, stack []schema.ItemEntry) {
	current := stack[len(stack)-1]
	name, ok := current.Value.(string)
	if !ok {
		w.addError("attachment reference %q must be a string", BuildItemPath(stack))
		return
	}

	w.referenced[name] = true

	if validator.SupportedExtensions != nil && !hasSupportedExtension(name, validator.SupportedExtensions) {
		w.addError("attachment reference %q must have a supported file extension (%s)",
			BuildItemPath(stack), strings.Join(validator.SupportedExtensions, ","))
	}

	attachment, present := w.doc.Attachments()[name]
	if !present {
		return
	}

	if validator.SupportedContentTypes != nil && !contains(validator.SupportedContentTypes, attachment.ContentType) {
		w.addError("attachment reference %q must have a supported content type (%s)",
			BuildItemPath(stack), strings.Join(validator.SupportedContentTypes, ","))
	}
	if maximum, ok := validator.MaximumSize.ResolveInt(w.doc, w.oldDoc, current.Value, current.OldValue); ok {
		if attachment.Length > int64(maximum) {
			w.addError("attachment reference %q must not be larger than %d bytes", BuildItemPath(stack), maximum)
		}
	}
}

func hasSupportedExtension(name string, extensions []string) bool {
	lower := strings.ToLower(name)
	for _, extension := range extensions {
		if strings.HasSuffix(lower, "."+strings.ToLower(extension)) {
			return true
		}
	}
	return false
}
