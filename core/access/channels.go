package access

import (
	"github.com/artpar/syncgate/core/schema"
	"github.com/artpar/syncgate/domain/document"
)

// AllDocumentChannels returns the channels a document of the given type
// belongs to: the union of every operation's channel list, de-duplicated in
// first-seen order. This is the list published for an accepted write.
func AllDocumentChannels(doc, oldDoc document.Document, docType *schema.DocumentType) []string {
	accessMap := docType.Channels.Get(doc, document.EffectiveOld(oldDoc))

	channels := []string{}
	if accessMap == nil {
		return channels
	}
	channels = appendUnique(channels, accessMap.View)
	channels = appendUnique(channels, accessMap.Write)
	channels = appendUnique(channels, accessMap.Add)
	channels = appendUnique(channels, accessMap.Replace)
	channels = appendUnique(channels, accessMap.Remove)
	return channels
}
