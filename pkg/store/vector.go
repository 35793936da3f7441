package store

import (
	"encoding/json"

	"convostore/pkg/models"
)

// VectorSize is the dimensionality of the collection; fixed by the upstream
// deployment and baked into existing collections.
const VectorSize = 1536

// EmbedConversation derives the deterministic placeholder vector stored with
// each point: the canonical JSON of the record's salient fields, byte values
// scaled into [0,1]. No semantic meaning, but stable across writes of the
// same content, which is all the point storage needs.
func EmbedConversation(c models.Conversation) []float32 {
	doc := map[string]interface{}{
		"title":    c.Title,
		"messages": c.Messages,
		"user_id":  c.UserID,
	}
	// Map keys marshal in sorted order, making the encoding canonical.
	b, _ := json.Marshal(doc)
	vec := make([]float32, VectorSize)
	for i := 0; i < len(b) && i < VectorSize; i++ {
		vec[i] = float32(b[i]) / 255.0
	}
	return vec
}
