package autotranslate

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"
)

// TranslationBatch is an ordered mapping from unit identity to the content
// sent for it in one request.
type TranslationBatch struct {
	ids      []string
	contents map[string]string
	chars    int
}

// NewTranslationBatch creates an empty batch.
func NewTranslationBatch() *TranslationBatch {
	return &TranslationBatch{contents: make(map[string]string)}
}

// Add appends an entry. Adding an id twice replaces its content in place.
func (b *TranslationBatch) Add(id, content string) {
	if old, ok := b.contents[id]; ok {
		b.chars -= CharCount(old)
	} else {
		b.ids = append(b.ids, id)
	}
	b.contents[id] = content
	b.chars += CharCount(content)
}

// IDs returns the entry ids in insertion order.
func (b *TranslationBatch) IDs() []string {
	out := make([]string, len(b.ids))
	copy(out, b.ids)
	return out
}

// Content returns the content of one entry.
func (b *TranslationBatch) Content(id string) (string, bool) {
	c, ok := b.contents[id]
	return c, ok
}

// Has reports whether the batch carries id.
func (b *TranslationBatch) Has(id string) bool {
	_, ok := b.contents[id]
	return ok
}

func (b *TranslationBatch) Len() int { return len(b.ids) }

// CharCount returns the summed character count of all entries.
func (b *TranslationBatch) CharCount() int { return b.chars }

// Entries returns a copy of the batch as a plain map.
func (b *TranslationBatch) Entries() map[string]string {
	out := make(map[string]string, len(b.contents))
	for k, v := range b.contents {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the batch as a JSON object with keys in insertion order.
func (b *TranslationBatch) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range b.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(b.contents[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CharCount measures content the way batch limits are expressed: in characters.
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}

// MakeBatches groups units into batches in order. A unit whose content would
// take the page-wide budget below zero stops collection: it and every later
// unit are excluded. Otherwise a unit that would push the current batch over
// perBatchCharLimit closes that batch and starts a new one; a unit larger
// than the limit on its own still gets a batch of its own. Units are never
// split and batches are never empty.
//
// A non-positive perBatchCharLimit means DefaultBatchCharLimit. A
// non-positive totalCharBudget disables the page-wide ceiling.
func MakeBatches(units []Unit, perBatchCharLimit, totalCharBudget int) []*TranslationBatch {
	if perBatchCharLimit <= 0 {
		perBatchCharLimit = DefaultBatchCharLimit
	}
	unlimited := totalCharBudget <= 0

	var batches []*TranslationBatch
	current := NewTranslationBatch()

	for _, u := range units {
		content := u.Content()
		size := CharCount(content)

		if !unlimited {
			totalCharBudget -= size
			if totalCharBudget < 0 {
				break
			}
		}

		if current.Len() > 0 && current.CharCount()+size > perBatchCharLimit {
			batches = append(batches, current)
			current = NewTranslationBatch()
		}
		current.Add(u.ID(), content)
	}

	if current.Len() > 0 {
		batches = append(batches, current)
	}
	return batches
}
