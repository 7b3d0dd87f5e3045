package embedding

import (
	"hash/fnv"
	"strings"
	"unicode"
)

// Tokenizer produces encoder inputs (input_ids, attention_mask) padded to maxTokens.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask []int64)
}

// XLM-RoBERTa special tokens, as used by multilingual-e5-base.
const (
	bosTokenID     = 0
	padTokenID     = 1
	eosTokenID     = 2
	vocabSize      = 250002
	reservedTokens = 4
)

// HashTokenizer splits lowercased text on whitespace and punctuation and maps each word
// into the vocabulary range by hash. It does not reproduce SentencePiece ids; it keeps the
// ONNX path runnable when no tokenizer model is shipped.
type HashTokenizer struct{}

// Tokenize returns <s> words </s> followed by padding, truncated to maxTokens.
func (t *HashTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask []int64) {
	if maxTokens < 2 {
		maxTokens = 512
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	for i := range inputIDs {
		inputIDs[i] = padTokenID
	}

	inputIDs[0] = bosTokenID
	attentionMask[0] = 1
	pos := 1
	for _, word := range SplitWords(strings.ToLower(text)) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = int64(reservedTokens + HashString(word)%(vocabSize-reservedTokens))
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos] = eosTokenID
	attentionMask[pos] = 1
	return inputIDs, attentionMask
}

// SplitWords splits text on whitespace and punctuation and returns non-empty words.
func SplitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
}

// HashString returns a deterministic non-negative hash of s.
func HashString(s string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32())
}
