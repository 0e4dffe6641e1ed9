package domain

import "strings"

// Block is the smallest text unit returned by the parsing service.
type Block struct {
	Content string `json:"content"`
}

// Chunk groups blocks in reading order.
type Chunk struct {
	Blocks []Block `json:"blocks"`
}

// ParseResult is the parsing service payload for one document.
type ParseResult struct {
	Chunks []Chunk `json:"chunks"`
}

// Text flattens the result: block contents joined with no separator inside
// each chunk, then chunk texts joined with no separator. Downstream prompts
// and table parsers depend on this exact concatenation.
func (r ParseResult) Text() string {
	var b strings.Builder
	for _, chunk := range r.Chunks {
		for _, block := range chunk.Blocks {
			b.WriteString(block.Content)
		}
	}
	return b.String()
}
