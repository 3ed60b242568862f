package rag

// Chunk is one fixed-size slice of the source document.
type Chunk struct {
	Index int
	Text  string
}

// SplitText cuts the content into chunks of at most size runes, no overlap.
// The output is a pure function of the input, so chunking the same document
// twice yields identical chunks.
func SplitText(content string, size int) []Chunk {
	if size < 1 {
		size = 1
	}

	runes := []rune(content)
	chunks := make([]Chunk, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  string(runes[start:end]),
		})
	}
	return chunks
}
