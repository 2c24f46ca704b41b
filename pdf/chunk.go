package pdf

// SplitChunks cuts text into pieces of at most size runes. It never
// splits a multi-byte character.
func SplitChunks(text string, size int) []string {
	if size <= 0 || text == "" {
		return nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
