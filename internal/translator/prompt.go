package translator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// promptItem is one element of the bulk request payload
type promptItem struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// buildSystemPrompt builds the conversation context for a translation
// run. It anchors the session on the show metadata so character names
// and tone stay consistent across chunks.
func buildSystemPrompt(media MediaMeta, targetLanguage string) string {
	var prompt strings.Builder

	prompt.WriteString("You are a professional subtitle translation expert specializing in cross-language media localization. Translate subtitles to " + targetLanguage + " with consistent naming and natural phrasing.\n\n")

	prompt.WriteString("=== MEDIA INFORMATION ===\n")
	if media.Title != "" {
		prompt.WriteString(fmt.Sprintf("Show Title: %s\n", media.Title))
	}
	if media.OriginalTitle != "" && media.OriginalTitle != media.Title {
		prompt.WriteString(fmt.Sprintf("Original Title: %s\n", media.OriginalTitle))
	}
	if len(media.Genre) > 0 {
		prompt.WriteString(fmt.Sprintf("Genre: %s\n", strings.Join(media.Genre, ", ")))
	}
	if media.Year > 0 {
		prompt.WriteString(fmt.Sprintf("Year: %d\n", media.Year))
	}
	if media.Studio != "" {
		prompt.WriteString(fmt.Sprintf("Production Studio: %s\n", media.Studio))
	}
	if media.Plot != "" {
		prompt.WriteString(fmt.Sprintf("Plot Summary: %s\n", media.Plot))
	}

	prompt.WriteString("\n=== TRANSLATION GUIDELINES ===\n")
	prompt.WriteString("1. Maintain character voice and relationship dynamics\n")
	prompt.WriteString("2. Ensure " + targetLanguage + " flows naturally while preserving meaning\n")
	prompt.WriteString("3. Keep subtitle length appropriate for screen reading\n")
	prompt.WriteString("4. Preserve line breaks within each subtitle text\n")

	return prompt.String()
}

// buildBulkPrompt builds the user message for one chunk. The endpoint
// is directed to reply with a JSON array of {index, translated}
// objects, indices being 1-based positions within the chunk.
func buildBulkPrompt(texts []string, targetLanguage string) string {
	items := make([]promptItem, len(texts))
	for i, text := range texts {
		items[i] = promptItem{Index: i + 1, Text: text}
	}

	var prompt strings.Builder

	fmt.Fprintf(&prompt, "Translate the following %d subtitle texts to %s.\n\n", len(texts), targetLanguage)

	prompt.WriteString("IMPORTANT INSTRUCTIONS:\n")
	prompt.WriteString("1. Translate ONLY the text content, preserving the meaning in context.\n")
	prompt.WriteString("2. Reply ONLY with a JSON array of objects with 'index' and 'translated' fields.\n")
	prompt.WriteString("3. The 'index' values must match the input indices exactly.\n")
	prompt.WriteString("4. Include every input index exactly once.\n")
	prompt.WriteString("5. Do not add any explanation or markdown formatting.\n\n")

	prompt.WriteString("Input JSON:\n")
	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	prompt.Write(inputJSON)
	prompt.WriteString("\n\nOutput the translated JSON array only:")

	return prompt.String()
}

// buildSinglePrompt builds the user message for a one-off translation
func buildSinglePrompt(text string, targetLanguage string) string {
	var prompt strings.Builder

	fmt.Fprintf(&prompt, "Translate the following subtitle text to %s.\n", targetLanguage)
	prompt.WriteString("Reply ONLY with the translated text, no explanations.\n\n")
	prompt.WriteString(text)

	return prompt.String()
}
