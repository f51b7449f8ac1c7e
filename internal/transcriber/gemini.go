package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/broll-flow/internal/segment"
)

const transcriptPrompt = `Transcribe the speech in this recording.
Return ONLY a JSON array, no prose, no markdown. Each element is one spoken sentence or phrase:
{"start": <seconds as number>, "end": <seconds as number>, "text": "<exact words>"}
Elements must be in chronological order and must not overlap.%s`

// geminiProvider sends the media inline to a multimodal Gemini model and
// asks for a JSON cue list.
type geminiProvider struct {
	model    string
	baseURL  string
	language string
}

func (g *geminiProvider) transcribe(ctx context.Context, m media, apiKey string) ([]segment.Cue, error) {
	data, err := os.ReadFile(m.Path)
	if err != nil {
		return nil, fmt.Errorf("read media: %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: g.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	lang := ""
	if g.language != "" && !strings.EqualFold(g.language, "auto") {
		lang = fmt.Sprintf("\nThe spoken language is %q.", g.language)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, m.MediaType),
			genai.NewPartFromText(fmt.Sprintf(transcriptPrompt, lang)),
		}, genai.RoleUser),
	}

	result, err := client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, errors.New("empty response from Gemini")
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}

	return parseCueJSON(text.String())
}

// parseCueJSON decodes a JSON cue array, tolerating a markdown code fence
func parseCueJSON(raw string) ([]segment.Cue, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	}

	var cues []segment.Cue
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &cues); err != nil {
		return nil, fmt.Errorf("decode cue list: %w", err)
	}
	return cues, nil
}
