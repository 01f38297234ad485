package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultModel = "gemini-2.5-flash"

type GeminiService struct {
	ApiKey string
	Model  string
}

// IntentResult is the structured classification Gemini returns for a chat
// message: an action label plus whatever parameters it extracted.
type IntentResult struct {
	Action string            `json:"action"`
	Params map[string]string `json:"params"`
}

func NewGeminiService(apiKey, model string) *GeminiService {
	if model == "" {
		model = defaultModel
	}
	return &GeminiService{ApiKey: apiKey, Model: model}
}

func (g *GeminiService) generate(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = g.Model
	}
	url := "https://generativelanguage.googleapis.com/v1beta/models/" + model + ":generateContent?key=" + g.ApiKey

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API error: %s", string(respBody))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}

	if c, ok := result["candidates"].([]interface{}); ok && len(c) > 0 {
		if cand, ok := c[0].(map[string]interface{}); ok {
			if content, ok := cand["content"].(map[string]interface{}); ok {
				if parts, ok := content["parts"].([]interface{}); ok && len(parts) > 0 {
					if part, ok := parts[0].(map[string]interface{}); ok {
						if text, ok := part["text"].(string); ok {
							return text, nil
						}
					}
				}
			}
		}
	}
	return "", fmt.Errorf("no text returned")
}

// ClassifyIntent asks the model to map a chat message onto one of the
// supported actions and returns the parsed result. The prompt pins the
// output to a strict JSON object so parsing stays deterministic.
func (g *GeminiService) ClassifyIntent(ctx context.Context, model, message string, actions []string) (*IntentResult, error) {
	prompt := fmt.Sprintf(`You are the intent classifier for an inbox assistant.
Classify the user's message into exactly one of these actions:
%s

Extract any parameters the action needs (for example: "to", "subject", "body" for send_email; "summary", "start", "end" for create_event; "query" for searches; "message_id" or "event_id" when the user references a specific item).

Respond with ONLY a JSON object, no markdown, no commentary:
{"action": "<one of the actions>", "params": {"key": "value"}}

If nothing fits, use "general" with empty params.

User message: %s`, strings.Join(actions, ", "), message)

	text, err := g.generate(ctx, model, prompt)
	if err != nil {
		return nil, err
	}

	var intent IntentResult
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &intent); err != nil {
		return nil, fmt.Errorf("unable to parse intent response: %w", err)
	}
	if intent.Params == nil {
		intent.Params = map[string]string{}
	}
	return &intent, nil
}

// GenerateReply produces a conversational answer, optionally grounded in
// mailbox or calendar context assembled by the caller.
func (g *GeminiService) GenerateReply(ctx context.Context, model, message, contextText string) (string, error) {
	prompt := fmt.Sprintf(`You are a helpful inbox and calendar assistant. Answer the user's message concisely.

CONTEXT:
%s

USER MESSAGE:
%s

ANSWER:`, contextText, message)

	return g.generate(ctx, model, prompt)
}

// stripCodeFence removes a surrounding markdown code fence, which Gemini
// sometimes adds despite being told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
