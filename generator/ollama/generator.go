package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tenderhq/tender/generator"
)

type ollamaGenerator struct {
	options generator.Options
	client  *http.Client
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (g *ollamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	fullPrompt := prompt
	if len(g.options.PromptPrefix) > 0 {
		fullPrompt = g.options.PromptPrefix + "\n" + prompt
	}

	body, err := json.Marshal(generateRequest{
		Model:  g.options.Model,
		Prompt: fullPrompt,
		Stream: false,
		Options: generateOptions{
			NumPredict:  g.options.MaxTokens,
			Temperature: g.options.Temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.options.BaseUrl+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	rsp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling generation provider: %w", err)
	}
	defer rsp.Body.Close()

	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		return "", fmt.Errorf("generation provider returned status %d", rsp.StatusCode)
	}

	var generateRsp generateResponse
	if err := json.NewDecoder(rsp.Body).Decode(&generateRsp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(generateRsp.Response) == 0 {
		return "", errors.New("no response from generation provider")
	}

	return generateRsp.Response, nil
}

func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)

	g := &ollamaGenerator{
		options: options,
		client: &http.Client{
			Timeout: options.Timeout,
		},
	}

	return g
}
