package tui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OllamaModel represents a model returned by /api/tags.
type OllamaModel struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type tagsResponse struct {
	Models []OllamaModel `json:"models"`
}

// ListModels queries the Ollama /api/tags endpoint and returns available models.
func ListModels(baseURL string) ([]OllamaModel, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/tags")
	if err != nil {
		return nil, fmt.Errorf("connect to ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama /api/tags returned %d", resp.StatusCode)
	}

	var result tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode tags response: %w", err)
	}
	return result.Models, nil
}

// missingModels returns the wanted names that are not pulled. A bare name
// matches its ":latest" tag.
func missingModels(have []OllamaModel, want []string) []string {
	pulled := make(map[string]bool, len(have))
	for _, m := range have {
		pulled[m.Name] = true
		pulled[strings.TrimSuffix(m.Name, ":latest")] = true
	}
	var missing []string
	for _, w := range want {
		if w == "" || pulled[w] {
			continue
		}
		missing = append(missing, w)
	}
	return missing
}
