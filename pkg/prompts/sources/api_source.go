package sources

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxAPIBody — определение роли не бывает больше.
const maxAPIBody = 1 << 20

// APISource — определения ролей из HTTP сервиса.
//
//	GET {endpoint}/prompts/{id}
//	Authorization: Bearer {token}
//
// Ответ JSON или YAML (по Content-Type); 404 → ErrNotFound.
type APISource struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewAPISource создаёт источник. token опционален.
func NewAPISource(endpoint string, token string) *APISource {
	return &APISource{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SetClient подменяет HTTP клиент.
func (s *APISource) SetClient(client *http.Client) {
	s.client = client
}

// Load запрашивает определение роли.
func (s *APISource) Load(promptID string) (*PromptData, error) {
	if !validID(promptID) {
		return nil, fmt.Errorf("invalid prompt id %q", promptID)
	}
	reqURL := s.endpoint + "/prompts/" + url.PathEscape(promptID)

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	req.Header.Set("Accept", "application/json, application/yaml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prompt API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt API response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("prompt '%s' in API: %w", promptID, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("prompt API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if isYAML(resp.Header.Get("Content-Type")) {
		return parseYAML(body, reqURL)
	}
	var data PromptData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse prompt API response: %w", err)
	}
	return &data, nil
}

func isYAML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasSuffix(mediaType, "yaml")
}
