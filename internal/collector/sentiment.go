package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const fearGreedURL = "https://api.alternative.me/fng/"

// SentimentSource reads the crypto Fear & Greed index.
type SentimentSource struct {
	URL    string
	Client *http.Client
}

// NewSentimentSource creates a SentimentSource for the public endpoint.
func NewSentimentSource() *SentimentSource {
	return &SentimentSource{
		URL:    fearGreedURL,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type fearGreedResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
		Timestamp      string `json:"timestamp"`
	} `json:"data"`
}

// FearGreed returns the latest index value as published ("0".."100").
func (s *SentimentSource) FearGreed(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fear greed fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fear greed: status %d", resp.StatusCode)
	}

	var fg fearGreedResponse
	if err := json.NewDecoder(resp.Body).Decode(&fg); err != nil {
		return "", fmt.Errorf("fear greed decode: %w", err)
	}
	if len(fg.Data) == 0 || fg.Data[0].Value == "" {
		return "", fmt.Errorf("fear greed: no data")
	}
	return fg.Data[0].Value, nil
}
