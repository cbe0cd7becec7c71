package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"GoldMirror/internal/model"
)

// RESTSource fetches daily bars from a quote REST API.
type RESTSource struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	name string
}

// NewRESTSource creates a source with optional proxy support.
func NewRESTSource(name, baseURL, apiKey, proxyURL string) *RESTSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &RESTSource{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		name: name,
	}
}

func (s *RESTSource) Name() string { return s.name }

// restBar is the expected JSON shape from the API. Volume may be
// absent for benchmark series.
type restBar struct {
	Timestamp int64    `json:"timestamp"`
	Open      float64  `json:"open"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	Close     float64  `json:"close"`
	Volume    *float64 `json:"volume"`
}

func (s *RESTSource) FetchDailyBars(symbol string, months int) ([]model.PriceBar, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?symbol=%s&months=%d",
		s.BaseURL, url.QueryEscape(symbol), months)

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", symbol, ErrDataUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}

	var raw []restBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]model.PriceBar, len(raw))
	for i, rb := range raw {
		bars[i] = model.PriceBar{
			Date:  time.Unix(rb.Timestamp, 0).UTC(),
			Open:  rb.Open,
			High:  rb.High,
			Low:   rb.Low,
			Close: rb.Close,
		}
		if rb.Volume != nil {
			bars[i].Volume = *rb.Volume
			bars[i].HasVolume = true
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}
