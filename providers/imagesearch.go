package providers

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"climascope.app/config"
)

var fallbackImages = []string{
	"https://images.pexels.com/photos/3008509/pexels-photo-3008509.jpeg?auto=compress&cs=tinysrgb&w=1600",
	"https://images.pexels.com/photos/281260/pexels-photo-281260.jpeg?auto=compress&cs=tinysrgb&w=1600",
	"https://images.pexels.com/photos/158163/clouds-cloudscape-daylight-blue-sky-158163.jpeg?auto=compress&cs=tinysrgb&w=1600",
}

// GoogleImageProvider implements ImageProvider using Google Custom Search
type GoogleImageProvider struct {
	apiKey         string
	searchEngineID string
	baseURL        string
	httpClient     *http.Client
	headClient     *http.Client
}

// NewGoogleImageProvider creates a new Google Custom Search image provider
func NewGoogleImageProvider(config *config.ImageSearchConfig) *GoogleImageProvider {
	return &GoogleImageProvider{
		apiKey:         config.APIKey,
		searchEngineID: config.SearchEngineID,
		baseURL:        config.BaseURL,
		httpClient:     &http.Client{Timeout: 5 * time.Second},
		headClient:     &http.Client{Timeout: 3 * time.Second},
	}
}

type imageSearchResponse struct {
	Items []struct {
		Link string `json:"link"`
	} `json:"items"`
}

// CityImage returns a background image URL for a city. It never fails: when
// the search provider is unconfigured or unreachable, a fallback image is
// chosen deterministically by a hash of the city name.
func (p *GoogleImageProvider) CityImage(city string) string {
	if p.apiKey == "" || p.searchEngineID == "" {
		return FallbackImage(city)
	}

	query := fmt.Sprintf("%s city skyline aerial view", city)
	if img := p.search(query, "&imgType=photo&fileType=jpg"); img != "" {
		return img
	}

	query = fmt.Sprintf("%s cityscape panorama", city)
	if img := p.search(query, ""); img != "" {
		return img
	}

	return FallbackImage(city)
}

func (p *GoogleImageProvider) search(query, extraParams string) string {
	reqURL := fmt.Sprintf("%s?key=%s&cx=%s&q=%s&searchType=image&imgSize=xlarge%s",
		p.baseURL, p.apiKey, p.searchEngineID, url.QueryEscape(query), extraParams)

	resp, err := p.httpClient.Get(reqURL)
	if err != nil {
		slog.Warn("image search request failed", "error", err)
		return ""
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("image search returned non-200", "status", resp.StatusCode)
		return ""
	}

	var result imageSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Warn("decode image search response", "error", err)
		return ""
	}

	// The first result is often a logo or map; probe nearby candidates first.
	for _, i := range []int{1, 2, 0, 3, 4} {
		if i < len(result.Items) {
			if link := result.Items[i].Link; p.verifyImageURL(link) {
				return link
			}
		}
	}

	return ""
}

// verifyImageURL confirms the candidate is a reachable image via a HEAD request
func (p *GoogleImageProvider) verifyImageURL(imageURL string) bool {
	resp, err := p.headClient.Head(imageURL)
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	return resp.StatusCode == http.StatusOK &&
		strings.Contains(resp.Header.Get("Content-Type"), "image")
}

// FallbackImage picks one of the stock images deterministically per city.
func FallbackImage(city string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(city))
	return fallbackImages[h.Sum32()%uint32(len(fallbackImages))]
}
