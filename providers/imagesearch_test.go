package providers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"climascope.app/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCityImage_UnconfiguredUsesFallback(t *testing.T) {
	provider := NewGoogleImageProvider(&config.ImageSearchConfig{})

	url := provider.CityImage("London")
	assert.Contains(t, url, "pexels.com")
}

func TestFallbackImage_DeterministicPerCity(t *testing.T) {
	first := FallbackImage("London")
	assert.Equal(t, first, FallbackImage("London"))
	assert.Contains(t, first, "pexels.com")
}

func TestCityImage_PrefersSecondResult(t *testing.T) {
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
	}))
	defer imageServer.Close()

	searchServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "image", r.URL.Query().Get("searchType"))
		fmt.Fprintf(w, `{"items": [
			{"link": "%s/logo.png"},
			{"link": "%s/skyline.jpg"},
			{"link": "%s/panorama.jpg"}
		]}`, imageServer.URL, imageServer.URL, imageServer.URL)
	}))
	defer searchServer.Close()

	provider := NewGoogleImageProvider(&config.ImageSearchConfig{
		APIKey:         "key",
		SearchEngineID: "cx",
		BaseURL:        searchServer.URL,
	})

	url := provider.CityImage("London")
	assert.True(t, strings.HasSuffix(url, "/skyline.jpg"), "index 1 is probed first, got %s", url)
}

func TestCityImage_SkipsUnverifiableCandidates(t *testing.T) {
	badServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
	}))
	defer badServer.Close()

	goodServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
	}))
	defer goodServer.Close()

	searchServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"items": [
			{"link": "%s/a"},
			{"link": "%s/b"},
			{"link": "%s/c"}
		]}`, badServer.URL, badServer.URL, goodServer.URL)
	}))
	defer searchServer.Close()

	provider := NewGoogleImageProvider(&config.ImageSearchConfig{
		APIKey:         "key",
		SearchEngineID: "cx",
		BaseURL:        searchServer.URL,
	})

	url := provider.CityImage("London")
	require.True(t, strings.HasPrefix(url, goodServer.URL), "got %s", url)
}

func TestCityImage_SearchFailureFallsBack(t *testing.T) {
	searchServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer searchServer.Close()

	provider := NewGoogleImageProvider(&config.ImageSearchConfig{
		APIKey:         "key",
		SearchEngineID: "cx",
		BaseURL:        searchServer.URL,
	})

	url := provider.CityImage("London")
	assert.Contains(t, url, "pexels.com")
}
