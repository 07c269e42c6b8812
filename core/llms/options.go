package llms

import "net/http"

const DefaultTemperature = 0.2

type EngineOptions struct {
	Model       string
	Temperature float64
	BaseURL     string
	APIKey      string
	// MaxRetries is only honoured by backends whose client retries on its own.
	MaxRetries int
	HTTPClient *http.Client
}

type EngineOption func(*EngineOptions)

func WithModel(model string) EngineOption {
	return func(o *EngineOptions) {
		if model != "" {
			o.Model = model
		}
	}
}

func WithTemperature(temperature float64) EngineOption {
	return func(o *EngineOptions) {
		if temperature >= 0 {
			o.Temperature = temperature
		}
	}
}

func WithBaseURL(baseURL string) EngineOption {
	return func(o *EngineOptions) {
		if baseURL != "" {
			o.BaseURL = baseURL
		}
	}
}

func WithAPIKey(apiKey string) EngineOption {
	return func(o *EngineOptions) { o.APIKey = apiKey }
}

func WithMaxRetries(retries int) EngineOption {
	return func(o *EngineOptions) {
		if retries >= 0 {
			o.MaxRetries = retries
		}
	}
}

func WithHTTPClient(client *http.Client) EngineOption {
	return func(o *EngineOptions) { o.HTTPClient = client }
}
