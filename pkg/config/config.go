// Package config reads service settings from the environment.
package config

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"storyroom/pkg/inference"
	"storyroom/pkg/retry"
)

// LocalBaseURL is used when no hosted provider is configured.
const LocalBaseURL = "http://localhost:1234/v1"

type Config struct {
	Port    string
	DataDir string

	OpenAI struct {
		APIKey  string
		Model   string
		BaseURL string
	}
	Azure struct {
		Endpoint   string
		APIKey     string
		Deployment string
		APIVersion string
	}
	Gemini struct {
		APIKey string
		Model  string
	}
	Grok struct {
		APIKey string
		Model  string
	}
	Moonshot struct {
		APIKey string
		Model  string
	}
	ImageModel string

	Retry retry.Policy
}

func Load() (Config, error) {
	var c Config
	c.Port = cmp.Or(os.Getenv("PORT"), "8080")
	c.DataDir = cmp.Or(os.Getenv("DATA_DIR"), "data")

	c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	c.OpenAI.Model = os.Getenv("OPENAI_MODEL")
	c.OpenAI.BaseURL = os.Getenv("OPENAI_BASE_URL")

	c.Azure.Endpoint = os.Getenv("AZURE_OPENAI_ENDPOINT")
	c.Azure.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
	c.Azure.Deployment = os.Getenv("AZURE_OPENAI_DEPLOYMENT")
	c.Azure.APIVersion = os.Getenv("AZURE_OPENAI_API_VERSION")

	c.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	c.Gemini.Model = os.Getenv("GEMINI_MODEL")

	c.Grok.APIKey = os.Getenv("GROK_API_KEY")
	c.Grok.Model = cmp.Or(os.Getenv("GROK_MODEL"), "grok-4-fast-reasoning")

	c.Moonshot.APIKey = os.Getenv("MOONSHOT_API_KEY")
	c.Moonshot.Model = cmp.Or(os.Getenv("MOONSHOT_MODEL"), "kimi-k2-5")

	c.ImageModel = os.Getenv("IMAGE_MODEL")

	delays, err := ParseDelays(os.Getenv("RETRY_DELAYS"))
	if err != nil {
		return c, fmt.Errorf("config: RETRY_DELAYS: %w", err)
	}
	c.Retry.Delays = delays

	if s := os.Getenv("RETRY_ATTEMPTS"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return c, fmt.Errorf("config: RETRY_ATTEMPTS must be a positive integer, got %q", s)
		}
		c.Retry.Attempts = n
	}
	c.Retry = c.Retry.WithDefaults()
	return c, nil
}

// ParseDelays reads a comma separated list of durations such as "1s,2s,4s".
// Bare numbers are taken as seconds. An empty string yields nil.
func ParseDelays(s string) ([]time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []time.Duration
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var d time.Duration
		if n, err := strconv.ParseFloat(part, 64); err == nil {
			d = time.Duration(n * float64(time.Second))
		} else if d, err = time.ParseDuration(part); err != nil {
			return nil, err
		}
		if d < 0 {
			return nil, fmt.Errorf("negative delay %s", d)
		}
		out = append(out, d)
	}
	return out, nil
}

func (c Config) Addr() string { return ":" + c.Port }

func (c Config) FramesDir() string  { return filepath.Join(c.DataDir, "frames") }
func (c Config) ResultsDir() string { return filepath.Join(c.DataDir, "results") }

// Providers builds the configured text providers in fallback order: Azure,
// OpenAI, Gemini, Grok, then Moonshot. With none configured it falls back to a local
// OpenAI-compatible server.
func (c Config) Providers(ctx context.Context) ([]inference.Provider, error) {
	var out []inference.Provider

	if c.Azure.Endpoint != "" && c.Azure.APIKey != "" && c.Azure.Deployment != "" {
		out = append(out, inference.NewAzureOpenAI(c.Azure.Endpoint, c.Azure.APIKey, c.Azure.APIVersion, c.Azure.Deployment))
	}

	if c.OpenAI.APIKey != "" {
		p := inference.NewOpenAI(c.OpenAI.APIKey, c.OpenAI.Model)
		if c.OpenAI.BaseURL != "" {
			p.ChangeBaseURL(c.OpenAI.BaseURL)
		}
		out = append(out, p)
	}

	if c.Gemini.APIKey != "" {
		g, err := inference.NewGemini(ctx, c.Gemini.APIKey, c.Gemini.Model)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}

	if c.Grok.APIKey != "" {
		out = append(out, inference.NewCompatible("grok", inference.GrokBaseURL, c.Grok.APIKey, c.Grok.Model))
	}

	if c.Moonshot.APIKey != "" {
		out = append(out, inference.NewCompatible("moonshot", inference.MoonshotBaseURL, c.Moonshot.APIKey, c.Moonshot.Model))
	}

	if len(out) == 0 {
		log.Warn("no hosted provider configured, using local server", "url", cmp.Or(c.OpenAI.BaseURL, LocalBaseURL))
		out = append(out, inference.NewCompatible("local", cmp.Or(c.OpenAI.BaseURL, LocalBaseURL), "", c.OpenAI.Model))
	}
	return out, nil
}

// Images returns the image generator, or nil when no OpenAI key is set.
func (c Config) Images() inference.ImageGenerator {
	if c.OpenAI.APIKey == "" {
		return nil
	}
	return inference.NewDallE(c.OpenAI.APIKey, c.ImageModel)
}
