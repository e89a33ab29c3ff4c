package llm

import (
	"fmt"
	"net/http"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go/option"

	"agentescape/internal/debug"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderAnthropic = "anthropic"
)

type Options struct {
	Provider   string
	Model      string
	APIKey     string
	Endpoint   string
	APIVersion string
	MaxTokens  int
	// HTTPClient replaces the SDK's default client. Tests use it to serve
	// canned responses.
	HTTPClient *http.Client
}

// New builds the ChatModel for opts.Provider.
func New(opts Options, debug *debug.Logger) (ChatModel, error) {
	switch opts.Provider {
	case ProviderOpenAI, "":
		var extra []option.RequestOption
		if opts.Endpoint != "" {
			extra = append(extra, option.WithBaseURL(opts.Endpoint))
		}
		if opts.HTTPClient != nil {
			extra = append(extra, option.WithHTTPClient(opts.HTTPClient))
		}
		return NewService(opts.APIKey, opts.Model, opts.MaxTokens, debug, extra...), nil
	case ProviderAzure:
		var extra []option.RequestOption
		if opts.HTTPClient != nil {
			extra = append(extra, option.WithHTTPClient(opts.HTTPClient))
		}
		return NewAzureService(opts.Endpoint, opts.APIKey, opts.APIVersion, opts.Model, opts.MaxTokens, debug, extra...), nil
	case ProviderAnthropic:
		var extra []anthropicoption.RequestOption
		if opts.Endpoint != "" {
			extra = append(extra, anthropicoption.WithBaseURL(opts.Endpoint))
		}
		if opts.HTTPClient != nil {
			extra = append(extra, anthropicoption.WithHTTPClient(opts.HTTPClient))
		}
		return NewAnthropicService(opts.APIKey, opts.Model, opts.MaxTokens, debug, extra...), nil
	}
	return nil, fmt.Errorf("unknown model provider %q", opts.Provider)
}
