package inference

import (
	"cmp"
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

const (
	GrokBaseURL     = "https://api.x.ai/v1"
	MoonshotBaseURL = "https://api.moonshot.ai/v1"
)

// ChatCompletions implements Provider over any OpenAI-compatible chat completions API.
// Client-side retries are disabled; retrying is left to the caller.
type ChatCompletions struct {
	client *openai.Client
	name   string
	apiKey string
	model  string
}

// NewOpenAI creates a provider for api.openai.com.
func NewOpenAI(apiKey, model string) *ChatCompletions {
	client := openai.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0))
	return &ChatCompletions{
		client: &client,
		name:   "openai",
		apiKey: apiKey,
		model:  cmp.Or(model, "gpt-4o-mini"),
	}
}

// NewAzureOpenAI creates a provider for an Azure OpenAI deployment. The deployment name is used as the model.
func NewAzureOpenAI(endpoint, apiKey, apiVersion, deployment string) *ChatCompletions {
	client := openai.NewClient(
		azure.WithEndpoint(endpoint, cmp.Or(apiVersion, "2024-10-21")),
		azure.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)
	return &ChatCompletions{
		client: &client,
		name:   "azure",
		apiKey: apiKey,
		model:  deployment,
	}
}

// NewCompatible creates a provider for an OpenAI-compatible host such as Grok or Moonshot.
func NewCompatible(name, baseURL, apiKey, model string) *ChatCompletions {
	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)
	return &ChatCompletions{
		client: &client,
		name:   name,
		apiKey: apiKey,
		model:  model,
	}
}

func (o *ChatCompletions) Name() string { return o.name }

func (o *ChatCompletions) ChangeBaseURL(baseURL string) {
	client := openai.NewClient(
		option.WithAPIKey(o.apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	)
	o.client = &client
}

// Generate sends the prompts to the chat completion endpoint and returns the first choice.
func (o *ChatCompletions) Generate(ctx context.Context, req Request) (Response, error) {
	params := openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Role: "system",
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: param.Opt[string]{Value: req.SystemPrompt},
					},
				}},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Role: "user",
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: param.Opt[string]{Value: req.Prompt},
					},
				},
			},
		},
		MaxCompletionTokens: openai.Int(Budget(req)),
		TopP:                openai.Float(1.0),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	switch {
	case req.Schema != nil:
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   cmp.Or(req.SchemaName, "response"),
					Schema: req.Schema,
					Strict: openai.Bool(false),
				},
			},
		}
	case req.JSON:
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Response{}, Wrap(o.name, err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, Wrap(o.name, ErrNoChoices)
	}
	if resp.Choices[0].Message.Content == "" {
		return Response{}, Wrap(o.name, ErrEmptyCompletion)
	}

	return Response{Content: resp.Choices[0].Message.Content, Model: resp.Model}, nil
}
