package inference

import (
	"cmp"
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type ImageRequest struct {
	Prompt string
	Size   string
}

// ImageGenerator is a hosted image-generation service. Images are returned as PNG bytes.
type ImageGenerator interface {
	Name() string
	GenerateImage(ctx context.Context, req ImageRequest) ([]byte, error)
}

// DallE implements ImageGenerator with the OpenAI images endpoint.
type DallE struct {
	client *openai.Client
	model  string
}

func NewDallE(apiKey, model string, opts ...option.RequestOption) *DallE {
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &DallE{
		client: &client,
		model:  cmp.Or(model, string(openai.ImageModelDallE3)),
	}
}

func (d *DallE) Name() string { return "dall-e" }

func (d *DallE) GenerateImage(ctx context.Context, req ImageRequest) ([]byte, error) {
	resp, err := d.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         req.Prompt,
		Model:          openai.ImageModel(d.model),
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize(cmp.Or(req.Size, string(openai.ImageGenerateParamsSize1792x1024))),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		return nil, Wrap(d.Name(), err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, Wrap(d.Name(), errors.New("no image data returned"))
	}

	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, Wrap(d.Name(), fmt.Errorf("decode image: %w", err))
	}
	return img, nil
}
