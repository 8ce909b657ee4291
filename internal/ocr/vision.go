package ocr

import (
	"context"
	"encoding/base64"
	"net"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkg/errors"

	"github.com/alnah/go-web2md/internal/assets"
)

// VisionName is the registry name of the remote engine.
const VisionName = "vision"

// Remote defaults target Together AI's OpenAI-compatible endpoint.
const (
	DefaultVisionBaseURL = "https://api.together.xyz/v1/"
	DefaultVisionModel   = "meta-llama/Llama-3.2-90B-Vision-Instruct-Turbo"
)

// VisionConfig configures a VisionEngine.
type VisionConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Prompt is the system instruction. Empty uses the embedded OCR prompt.
	Prompt string
	// Options are appended to the client options, mostly for tests.
	Options []option.RequestOption
}

// VisionEngine sends the screenshot to a vision chat model and returns its
// Markdown transcription.
type VisionEngine struct {
	client *openai.Client
	model  openai.ChatModel
	prompt string
}

// NewVisionEngine builds a remote engine. The API key is required.
func NewVisionEngine(cfg VisionConfig) (*VisionEngine, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.Wrap(ErrUnavailable, "vision engine requires an API key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultVisionBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultVisionModel
	}
	if cfg.Prompt == "" {
		p, err := assets.NewEmbeddedLoader().LoadPrompt(assets.DefaultPromptName)
		if err != nil {
			return nil, errors.Wrap(err, "loading OCR prompt")
		}
		cfg.Prompt = p
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		// A failed run is reported, never retried.
		option.WithMaxRetries(0),
	}
	opts = append(opts, cfg.Options...)

	return &VisionEngine{
		client: openai.NewClient(opts...),
		model:  openai.ChatModel(cfg.Model),
		prompt: cfg.Prompt,
	}, nil
}

func (e *VisionEngine) Name() string { return VisionName }

// Recognize submits the image as a base64 data URL alongside the prompt.
func (e *VisionEngine) Recognize(ctx context.Context, in Input) (string, error) {
	if len(in.Image) == 0 {
		return "", errors.Wrap(ErrMalformed, "empty image")
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(in.Image)

	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.F(e.model),
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(e.prompt),
			openai.UserMessageParts(
				openai.TextPart("Transcribe this page."),
				openai.ImagePart(dataURL),
			),
		}),
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", classifyVisionError(ctx, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.Wrap(ErrMalformed, "response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyVisionError maps client failures onto the package sentinels.
// Context errors pass through unchanged so callers can tell cancellation apart.
func classifyVisionError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return errors.Wrapf(ErrUnavailable, "vision API returned %d: %v", apiErr.StatusCode, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return errors.Wrapf(ErrUnavailable, "vision API unreachable: %v", err)
	}
	// Decoding failures and anything else the client cannot interpret.
	return errors.Wrapf(ErrMalformed, "vision API: %v", err)
}
