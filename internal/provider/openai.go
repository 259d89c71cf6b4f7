package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Quirkiness levels steer how far a creative prompt may stray from a
// strictly realistic scene.
var quirkInstructions = map[int]string{
	0: "Keep the scene entirely realistic and grounded in the real world.",
	1: "Add a subtle creative twist or unexpectedly charming detail.",
	2: "Introduce a whimsical or imaginative element that still fits the scene.",
	3: "Allow surreal, dreamlike, or delightfully odd elements, while keeping the scene coherent.",
}

// OpenAI implements the generation boundary with the official SDK. One
// client serves three roles: creative prompt writer (chat), image generator
// (gpt-image family), and inspiration describer (vision chat).
type OpenAI struct {
	chatModel   string
	imageModel  string
	visionModel string
	session     *PromptSession
	opts        []option.RequestOption
}

// NewOpenAI builds a client. baseURL is optional and exists for proxies and
// compatible endpoints.
func NewOpenAI(apiKey, baseURL, chatModel, imageModel, visionModel string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("provider: openai api key missing")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{
		chatModel:   chatModel,
		imageModel:  imageModel,
		visionModel: visionModel,
		session:     NewPromptSession(20),
		opts:        opts,
	}, nil
}

// GenerateImage asks the image model for one landscape render of prompt and
// returns the decoded PNG bytes. Decodability of the result is the caller's
// concern (frame.Decode).
func (o *OpenAI) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	client := openai.NewClient(o.opts...)

	// 1536x1024 is the largest landscape size the gpt-image models accept;
	// normalization upscales from there.
	res, err := client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:  prompt,
		Model:   openai.ImageModel(o.imageModel),
		Size:    openai.ImageGenerateParamsSize1536x1024,
		Quality: openai.ImageGenerateParamsQualityHigh,
		N:       openai.Int(1),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if len(res.Data) == 0 || res.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("%w: empty image response", ErrProvider)
	}

	raw, err := base64.StdEncoding.DecodeString(res.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("%w: decode image payload: %v", ErrProvider, err)
	}
	return raw, nil
}

// CreativePrompt produces one varied scene prompt for the theme, avoiding
// recently used prompts and subjects tracked in the session.
func (o *OpenAI) CreativePrompt(ctx context.Context, theme string, quirkiness int) (string, error) {
	client := openai.NewClient(o.opts...)

	meta := buildCreativeMeta(theme, quirkiness, o.session.RecentPrompts(), o.session.RecentSubjects())

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.chatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are an imaginative prompt generator for image creation."),
			openai.UserMessage(meta),
		},
		MaxCompletionTokens: openai.Int(2000),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty chat response", ErrProvider)
	}

	prompt, subjects := splitSubjectsTrailer(resp.Choices[0].Message.Content)
	if prompt == "" {
		return "", fmt.Errorf("%w: blank prompt", ErrProvider)
	}
	o.session.Record(prompt, subjects)
	return prompt, nil
}

// DescribeImage turns an inspiration image (as a data URL) into a rich
// generation prompt using the vision model.
func (o *OpenAI) DescribeImage(ctx context.Context, dataURL string) (string, error) {
	client := openai.NewClient(o.opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.visionModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(
				"You are a prompt writer for an AI image generator. " +
					"Given an image, write a rich, detailed prompt of 3-6 short sentences. " +
					"Describe the main subject, setting, composition, lighting, colors, mood, and overall style. " +
					"Use concrete, visual language and avoid generic words like 'beautiful' or 'nice'. " +
					"Do NOT mention 'photo', 'image', 'picture', or the act of describing. " +
					"Write it exactly as you would feed it to a text-to-image model."),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(
					"Describe this image as a detailed prompt for a text-to-image model. " +
						"Be specific about subject, setting, lighting, colors, mood, and style."),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL,
				}),
			}),
		},
		MaxCompletionTokens: openai.Int(400),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty vision response", ErrProvider)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// buildCreativeMeta renders the instruction block sent to the chat model.
func buildCreativeMeta(theme string, quirkiness int, recentPrompts, recentSubjects []string) string {
	quirk, ok := quirkInstructions[quirkiness]
	if !ok {
		quirk = quirkInstructions[0]
	}

	recent := "(none yet)"
	if len(recentPrompts) > 0 {
		var b strings.Builder
		for _, p := range recentPrompts {
			fmt.Fprintf(&b, "- %s\n", p)
		}
		recent = strings.TrimRight(b.String(), "\n")
	}

	subjects := "(none yet)"
	if len(recentSubjects) > 0 {
		subjects = strings.Join(recentSubjects, ", ")
	}

	return fmt.Sprintf(`You will generate exactly ONE imaginative, varied, photo-realistic scene description based on the following theme:

"%s"

Scene variety instruction:
- %s

Rules:
- Output only ONE prompt. No lists, no numbering.
- Select only ONE or TWO elements from the theme, not all of them.
- Keep it concise: 2-4 sentences max.
- Describe a single coherent visual scene with a clear mood.
- Do NOT repeat any recent prompts shown below.
- Do NOT feature any of these recently used subjects: %s. Pick something DIFFERENT from the theme.
- Do NOT mention these instructions or the theme directly.
- On the LAST line, write "Subjects:" followed by a comma-separated list of the 1-3 main subjects you chose. This line will be stripped and used for tracking.

Recent prompts:
%s`, theme, quirk, subjects, recent)
}
