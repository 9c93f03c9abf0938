// Package llm provides sentiment and content classifiers backed by an
// OpenAI-compatible chat completion API.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"golang.org/x/time/rate"

	"github.com/tsawler/reviewrisk"
)

// Config configures the client.
type Config struct {
	APIKey            string
	BaseURL           string // Empty for the public endpoint
	Model             string
	RequestsPerSecond float64
	Burst             int
	RequestTimeout    time.Duration
	Ternary           bool // Allow NEUTRAL answers
}

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gpt-4o-mini"

// ErrEmptyResponse is returned when the API answers without choices.
var ErrEmptyResponse = errors.New("no response from model")

// completeFunc sends one system and user message pair and returns the reply.
type completeFunc func(ctx context.Context, system, user string) (string, error)

// Classifier implements reviewrisk.Classifier and reviewrisk.ContentClassifier.
type Classifier struct {
	complete completeFunc
	limiter  *rate.Limiter
	ternary  bool
}

// New creates a Classifier for the configured model.
func New(cfg Config) (*Classifier, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.RequestTimeout))
	}
	client := openai.NewClient(opts...)

	complete := func(ctx context.Context, system, user string) (string, error) {
		resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: shared.ChatModel(cfg.Model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(system),
				openai.UserMessage(user),
			},
			Temperature: openai.Float(0),
			MaxTokens:   openai.Int(60),
		})
		if err != nil {
			return "", fmt.Errorf("openai request failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyResponse
		}
		return resp.Choices[0].Message.Content, nil
	}

	return newClassifier(complete, cfg), nil
}

func newClassifier(complete completeFunc, cfg Config) *Classifier {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Classifier{
		complete: complete,
		limiter:  rate.NewLimiter(limit, max(cfg.Burst, 1)),
		ternary:  cfg.Ternary,
	}
}

// Classify asks the model for the sentiment of a review.
func (c *Classifier) Classify(ctx context.Context, text string) (reviewrisk.Classification, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return reviewrisk.Classification{}, err
	}

	prompt := binaryPrompt
	if c.ternary {
		prompt = ternaryPrompt
	}
	reply, err := c.complete(ctx, prompt, text)
	if err != nil {
		return reviewrisk.Classification{}, err
	}
	return ParseClassification(reply)
}

// HumanLikelihood asks the model how likely text is a genuine user review.
func (c *Classifier) HumanLikelihood(ctx context.Context, text string) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	reply, err := c.complete(ctx, contentPrompt, text)
	if err != nil {
		return 0, err
	}
	return ParseLikelihood(reply)
}

const (
	binaryPrompt = `You classify the sentiment of customer reviews.
Answer with JSON only: {"label": "POSITIVE" or "NEGATIVE", "confidence": number between 0 and 1}.`

	ternaryPrompt = `You classify the sentiment of customer reviews.
Answer with JSON only: {"label": "POSITIVE", "NEGATIVE" or "NEUTRAL", "confidence": number between 0 and 1}.`

	contentPrompt = `You decide whether a text fragment scraped from a review page is a review written by a person,
as opposed to navigation, boilerplate, markup or code.
Answer with JSON only: {"human_likelihood": number between 0 and 1}.`
)

// ParseClassification decodes a sentiment reply. Code fences and text around
// the JSON object are tolerated.
func ParseClassification(reply string) (reviewrisk.Classification, error) {
	var out struct {
		Label      string   `json:"label"`
		Confidence *float64 `json:"confidence"`
	}
	if err := decodeObject(reply, &out); err != nil {
		return reviewrisk.Classification{}, err
	}

	label := strings.TrimSpace(out.Label)
	if label == "" {
		return reviewrisk.Classification{}, fmt.Errorf("model reply has no label: %q", reply)
	}
	if out.Confidence == nil {
		return reviewrisk.Classification{}, fmt.Errorf("model reply has no confidence: %q", reply)
	}
	if err := checkProbability(*out.Confidence); err != nil {
		return reviewrisk.Classification{}, err
	}
	return reviewrisk.Classification{Label: strings.ToUpper(label), Confidence: *out.Confidence}, nil
}

// ParseLikelihood decodes a human-content reply.
func ParseLikelihood(reply string) (float64, error) {
	var out struct {
		HumanLikelihood *float64 `json:"human_likelihood"`
	}
	if err := decodeObject(reply, &out); err != nil {
		return 0, err
	}
	if out.HumanLikelihood == nil {
		return 0, fmt.Errorf("model reply has no human_likelihood: %q", reply)
	}
	if err := checkProbability(*out.HumanLikelihood); err != nil {
		return 0, err
	}
	return *out.HumanLikelihood, nil
}

func decodeObject(reply string, v any) error {
	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start < 0 || end < start {
		return fmt.Errorf("model reply is not JSON: %q", reply)
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), v); err != nil {
		return fmt.Errorf("failed to parse model reply: %w", err)
	}
	return nil
}

func checkProbability(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: model probability %v outside [0,1]", reviewrisk.ErrInvalidInput, v)
	}
	return nil
}
