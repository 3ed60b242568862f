// Package sentiment adapts the AWS Comprehend text-analytics service.
package sentiment

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/comprehend/types"
	"github.com/rs/zerolog"
)

// DefaultLanguageHint is passed to sentiment detection when no hint is given.
const DefaultLanguageHint = "en"

// ComprehendAPI is the slice of the Comprehend client this gateway uses.
type ComprehendAPI interface {
	DetectSentiment(ctx context.Context, params *comprehend.DetectSentimentInput, optFns ...func(*comprehend.Options)) (*comprehend.DetectSentimentOutput, error)
	DetectDominantLanguage(ctx context.Context, params *comprehend.DetectDominantLanguageInput, optFns ...func(*comprehend.Options)) (*comprehend.DetectDominantLanguageOutput, error)
}

// Gateway wraps Comprehend. Every call is a fresh provider round-trip; no
// caching or retries happen at this layer.
type Gateway struct {
	client ComprehendAPI
	log    zerolog.Logger
}

// New creates a sentiment gateway over the given Comprehend client.
func New(client ComprehendAPI, log zerolog.Logger) *Gateway {
	return &Gateway{client: client, log: log}
}

// DetectSentiment classifies the text and returns the provider's label
// verbatim (POSITIVE, NEGATIVE, NEUTRAL, MIXED).
func (g *Gateway) DetectSentiment(ctx context.Context, text string) (string, error) {
	out, err := g.client.DetectSentiment(ctx, &comprehend.DetectSentimentInput{
		Text:         aws.String(text),
		LanguageCode: types.LanguageCode(DefaultLanguageHint),
	})
	if err != nil {
		return "", fmt.Errorf("detect sentiment: %w", err)
	}

	g.log.Debug().Str("sentiment", string(out.Sentiment)).Msg("sentiment response")
	return string(out.Sentiment), nil
}

// DetectDominantLanguage returns the code of the highest-confidence language
// candidate. Confidence scores and alternates are not exposed.
func (g *Gateway) DetectDominantLanguage(ctx context.Context, text string) (string, error) {
	out, err := g.client.DetectDominantLanguage(ctx, &comprehend.DetectDominantLanguageInput{
		Text: aws.String(text),
	})
	if err != nil {
		return "", fmt.Errorf("detect dominant language: %w", err)
	}

	if len(out.Languages) == 0 || out.Languages[0].LanguageCode == nil {
		return "", fmt.Errorf("detect dominant language: provider returned no candidates")
	}

	code := aws.ToString(out.Languages[0].LanguageCode)
	g.log.Debug().Str("language", code).Msg("language response")
	return code, nil
}
