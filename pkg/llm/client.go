package llm

import (
	"context"
	"fmt"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/replicatedhq/chartsmith-preview/pkg/param"
	"golang.org/x/time/rate"
)

const (
	DefaultModel = "claude-sonnet-4-5"
)

// 5 requests per second with burst of 10
var claudeRateLimiter = rate.NewLimiter(rate.Every(200*time.Millisecond), 10)

func newAnthropicClient(ctx context.Context) (*anthropic.Client, error) {
	if param.Get().AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}
	client := anthropic.NewClient(
		option.WithAPIKey(param.Get().AnthropicAPIKey),
	)

	return client, nil
}
