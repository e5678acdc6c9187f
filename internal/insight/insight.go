// Package insight produces best-effort natural-language text: product
// descriptions and a business summary of dashboard figures.
//
// Client never returns an error and never touches stored state. Every
// failure turns into a fixed fallback string and a warning in the log.
package insight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// Fallback texts.
const (
	NotConfigured          = "AI API Key not configured."
	DescriptionUnavailable = "Description generation unavailable."
	InsightsUnavailable    = "AI Insights currently unavailable."
	NoDescription          = "No description generated."
	NoInsights             = "No insights available."
)

// ErrNoAPIKey is returned by a Generator that has no credentials.
var ErrNoAPIKey = errors.New("no API key configured")

// Generator completes a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client wraps a Generator with prompts and fallbacks.
type Client struct {
	gen    Generator
	logger *slog.Logger
}

// New creates a client. A nil gen behaves as an unconfigured one.
func New(gen Generator, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{gen: gen, logger: logger}
}

// GenerateDescription asks for a one-sentence product description.
func (c *Client) GenerateDescription(ctx context.Context, name, category string) string {
	return c.complete(ctx, "description", DescriptionPrompt(name, category), NoDescription, DescriptionUnavailable)
}

// SummarizeMetrics asks for a short list of action items.
func (c *Client) SummarizeMetrics(ctx context.Context, revenue decimal.Decimal, lowStockNames []string, txCount int) string {
	return c.complete(ctx, "insights", MetricsPrompt(revenue, lowStockNames, txCount), NoInsights, InsightsUnavailable)
}

func (c *Client) complete(ctx context.Context, kind, prompt, empty, unavailable string) string {
	if c.gen == nil {
		return NotConfigured
	}

	text, err := c.gen.Generate(ctx, prompt)
	if errors.Is(err, ErrNoAPIKey) {
		return NotConfigured
	}
	if err != nil {
		c.logger.Warn("text generation failed", "kind", kind, "error", err)
		return unavailable
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return empty
	}
	return text
}

// DescriptionPrompt builds the product description prompt.
func DescriptionPrompt(name, category string) string {
	return fmt.Sprintf("Write a short, catchy, 1-sentence product description for a university campus store item.\n"+
		"Product Name: %s\n"+
		"Category: %s\n"+
		"Keep it appealing to students.", name, category)
}

// MetricsPrompt builds the business summary prompt.
func MetricsPrompt(revenue decimal.Decimal, lowStockNames []string, txCount int) string {
	low := strings.Join(lowStockNames, ", ")
	if low == "" {
		low = "None"
	}
	return fmt.Sprintf("Analyze this retail data for CampusMart:\n"+
		"- Total Revenue: $%s\n"+
		"- Recent Transaction Count: %d\n"+
		"- Low Stock Items: %s\n"+
		"\n"+
		"Provide a concise (max 3 bullet points) business insight summary focusing on action items for the store manager.",
		revenue.StringFixed(2), txCount, low)
}
