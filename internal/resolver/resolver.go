// Package resolver turns a free-text chat message into a ticker symbol with
// the help of a language model.
package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"StockAssistant/internal/retry"
)

// NoneToken is what the model answers when no company is identifiable.
const NoneToken = "NONE"

// SystemPrompt frames the model's role for every extraction request.
const SystemPrompt = "You are a helpful assistant that extracts stock ticker symbols from user messages."

const promptTemplate = `Extract the stock ticker symbol from the following message.
If the user mentions a company name, provide the corresponding stock ticker.
If no stock or company is mentioned, return "NONE".
Only return the ticker symbol, nothing else.

Message: %s

Examples:
- "What's the price of Apple?" -> AAPL
- "Tell me about Tesla stock" -> TSLA
- "How is Microsoft doing?" -> MSFT
- "GOOGL" -> GOOGL
- "Hello" -> NONE

Ticker:`

var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,9}$`)

// Completion is a single deterministic text-completion request.
type Completion struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int32
}

// Completer is the language-model dependency of the resolver.
type Completer interface {
	Complete(ctx context.Context, req Completion) (string, error)
	Name() string
}

// Resolution is the resolver's outcome: a ticker, or no symbol at all.
type Resolution struct {
	Ticker string
	Found  bool
}

// NoSymbol is the resolution for messages that name no security.
var NoSymbol = Resolution{}

// Resolved wraps a ticker.
func Resolved(ticker string) Resolution {
	return Resolution{Ticker: ticker, Found: true}
}

// Resolver extracts tickers from chat messages.
type Resolver struct {
	completer Completer
	policy    retry.Policy
	logger    *zap.Logger
}

// New creates a Resolver. A nil logger disables logging.
func New(completer Completer, policy retry.Policy, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		completer: completer,
		policy:    policy,
		logger:    logger.With(zap.String("stage", "resolver"), zap.String("llm", completer.Name())),
	}
}

// Resolve asks the model for the ticker named or implied by query.
// It never fails: exhausted retries and malformed answers yield NoSymbol.
func (r *Resolver) Resolve(ctx context.Context, query string) Resolution {
	req := Completion{
		System:      SystemPrompt,
		Prompt:      BuildPrompt(query),
		Temperature: 0,
		MaxTokens:   10,
	}

	text, err := retry.Do(ctx, r.policy, func(ctx context.Context) (string, error) {
		return r.completer.Complete(ctx, req)
	}, func(attempt int, err error) {
		r.logger.Warn("completion failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.policy.Attempts()),
			zap.Error(err))
	})
	if err != nil {
		r.logger.Error("ticker extraction failed", zap.Error(err))
		return NoSymbol
	}

	ticker, ok := Normalize(text)
	if !ok {
		r.logger.Info("no ticker in message", zap.String("completion", text))
		return NoSymbol
	}
	r.logger.Info("extracted ticker symbol", zap.String("ticker", ticker))
	return Resolved(ticker)
}

// BuildPrompt embeds the user message into the extraction instruction.
func BuildPrompt(query string) string {
	return fmt.Sprintf(promptTemplate, query)
}

// Normalize reduces a raw completion to a ticker. It reports false for empty
// text, the NONE sentinel, prose, and anything that does not look like a symbol.
func Normalize(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) != 1 {
		return "", false
	}
	token := strings.ToUpper(fields[0])
	token = strings.Trim(token, "\"'`*$.,;:!?()[]")
	if token == "" || token == NoneToken {
		return "", false
	}
	if !tickerPattern.MatchString(token) {
		return "", false
	}
	return token, true
}
