package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"StockAssistant/internal/model"
)

// TimestampLayout is the sortable layout of the reply footer.
const TimestampLayout = "2006-01-02 15:04:05"

// NoSymbolReply is sent when no company or ticker could be identified.
const NoSymbolReply = "I couldn't identify a stock ticker in your message. " +
	"Please mention a company name or ticker symbol (e.g., 'AAPL', 'Apple', 'Tesla')."

// ErrorReply is sent when a message could not be handled at all.
const ErrorReply = "Sorry, I encountered an error processing your request. Please try again."

// WelcomeText answers /start.
const WelcomeText = "Welcome to the Stock Market Information Assistant!\n\n" +
	"I can help you get real-time stock market information.\n\n" +
	"Just send me a company name or ticker symbol, and I'll fetch the latest data for you.\n\n" +
	"Examples:\n" +
	"• AAPL\n" +
	"• Tesla\n" +
	"• What's the price of Microsoft?\n" +
	"• How is Amazon doing?\n\n" +
	"Type /help for more information."

// HelpText answers /help. It is Markdown.
const HelpText = "*Help - Stock Market Assistant*\n\n" +
	"Send me any of the following:\n" +
	"• Stock ticker symbol (e.g., AAPL, TSLA, MSFT)\n" +
	"• Company name (e.g., Apple, Tesla, Microsoft)\n" +
	"• Question about a stock (e.g., 'What's the price of Google?')\n\n" +
	"I'll provide you with:\n" +
	"✓ Current price\n" +
	"✓ Price change\n" +
	"✓ Day range\n" +
	"✓ Volume\n" +
	"✓ Market cap\n" +
	"✓ 52-week range\n\n" +
	"Commands:\n" +
	"/start - Start the bot\n" +
	"/help - Show this help message"

var (
	hundred = decimal.NewFromInt(100)
	billion = decimal.NewFromInt(1_000_000_000)
)

// NotFoundReply is sent when the provider has no data for ticker.
func NotFoundReply(ticker string) string {
	return fmt.Sprintf("Sorry, I couldn't find stock information for '%s'. Please check the ticker symbol and try again.", ticker)
}

// FormatSnapshot renders a snapshot as a Markdown chat reply. Sections whose
// fields are absent are left out. The output depends only on snap and now.
func FormatSnapshot(snap *model.Snapshot, now time.Time) string {
	var b strings.Builder
	cur := snap.Currency

	b.WriteString(fmt.Sprintf("*%s* (%s)\n\n", escapeMarkdown(snap.CompanyName), snap.Ticker))

	if snap.CurrentPrice != nil {
		b.WriteString(fmt.Sprintf("Current Price: %s %s\n", cur, money(*snap.CurrentPrice)))
	}

	if change, pct, ok := Change(snap); ok {
		b.WriteString(fmt.Sprintf("Change: %s (%s%%)\n\n", signed(change), signed(pct)))
	} else {
		b.WriteString("\n")
	}

	if snap.Open != nil {
		b.WriteString(fmt.Sprintf("Open: %s %s\n", cur, money(*snap.Open)))
	}
	if snap.DayHigh != nil && snap.DayLow != nil {
		b.WriteString(fmt.Sprintf("Day Range: %s - %s\n", money(*snap.DayLow), money(*snap.DayHigh)))
	}
	if snap.Volume != nil {
		b.WriteString(fmt.Sprintf("Volume: %s\n", humanize.Comma(*snap.Volume)))
	}
	if snap.MarketCap != nil {
		capB := decimal.NewFromFloat(*snap.MarketCap).Div(billion)
		b.WriteString(fmt.Sprintf("Market Cap: %s %sB\n", cur, capB.StringFixed(2)))
	}
	if snap.High52w != nil && snap.Low52w != nil {
		b.WriteString(fmt.Sprintf("\n52-Week Range: %s - %s\n", money(*snap.Low52w), money(*snap.High52w)))
	}

	b.WriteString(fmt.Sprintf("\n_Updated: %s_", now.Format(TimestampLayout)))
	return b.String()
}

// Change returns the absolute and percentage move from the previous close.
// It reports false unless both prices are present and the close is non-zero.
func Change(snap *model.Snapshot) (change, percent decimal.Decimal, ok bool) {
	if snap.CurrentPrice == nil || snap.PreviousClose == nil || *snap.PreviousClose == 0 {
		return decimal.Zero, decimal.Zero, false
	}
	price := decimal.NewFromFloat(*snap.CurrentPrice)
	prev := decimal.NewFromFloat(*snap.PreviousClose)
	change = price.Sub(prev)
	percent = change.Div(prev).Mul(hundred)
	return change, percent, true
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// signed prefixes non-negative values with "+". A negative value that rounds
// to zero keeps its minus sign.
func signed(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.Sign() >= 0 {
		return "+" + s
	}
	if !strings.HasPrefix(s, "-") {
		return "-" + s
	}
	return s
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
