package notifier

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"MarketBrief/internal/model"
)

// MaxMessageLen is the Telegram limit on message text, in characters.
const MaxMessageLen = 4096

// FormatBatch formats a market batch as a Telegram brief.
func FormatBatch(b *model.BatchResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📊 MarketBrief | %s UTC\n", b.Timestamp.UTC().Format("2006-01-02 15:04")))
	sb.WriteString(fmt.Sprintf("Assets: %d analysed, %d failed\n",
		len(b.IndividualAnalyses)-len(b.FailedAnalyses), len(b.FailedAnalyses)))
	if len(b.FailedAnalyses) > 0 {
		sb.WriteString(fmt.Sprintf("Failed: %s\n", strings.Join(b.FailedAnalyses, ", ")))
	}
	sb.WriteString("\n")

	if b.Status == model.BatchError {
		sb.WriteString(fmt.Sprintf("❌ Market analysis unavailable: %s\n", b.Error))
		return sb.String()
	}
	sb.WriteString(b.MarketAnalysis)
	return sb.String()
}

// FormatAnalysis formats one instrument analysis.
func FormatAnalysis(a *model.Analysis) string {
	if a.Failed() {
		return fmt.Sprintf("❌ %s: %s", a.Symbol, a.Error)
	}
	header := fmt.Sprintf("📈 %s | %s UTC", a.Symbol, a.Timestamp.UTC().Format("2006-01-02 15:04"))
	if a.Cached {
		header += " (cached)"
	}
	return header + "\n\n" + a.Analysis
}

// FormatAssets lists the configured assets by group.
func FormatAssets(assets []model.Asset) string {
	var macro, trade []string
	for _, a := range assets {
		entry := fmt.Sprintf("• %s (%s)", a.Name, a.Ticker)
		if a.Group == model.GroupMacro {
			macro = append(macro, entry)
		} else {
			trade = append(trade, entry)
		}
	}
	var sb strings.Builder
	sb.WriteString("Macro assets:\n")
	sb.WriteString(strings.Join(macro, "\n"))
	sb.WriteString("\n\nTrade assets:\n")
	sb.WriteString(strings.Join(trade, "\n"))
	return sb.String()
}

// Split cuts text into chunks of at most limit characters, preferring line
// breaks as cut points.
func Split(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	var chunks []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
