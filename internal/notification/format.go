package notification

import (
	"fmt"
	"strings"

	"dex-zone-scanner/internal/strategy"
)

var signalHeadlines = map[strategy.SignalKind]string{
	strategy.SignalResistanceBreakout:    "🚀 Resistance Breakout",
	strategy.SignalSupportBreakdown:      "🔻 Support Breakdown",
	strategy.SignalApproachingSupport:    "📉 Approaching Support",
	strategy.SignalApproachingResistance: "📈 Approaching Resistance",
	strategy.SignalOriginRetest:          "🎯 Origin Zone Retest",
	strategy.SignalGemVolumeSpike:        "💎 Volume Spike",
	strategy.SignalGemConsolidation:      "💎 Consolidation Breakout",
	strategy.SignalGemMomentum:           "💎 Momentum",
	strategy.SignalPullbackRetest:        "✅ Pullback Retest Confirmed",
}

// FormatSignal renders a signal as a Markdown chat message.
func FormatSignal(sig *strategy.Signal) string {
	headline, ok := signalHeadlines[sig.Kind]
	if !ok {
		headline = string(sig.Kind)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s: %s*\n\n", headline, sig.Symbol)
	fmt.Fprintf(&b, "Price: `%s`\n", formatPrice(sig.CurrentPrice))

	if sig.Level != nil {
		label := "Level"
		switch sig.Kind {
		case strategy.SignalResistanceBreakout, strategy.SignalPullbackRetest:
			label = "Level broken"
		case strategy.SignalSupportBreakdown, strategy.SignalApproachingSupport:
			label = "Support"
		case strategy.SignalApproachingResistance:
			label = "Resistance"
		case strategy.SignalOriginRetest:
			label = "Origin level"
		}
		fmt.Fprintf(&b, "%s: `%s`\n", label, formatPrice(*sig.Level))
	}

	if sig.ZoneTier > 0 {
		fmt.Fprintf(&b, "Zone tier: %d", sig.ZoneTier)
		if sig.FinalScore > 0 {
			fmt.Fprintf(&b, " (score %.1f)", sig.FinalScore)
		}
		b.WriteString("\n")
	}

	if sig.Holders != nil && sig.Holders.TotalHolders > 0 {
		fmt.Fprintf(&b, "Holders: %d", sig.Holders.TotalHolders)
		if whales, ok := sig.Holders.Categories["whale"]; ok && whales > 0 {
			fmt.Fprintf(&b, " (🐋 %d)", whales)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nToken: `%s`\n", sig.TokenAddress)
	fmt.Fprintf(&b, "Time: %s", sig.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC"))
	return b.String()
}

// formatPrice picks a precision that keeps micro-cap prices readable.
func formatPrice(price float64) string {
	switch {
	case price >= 1:
		return fmt.Sprintf("%.4f", price)
	case price >= 0.001:
		return fmt.Sprintf("%.6f", price)
	default:
		return fmt.Sprintf("%.10f", price)
	}
}
