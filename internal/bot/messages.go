package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/listing-generator/internal/listing"
	"github.com/raine/listing-generator/internal/pipeline"
	"github.com/raine/listing-generator/internal/pricing"
	"github.com/raine/listing-generator/internal/storage"
)

const (
	MsgStartPrompt    = "Send a photo of an item to generate a draft listing."
	MsgAnalyzing      = "Analyzing photo..."
	MsgDownloadFailed = "Could not download the photo, please try again."
	MsgGenerateFailed = "Failed to generate listing: %s"
	MsgUnexpectedErr  = "Unexpected error: %s"
	MsgNoListings     = "No listings yet. Send a photo to create one."
)

const (
	maxListedDrafts      = 10
	maxListedComparables = 5
	replyTitleLength     = 60
)

func formatListingReply(res *pipeline.Result) string {
	var sb strings.Builder
	sb.WriteString(formatReplyText(`
		*%s*

		Suggested price: %s
	`, escape(res.Payload.Product.Title), formatSuggestion(res.SuggestedPrice)))

	if res.Estimate.Count > 0 {
		sb.WriteString(fmt.Sprintf("\nRange: %s - %s", listing.FormatPrice(res.Estimate.Min), listing.FormatPrice(res.Estimate.Max)))
	}

	if n := len(res.Comparables); n > 0 {
		sb.WriteString(fmt.Sprintf("\n\nBased on %s:", pluralize("comparable", "comparables", n)))
		for i, c := range res.Comparables {
			if i == maxListedComparables {
				break
			}
			sb.WriteString(fmt.Sprintf("\n%d. %s, %s", i+1, escape(listing.CleanTitle(c.Title, replyTitleLength)), listing.FormatPrice(c.Price)))
		}
	}

	for _, w := range res.Warnings {
		sb.WriteString("\n\n⚠️ " + escape(w))
	}

	sb.WriteString(fmt.Sprintf("\n\nSaved as draft #%d", res.ListingID))
	return sb.String()
}

func formatSuggestion(price float64) string {
	if price == pricing.NoData {
		return "no comparables found"
	}
	return listing.FormatPrice(price)
}

func formatListingsReply(listings []storage.ListingSummary, limit int) string {
	var sb strings.Builder
	sb.WriteString("*Recent listings:*")
	for i, l := range listings {
		if i == limit {
			sb.WriteString(fmt.Sprintf("\n...and %d more", len(listings)-limit))
			break
		}
		sb.WriteString(fmt.Sprintf("\n#%d %s, %s (%s)",
			l.ID,
			escape(listing.CleanTitle(l.Title, replyTitleLength)),
			listing.FormatPrice(l.SuggestedPrice),
			l.Status,
		))
	}
	return sb.String()
}

func formatStatsReply(stats storage.Stats) string {
	return formatReplyText(`
		Listings: %d
		Drafts: %d
		Published: %d
	`, stats.Total, stats.Drafts, stats.Published)
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
