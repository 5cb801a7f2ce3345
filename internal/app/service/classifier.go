package service

import "strings"

// Visit is the outcome of classifying an inbound request for a short code.
type Visit int

const (
	// VisitRedirect sends the client straight to the target and counts the
	// click.
	VisitRedirect Visit = iota
	// VisitPreview serves the rendered metadata page instead; preview
	// visits never touch the click counter.
	VisitPreview
)

// Link-unfurling agents we recognize: search-engine crawlers plus the
// social/chat prefetchers. A fixed list is an auditable policy; it trades
// completeness for predictability and no external calls.
var crawlerTokens = []string{
	"googlebot",
	"bingbot",
	"duckduckbot",
	"baiduspider",
	"yandexbot",
	"facebookexternalhit",
	"facebot",
	"twitterbot",
	"slackbot",
	"linkedinbot",
	"discordbot",
	"whatsapp",
	"pinterest",
}

// ClassifyVisit decides whether a request gets a redirect or a preview.
// The explicit preview override wins; otherwise any known crawler token in
// the agent string forces a preview.
func ClassifyVisit(userAgent, previewParam string) Visit {
	if previewParam == "1" {
		return VisitPreview
	}
	ua := strings.ToLower(userAgent)
	for _, token := range crawlerTokens {
		if strings.Contains(ua, token) {
			return VisitPreview
		}
	}
	return VisitRedirect
}
