// Package profile wraps the third-party LinkedIn profile analysis
// integration. The upstream actor call is intentionally stubbed: every
// method returns a canned payload and no scraping is performed.
package profile

// Analyzer is the placeholder client for the Apify profile actor.
type Analyzer struct {
	apiToken string
	apiBase  string
}

// NewAnalyzer constructs an Analyzer with the configured API token.
func NewAnalyzer(apiToken string) *Analyzer {
	return &Analyzer{
		apiToken: apiToken,
		apiBase:  "https://api.apify.com/v2",
	}
}

// AnalyzeProfile returns the placeholder analysis for a profile URL.
func (a *Analyzer) AnalyzeProfile(profileURL string) map[string]any {
	return map[string]any{
		"profile_context": "Data fetched from LinkedIn profile",
		"profile_url":     profileURL,
		"status":          "placeholder",
		"note":            "Scraping logic not implemented. Replace with actual Apify actor call.",
		"data": map[string]any{
			"name":       "Profile Name",
			"headline":   "Job Title",
			"about":      "Profile summary",
			"experience": []any{},
			"education":  []any{},
			"skills":     []any{},
		},
	}
}

// ExtractContactInfo returns the placeholder contact extraction result.
func (a *Analyzer) ExtractContactInfo(profileURL string) map[string]any {
	return map[string]any{
		"status":  "placeholder",
		"email":   nil,
		"phone":   nil,
		"message": "Actual data extraction requires Apify implementation",
	}
}

// ProfileInsights returns canned outreach insights.
func (a *Analyzer) ProfileInsights() map[string]any {
	return map[string]any{
		"insights": []string{
			"Profile analysis feature",
			"Outreach recommendations",
			"LinkedIn integration placeholder",
		},
	}
}
