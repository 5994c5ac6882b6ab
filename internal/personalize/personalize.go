// Package personalize generates outreach message text from lead fields.
// Template choice and placeholder substitution only; no network calls.
package personalize

import (
	"strings"

	"github.com/example/prospector/internal/models"
)

const (
	companyTemplate  = "Hi {firstName}, I came across your profile and was impressed by your work at {company}. I'm also in the tech space and would love to connect and share insights."
	industryTemplate = "Hello {firstName}, I see we share similar interests in {industry}. I'm looking to expand my network with like-minded professionals. Would be great to connect!"
	topicTemplate    = "Hi {firstName}, I found your background in {jobTitle} very interesting. I'd love to connect and keep in touch."
)

// ConnectionMessage picks a template based on the lead fields that are
// available (topic > industry > default) and substitutes placeholders,
// falling back to generic filler when a field is empty.
func ConnectionMessage(lead *models.Lead) string {
	tpl := companyTemplate
	if lead.LastPostTopic != "" {
		tpl = topicTemplate
	} else if lead.Industry != "" {
		tpl = industryTemplate
	}
	return substitute(tpl, lead)
}

// FollowUp returns the follow-up message for an accepted connection, or ""
// when the sequence has no further step.
func FollowUp(lead *models.Lead, step int) string {
	if step == 1 {
		return substitute("Hi {firstName}, thanks for connecting! I'm building a tool for {jobTitle}s. Curious if you have 5 mins to chat?", lead)
	}
	return ""
}

func substitute(tpl string, lead *models.Lead) string {
	firstName := lead.FirstName
	if firstName == "" {
		firstName = "there"
	}
	company := lead.Company
	if company == "" {
		company = "your company"
	}
	jobTitle := lead.JobTitle
	if jobTitle == "" {
		jobTitle = "professional"
	}
	r := strings.NewReplacer(
		"{firstName}", firstName,
		"{company}", company,
		"{jobTitle}", jobTitle,
		"{industry}", lead.Industry,
	)
	return r.Replace(tpl)
}
