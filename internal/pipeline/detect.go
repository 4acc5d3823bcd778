package pipeline

import "strings"

type DetectResult struct {
	IsReport bool
	Score    float64
	Reason   string
}

var detectKeywords = []string{"expense", "reimburse", "liquidation", "replenishment", "receipt", "petty cash"}

// DetectExpenseReport scores a message on keywords and attachment names.
// A PDF named like an exported report is enough on its own.
func DetectExpenseReport(subject, text string, attachmentNames []string) DetectResult {
	subject = strings.ToLower(subject)
	text = strings.ToLower(text)

	score := 0.0
	for _, kw := range detectKeywords {
		if strings.Contains(subject, kw) {
			score += 0.2
		}
		if strings.Contains(text, kw) {
			score += 0.1
		}
	}

	named, anyPDF := false, false
	for _, name := range attachmentNames {
		if IsSourceFileName(name) {
			named = true
		}
		if strings.HasSuffix(strings.ToLower(name), ".pdf") {
			anyPDF = true
		}
	}
	switch {
	case named:
		score += 0.6
	case anyPDF:
		score += 0.2
	}
	if score > 1 {
		score = 1
	}

	isReport := score >= 0.45
	reason := "rules_negative"
	switch {
	case isReport && named:
		reason = "report_attachment"
	case isReport:
		reason = "rules_positive"
	}

	return DetectResult{IsReport: isReport, Score: score, Reason: reason}
}
