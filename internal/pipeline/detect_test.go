package pipeline

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectExpenseReport(t *testing.T) {
	cases := []struct {
		name    string
		subject string
		text    string
		files   []string
		want    bool
		reason  string
	}{
		{name: "named report alone", files: []string{"SMITH-JOHN DOE (March 15, 2024).pdf"}, want: true, reason: "report_attachment"},
		{name: "keywords with pdf", subject: "Expense reimbursement", text: "receipts attached", files: []string{"scan.pdf"}, want: true, reason: "rules_positive"},
		{name: "unrelated pdf", subject: "Minutes", files: []string{"minutes.pdf"}, want: false, reason: "rules_negative"},
		{name: "nothing", subject: "Lunch?", want: false, reason: "rules_negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DetectExpenseReport(tc.subject, tc.text, tc.files)
			assert.Equal(t, tc.want, got.IsReport)
			assert.Equal(t, tc.reason, got.Reason)
			assert.LessOrEqual(t, got.Score, 1.0)
		})
	}
}

func rawExpenseEmail(pdfName string, pdf []byte) []byte {
	var b strings.Builder
	b.WriteString("From: Ana Cruz <ana@example.com>\r\n")
	b.WriteString("To: finance@example.com\r\n")
	b.WriteString("Subject: Expense report for March\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/mixed; boundary=\"XYZ\"\r\n\r\n")
	b.WriteString("--XYZ\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString("Please see attached receipts.\r\n")
	b.WriteString("--XYZ\r\n")
	b.WriteString("Content-Type: application/pdf\r\n")
	b.WriteString("Content-Disposition: attachment; filename=\"" + pdfName + "\"\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
	b.WriteString(base64.StdEncoding.EncodeToString(pdf) + "\r\n")
	b.WriteString("--XYZ\r\n")
	b.WriteString("Content-Type: text/csv\r\n")
	b.WriteString("Content-Disposition: attachment; filename=\"notes.csv\"\r\n\r\n")
	b.WriteString("a,b\r\n")
	b.WriteString("--XYZ--\r\n")
	return []byte(b.String())
}

func TestReadExpenseEmail(t *testing.T) {
	raw := rawExpenseEmail("SMITH-JOHN DOE (March 15, 2024).pdf", []byte("%PDF-1.4 fake"))

	email, err := ReadExpenseEmail(raw)
	require.NoError(t, err)
	assert.Equal(t, "Expense report for March", email.Subject)
	assert.Contains(t, email.Text, "attached receipts")
	assert.Equal(t, []string{"SMITH-JOHN DOE (March 15, 2024).pdf", "notes.csv"}, email.AttachmentNames())

	reports := email.ReportAttachments()
	require.Len(t, reports, 1)
	assert.Equal(t, []byte("%PDF-1.4 fake"), reports[0].Content)
	assert.Equal(t, "application/pdf", reports[0].ContentType)
}

func TestHTMLText(t *testing.T) {
	got := htmlText("<html><head><style>p{}</style></head><body><p>Expense</p>\n<p>report  attached</p></body></html>")
	assert.Equal(t, "Expense report attached", got)
}
