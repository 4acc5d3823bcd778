package pipeline

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
)

type EmailAttachment struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExpenseEmail is the part of a mail message the converter cares about.
type ExpenseEmail struct {
	Subject     string
	From        string
	Text        string
	Attachments []EmailAttachment
}

var spaceRun = regexp.MustCompile(`\s+`)

// ReadExpenseEmail parses a raw RFC 5322 message. Inline parts that carry a
// file name are treated as attachments since some clients inline PDFs.
func ReadExpenseEmail(raw []byte) (ExpenseEmail, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return ExpenseEmail{}, err
	}

	out := ExpenseEmail{
		Subject: env.GetHeader("Subject"),
		From:    env.GetHeader("From"),
		Text:    env.Text,
	}
	if strings.TrimSpace(out.Text) == "" && env.HTML != "" {
		out.Text = htmlText(env.HTML)
	}

	parts := append([]*enmime.Part{}, env.Attachments...)
	for _, p := range env.Inlines {
		if strings.TrimSpace(p.FileName) != "" {
			parts = append(parts, p)
		}
	}
	for _, p := range parts {
		name := strings.TrimSpace(p.FileName)
		if name == "" {
			name = "attachment"
		}
		out.Attachments = append(out.Attachments, EmailAttachment{
			FileName:    name,
			ContentType: p.ContentType,
			Content:     p.Content,
		})
	}
	return out, nil
}

func (e ExpenseEmail) AttachmentNames() []string {
	names := make([]string, 0, len(e.Attachments))
	for _, a := range e.Attachments {
		names = append(names, a.FileName)
	}
	return names
}

// ReportAttachments returns the PDF attachments named like exported expense
// reports, in message order.
func (e ExpenseEmail) ReportAttachments() []EmailAttachment {
	var out []EmailAttachment
	for _, a := range e.Attachments {
		if IsSourceFileName(a.FileName) {
			out = append(out, a)
		}
	}
	return out
}

func htmlText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script,style").Remove()
	return strings.TrimSpace(spaceRun.ReplaceAllString(doc.Find("body").Text(), " "))
}
