package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title   string
	Heading string
}

type generatedEmailData struct {
	baseEmailData
	DirectorName   string
	BodyParagraphs []string
}

type invoiceEmailData struct {
	baseEmailData
	DirectorName   string
	InvoiceRef     string
	TotalFormatted string
	PaymentURL     string
	HasQRCode      bool
}

type operatorEmailData struct {
	baseEmailData
	BodyParagraphs []string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func paragraphs(body string) []string {
	parts := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func FormatCurrencyUSD(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

func composeGenerated(templateName, directorName, title, body string) (string, error) {
	return renderEmailTemplate(templateName, generatedEmailData{
		baseEmailData:  baseEmailData{Title: title, Heading: title},
		DirectorName:   directorName,
		BodyParagraphs: paragraphs(body),
	})
}

func composeInvoice(directorName, invoiceRef, totalFormatted, paymentURL string, hasQR bool) (string, error) {
	return renderEmailTemplate("invoice.html", invoiceEmailData{
		baseEmailData:  baseEmailData{Title: "Your invoice is ready", Heading: "Your invoice is ready"},
		DirectorName:   directorName,
		InvoiceRef:     invoiceRef,
		TotalFormatted: totalFormatted,
		PaymentURL:     paymentURL,
		HasQRCode:      hasQR,
	})
}

func composeOperator(heading, body string) (string, error) {
	return renderEmailTemplate("operator.html", operatorEmailData{
		baseEmailData:  baseEmailData{Title: heading, Heading: heading},
		BodyParagraphs: paragraphs(body),
	})
}
