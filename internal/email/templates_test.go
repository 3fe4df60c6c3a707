package email

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatCurrencyUSD(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{50000, "$500.00"},
		{76500, "$765.00"},
		{123456, "$1234.56"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FormatCurrencyUSD(tc.cents))
	}
}

func TestParagraphs(t *testing.T) {
	got := paragraphs("First paragraph.\r\n\r\nSecond paragraph.\n\n\n\nThird.")
	require.Equal(t, []string{"First paragraph.", "Second paragraph.", "Third."}, got)
}

func TestComposeGeneratedRendersBody(t *testing.T) {
	html, err := composeGenerated("quote.html", "Sarah", "Your custom quote", "Hi Sarah!\n\nHere is your quote for 75 performers.")
	require.NoError(t, err)
	require.Contains(t, html, "Your custom quote")
	require.Contains(t, html, "Here is your quote for 75 performers.")
	require.Contains(t, html, "Encore Performance Media")
}

func TestComposeInvoiceIncludesPaymentLink(t *testing.T) {
	html, err := composeInvoice("Sarah", "INV-1042", "$765.00", "https://pay.example.com/pay/INV-1042", true)
	require.NoError(t, err)
	require.Contains(t, html, "INV-1042")
	require.Contains(t, html, "$765.00")
	require.Contains(t, html, "https://pay.example.com/pay/INV-1042")
}

func TestComposeInvoiceWithoutPaymentURL(t *testing.T) {
	html, err := composeInvoice("Sarah", "INV-1042", "$765.00", "", false)
	require.NoError(t, err)
	require.Contains(t, html, "INV-1042")
	require.NotContains(t, html, "href=\"\"")
}
