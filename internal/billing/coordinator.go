package billing

import (
	"context"
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"leadflow_backend/internal/email"
	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/service"
	"leadflow_backend/internal/outreach"
	"leadflow_backend/internal/quotes"
	"leadflow_backend/platform/apperr"
	platformevents "leadflow_backend/platform/events"
	"leadflow_backend/platform/logger"
)

// Hardcoded fallbacks when the accounting file lacks our canonical item or
// tax code.
const (
	defaultItemName    = "Performance Media Package"
	defaultTaxCodeName = "NON"
	fallbackItemID     = "1"
	fallbackTaxCodeID  = "NON"
)

type Result struct {
	CustomerID string
	InvoiceID  string
	TotalCents int64
}

type Coordinator struct {
	client         *Client
	repo           *repository.Repository
	machine        *service.StateMachine
	email          email.Sender
	sms            *outreach.SMSClient
	bus            platformevents.Bus
	paymentBaseURL string
	log            *logger.Logger
}

func NewCoordinator(client *Client, repo *repository.Repository, machine *service.StateMachine, emailSender email.Sender, sms *outreach.SMSClient, bus platformevents.Bus, paymentBaseURL string, log *logger.Logger) *Coordinator {
	return &Coordinator{
		client:         client,
		repo:           repo,
		machine:        machine,
		email:          emailSender,
		sms:            sms,
		bus:            bus,
		paymentBaseURL: paymentBaseURL,
		log:            log,
	}
}

// Convert satisfies the orchestrator's converter port.
func (c *Coordinator) Convert(ctx context.Context, lead repository.Lead) error {
	_, err := c.ConvertLead(ctx, lead)
	return err
}

// ConvertLead creates (or adopts) the billing customer, raises the invoice,
// marks the lead invoiced, and notifies the director. Customer linkage is
// idempotent: a second conversion attempt reuses the stored customer id.
func (c *Coordinator) ConvertLead(ctx context.Context, lead repository.Lead) (Result, error) {
	log := c.log.WithLeadID(lead.ID.String())

	customerID, err := c.ensureCustomer(ctx, lead)
	if err != nil {
		return Result{}, err
	}

	itemID := c.resolveItem(ctx)
	taxCodeID := c.resolveTaxCode(ctx)
	amountCents := invoiceAmountCents(lead)

	invoice, err := c.client.CreateInvoice(ctx, InvoiceParams{
		CustomerID:  customerID,
		ItemID:      itemID,
		TaxCodeID:   taxCodeID,
		Description: invoiceDescription(lead),
		AmountCents: amountCents,
	})
	if err != nil {
		return Result{}, err
	}

	invoiceRef := invoice.DocNumber
	if invoiceRef == "" {
		invoiceRef = invoice.ID
	}

	updated, err := c.machine.MarkInvoiceSent(ctx, lead, invoice.ID)
	if err != nil {
		// The invoice exists but the lead record lags; surface the
		// conflict so an operator reconciles rather than double-invoices.
		return Result{}, err
	}

	c.notifyDirector(ctx, updated, invoiceRef, amountCents)

	c.bus.Publish(ctx, events.LeadConverted{
		BaseEvent:        platformevents.NewBaseEvent(),
		LeadID:           updated.ID,
		CustomerID:       customerID,
		InvoiceID:        invoice.ID,
		TotalAmountCents: amountCents,
	})

	log.Info("lead converted", "customerId", customerID, "invoiceId", invoice.ID, "amountCents", amountCents)
	return Result{CustomerID: customerID, InvoiceID: invoice.ID, TotalCents: amountCents}, nil
}

// ensureCustomer returns the billing customer id for the lead, creating one
// on first conversion. A duplicate display name in the accounting file is
// adopted instead of treated as a failure.
func (c *Coordinator) ensureCustomer(ctx context.Context, lead repository.Lead) (string, error) {
	if lead.ExternalCustomerID != nil && *lead.ExternalCustomerID != "" {
		return *lead.ExternalCustomerID, nil
	}

	displayName := customerDisplayName(lead)
	customer, err := c.client.CreateCustomer(ctx, displayName, lead.Email, stringOrEmpty(lead.Phone))
	if apperr.Is(err, apperr.KindConflict) {
		c.log.WithLeadID(lead.ID.String()).Info("billing customer name taken, adopting existing customer", "displayName", displayName)
		customer, err = c.client.QueryCustomerByName(ctx, displayName)
	}
	if err != nil {
		return "", err
	}

	if linkErr := c.repo.SetExternalCustomerID(ctx, lead.ID, customer.ID); linkErr != nil {
		if errors.Is(linkErr, repository.ErrCustomerAlreadyLinked) {
			// A concurrent conversion won the link; use what it stored.
			current, getErr := c.repo.GetByID(ctx, lead.ID)
			if getErr == nil && current.ExternalCustomerID != nil {
				return *current.ExternalCustomerID, nil
			}
		}
		return "", apperr.Wrap(apperr.KindInternal, "failed to link billing customer", linkErr)
	}
	return customer.ID, nil
}

func (c *Coordinator) resolveItem(ctx context.Context) string {
	item, err := c.client.FindItemByName(ctx, defaultItemName)
	if err != nil {
		c.log.Warn("billing item lookup failed, using fallback", "item", defaultItemName, "error", err)
		return fallbackItemID
	}
	return item.ID
}

func (c *Coordinator) resolveTaxCode(ctx context.Context) string {
	taxCodeID, err := c.client.FindTaxCode(ctx, defaultTaxCodeName)
	if err != nil {
		c.log.Warn("tax code lookup failed, using fallback", "taxCode", defaultTaxCodeName, "error", err)
		return fallbackTaxCodeID
	}
	return taxCodeID
}

// notifyDirector sends the invoice email (with a payment-link QR code when
// a payment URL is configured) and an SMS nudge. Notification failures are
// recorded, never fatal: the invoice is already out.
func (c *Coordinator) notifyDirector(ctx context.Context, lead repository.Lead, invoiceRef string, amountCents int64) {
	log := c.log.WithLeadID(lead.ID.String())
	total := email.FormatCurrencyUSD(amountCents)

	paymentURL := ""
	var attachments []email.Attachment
	if c.paymentBaseURL != "" {
		paymentURL = fmt.Sprintf("%s/pay/%s", c.paymentBaseURL, invoiceRef)
		if png, qrErr := qrcode.Encode(paymentURL, qrcode.Medium, 256); qrErr == nil {
			attachments = append(attachments, email.Attachment{
				Content:  png,
				FileName: "payment-qr.png",
				MIMEType: "image/png",
			})
		} else {
			log.Warn("payment QR generation failed", "error", qrErr)
		}
	}

	emailErr := c.email.SendInvoiceEmail(ctx, lead.Email, lead.FirstName, invoiceRef, total, paymentURL, attachments...)
	if emailErr != nil {
		log.Error("invoice email failed", "error", emailErr)
	}
	c.machine.RecordCommunication(ctx, repository.AppendCommunicationParams{
		LeadID:    lead.ID,
		Channel:   outreach.ChannelEmail,
		Direction: "outbound",
		Subject:   &invoiceRef,
		Body:      fmt.Sprintf("Invoice %s for %s", invoiceRef, total),
		Metadata:  sendMetadata(emailErr),
	})

	if lead.Phone != nil && c.sms != nil {
		smsBody := fmt.Sprintf("Hi %s! Your Encore Performance Media invoice %s for %s is ready. Check your email for the payment link.", lead.FirstName, invoiceRef, total)
		_, smsErr := c.sms.SendMessage(ctx, *lead.Phone, smsBody)
		if smsErr != nil {
			log.Error("invoice sms failed", "error", smsErr)
		}
		c.machine.RecordCommunication(ctx, repository.AppendCommunicationParams{
			LeadID:    lead.ID,
			Channel:   outreach.ChannelSMS,
			Direction: "outbound",
			Body:      smsBody,
			Metadata:  sendMetadata(smsErr),
		})
	}
}

func sendMetadata(err error) map[string]any {
	metadata := map[string]any{"success": err == nil}
	if err != nil {
		metadata["error"] = err.Error()
	}
	return metadata
}

// invoiceAmountCents picks the amount the lead was quoted: discounted rate
// first, then standard, then a fresh deterministic price for leads that
// somehow converted without a stored quote.
func invoiceAmountCents(lead repository.Lead) int64 {
	if lead.DiscountRateCents != nil && *lead.DiscountRateCents > 0 {
		return *lead.DiscountRateCents
	}
	if lead.StandardRateCents != nil && *lead.StandardRateCents > 0 {
		return *lead.StandardRateCents
	}
	performers := 0
	if lead.EstimatedPerformers != nil {
		performers = *lead.EstimatedPerformers
	}
	return quotes.Price(performers, lead.EarlyBirdDeadline).FinalAmountCents()
}

func customerDisplayName(lead repository.Lead) string {
	if lead.SchoolName != nil && *lead.SchoolName != "" {
		return fmt.Sprintf("%s (%s)", *lead.SchoolName, lead.FullName())
	}
	return lead.FullName()
}

func invoiceDescription(lead repository.Lead) string {
	desc := "Performance media package"
	if lead.SchoolName != nil && *lead.SchoolName != "" {
		desc += " for " + *lead.SchoolName
	}
	if lead.EstimatedPerformers != nil && *lead.EstimatedPerformers > 0 {
		desc += fmt.Sprintf(" (%d performers)", *lead.EstimatedPerformers)
	}
	return desc
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
