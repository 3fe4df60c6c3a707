package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadflow_backend/platform/apperr"
)

// duplicateNameCode is the accounting API's error code for "an entity with
// this display name already exists".
const duplicateNameCode = "6240"

type tokenSource interface {
	AccessToken(ctx context.Context, realmID string) (string, error)
}

// Client is a minimal QuickBooks-style accounting API client covering the
// entities the conversion flow touches.
type Client struct {
	baseURL string
	realmID string
	tokens  tokenSource
	http    *http.Client
}

func NewClient(baseURL, realmID string, tokens tokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		realmID: realmID,
		tokens:  tokens,
		http:    &http.Client{Timeout: 20 * time.Second},
	}
}

type Customer struct {
	ID          string
	DisplayName string
	Email       string
}

type Item struct {
	ID   string
	Name string
}

type Invoice struct {
	ID         string
	DocNumber  string
	TotalCents int64
}

type apiFault struct {
	Fault struct {
		Error []struct {
			Message string `json:"Message"`
			Detail  string `json:"Detail"`
			Code    string `json:"code"`
		} `json:"Error"`
	} `json:"Fault"`
}

func (c *Client) CreateCustomer(ctx context.Context, displayName, email, phone string) (Customer, error) {
	payload := map[string]any{"DisplayName": displayName}
	if email != "" {
		payload["PrimaryEmailAddr"] = map[string]string{"Address": email}
	}
	if phone != "" {
		payload["PrimaryPhone"] = map[string]string{"FreeFormNumber": phone}
	}

	var out struct {
		Customer struct {
			ID          string `json:"Id"`
			DisplayName string `json:"DisplayName"`
		} `json:"Customer"`
	}
	if err := c.post(ctx, "/customer", payload, &out); err != nil {
		return Customer{}, err
	}
	return Customer{ID: out.Customer.ID, DisplayName: out.Customer.DisplayName, Email: email}, nil
}

func (c *Client) QueryCustomerByName(ctx context.Context, displayName string) (Customer, error) {
	query := fmt.Sprintf("select Id, DisplayName from Customer where DisplayName = '%s'", escapeQuery(displayName))

	var out struct {
		QueryResponse struct {
			Customer []struct {
				ID          string `json:"Id"`
				DisplayName string `json:"DisplayName"`
			} `json:"Customer"`
		} `json:"QueryResponse"`
	}
	if err := c.get(ctx, "/query?query="+url.QueryEscape(query), &out); err != nil {
		return Customer{}, err
	}
	if len(out.QueryResponse.Customer) == 0 {
		return Customer{}, apperr.NotFound(fmt.Sprintf("no billing customer named %q", displayName))
	}
	found := out.QueryResponse.Customer[0]
	return Customer{ID: found.ID, DisplayName: found.DisplayName}, nil
}

func (c *Client) FindItemByName(ctx context.Context, name string) (Item, error) {
	query := fmt.Sprintf("select Id, Name from Item where Name = '%s'", escapeQuery(name))

	var out struct {
		QueryResponse struct {
			Item []struct {
				ID   string `json:"Id"`
				Name string `json:"Name"`
			} `json:"Item"`
		} `json:"QueryResponse"`
	}
	if err := c.get(ctx, "/query?query="+url.QueryEscape(query), &out); err != nil {
		return Item{}, err
	}
	if len(out.QueryResponse.Item) == 0 {
		return Item{}, apperr.NotFound(fmt.Sprintf("no billing item named %q", name))
	}
	return Item{ID: out.QueryResponse.Item[0].ID, Name: out.QueryResponse.Item[0].Name}, nil
}

func (c *Client) FindTaxCode(ctx context.Context, name string) (string, error) {
	query := fmt.Sprintf("select Id, Name from TaxCode where Name = '%s'", escapeQuery(name))

	var out struct {
		QueryResponse struct {
			TaxCode []struct {
				ID   string `json:"Id"`
				Name string `json:"Name"`
			} `json:"TaxCode"`
		} `json:"QueryResponse"`
	}
	if err := c.get(ctx, "/query?query="+url.QueryEscape(query), &out); err != nil {
		return "", err
	}
	if len(out.QueryResponse.TaxCode) == 0 {
		return "", apperr.NotFound(fmt.Sprintf("no tax code named %q", name))
	}
	return out.QueryResponse.TaxCode[0].ID, nil
}

type InvoiceParams struct {
	CustomerID  string
	ItemID      string
	TaxCodeID   string
	Description string
	AmountCents int64
}

func (c *Client) CreateInvoice(ctx context.Context, params InvoiceParams) (Invoice, error) {
	amount := float64(params.AmountCents) / 100
	line := map[string]any{
		"Amount":      amount,
		"Description": params.Description,
		"DetailType":  "SalesItemLineDetail",
		"SalesItemLineDetail": map[string]any{
			"ItemRef":    map[string]string{"value": params.ItemID},
			"Qty":        1,
			"UnitPrice":  amount,
			"TaxCodeRef": map[string]string{"value": params.TaxCodeID},
		},
	}
	payload := map[string]any{
		"CustomerRef": map[string]string{"value": params.CustomerID},
		"Line":        []any{line},
	}

	var out struct {
		Invoice struct {
			ID        string  `json:"Id"`
			DocNumber string  `json:"DocNumber"`
			TotalAmt  float64 `json:"TotalAmt"`
		} `json:"Invoice"`
	}
	if err := c.post(ctx, "/invoice", payload, &out); err != nil {
		return Invoice{}, err
	}
	return Invoice{
		ID:         out.Invoice.ID,
		DocNumber:  out.Invoice.DocNumber,
		TotalCents: int64(out.Invoice.TotalAmt*100 + 0.5),
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body), out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	accessToken, err := c.tokens.AccessToken(ctx, c.realmID)
	if err != nil {
		return err
	}

	fullURL := fmt.Sprintf("%s/v3/company/%s%s", c.baseURL, c.realmID, path)
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "billing request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode billing response: %w", err)
		}
	}
	return nil
}

func parseAPIError(status int, data []byte) error {
	var fault apiFault
	if err := json.Unmarshal(data, &fault); err == nil && len(fault.Fault.Error) > 0 {
		first := fault.Fault.Error[0]
		if first.Code == duplicateNameCode {
			return apperr.Conflict(first.Message).WithDetails(first.Detail)
		}
		return apperr.New(apperr.KindUnavailable, fmt.Sprintf("billing error %s: %s", first.Code, first.Message))
	}
	return apperr.New(apperr.KindUnavailable, fmt.Sprintf("billing returned status %d: %s", status, strings.TrimSpace(string(data))))
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
