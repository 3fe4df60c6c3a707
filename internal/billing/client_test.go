package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leadflow_backend/platform/apperr"
)

type staticTokens struct{ token string }

func (s staticTokens) AccessToken(context.Context, string) (string, error) {
	return s.token, nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "realm-1", staticTokens{token: "tok"}), srv
}

func TestCreateCustomer(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/company/realm-1/customer" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth header = %q", got)
		}

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["DisplayName"] != "Westfield High (Dana Reyes)" {
			t.Errorf("display name = %v", body["DisplayName"])
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"Customer": map[string]any{"Id": "42", "DisplayName": body["DisplayName"]},
		})
	})

	customer, err := client.CreateCustomer(context.Background(), "Westfield High (Dana Reyes)", "dana@school.edu", "+15551234567")
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if customer.ID != "42" {
		t.Errorf("customer id = %q, want 42", customer.ID)
	}
}

func TestCreateCustomerDuplicateNameIsConflict(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Fault": map[string]any{
				"Error": []map[string]any{{
					"Message": "Duplicate Name Exists Error",
					"Detail":  "The name supplied already exists",
					"code":    "6240",
				}},
			},
		})
	})

	_, err := client.CreateCustomer(context.Background(), "Westfield High", "", "")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("duplicate name must map to KindConflict, got %v", err)
	}
}

func TestCreateCustomerOtherFaultIsUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Fault": map[string]any{
				"Error": []map[string]any{{"Message": "boom", "code": "500"}},
			},
		})
	})

	_, err := client.CreateCustomer(context.Background(), "X", "", "")
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("non-duplicate fault must map to KindUnavailable, got %v", err)
	}
}

func TestQueryCustomerByName(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		if !strings.Contains(query, "DisplayName = 'Westfield High'") {
			t.Errorf("query = %q", query)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"QueryResponse": map[string]any{
				"Customer": []map[string]any{{"Id": "42", "DisplayName": "Westfield High"}},
			},
		})
	})

	customer, err := client.QueryCustomerByName(context.Background(), "Westfield High")
	if err != nil {
		t.Fatalf("QueryCustomerByName: %v", err)
	}
	if customer.ID != "42" {
		t.Errorf("customer id = %q, want 42", customer.ID)
	}
}

func TestQueryCustomerByNameNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"QueryResponse": map[string]any{}})
	})

	_, err := client.QueryCustomerByName(context.Background(), "Nobody")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("empty result must map to KindNotFound, got %v", err)
	}
}

func TestCreateInvoice(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		lines := body["Line"].([]any)
		line := lines[0].(map[string]any)
		if line["Amount"] != 765.0 {
			t.Errorf("line amount = %v, want 765", line["Amount"])
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"Invoice": map[string]any{"Id": "901", "DocNumber": "INV-901", "TotalAmt": 765.0},
		})
	})

	invoice, err := client.CreateInvoice(context.Background(), InvoiceParams{
		CustomerID:  "42",
		ItemID:      "1",
		TaxCodeID:   "NON",
		Description: "Performance media package",
		AmountCents: 76500,
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if invoice.ID != "901" || invoice.DocNumber != "INV-901" {
		t.Errorf("invoice = %+v", invoice)
	}
	if invoice.TotalCents != 76500 {
		t.Errorf("total = %d, want 76500", invoice.TotalCents)
	}
}

func TestFindItemAndTaxCode(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		switch {
		case strings.Contains(query, "from Item"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"QueryResponse": map[string]any{
					"Item": []map[string]any{{"Id": "7", "Name": "Performance Media Package"}},
				},
			})
		case strings.Contains(query, "from TaxCode"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"QueryResponse": map[string]any{
					"TaxCode": []map[string]any{{"Id": "3", "Name": "NON"}},
				},
			})
		default:
			t.Errorf("unexpected query %q", query)
		}
	})

	item, err := client.FindItemByName(context.Background(), "Performance Media Package")
	if err != nil || item.ID != "7" {
		t.Errorf("FindItemByName = %+v, %v", item, err)
	}
	taxCodeID, err := client.FindTaxCode(context.Background(), "NON")
	if err != nil || taxCodeID != "3" {
		t.Errorf("FindTaxCode = %q, %v", taxCodeID, err)
	}
}
