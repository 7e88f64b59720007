package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/insurly/claim-processor/internal/core/domain"
)

func modelServer(t *testing.T, response string, capture *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if capture != nil {
			*capture = payload
		}
		body, _ := json.Marshal(map[string]string{"response": response})
		_, _ = w.Write(body)
	}))
}

func TestClassifierParsesModelOutput(t *testing.T) {
	var payload map[string]any
	server := modelServer(t, `{"document_type":"bill","confidence":0.92}`, &payload)
	defer server.Close()

	classifier := NewClassifier(New(server.URL, "test-model"))
	docType, confidence, err := classifier.Classify(context.Background(), "hospital_bill.pdf", "Total: 12,500")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if docType != domain.TypeBill || confidence != 0.92 {
		t.Fatalf("Classify() = (%s, %v)", docType, confidence)
	}

	if payload["format"] != "json" {
		t.Fatalf("expected json format request, got %v", payload["format"])
	}
	prompt, _ := payload["prompt"].(string)
	if !strings.Contains(prompt, "hospital_bill.pdf") {
		t.Fatalf("prompt missing filename: %s", prompt)
	}
}

func TestClassifierNormalizesOutOfEnumAnswer(t *testing.T) {
	server := modelServer(t, `{"document_type":"statement","confidence":0.7}`, nil)
	defer server.Close()

	classifier := NewClassifier(New(server.URL, "test-model"))
	docType, confidence, err := classifier.Classify(context.Background(), "doc.pdf", "text")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if docType != domain.TypeUnknown || confidence != 0 {
		t.Fatalf("expected unknown with zero confidence, got (%s, %v)", docType, confidence)
	}
}

func TestClassifierRejectsSchemaViolatingAnswer(t *testing.T) {
	server := modelServer(t, `{"document_type":"bill"}`, nil)
	defer server.Close()

	classifier := NewClassifier(New(server.URL, "test-model"))
	if _, _, err := classifier.Classify(context.Background(), "doc.pdf", "text"); err == nil {
		t.Fatal("expected schema validation error for missing confidence")
	}
}

func TestClassifierStripsProseAroundJSON(t *testing.T) {
	server := modelServer(t, "Here is the result:\n{\"document_type\":\"prescription\",\"confidence\":0.8}\nDone.", nil)
	defer server.Close()

	classifier := NewClassifier(New(server.URL, "test-model"))
	docType, _, err := classifier.Classify(context.Background(), "rx.pdf", "text")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if docType != domain.TypePrescription {
		t.Fatalf("expected prescription, got %s", docType)
	}
}

func TestExtractBillParsesFormattedAmounts(t *testing.T) {
	server := modelServer(t, `{"hospital_name":"ABC Hospital","patient_name":"John Doe","total_amount":"₹12,500/-","insurance_amount":10000,"patient_amount":"Rs 2,500.50","bill_number":null}`, nil)
	defer server.Close()

	extractor := NewFieldExtractor(New(server.URL, "test-model"))
	bill, err := extractor.ExtractBill(context.Background(), domain.ClassifiedDocument{
		Filename: "bill.pdf",
		Type:     domain.TypeBill,
		Pages:    []string{"page"},
	})
	if err != nil {
		t.Fatalf("ExtractBill() error = %v", err)
	}
	if bill.TotalAmount == nil || *bill.TotalAmount != 12500 {
		t.Fatalf("total_amount = %v, want 12500", bill.TotalAmount)
	}
	if bill.InsuranceAmount == nil || *bill.InsuranceAmount != 10000 {
		t.Fatalf("insurance_amount = %v, want 10000", bill.InsuranceAmount)
	}
	if bill.PatientAmount == nil || *bill.PatientAmount != 2500.50 {
		t.Fatalf("patient_amount = %v, want 2500.50", bill.PatientAmount)
	}
	if bill.BillNumber != nil {
		t.Fatalf("absent field must stay nil, got %q", *bill.BillNumber)
	}
	if bill.DateOfService != nil {
		t.Fatalf("missing field must stay nil, got %q", *bill.DateOfService)
	}
}

func TestExtractBillRejectsSchemaViolatingResponse(t *testing.T) {
	server := modelServer(t, `{"hospital_name":["ABC","Hospital"]}`, nil)
	defer server.Close()

	extractor := NewFieldExtractor(New(server.URL, "test-model"))
	_, err := extractor.ExtractBill(context.Background(), domain.ClassifiedDocument{
		Filename: "bill.pdf",
		Type:     domain.TypeBill,
		Pages:    []string{"page"},
	})
	if err == nil {
		t.Fatal("expected schema validation error")
	}
}

func TestExtractDischargeCoercesLengthOfStay(t *testing.T) {
	server := modelServer(t, `{"patient_name":"John Doe","length_of_stay":"6"}`, nil)
	defer server.Close()

	extractor := NewFieldExtractor(New(server.URL, "test-model"))
	discharge, err := extractor.ExtractDischarge(context.Background(), domain.ClassifiedDocument{
		Filename: "discharge.pdf",
		Type:     domain.TypeDischargeSummary,
		Pages:    []string{"page"},
	})
	if err != nil {
		t.Fatalf("ExtractDischarge() error = %v", err)
	}
	if discharge.LengthOfStay == nil || *discharge.LengthOfStay != 6 {
		t.Fatalf("length_of_stay = %v, want 6", discharge.LengthOfStay)
	}
}

func TestGenerateIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	classifier := NewClassifier(New(server.URL, "test-model"))
	_, _, err := classifier.Classify(context.Background(), "doc.pdf", "text")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected HTTPStatusError with 502, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("retryable status must be marked temporary, got %v", err)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  any
		want *float64
	}{
		{"₹12,500/-", floatPtr(12500)},
		{"INR 1,200.75", floatPtr(1200.75)},
		{"$99", floatPtr(99)},
		{float64(350), floatPtr(350)},
		{"not a number", nil},
		{"", nil},
		{nil, nil},
		{true, nil},
	}
	for _, tt := range tests {
		got := parseAmount(tt.raw)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("parseAmount(%v) = %v, want nil", tt.raw, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("parseAmount(%v) = %v, want %v", tt.raw, got, *tt.want)
		}
	}
}

func floatPtr(f float64) *float64 { return &f }
