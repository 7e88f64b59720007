package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/insurly/claim-processor/internal/core/domain"
)

// FieldExtractor produces the per-type structured records. Values that
// cannot be coerced to their declared type are treated as absent, never as
// an extraction failure.
type FieldExtractor struct {
	client *Client
}

func NewFieldExtractor(client *Client) *FieldExtractor {
	return &FieldExtractor{client: client}
}

func (e *FieldExtractor) ExtractBill(ctx context.Context, doc domain.ClassifiedDocument) (*domain.BillData, error) {
	payload, err := e.generate(ctx, "extract_bill", buildBillPrompt(doc.Text()), billSchema)
	if err != nil {
		return nil, err
	}

	var raw struct {
		HospitalName    *string  `json:"hospital_name"`
		PatientName     *string  `json:"patient_name"`
		DateOfService   *string  `json:"date_of_service"`
		TotalAmount     any      `json:"total_amount"`
		InsuranceAmount any      `json:"insurance_amount"`
		PatientAmount   any      `json:"patient_amount"`
		BillNumber      *string  `json:"bill_number"`
		DoctorName      *string  `json:"doctor_name"`
		Department      *string  `json:"department"`
		ServiceDetails  []string `json:"service_details"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("parse bill json: %w", err)
	}

	return &domain.BillData{
		HospitalName:    cleanString(raw.HospitalName),
		PatientName:     cleanString(raw.PatientName),
		DateOfService:   cleanString(raw.DateOfService),
		TotalAmount:     parseAmount(raw.TotalAmount),
		InsuranceAmount: parseAmount(raw.InsuranceAmount),
		PatientAmount:   parseAmount(raw.PatientAmount),
		BillNumber:      cleanString(raw.BillNumber),
		DoctorName:      cleanString(raw.DoctorName),
		Department:      cleanString(raw.Department),
		ServiceDetails:  cleanList(raw.ServiceDetails),
	}, nil
}

func (e *FieldExtractor) ExtractDischarge(ctx context.Context, doc domain.ClassifiedDocument) (*domain.DischargeData, error) {
	payload, err := e.generate(ctx, "extract_discharge", buildDischargePrompt(doc.Text()), dischargeSchema)
	if err != nil {
		return nil, err
	}

	var raw struct {
		PatientName           *string  `json:"patient_name"`
		HospitalName          *string  `json:"hospital_name"`
		AdmissionDate         *string  `json:"admission_date"`
		DischargeDate         *string  `json:"discharge_date"`
		PrimaryDiagnosis      *string  `json:"primary_diagnosis"`
		SecondaryDiagnoses    []string `json:"secondary_diagnoses"`
		ProceduresPerformed   []string `json:"procedures_performed"`
		DoctorName            *string  `json:"doctor_name"`
		DischargeInstructions *string  `json:"discharge_instructions"`
		LengthOfStay          any      `json:"length_of_stay"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("parse discharge json: %w", err)
	}

	return &domain.DischargeData{
		PatientName:           cleanString(raw.PatientName),
		HospitalName:          cleanString(raw.HospitalName),
		AdmissionDate:         cleanString(raw.AdmissionDate),
		DischargeDate:         cleanString(raw.DischargeDate),
		PrimaryDiagnosis:      cleanString(raw.PrimaryDiagnosis),
		SecondaryDiagnoses:    cleanList(raw.SecondaryDiagnoses),
		ProceduresPerformed:   cleanList(raw.ProceduresPerformed),
		DoctorName:            cleanString(raw.DoctorName),
		DischargeInstructions: cleanString(raw.DischargeInstructions),
		LengthOfStay:          parseDays(raw.LengthOfStay),
	}, nil
}

func (e *FieldExtractor) ExtractAncillary(ctx context.Context, doc domain.ClassifiedDocument) (*domain.ClaimAncillaryData, error) {
	payload, err := e.generate(ctx, "extract_ancillary", buildAncillaryPrompt(doc.Type, doc.Text()), ancillarySchema)
	if err != nil {
		return nil, err
	}

	var raw struct {
		PatientName        *string  `json:"patient_name"`
		PolicyNumber       *string  `json:"policy_number"`
		MemberID           *string  `json:"member_id"`
		InsuranceCompany   *string  `json:"insurance_company"`
		CoverageType       *string  `json:"coverage_type"`
		ReferenceNumber    *string  `json:"reference_number"`
		CorrespondenceDate *string  `json:"correspondence_date"`
		PrescribingDoctor  *string  `json:"prescribing_doctor"`
		Medications        []string `json:"medications"`
		PrescriptionDate   *string  `json:"prescription_date"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("parse %s json: %w", doc.Type, err)
	}

	return &domain.ClaimAncillaryData{
		DocumentType:       doc.Type,
		PatientName:        cleanString(raw.PatientName),
		PolicyNumber:       cleanString(raw.PolicyNumber),
		MemberID:           cleanString(raw.MemberID),
		InsuranceCompany:   cleanString(raw.InsuranceCompany),
		CoverageType:       cleanString(raw.CoverageType),
		ReferenceNumber:    cleanString(raw.ReferenceNumber),
		CorrespondenceDate: cleanString(raw.CorrespondenceDate),
		PrescribingDoctor:  cleanString(raw.PrescribingDoctor),
		Medications:        cleanList(raw.Medications),
		PrescriptionDate:   cleanString(raw.PrescriptionDate),
	}, nil
}

func (e *FieldExtractor) generate(ctx context.Context, operation, prompt string, schema map[string]any) ([]byte, error) {
	respText, err := e.client.generateJSON(ctx, operation, prompt)
	if err != nil {
		return nil, err
	}
	payload := []byte(extractJSONObject(respText))
	if err := validateAgainstSchema(schema, payload); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return payload, nil
}

func cleanString(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func cleanList(raw []string) []string {
	out := []string{}
	for _, item := range raw {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseAmount coerces monetary values permissively: plain JSON numbers pass
// through, strings are stripped of currency markers ("₹12,500/-", "Rs 500",
// "$1,200.50") before parsing. Anything else is absent.
func parseAmount(raw any) *float64 {
	switch v := raw.(type) {
	case float64:
		return &v
	case string:
		cleaned := strings.TrimSpace(v)
		for _, marker := range []string{"₹", "$", "€", "INR", "Rs.", "Rs", "/-"} {
			cleaned = strings.ReplaceAll(cleaned, marker, "")
		}
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		cleaned = strings.TrimSpace(cleaned)
		if cleaned == "" {
			return nil
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func parseDays(raw any) *int {
	f := parseAmount(raw)
	if f == nil {
		return nil
	}
	days := int(*f)
	return &days
}
