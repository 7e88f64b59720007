package ollama

import (
	"fmt"
	"strings"

	"github.com/insurly/claim-processor/internal/core/domain"
	"github.com/insurly/claim-processor/internal/infrastructure/textwindow"
)

const maxSnippetRunes = 4000

func snippet(text string) string {
	return textwindow.Clip(text, maxSnippetRunes)
}

func buildClassificationPrompt(filename, text string) string {
	types := make([]string, 0, len(domain.KnownDocumentTypes))
	for _, t := range domain.KnownDocumentTypes {
		types = append(types, string(t))
	}

	return fmt.Sprintf(`You classify medical insurance claim documents.
Return a strict JSON object with keys:
document_type (one of: %s, unknown), confidence (number from 0 to 1).
No markdown, no extra keys.

Filename: %s

Document:
%s`, strings.Join(types, ", "), filename, snippet(text))
}

func buildBillPrompt(text string) string {
	return `You extract structured data from medical bills.
Return a strict JSON object with keys:
hospital_name, patient_name, date_of_service, total_amount, insurance_amount, patient_amount, bill_number, doctor_name, department, service_details (array of strings).
Use null for any value not present in the document. Dates as YYYY-MM-DD.
No markdown, no extra keys.

Document:
` + snippet(text)
}

func buildDischargePrompt(text string) string {
	return `You extract structured data from hospital discharge summaries.
Return a strict JSON object with keys:
patient_name, hospital_name, admission_date, discharge_date, primary_diagnosis, secondary_diagnoses (array of strings), procedures_performed (array of strings), doctor_name, discharge_instructions, length_of_stay (number of days).
Use null for any value not present in the document. Dates as YYYY-MM-DD.
No markdown, no extra keys.

Document:
` + snippet(text)
}

func buildAncillaryPrompt(docType domain.DocumentType, text string) string {
	return fmt.Sprintf(`You extract structured data from an insurance %s document.
Return a strict JSON object with keys:
patient_name, policy_number, member_id, insurance_company, coverage_type, reference_number, correspondence_date, prescribing_doctor, medications (array of strings), prescription_date.
Use null for any value not present in the document. Dates as YYYY-MM-DD.
No markdown, no extra keys.

Document:
%s`, string(docType), snippet(text))
}
