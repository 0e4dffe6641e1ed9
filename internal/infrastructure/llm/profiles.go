package llm

import (
	"fmt"
	"strconv"
	"strings"

	"RfpIntel/internal/domain"
)

// profile is a fixed system instruction plus a user template with a single
// %s for the document text.
type profile struct {
	system      string
	user        string
	temperature float64 // 0 uses the client default
	maxTokens   int
}

func (p profile) userMessage(documentText string) string {
	return fmt.Sprintf(p.user, documentText)
}

const jsonOnlyRules = `
CRITICAL INSTRUCTIONS:
1. Do NOT include any markdown formatting like ` + "```json or ```" + ` around your response
2. Do NOT include any text outside of this JSON structure
3. The response must be a raw JSON object that can be directly parsed
4. Do not add any explanations, notes, or additional text
`

type coverField struct {
	label  string
	prompt string
}

type coverSection struct {
	name   string
	fields []coverField
}

var coverSheetSections = []coverSection{
	{name: "rfpIdentification", fields: []coverField{
		{"RFP issuer & short name", "Identify the full legal name of the issuing organization and create a 2-3 word internal reference name."},
		{"RFP number & title", "Extract the complete RFP number, title, and classification codes from all sections of the document."},
		{"Issuer contact info", "Extract all contact personnel details including names, titles, roles, phone numbers, and email addresses, noting any communication restrictions."},
		{"Website/portal", "Locate all portal URLs, access credentials, and navigation paths required for document access and submission."},
		{"Issuer description", "Summarize the issuing organization's background, mission, and strategic priorities as stated in the RFP."},
	}},
	{name: "timeline", fields: []coverField{
		{"Released", "Find the date RFP was released."},
		{"Began review", "[User will input this information]"},
		{"Pre-proposal conference", "Identify all pre-proposal conference details including date, time, location, registration requirements, and attendance implications."},
		{"Questions due", "Locate the question submission deadline, allowed formats, and any limitations on question quantity or content."},
		{"Addenda issued by", "Please review the addendum at the end of the document and provide a concise summary of each page."},
		{"Submissions due", "Find the submission deadline."},
		{"Next step", "Create a complete submission and procurement timeline from release through award notification, including any post-submission activities."},
		{"Amendments", "List all amendments and changes to the original RFP with their effective dates and content summaries."},
	}},
	{name: "scope", fields: []coverField{
		{"Objectives/goals", "Create a hierarchical list of all stated objectives, goals, and success criteria with page references."},
		{"Minimum/mandatory requirements/qualifications", "Develop a complete compliance matrix of all mandatory requirements with exact RFP language, page references, and requirement type."},
		{"Scope of work", "Generate a work breakdown structure (WBS) of all deliverables with specifications, acceptance criteria, and deadlines."},
		{"Evaluation criteria", "Extract the complete evaluation methodology including criteria, sub-criteria, weights, scoring formulas, and minimum thresholds."},
		{"Contract term", "Identify the base contract term, all option periods, extension conditions, and total potential contract duration."},
		{"Pricing", "Determine the required pricing structure including units, volumes, periods, allowable adjustments, and prohibited costs."},
		{"Budget", "Extract any stated or implied budget information, historical spending data, or 'not to exceed' language."},
		{"Insurance", "Compile all insurance requirements including coverage types, amounts, deductible limits, provider qualifications, and proof timing."},
		{"Bonds", "List all bond requirements."},
	}},
	{name: "submission", fields: []coverField{
		{"Submission instructions", "Document all submission instructions including method, format, quantity, packaging, delivery address, and deadline specifics."},
		{"Proposal format/headings", "Create an exact document outline matching all required sections, subsections, and content elements in the specified order."},
		{"Length/formatting restrictions", "Extract all formatting requirements including page limits by section, margins, fonts, spacing, header/footer specifications, and numbering conventions."},
		{"Confidentiality", "Compile all confidentiality provisions, proprietary information protection procedures, and public disclosure requirements."},
		{"Required forms, attachments", "Create an inventory of all required forms and attachments with their purposes, completion instructions, and signature/notarization requirements."},
	}},
	{name: "otherConsiderations", fields: []coverField{
		{"Set asides & mandates", "Does this RFP include any required set-asides or mandated allocations for particular business categories?"},
		{"Geographic preferences", "Does this RFP include any geographic preferences?"},
		{"Incumbent information", "Is there an incumbent vendor currently performing these services?"},
	}},
}

const coverSheetGuidelines = `
Guidelines:
- If a field is not present, return an empty string for that field.
- Do not include any commentary or explanation, only the JSON object.
- Dates should be in YYYY-MM-DD format.
- Use semicolons (;) to separate multiple items within a field.
- Include page references in parentheses at the end of content, if available.
- ALWAYS use explicit labels for ALL information in the format "Label: Value".
- CRITICAL: For ANY field that contains multiple pieces of information, use explicit labels for EACH piece.
  Example: Instead of "City of Savannah; Savannah RFP", use "Organization: City of Savannah; Short name: Savannah RFP"
- For detailed lists of requirements or criteria, always include an explicit label for each item.
  Example: "Requirement 1: Heavy focus on social media; Requirement 2: Utilize carousel ads"
- For numbered items like evaluation criteria, include the points as part of the label.
  Example: "Qualifications (35 points): Description of what's required; Technical (20 points): Description"
- For contact information, use detailed labels (e.g., "Organization: XYZ Corp; Email: contact@xyz.com; Phone: 555-123-4567").
- Maintain proper JSON structure and formatting.
`

func coverSheetSystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a specialized RFP Parser Assistant. Analyze the provided RFP document and extract the following fields, grouped by section. ")
	b.WriteString("For each field, follow the specific extraction instruction. Return a valid JSON object with the following structure ")
	b.WriteString("(use the field names exactly as shown, including spaces and punctuation):\n\n")

	b.WriteString("{\n")
	for i, section := range coverSheetSections {
		fmt.Fprintf(&b, "  %s: {\n", quote(section.name))
		for j, field := range section.fields {
			sep := ","
			if j == len(section.fields)-1 {
				sep = ""
			}
			fmt.Fprintf(&b, "    %s: \"\"%s\n", quote(field.label), sep)
		}
		sep := ","
		if i == len(coverSheetSections)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "  }%s\n", sep)
	}
	b.WriteString("}\n\nExtraction Instructions:\n")

	for _, section := range coverSheetSections {
		fmt.Fprintf(&b, "\nSection: %s\n", section.name)
		for _, field := range section.fields {
			fmt.Fprintf(&b, "- %s: %s\n", quote(field.label), field.prompt)
		}
	}
	b.WriteString(coverSheetGuidelines)
	b.WriteString(jsonOnlyRules)
	return b.String()
}

func quote(s string) string {
	return strconv.Quote(s)
}

const summarySystemPrompt = `You are an expert at summarizing documents. Your task is to create a concise, informative summary of the provided document and extract a due date if it is provided.

IMPORTANT: You must respond with a valid JSON object in the following format:
{
  "summary": "Your summary text here (20-30 words)",
  "dueDate": "Extracted due date or empty string if none found"
}
` + jsonOnlyRules

const complianceSystemPrompt = `You are an expert in analyzing and shredding RFP (Request for Proposal) documents. Your task is to extract all key details and format them into a structured compliance matrix, as an RFP writer would do manually. Please return all responses as valid HTML. Do not use Markdown backticks.

Guidelines:
- The provided document is unstructured text from a PDF.
- Identify and extract all relevant sections and present them clearly.
- Extract explicit and implicit compliance requirements.
- Organize the information under the correct headings and subheadings.

Sections:
1. RFP IDENTIFICATION: identifier, classification codes (NAICS, PSC), issuing organization, contact personnel.
2. TIMELINE: key events with dates, addenda and amendments.
3. COMPLIANCE MATRIX (main table) with these columns:

| Requirement ID | Requirement Description | Requirement Type | Evaluation Criteria | Compliance Level | Proof Required | Page Ref | Notes |
|---|---|---|---|---|---|---|---|
| REQ-001 | Vendor must provide cybersecurity certification (e.g., SOC 2). | Mandatory | Security Compliance | Meets / Partially Meets / Does Not Meet | SOC 2 Certification | Page 12 | Vendor must submit a valid certificate. |
| REQ-002 | Proposal must not exceed 50 pages. | Mandatory | Formatting Compliance | Meets / Partially Meets / Does Not Meet | Document Review | Page 20 | Font must be Arial 11pt. |

4. CONTRACT TERMS & PRICING: duration, pricing structure, budget.
5. SUBMISSION REQUIREMENTS: method, required documents.
6. GO/NO-GO ASSESSMENT: risks, gaps, compliance issues.
7. CLARIFICATION NEEDS: unclear or contradictory requirements.

Do not include explanations, only return the extracted compliance matrix.`

const feasibilitySystemPrompt = `You are a proposal manager assessing whether a vendor can meet each requirement of an RFP.
List every requirement found in the document and assess it.

IMPORTANT: You must respond with a JSON array where each element has exactly these fields:
[
  {
    "req_no": "Sequential requirement number",
    "section": "RFP section or heading the requirement comes from",
    "requirement": "The requirement in the RFP's own words",
    "feasible": "Yes, No or Uncertain",
    "reason": "One sentence explaining the assessment",
    "citations": "Page or section references"
  }
]

Do NOT wrap the array in markdown code fences. Do NOT include any text outside the array.`

const questionSystemPrompt = "You are a helpful assistant that answers questions about PDF documents accurately and concisely. " +
	"Please return all responses as valid HTML. Do not use Markdown backticks."

var profiles = map[domain.Profile]profile{
	domain.ProfileCoverSheet: {
		system: coverSheetSystemPrompt(),
		user:   "Analyze the following RFP document and extract the required fields as specified.\n\n%s\n\nReturn only the JSON object as described.",
	},
	domain.ProfileSummary: {
		system:    summarySystemPrompt,
		user:      "Please provide a short summary and due date if it is provided of the following document:\n%s",
		maxTokens: 200,
	},
	domain.ProfileComplianceMatrix: {
		system: complianceSystemPrompt,
		user:   "Extract a compliance matrix from the following unstructured RFP document:\n\n%s\n\nFormat the response clearly as described above.",
	},
	domain.ProfileFeasibility: {
		system: feasibilitySystemPrompt,
		user:   "Assess the feasibility of every requirement in the following RFP document:\n\n%s",
	},
	domain.ProfileQuestion: {
		system:      questionSystemPrompt,
		user:        "PDF Content: %s",
		temperature: 0.7,
	},
}

func lookupProfile(name domain.Profile) (profile, error) {
	p, ok := profiles[name]
	if !ok {
		return profile{}, fmt.Errorf("unknown completion profile %q", name)
	}
	return p, nil
}
