package domain

import "fmt"

// ArtifactKind enumerates the cacheable views of a document.
type ArtifactKind string

const (
	KindCoverSheet       ArtifactKind = "coverSheet"
	KindPDFContent       ArtifactKind = "pdfContent"
	KindComplianceMatrix ArtifactKind = "complianceMatrix"
	KindFeasibilityCheck ArtifactKind = "feasibilityCheck"
)

// ArtifactKinds lists every kind in display order.
var ArtifactKinds = []ArtifactKind{
	KindCoverSheet,
	KindPDFContent,
	KindComplianceMatrix,
	KindFeasibilityCheck,
}

// ParseArtifactKind validates a raw kind string.
func ParseArtifactKind(raw string) (ArtifactKind, error) {
	for _, k := range ArtifactKinds {
		if string(k) == raw {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownArtifactKind, raw)
}

// Derived reports whether the kind is produced by the completion service.
// pdfContent is the parsed text itself.
func (k ArtifactKind) Derived() bool {
	return k != KindPDFContent
}

// Column is the registry column backing the kind.
func (k ArtifactKind) Column() string {
	switch k {
	case KindCoverSheet:
		return "cover_sheet"
	case KindPDFContent:
		return "pdf_content"
	case KindComplianceMatrix:
		return "compliance_matrix"
	case KindFeasibilityCheck:
		return "feasibility_check"
	default:
		return ""
	}
}

// Profile names a fixed completion prompt (system instruction plus user
// message template).
type Profile string

const (
	ProfileCoverSheet       Profile = "coverSheet"
	ProfileSummary          Profile = "summary"
	ProfileComplianceMatrix Profile = "complianceMatrix"
	ProfileFeasibility      Profile = "feasibility"
	ProfileQuestion         Profile = "question"
)

// Profile returns the completion profile computing the kind. pdfContent
// has none.
func (k ArtifactKind) Profile() (Profile, bool) {
	switch k {
	case KindCoverSheet:
		return ProfileCoverSheet, true
	case KindComplianceMatrix:
		return ProfileComplianceMatrix, true
	case KindFeasibilityCheck:
		return ProfileFeasibility, true
	default:
		return "", false
	}
}
