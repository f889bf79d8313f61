package models

// ReturnReason represents the customer's stated reason for a return
type ReturnReason string

const (
	ReturnReasonDamaged        ReturnReason = "DAMAGED"          // Item arrived damaged
	ReturnReasonDefective      ReturnReason = "DEFECTIVE"        // Item stopped working / manufacturing defect
	ReturnReasonWrongItem      ReturnReason = "WRONG_ITEM"       // Wrong item or variant received
	ReturnReasonNotAsDescribed ReturnReason = "NOT_AS_DESCRIBED" // Item does not match the listing
	ReturnReasonMissingItem    ReturnReason = "MISSING_ITEM"     // Part of the order is missing
	ReturnReasonChangeMind     ReturnReason = "CHANGE_MIND"      // Customer changed their mind
	ReturnReasonNoLongerNeeded ReturnReason = "NO_LONGER_NEEDED" // No longer needed
	ReturnReasonOther          ReturnReason = "OTHER"            // Free-text reason
)

// ReasonInfo carries the display label and whether the reason requires
// photo/video evidence at request creation.
type ReasonInfo struct {
	Label            string `json:"label"`
	EvidenceRequired bool   `json:"evidenceRequired"`
}

// reasonCatalog is the static reason catalog. Reasons that blame the
// shop or the carrier require evidence; buyer's-remorse reasons do not.
var reasonCatalog = map[ReturnReason]ReasonInfo{
	ReturnReasonDamaged:        {Label: "Item arrived damaged", EvidenceRequired: true},
	ReturnReasonDefective:      {Label: "Item is defective", EvidenceRequired: true},
	ReturnReasonWrongItem:      {Label: "Received wrong item", EvidenceRequired: true},
	ReturnReasonNotAsDescribed: {Label: "Item not as described", EvidenceRequired: true},
	ReturnReasonMissingItem:    {Label: "Item or part missing", EvidenceRequired: true},
	ReturnReasonChangeMind:     {Label: "Changed my mind", EvidenceRequired: false},
	ReturnReasonNoLongerNeeded: {Label: "No longer needed", EvidenceRequired: false},
	ReturnReasonOther:          {Label: "Other", EvidenceRequired: false},
}

// LookupReason resolves a reason code against the catalog. Unknown codes
// are accepted and displayed verbatim with no evidence requirement, so
// catalog drift between clients and the service never blocks a request.
func LookupReason(code ReturnReason) ReasonInfo {
	if info, ok := reasonCatalog[code]; ok {
		return info
	}
	return ReasonInfo{Label: string(code), EvidenceRequired: false}
}

// Label returns the display label for the reason
func (r ReturnReason) Label() string {
	return LookupReason(r).Label
}

// RequiresEvidence reports whether requests citing this reason must
// attach at least one evidence URL.
func (r ReturnReason) RequiresEvidence() bool {
	return LookupReason(r).EvidenceRequired
}

// ReasonCatalog returns a copy of the full catalog for display purposes
func ReasonCatalog() map[ReturnReason]ReasonInfo {
	out := make(map[ReturnReason]ReasonInfo, len(reasonCatalog))
	for code, info := range reasonCatalog {
		out[code] = info
	}
	return out
}
