package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReasonEvidenceRequirements(t *testing.T) {
	evidenceRequired := []ReturnReason{
		ReturnReasonDamaged,
		ReturnReasonDefective,
		ReturnReasonWrongItem,
		ReturnReasonNotAsDescribed,
		ReturnReasonMissingItem,
	}
	for _, reason := range evidenceRequired {
		assert.True(t, reason.RequiresEvidence(), "%s should require evidence", reason)
	}

	noEvidence := []ReturnReason{
		ReturnReasonChangeMind,
		ReturnReasonNoLongerNeeded,
		ReturnReasonOther,
	}
	for _, reason := range noEvidence {
		assert.False(t, reason.RequiresEvidence(), "%s should not require evidence", reason)
	}
}

func TestLookupReason_UnknownCodeIsLenient(t *testing.T) {
	info := LookupReason("SOMETHING_NEW")
	assert.Equal(t, "SOMETHING_NEW", info.Label)
	assert.False(t, info.EvidenceRequired)
}

func TestReasonLabels(t *testing.T) {
	assert.Equal(t, "Item arrived damaged", ReturnReasonDamaged.Label())
	assert.Equal(t, "Changed my mind", ReturnReasonChangeMind.Label())
}

func TestReasonCatalogIsACopy(t *testing.T) {
	catalog := ReasonCatalog()
	catalog[ReturnReasonDamaged] = ReasonInfo{Label: "tampered", EvidenceRequired: false}

	assert.True(t, ReturnReasonDamaged.RequiresEvidence())
	assert.Equal(t, "Item arrived damaged", ReturnReasonDamaged.Label())
}
