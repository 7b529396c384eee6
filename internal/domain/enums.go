package domain

// CatalogueVariant selects which response shape the catalogue endpoint serves.
type CatalogueVariant string

const (
	VariantBranches CatalogueVariant = "branches"
	VariantFlow     CatalogueVariant = "flow"
)

// ValidCatalogueVariants is the canonical set of accepted variant strings.
var ValidCatalogueVariants = map[CatalogueVariant]bool{
	VariantBranches: true, VariantFlow: true,
}

// SubtreeState summarises how much of a branch is selected.
type SubtreeState string

const (
	SubtreeNone    SubtreeState = "none"
	SubtreePartial SubtreeState = "partial"
	SubtreeAll     SubtreeState = "all"
)

// Outcome is the recorded result of a backend mutation.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeFailed   Outcome = "failed"
)

// UnassignedGroupKey buckets assignments that carry no organisation.
const UnassignedGroupKey = "unassigned"
