package model

// Claim is the atomic unit of cross-document comparison
type Claim struct {
	Section     string `json:"section"`
	Description string `json:"description"`
	Kind        Kind   `json:"kind"`
	A           Value  `json:"a"` // Reference side
	B           Value  `json:"b"` // Candidate side
}
