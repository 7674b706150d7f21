// Package vendors implements the comparison tool: a static catalog of
// marketing platforms scored and filtered against a user profile. Everything
// here is pure in-memory computation over the embedded catalog.
package vendors

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/growthbench/planforge/internal/domain"
)

//go:embed vendors.json
var catalogJSON []byte

// LoadCatalog decodes the embedded vendor catalog. Catalog order is the tie
// break for every sort, so the file order is part of the contract.
func LoadCatalog() ([]domain.VendorRecord, error) {
	var records []domain.VendorRecord
	if err := json.Unmarshal(catalogJSON, &records); err != nil {
		return nil, fmt.Errorf("decode vendor catalog: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("vendor catalog is empty")
	}
	return records, nil
}
