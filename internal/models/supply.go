package models

import (
	"strconv"
	"strings"
)

// Supply keys. The inventory is a fixed set of seven consumables.
const (
	SupplyDetergent    = "detergent"
	SupplySoftener     = "softener"
	SupplyBleach       = "bleach"
	SupplyFragrance    = "fragrance"
	SupplyStainRemover = "stain_remover"
	SupplySteamWater   = "steam_water"
	SupplyGarmentBag   = "garment_bag"
)

// SupplyKeys lists every supply key in display order.
var SupplyKeys = []string{
	SupplyDetergent,
	SupplySoftener,
	SupplyBleach,
	SupplyFragrance,
	SupplyStainRemover,
	SupplySteamWater,
	SupplyGarmentBag,
}

// SupplyLabels maps supply keys to their human-readable names.
var SupplyLabels = map[string]string{
	SupplyDetergent:    "Detergent",
	SupplySoftener:     "Softener",
	SupplyBleach:       "Bleach",
	SupplyFragrance:    "Fragrance",
	SupplyStainRemover: "Stain Remover",
	SupplySteamWater:   "Steam Water",
	SupplyGarmentBag:   "Garment Bag",
}

// DefaultSupplyQuantity is the stocked quantity each supply starts with.
const DefaultSupplyQuantity = 15

// DefaultSupplies returns a fresh supply map with every key at the default.
func DefaultSupplies() map[string]int {
	supplies := make(map[string]int, len(SupplyKeys))
	for _, key := range SupplyKeys {
		supplies[key] = DefaultSupplyQuantity
	}
	return supplies
}

// SupplyLabel returns the display name for a supply key, falling back to the
// key itself for unknown entries.
func SupplyLabel(key string) string {
	if label, ok := SupplyLabels[key]; ok {
		return label
	}
	return key
}

// Quantity is a supply quantity that tolerates snapshots written by older
// clients where quantities ended up as strings. Unparseable values decode
// to zero rather than failing the whole document.
type Quantity int

// UnmarshalJSON accepts numbers and numeric strings.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*q = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*q = 0
		return nil
	}
	*q = Quantity(int(f))
	return nil
}
