package catalog

// Location is a climate location with its ASHRAE zone label.
type Location struct {
	ID          string `json:"id"`
	City        string `json:"city"`
	Zone        string `json:"zone"`
	Description string `json:"description"`
}

// Archetype is a building-type category.
type Archetype struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Layout is a building geometry variant shared across archetypes.
type Layout struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HVACSystem is one of the modeled HVAC system configurations.
type HVACSystem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PermutationsPerBatch is the number of micro-permutations each batch
// stands in for: 3 wall types x 3 roof types x 3 window types x 3
// infiltration rates.
const PermutationsPerBatch = 81

// Catalog holds the fixed dimensional domains of the simulation matrix.
type Catalog struct {
	Locations   []Location   `json:"locations"`
	Archetypes  []Archetype  `json:"archetypes"`
	Layouts     []Layout     `json:"layouts"`
	HVACSystems []HVACSystem `json:"hvac_systems"`
}

// Default returns the hardcoded simulation plan catalog.
func Default() Catalog {
	return Catalog{
		Locations: []Location{
			{ID: "1A", City: "Miami, FL", Zone: "ASHRAE 1A", Description: "Very Hot / Humid"},
			{ID: "1B", City: "Phoenix, AZ", Zone: "ASHRAE 1B", Description: "Very Hot / Dry"},
			{ID: "2A", City: "Houston, TX", Zone: "ASHRAE 2A", Description: "Hot / Humid"},
			{ID: "3C", City: "Los Angeles, CA", Zone: "ASHRAE 3C", Description: "Warm / Marine"},
			{ID: "4B", City: "Denver, CO", Zone: "ASHRAE 4B", Description: "Mixed / Dry"},
			{ID: "4C", City: "Seattle, WA", Zone: "ASHRAE 4C", Description: "Mixed / Marine"},
			{ID: "5A", City: "Chicago, IL", Zone: "ASHRAE 5A", Description: "Cool / Humid"},
			{ID: "5B", City: "Calgary, AB", Zone: "ASHRAE 5B", Description: "Cool / Dry"},
			{ID: "6A", City: "Minneapolis, MN", Zone: "ASHRAE 6A", Description: "Cold / Humid"},
			{ID: "7A", City: "Winnipeg, MB", Zone: "ASHRAE 7A", Description: "Very Cold"},
			{ID: "7B", City: "Whitehorse, YT", Zone: "ASHRAE 7B", Description: "Very Cold / Dry"},
			{ID: "8", City: "Resolute, NU", Zone: "ASHRAE 8", Description: "Arctic"},
		},
		Archetypes: []Archetype{
			{ID: "OFFICE", Name: "Office Building"},
			{ID: "MURB", Name: "Multi-Unit Residential (MURB)"},
			{ID: "RETAIL", Name: "Retail Store"},
			{ID: "SCHOOL", Name: "School"},
			{ID: "HOSPITAL", Name: "Hospital"},
		},
		Layouts: []Layout{
			{ID: "L1", Name: "Layout 1 (Standard Archetype)", Description: "Baseline massing"},
			{ID: "L2", Name: "Layout 2 (Tall + Narrow)", Description: "Increased exterior wall ratio"},
			{ID: "L3", Name: "Layout 3 (Short + Wide)", Description: "Increased roof area ratio"},
		},
		HVACSystems: []HVACSystem{
			{ID: "S1", Name: "1 Boiler + PTAC", Description: "Heat: Central HW Boiler, Cool: DX, Vent: Single zone PTU"},
			{ID: "S2", Name: "2 Furnace + AC", Description: "Heat: Furnace, Cool: DX, Vent: CV"},
			{ID: "S3", Name: "3 Furnace", Description: "Heat: Furnace, Cool: None, Vent: CV"},
			{ID: "S4", Name: "4 Electric AHU", Description: "Heat: Electric, Cool: None, Vent: CV"},
			{ID: "S12", Name: "12 PTHP + Electric", Description: "Heat: ASHP + Electric Backup, Cool: ASHP, Vent: CV"},
			{ID: "S13", Name: "13 PTHP + Boiler", Description: "Heat: ASHP + Boiler, Cool: ASHP, Vent: CV"},
			{ID: "S14", Name: "14 SZHP + Electric", Description: "Heat: ASHP + Electric Backup, Cool: ASHP + Outdoor Unit, Vent: CV"},
			{ID: "S19", Name: "19 WSHP + Boiler + CT", Description: "Heat: WSHPs + Boiler Backup, Cool: WSHPs + Cooling Tower, Vent: DOAS"},
			{ID: "S21", Name: "21 VRF + Boiler + DOAS", Description: "Heat: ASHP VRF + Boiler Backup, Cool: ASHP VRF, Vent: DOAS"},
		},
	}
}

// MatrixSize is the number of batches the full cross-product produces.
func (c Catalog) MatrixSize() int {
	return len(c.Archetypes) * len(c.Layouts) * len(c.Locations) * len(c.HVACSystems)
}

// LocationByID looks up a location by its climate-zone id.
func (c Catalog) LocationByID(id string) (Location, bool) {
	for _, l := range c.Locations {
		if l.ID == id {
			return l, true
		}
	}
	return Location{}, false
}

// ArchetypeByID looks up an archetype by id.
func (c Catalog) ArchetypeByID(id string) (Archetype, bool) {
	for _, a := range c.Archetypes {
		if a.ID == id {
			return a, true
		}
	}
	return Archetype{}, false
}

// LayoutByID looks up a layout by id.
func (c Catalog) LayoutByID(id string) (Layout, bool) {
	for _, l := range c.Layouts {
		if l.ID == id {
			return l, true
		}
	}
	return Layout{}, false
}

// HVACSystemByID looks up an HVAC system by id.
func (c Catalog) HVACSystemByID(id string) (HVACSystem, bool) {
	for _, h := range c.HVACSystems {
		if h.ID == id {
			return h, true
		}
	}
	return HVACSystem{}, false
}
