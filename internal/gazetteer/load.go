package gazetteer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Consolidated gazetteer column layout. The file is produced upstream by
// flattening the PSGC region, province, city, municipality and barangay
// tables into a single list.
const (
	colName = iota
	colType
	colCode
	colParent
	colIsland
	colCount
)

// regionIslandGroups maps the two-digit PSGC region code to its island
// group, covering all seventeen administrative regions.
var regionIslandGroups = map[string]IslandGroup{
	"01": Luzon,    // Ilocos Region
	"02": Luzon,    // Cagayan Valley
	"03": Luzon,    // Central Luzon
	"04": Luzon,    // CALABARZON
	"05": Luzon,    // Bicol Region
	"13": Luzon,    // National Capital Region
	"14": Luzon,    // Cordillera Administrative Region
	"17": Luzon,    // MIMAROPA
	"06": Visayas,  // Western Visayas
	"07": Visayas,  // Central Visayas
	"08": Visayas,  // Eastern Visayas
	"09": Mindanao, // Zamboanga Peninsula
	"10": Mindanao, // Northern Mindanao
	"11": Mindanao, // Davao Region
	"12": Mindanao, // SOCCSKSARGEN
	"16": Mindanao, // Caraga
	"19": Mindanao, // Bangsamoro
}

// Load reads the consolidated gazetteer CSV at path and builds the index.
// Any failure here is fatal to callers: extraction without a gazetteer
// would silently misfile every location.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gazetteer load: %w", err)
	}
	defer f.Close()

	ix, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("gazetteer load %s: %w", path, err)
	}
	return ix, nil
}

// Read parses consolidated gazetteer CSV rows and builds the index. The
// expected header is location_name,location_type,code,parent_code,
// island_group. Rows with a blank or unrecognized island_group cell get it
// re-derived from their PSGC region code where possible.
func Read(r io.Reader) (*Index, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < colCount || !strings.EqualFold(strings.TrimSpace(header[colName]), "location_name") {
		return nil, fmt.Errorf("unexpected header %q", strings.Join(header, ","))
	}

	var entries []Entry
	row := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		if len(rec) < colCount {
			continue
		}
		e := Entry{
			Name:       strings.TrimSpace(rec[colName]),
			Type:       AdminType(strings.TrimSpace(rec[colType])),
			Code:       strings.TrimSpace(rec[colCode]),
			ParentCode: strings.TrimSpace(rec[colParent]),
			Island:     IslandGroup(strings.TrimSpace(rec[colIsland])),
		}
		switch e.Island {
		case Luzon, Visayas, Mindanao:
		default:
			e.Island = islandForCode(e.Code, e.ParentCode)
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, errors.New("no data rows")
	}
	return Build(entries), nil
}

// islandForCode derives the island group from a PSGC region reference.
// Region rows carry the two-digit code themselves and province rows carry
// it as their parent; deeper levels reference their province instead, so
// without an island_group cell they stay Unknown.
func islandForCode(code, parent string) IslandGroup {
	if len(code) == 2 {
		if g, ok := regionIslandGroups[code]; ok {
			return g
		}
	}
	if len(parent) == 2 {
		if g, ok := regionIslandGroups[parent]; ok {
			return g
		}
	}
	return Unknown
}
