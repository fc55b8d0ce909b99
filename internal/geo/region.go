package geo

import "fmt"

// Rect is an axis-aligned bounding rectangle in decimal degrees.
type Rect struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLon float64 `json:"minLon"`
	MaxLon float64 `json:"maxLon"`
}

// Contains reports whether p lies inside r. Both bounds are inclusive.
func (r Rect) Contains(p Point) bool {
	return r.MinLat <= p.Lat && p.Lat <= r.MaxLat &&
		r.MinLon <= p.Lon && p.Lon <= r.MaxLon
}

// Region is a named area from a static table. A region carries either a
// center (massifs) or bounds (departments); the unused field is zero.
type Region struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Center Point  `json:"center"`
	Bounds Rect   `json:"bounds"`
	// NumericID is the avalanche bulletin id for massifs, 0 when the massif has none.
	NumericID int `json:"numericId,omitempty"`
}

// Resolution is the outcome of resolving a Point against an Index.
// Found is false for NotFound; DistanceKm is 0 for containment matches.
type Resolution struct {
	Region     Region  `json:"region"`
	DistanceKm float64 `json:"distanceKm"`
	Found      bool    `json:"found"`
}

// NotFound is the zero Resolution.
var NotFound = Resolution{}

func (r Resolution) String() string {
	if !r.Found {
		return "not found"
	}
	if r.DistanceKm > 0 {
		return fmt.Sprintf("%s (%s, %.1f km)", r.Region.Code, r.Region.Name, r.DistanceKm)
	}
	return fmt.Sprintf("%s (%s)", r.Region.Code, r.Region.Name)
}

// Index is a read-only, ordered set of regions. Table order is significant:
// it breaks nearest-distance ties and decides which of several overlapping
// rectangles wins.
type Index struct {
	regions []Region
	byCode  map[string]int
}

// NewIndex builds an Index over a copy of regions. An empty table is a
// programming error and panics.
func NewIndex(regions []Region) *Index {
	if len(regions) == 0 {
		panic("geo: NewIndex called with an empty region table")
	}
	ix := &Index{
		regions: append([]Region(nil), regions...),
		byCode:  make(map[string]int, len(regions)),
	}
	for i, r := range ix.regions {
		if _, dup := ix.byCode[r.Code]; !dup {
			ix.byCode[r.Code] = i
		}
	}
	return ix
}

// Len returns the number of regions in the table.
func (ix *Index) Len() int {
	return len(ix.regions)
}

// Regions returns a copy of the table in order.
func (ix *Index) Regions() []Region {
	return append([]Region(nil), ix.regions...)
}

// Lookup returns the region with the given code.
func (ix *Index) Lookup(code string) (Region, bool) {
	i, ok := ix.byCode[code]
	if !ok {
		return Region{}, false
	}
	return ix.regions[i], true
}

// Nearest returns the region whose center is closest to p, with the distance in km.
// Ties go to the region that appears first in the table.
func (ix *Index) Nearest(p Point) (Region, float64) {
	best := 0
	bestDist := Haversine(p, ix.regions[0].Center)
	for i := 1; i < len(ix.regions); i++ {
		d := Haversine(p, ix.regions[i].Center)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return ix.regions[best], bestDist
}

// NearestWithin is Nearest with an optional cutoff. maxKm <= 0 disables the
// cutoff, so a region is always found.
func (ix *Index) NearestWithin(p Point, maxKm float64) Resolution {
	r, d := ix.Nearest(p)
	if maxKm > 0 && d > maxKm {
		return NotFound
	}
	return Resolution{Region: r, DistanceKm: d, Found: true}
}

// Containing returns the first region, in table order, whose bounds contain p.
// A point outside every rectangle yields NotFound.
func (ix *Index) Containing(p Point) Resolution {
	for _, r := range ix.regions {
		if r.Bounds.Contains(p) {
			return Resolution{Region: r, Found: true}
		}
	}
	return NotFound
}
