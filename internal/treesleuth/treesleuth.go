// Package treesleuth defines the core domain types shared by the catalog,
// the scoring engine and the game state machine.
package treesleuth

type EvidenceType string

const (
	EvidenceLeaf       EvidenceType = "leaf"
	EvidenceBark       EvidenceType = "bark"
	EvidenceSeed       EvidenceType = "seed"
	EvidenceBud        EvidenceType = "bud"
	EvidenceSilhouette EvidenceType = "silhouette"
	EvidenceRange      EvidenceType = "range"
	EvidenceHabitat    EvidenceType = "habitat"
)

// EvidenceTypes lists every evidence type in canonical order. Index 0 is the
// free initial clue.
var EvidenceTypes = [...]EvidenceType{
	EvidenceLeaf,
	EvidenceBark,
	EvidenceSeed,
	EvidenceBud,
	EvidenceSilhouette,
	EvidenceRange,
	EvidenceHabitat,
}

// EvidenceTileCount is the number of evidence tiles in every case.
const EvidenceTileCount = len(EvidenceTypes)

var evidenceLabels = map[EvidenceType]string{
	EvidenceLeaf:       "Leaf",
	EvidenceBark:       "Bark",
	EvidenceSeed:       "Seed/Fruit",
	EvidenceBud:        "Buds & Twigs",
	EvidenceSilhouette: "Silhouette",
	EvidenceRange:      "Range Map",
	EvidenceHabitat:    "Habitat",
}

// Label returns the display name, or the raw value for unknown types.
func (t EvidenceType) Label() string {
	if l, ok := evidenceLabels[t]; ok {
		return l
	}
	return string(t)
}

func (t EvidenceType) Valid() bool {
	_, ok := evidenceLabels[t]
	return ok
}

// Index returns the canonical position of t, or -1.
func (t EvidenceType) Index() int {
	for i, et := range EvidenceTypes {
		if et == t {
			return i
		}
	}
	return -1
}

type Evidence struct {
	Type        EvidenceType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	KeyFeatures []string     `json:"keyFeatures"`
}

// EvidenceSet holds exactly one Evidence entry per EvidenceType.
type EvidenceSet struct {
	Leaf       Evidence `json:"leaf"`
	Bark       Evidence `json:"bark"`
	Seed       Evidence `json:"seed"`
	Bud        Evidence `json:"bud"`
	Silhouette Evidence `json:"silhouette"`
	Range      Evidence `json:"range"`
	Habitat    Evidence `json:"habitat"`
}

// For returns the entry for t. ok is false for unknown types.
func (s EvidenceSet) For(t EvidenceType) (Evidence, bool) {
	switch t {
	case EvidenceLeaf:
		return s.Leaf, true
	case EvidenceBark:
		return s.Bark, true
	case EvidenceSeed:
		return s.Seed, true
	case EvidenceBud:
		return s.Bud, true
	case EvidenceSilhouette:
		return s.Silhouette, true
	case EvidenceRange:
		return s.Range, true
	case EvidenceHabitat:
		return s.Habitat, true
	}
	return Evidence{}, false
}

type LeafType string

const (
	LeafSimple   LeafType = "simple"
	LeafCompound LeafType = "compound"
	LeafNeedle   LeafType = "needle"
	LeafScale    LeafType = "scale"
)

type LeafArrangement string

const (
	ArrangementOpposite  LeafArrangement = "opposite"
	ArrangementAlternate LeafArrangement = "alternate"
	ArrangementWhorled   LeafArrangement = "whorled"
)

type Habitat string

const (
	HabitatWetland    Habitat = "wetland"
	HabitatUpland     Habitat = "upland"
	HabitatForest     Habitat = "forest"
	HabitatForestEdge Habitat = "forest-edge"
	HabitatRiparian   Habitat = "riparian"
	HabitatUrban      Habitat = "urban"
	HabitatMixed      Habitat = "mixed"
)

type Region string

const (
	RegionNortheast Region = "northeast"
	RegionSoutheast Region = "southeast"
	RegionMidwest   Region = "midwest"
	RegionNorthwest Region = "northwest"
	RegionSouthwest Region = "southwest"
)

func (r Region) Valid() bool {
	switch r {
	case RegionNortheast, RegionSoutheast, RegionMidwest, RegionNorthwest, RegionSouthwest:
		return true
	}
	return false
}

type Family string

const (
	FamilyMaple    Family = "maple"
	FamilyOak      Family = "oak"
	FamilyBirch    Family = "birch"
	FamilyPine     Family = "pine"
	FamilyBeech    Family = "beech"
	FamilyWalnut   Family = "walnut"
	FamilyElm      Family = "elm"
	FamilyAsh      Family = "ash"
	FamilyCherry   Family = "cherry"
	FamilyMagnolia Family = "magnolia"
	FamilyCypress  Family = "cypress"
	FamilyOther    Family = "other"
)

// TreeSpecies is an immutable catalog entry.
type TreeSpecies struct {
	ID              string          `json:"id"`
	CommonName      string          `json:"commonName"`
	ScientificName  string          `json:"scientificName"`
	Family          Family          `json:"family"`
	LeafType        LeafType        `json:"leafType"`
	LeafArrangement LeafArrangement `json:"leafArrangement"`
	Habitat         Habitat         `json:"habitat"`
	Regions         []Region        `json:"regions"`
	Evidence        EvidenceSet     `json:"evidence"`
	// Lookalikes are ids of commonly confused species. Display hints only.
	Lookalikes   []string `json:"lookalikes"`
	WhyItsTricky string   `json:"whyItsTricky,omitempty"`
	FunFact      string   `json:"funFact,omitempty"`
	Difficulty   int      `json:"difficulty"`
}

func (s TreeSpecies) InRegion(r Region) bool {
	for _, sr := range s.Regions {
		if sr == r {
			return true
		}
	}
	return false
}

// Confidence is the player-declared probability of being correct.
type Confidence int

const (
	Confidence50 Confidence = 50
	Confidence75 Confidence = 75
	Confidence90 Confidence = 90
)

// ConfidenceLevels lists the accepted confidence values, lowest first.
var ConfidenceLevels = [...]Confidence{Confidence50, Confidence75, Confidence90}

func (c Confidence) Valid() bool {
	return c == Confidence50 || c == Confidence75 || c == Confidence90
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// CandidateCount is the number of species offered as guess options.
// Zero means the full searchable field guide.
func (d Difficulty) CandidateCount() int {
	switch d {
	case DifficultyEasy:
		return 4
	case DifficultyHard:
		return 0
	default:
		return 8
	}
}

func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyNormal || d == DifficultyHard
}
