package cache

// Keyer generates cache keys for each pipeline stage.
type Keyer interface {
	// MatrixKey identifies a cost matrix computed from a target and a tile set.
	MatrixKey(targetHash, tilesHash string, opts MatrixKeyOpts) string

	// PlanKey identifies a solved plan for a given cost matrix.
	PlanKey(matrixHash string, opts PlanKeyOpts) string

	// ArtifactKey identifies an encoded mosaic image for a given plan.
	ArtifactKey(planHash string, opts ArtifactKeyOpts) string
}

// MatrixKeyOpts lists the options that change cost matrix contents.
type MatrixKeyOpts struct {
	GridWidth  int    `json:"gw"`
	GridHeight int    `json:"gh"`
	Metric     string `json:"metric"`
	TileMode   string `json:"tile_mode,omitempty"`
	Equalize   bool   `json:"equalize,omitempty"`
	Transfer   string `json:"transfer,omitempty"`
}

// PlanKeyOpts lists the options that change the solved plan.
type PlanKeyOpts struct {
	Solver         string `json:"solver"`
	MaxOccurrences int    `json:"max_occurrences"`
}

// ArtifactKeyOpts lists the options that change the rendered bytes.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// DefaultKeyer hashes stage inputs and options into namespaced keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) MatrixKey(targetHash, tilesHash string, opts MatrixKeyOpts) string {
	return hashKey("matrix", targetHash, tilesHash, opts)
}

func (DefaultKeyer) PlanKey(matrixHash string, opts PlanKeyOpts) string {
	return hashKey("plan", matrixHash, opts)
}

func (DefaultKeyer) ArtifactKey(planHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", planHash, opts)
}
