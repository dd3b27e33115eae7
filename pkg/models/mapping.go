package models

// Relation mapping origins, ordered by merge precedence (highest first).
const (
	MappingOriginRegistry = "registry" // explicit schema registry entry
	MappingOriginLegacy   = "legacy"   // legacy mapping file
	MappingOriginInferred = "inferred" // name-pattern heuristic
)

// RelationMapping declares that column SrcCol of table SrcTable denotes a
// relation to TgtTable. Dynamic mappings select the target table per row via
// a discriminator column's value.
type RelationMapping struct {
	SrcTable string  `yaml:"src_table"`
	SrcCol   string  `yaml:"src_col"`
	TgtTable string  `yaml:"tgt_table"`
	TgtCol   string  `yaml:"tgt_col"`
	Relation string  `yaml:"relation"`
	Dynamic  bool    `yaml:"dynamic"`
	// DiscriminatorCol names the column whose value selects the target table
	// for dynamic mappings.
	DiscriminatorCol string            `yaml:"discriminator_col"`
	DiscriminatorMap map[string]string `yaml:"discriminator_map"`
	Confidence       float64           `yaml:"confidence"`
	Origin           string            `yaml:"origin"`
}

// Key identifies a mapping for precedence merging: one mapping per
// (source table, source column).
func (m RelationMapping) Key() string {
	return m.SrcTable + "." + m.SrcCol
}
