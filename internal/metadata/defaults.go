package metadata

// Defaults returns the built-in entity descriptors. Field lists follow
// the lab schema; deployments can replace them via an entities file
// (see LoadFile).
func Defaults() []*Entity {
	return []*Entity{
		{
			Name:        "users",
			Table:       "users",
			Fields:      []string{"username", "password", "fullname", "affiliation", "note"},
			Unique:      []string{"username"},
			SecretField: "password",
		},
		{
			Name:   "materials",
			Table:  "materials",
			Fields: []string{"matid", "interusername", "name", "species", "note"},
		},
		{
			Name:   "gels",
			Table:  "gels",
			Fields: []string{"gelid", "gelname", "geltype", "note"},
		},
		{
			Name:   "plates",
			Table:  "plates",
			Fields: []string{"plateid", "platename", "platenumber"},
		},
		{
			Name:   "analysis",
			Table:  "analysis",
			Fields: []string{"analid", "anatype", "note"},
		},
		{
			Name:   "methods",
			Table:  "methods",
			Fields: []string{"metid", "methname", "note"},
		},
		{
			Name:   "proteomes",
			Table:  "proteomes",
			Fields: []string{"mapid", "species", "note"},
		},
	}
}

// NewDefaultRegistry builds a registry pre-loaded with Defaults.
func NewDefaultRegistry() *Registry {
	reg := NewRegistry()
	for _, e := range Defaults() {
		// names in Defaults are distinct, Register cannot fail
		_ = reg.Register(e)
	}
	return reg
}
