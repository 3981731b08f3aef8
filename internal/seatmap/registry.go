package seatmap

// Templates are defined in code and bound to events by name.  Geometry
// changes are deployments, not data migrations, which keeps the inventory
// table free of pre-provisioned seat rows.
var templates = map[string]*Template{
	"teatro-principal": {
		Name:        "teatro-principal",
		SeatsPerRow: 10,
		Sectors: []Sector{
			{ID: "A", Name: "Platea A", Rows: []string{"1", "2", "3"}},
			{ID: "B", Name: "Platea B", Rows: []string{"1", "2", "3"}},
			{ID: "P", Name: "Pullman", Rows: []string{"1", "2"}},
		},
	},
	"arena-general": {
		Name:        "arena-general",
		SeatsPerRow: 20,
		Sectors: []Sector{
			{ID: "A", Name: "Platea A", Rows: []string{"1", "2", "3", "4"}},
			{ID: "B", Name: "Platea B", Rows: []string{"1", "2", "3", "4"}},
		},
	},
}

// ByName looks up a registered template.  It fails with
// ErrUnknownTemplate when the name is not known; an event bound to an
// unregistered template is a configuration error.
func ByName(name string) (*Template, error) {
	t, ok := templates[name]
	if !ok {
		return nil, ErrUnknownTemplate
	}
	return t, nil
}
