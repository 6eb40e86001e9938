package preset

// Preset is a named viewport configuration used for a capture. FullPage means
// the height is recomputed from the actual page content at render time.
type Preset struct {
	Name     string
	Width    int
	Height   int
	FullPage bool
}

const DefaultName = "full-hd"

type Resolver struct {
	presets  map[string]Preset
	fallback Preset
}

func NewResolver() *Resolver {
	presets := map[string]Preset{
		"full-hd":   {Name: "full-hd", Width: 1920, Height: 1080},
		"mobile":    {Name: "mobile", Width: 375, Height: 812},
		"tablet":    {Name: "tablet", Width: 768, Height: 1024},
		"full-page": {Name: "full-page", Width: 1920, Height: 1080, FullPage: true},
	}

	return &Resolver{
		presets:  presets,
		fallback: presets[DefaultName],
	}
}

// Resolve maps a preset name to its configuration. Unknown names resolve to
// the full-hd fallback rather than failing.
func (r *Resolver) Resolve(name string) Preset {
	if p, ok := r.presets[name]; ok {
		return p
	}
	return r.fallback
}

// Names returns the known preset names.
func (r *Resolver) Names() []string {
	names := make([]string, 0, len(r.presets))
	for name := range r.presets {
		names = append(names, name)
	}
	return names
}
