package render

// Palette is a list of CSS hex colours indexed by community id.
type Palette []string

// Tab20 is the 20-colour categorical palette used for communities.
var Tab20 = Palette{
	"#1f77b4", "#aec7e8", "#ff7f0e", "#ffbb78", "#2ca02c",
	"#98df8a", "#d62728", "#ff9896", "#9467bd", "#c5b0d5",
	"#8c564b", "#c49c94", "#e377c2", "#f7b6d2", "#7f7f7f",
	"#c7c7c7", "#bcbd22", "#dbdb8d", "#17becf", "#9edae5",
}

// Color returns the colour of community c. Ids wrap around the palette,
// so communities more than len(p) apart share a colour. An empty palette
// falls back to Tab20.
func (p Palette) Color(c int) string {
	if len(p) == 0 {
		p = Tab20
	}
	if c < 0 {
		c = -c
	}
	return p[c%len(p)]
}
