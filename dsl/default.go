package dsl

// DefaultFigure reproduces the reachability plot of the Vista exporter:
// dark background, fixed bounds, legend with hide-on-click and a two-line tooltip.
const DefaultFigure = `figure Vista v1 {
  title: "Vista Reachability Analysis"
  title-color: #ffffff
  size: [1200, 700]
  x-range: [-62, 62]
  y-range: [-35, 35]
  background: #252e38
  border: #252e38
  outline: #41454a

  marker-size: 8
  reachable-alpha: 0.3
  unsafe-color: #ffff00
  unsafe-alpha: 0.5

  legend {
    location: top_left
    click: hide
  }

  tooltip {
    "(x,y)": "(${x}, ${y})"
    "Path": "${desc}"
  }

  panel {
    width: 400
    empty: "No File Selected"
  }
}
`

// Default parses DefaultFigure.
func Default() *Document {
	doc, err := ParseString(DefaultFigure)
	if err != nil {
		panic("dsl: default figure does not parse: " + err.Error())
	}
	return doc
}
