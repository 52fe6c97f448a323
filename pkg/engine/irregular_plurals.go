package engine

// Irregular plurals used when deriving table names
var irregularPlurals = map[string]string{
	"person":     "people",
	"child":      "children",
	"tooth":      "teeth",
	"foot":       "feet",
	"mouse":      "mice",
	"goose":      "geese",
	"man":        "men",
	"woman":      "women",
	"datum":      "data",
	"medium":     "media",
	"index":      "indices",
	"matrix":     "matrices",
	"vertex":     "vertices",
	"axis":       "axes",
	"analysis":   "analyses",
	"basis":      "bases",
	"crisis":     "crises",
	"thesis":     "theses",
	"diagnosis":  "diagnoses",
	"synopsis":   "synopses",
	"criterion":  "criteria",
	"phenomenon": "phenomena",
	"radius":     "radii",
	"formula":    "formulae",
	"focus":      "foci",
	"nucleus":    "nuclei",
	"syllabus":   "syllabi",
	"curriculum": "curricula",
	"leaf":       "leaves",
	"life":       "lives",
	"knife":      "knives",
	"wife":       "wives",
	"self":       "selves",
	"half":       "halves",
	"loaf":       "loaves",
	"calf":       "calves",
	"hero":       "heroes",
	"potato":     "potatoes",
	"tomato":     "tomatoes",
	"echo":       "echoes",
	"sheep":      "sheep",
	"fish":       "fish",
	"series":     "series",
	"species":    "species",
	"status":     "statuses",
	"alias":      "aliases",
	"bus":        "buses",
}
