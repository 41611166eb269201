package tts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Replacement rewrites one spoken-form substitution. Order matters:
// earlier entries run first, so compound forms ("O(n log n)") must sit
// above the shorter forms they contain ("O(n)").
type Replacement struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// DefaultReplacements is the built-in pronunciation table. Keys that are
// entirely uppercase are matched on word boundaries, everything else is
// replaced literally.
var DefaultReplacements = []Replacement{
	// Complexity notation
	{"O(n^2)", "O of n squared"},
	{"O(n)", "O of n"},
	{"O(1)", "O of 1"},
	{"O(log n)", "O of log n"},
	{"O(n log n)", "O of n log n"},

	{"cProfile", "c-Profile"},

	// Acronyms
	{"I/O", "I-O"},
	{"API", "A-P-I"},
	{"APIs", "A-P-Is"},
	{"CPU", "C-P-U"},
	{"GPU", "G-P-U"},
	{"RAM", "R-A-M"},
	{"ML", "M-L"},
	{"AI", "A-I"},
	{"CSV", "C-S-V"},
	{"JSON", "Jason"},
	{"YAML", "YAML"},
	{"SQL", "S-Q-L"},
	{"NoSQL", "No S-Q-L"},
	{"CLI", "C-L-I"},
	{"GUI", "G-U-I"},
	{"IDE", "I-D-E"},
	{"OOP", "O-O-P"},

	// Tool names
	{"py-spy", "pie-spy"},
	{"pytest", "pie-test"},
	{"sklearn", "scikit-learn"},
	{"pandas", "pandas"},
	{"numpy", "num-pie"},
	{"scipy", "sigh-pie"},
	{"matplotlib", "mat-plot-lib"},
	{"seaborn", "sea-born"},

	// File extensions
	{".py", " dot pie"},
	{".csv", " dot C-S-V"},
	{".json", " dot Jason"},
	{".yaml", " dot YAML"},
	{".ipynb", " dot i-pie-n-b"},

	// Code idioms
	{"list.append()", "list dot append"},
	{"dict[]", "dict brackets"},
	{"df.head()", "dataframe dot head"},
	{"df.describe()", "dataframe dot describe"},
	{"pd.read_csv", "pandas read C-S-V"},

	{"__init__", "dunder init"},
	{"__main__", "dunder main"},

	// Punctuation that trips speech engines
	{"—", ", "},
	{"...", ", "},
	{" - ", ", "},
}

type tableFile struct {
	Replacements []Replacement `yaml:"replacements"`
}

// LoadTable reads a replacement table from a YAML file. The file holds
// an ordered list, not a map, so deployments control application order:
//
//	replacements:
//	  - from: "K8s"
//	    to: "kubernetes"
func LoadTable(path string) ([]Replacement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tts table: %w", err)
	}
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing tts table %s: %w", path, err)
	}
	for i, r := range file.Replacements {
		if r.From == "" {
			return nil, fmt.Errorf("tts table %s: entry %d has an empty 'from'", path, i)
		}
	}
	return file.Replacements, nil
}

// mergeTables overlays custom entries on the base table. A custom entry
// whose From already exists rewrites that entry in place, keeping its
// position; new entries append in their given order.
func mergeTables(base, custom []Replacement) []Replacement {
	merged := make([]Replacement, len(base))
	copy(merged, base)

	index := make(map[string]int, len(merged))
	for i, r := range merged {
		index[r.From] = i
	}
	for _, c := range custom {
		if i, ok := index[c.From]; ok {
			merged[i].To = c.To
			continue
		}
		index[c.From] = len(merged)
		merged = append(merged, c)
	}
	return merged
}
