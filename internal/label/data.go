package label

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/seals.yaml
var defaultSealsYAML []byte

//go:embed data/silicones.yaml
var defaultSiliconesYAML []byte

//go:embed data/surfactants.yaml
var defaultSurfactantsYAML []byte

//go:embed data/parabens.yaml
var defaultParabensYAML []byte

//go:embed data/petrolatum.yaml
var defaultPetrolatumYAML []byte

//go:embed data/dyes.yaml
var defaultDyesYAML []byte

type sealsFile struct {
	Seals map[string]struct {
		Keywords []string `yaml:"keywords"`
	} `yaml:"seals"`
}

// loadSealKeywords parses a seals.yaml document into seal_name -> lowercased
// keyword list.
func loadSealKeywords(raw []byte) (map[string][]string, error) {
	var f sealsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(f.Seals))
	for name, data := range f.Seals {
		kws := make([]string, len(data.Keywords))
		for i, kw := range data.Keywords {
			kws[i] = strings.ToLower(kw)
		}
		out[name] = kws
	}
	return out, nil
}

// loadMarkerList parses a flat "<key>: [list]" YAML document, lowercased.
func loadMarkerList(raw []byte, key string) ([]string, error) {
	var doc map[string][]string
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	items := doc[key]
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = strings.ToLower(item)
	}
	return out, nil
}
