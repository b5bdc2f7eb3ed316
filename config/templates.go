package config

import (
	"fmt"
	"sort"
)

// Peer is a named remote node.
type Peer struct {
	Name     string `yaml:"name" json:"name"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`
}

// Template is the starting point for a new local blockchain.
type Template struct {
	Name    string
	Genesis *Genesis
	Peers   []Peer
}

var templates = map[string]func() Template{
	string(Mainnet): func() Template {
		return Template{
			Name:    string(Mainnet),
			Genesis: MainnetGenesis(),
			Peers: []Peer{
				{Name: "klingnet", Endpoint: "https://rpc.klingnet.io"},
			},
		}
	},
	string(Testnet): func() Template {
		return Template{
			Name:    string(Testnet),
			Genesis: TestnetGenesis(),
			Peers: []Peer{
				{Name: "klingnet", Endpoint: "https://testnet-rpc.klingnet.io"},
			},
		}
	},
}

// TemplateFor returns the named network template.
func TemplateFor(name string) (Template, error) {
	mk, ok := templates[name]
	if !ok {
		return Template{}, fmt.Errorf("unknown template %q (available: %v)", name, TemplateNames())
	}
	return mk(), nil
}

// TemplateNames lists the available templates.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for n := range templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
