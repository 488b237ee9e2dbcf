package plugin

import (
	"encoding/xml"
	"fmt"
	"os"
)

// Mount is the private resource mount a plugin may attach: a named set of
// paths (templates, language files, assets) relative to the plugin
// directory. Declared in <name>.drive.xml:
//
//	<drive name="blog">
//	  <path alias="templates">tpl</path>
//	  <path alias="languages">lang</path>
//	</drive>
type Mount struct {
	XMLName xml.Name    `xml:"drive"`
	Name    string      `xml:"name,attr"`
	Paths   []MountPath `xml:"path"`
}

// MountPath is one aliased path inside a mount.
type MountPath struct {
	Alias string `xml:"alias,attr"`
	Path  string `xml:",chardata"`
}

// Path returns the mounted path for an alias, if declared.
func (m *Mount) Path(alias string) (string, bool) {
	for _, p := range m.Paths {
		if p.Alias == alias {
			return p.Path, true
		}
	}
	return "", false
}

// LoadMount parses a mount descriptor file. A missing file yields
// (nil, nil): the mount is optional.
func LoadMount(path string) (*Mount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading mount descriptor: %w", err)
	}

	var m Mount
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing mount descriptor %s: %w", path, err)
	}

	return &m, nil
}
