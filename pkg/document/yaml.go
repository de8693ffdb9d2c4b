package document

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/patchwire/patchwire/pkg/geometry"
	"github.com/patchwire/patchwire/pkg/graph"
)

// YAMLCodec handles YAML import/export.
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier.
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlDocument is the YAML structure for a patch document.
type yamlDocument struct {
	Nodes       []yamlNode       `yaml:"nodes"`
	Connections []yamlConnection `yaml:"connections"`
}

type yamlNode struct {
	ID       string  `yaml:"id"`
	Caption  string  `yaml:"caption"`
	InPorts  int     `yaml:"in_ports"`
	OutPorts int     `yaml:"out_ports"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Width    float64 `yaml:"width,omitempty"`
	Height   float64 `yaml:"height,omitempty"`
}

type yamlConnection struct {
	OutNode string `yaml:"out_node"`
	OutPort int    `yaml:"out_port"`
	InNode  string `yaml:"in_node"`
	InPort  int    `yaml:"in_port"`
}

// Parse imports a patch document from YAML.
func (c *YAMLCodec) Parse(r io.Reader) (graph.Snapshot, error) {
	var yd yamlDocument
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&yd); err != nil {
		return graph.Snapshot{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	snap := graph.Snapshot{
		Nodes:       make([]graph.NodeSpec, 0, len(yd.Nodes)),
		Connections: make([]graph.ConnectionID, 0, len(yd.Connections)),
	}
	for _, yn := range yd.Nodes {
		snap.Nodes = append(snap.Nodes, graph.NodeSpec{
			ID:       graph.NodeID(yn.ID),
			Caption:  yn.Caption,
			InPorts:  yn.InPorts,
			OutPorts: yn.OutPorts,
			Position: geometry.Point{X: yn.X, Y: yn.Y},
			Content:  geometry.Size{Width: yn.Width, Height: yn.Height},
		})
	}
	for _, yc := range yd.Connections {
		snap.Connections = append(snap.Connections, graph.ConnectionID{
			OutNodeID:    graph.NodeID(yc.OutNode),
			OutPortIndex: graph.PortIndex(yc.OutPort),
			InNodeID:     graph.NodeID(yc.InNode),
			InPortIndex:  graph.PortIndex(yc.InPort),
		})
	}
	return snap, nil
}

// Export writes a patch document as YAML.
func (c *YAMLCodec) Export(snap graph.Snapshot, w io.Writer) error {
	yd := yamlDocument{
		Nodes:       make([]yamlNode, 0, len(snap.Nodes)),
		Connections: make([]yamlConnection, 0, len(snap.Connections)),
	}
	for _, n := range snap.Nodes {
		yd.Nodes = append(yd.Nodes, yamlNode{
			ID:       string(n.ID),
			Caption:  n.Caption,
			InPorts:  n.InPorts,
			OutPorts: n.OutPorts,
			X:        n.Position.X,
			Y:        n.Position.Y,
			Width:    n.Content.Width,
			Height:   n.Content.Height,
		})
	}
	for _, cn := range snap.Connections {
		yd.Connections = append(yd.Connections, yamlConnection{
			OutNode: string(cn.OutNodeID),
			OutPort: int(cn.OutPortIndex),
			InNode:  string(cn.InNodeID),
			InPort:  int(cn.InPortIndex),
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yd); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}
