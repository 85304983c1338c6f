package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ArtifactKind discriminates the artifact union
type ArtifactKind string

const (
	ArtifactKindChart ArtifactKind = "chart"
)

// ChartType discriminates chart specs within the chart kind
type ChartType string

const (
	ChartTypeLine ChartType = "line"
)

// Artifact is a structured attachment to an assistant reply.
//
// Only the chart kind is decoded. Any other kind keeps its raw spec so it
// survives a round trip, and consumers must treat it as unsupported.
type Artifact struct {
	Kind  ArtifactKind
	Chart *ChartSpec      // set when Kind is chart and the spec decoded
	Raw   json.RawMessage // spec exactly as received
}

// ChartSpec is a line chart: one x axis and any number of aligned series
type ChartSpec struct {
	Type   ChartType `json:"type" yaml:"type"`
	X      Axis      `json:"x" yaml:"x"`
	Series []Series  `json:"series" yaml:"series"`
}

// Axis holds the category labels of the x axis
type Axis struct {
	Name   string `json:"name" yaml:"name"`
	Values Labels `json:"values" yaml:"values"`
}

// Series is one named line. A nil value is a missing point.
type Series struct {
	Name   string     `json:"name" yaml:"name"`
	Values []*float64 `json:"values" yaml:"values"`
}

// Labels are axis values. The backend sends strings, or integers when the
// chart falls back to a row index, so both decode to text.
type Labels []string

// UnmarshalJSON implements json.Unmarshaler
func (l *Labels) UnmarshalJSON(data []byte) error {
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Labels, 0, len(raw))
	for _, v := range raw {
		switch x := v.(type) {
		case string:
			out = append(out, x)
		case float64:
			out = append(out, strconv.FormatFloat(x, 'f', -1, 64))
		case bool:
			out = append(out, strconv.FormatBool(x))
		case nil:
			out = append(out, "")
		default:
			return fmt.Errorf("unsupported axis value %v", v)
		}
	}
	*l = out
	return nil
}

type artifactWire struct {
	Kind ArtifactKind    `json:"kind"`
	Spec json.RawMessage `json:"spec"`
}

// UnmarshalJSON never fails on content it does not understand: an unknown
// kind or an undecodable chart is kept as raw data.
func (a *Artifact) UnmarshalJSON(data []byte) error {
	var w artifactWire
	if err := json.Unmarshal(data, &w); err != nil {
		LogDebug("Keeping undecodable artifact as raw: %v", err)
		*a = Artifact{Raw: append(json.RawMessage(nil), data...)}
		return nil
	}
	*a = Artifact{Kind: w.Kind, Raw: w.Spec}
	if w.Kind == ArtifactKindChart && len(w.Spec) > 0 {
		var spec ChartSpec
		if err := json.Unmarshal(w.Spec, &spec); err != nil {
			LogDebug("Chart spec did not decode: %v", err)
			return nil
		}
		a.Chart = &spec
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (a Artifact) MarshalJSON() ([]byte, error) {
	spec := a.Raw
	if a.Chart != nil {
		b, err := json.Marshal(a.Chart)
		if err != nil {
			return nil, err
		}
		spec = b
	}
	if len(bytes.TrimSpace(spec)) == 0 {
		spec = json.RawMessage("null")
	}
	return json.Marshal(artifactWire{Kind: a.Kind, Spec: spec})
}

// MarshalYAML implements yaml.Marshaler
func (a Artifact) MarshalYAML() (interface{}, error) {
	out := map[string]interface{}{"kind": string(a.Kind)}
	if a.Chart != nil {
		out["spec"] = a.Chart
		return out, nil
	}
	var spec interface{}
	if len(a.Raw) > 0 {
		if err := json.Unmarshal(a.Raw, &spec); err != nil {
			spec = string(a.Raw)
		}
	}
	out["spec"] = spec
	return out, nil
}

var _ yaml.Marshaler = Artifact{}

// NewChartArtifact wraps a chart spec as an artifact
func NewChartArtifact(spec *ChartSpec) Artifact {
	return Artifact{Kind: ArtifactKindChart, Chart: spec}
}

// Validate checks that the chart is a line chart whose series all align
// with the x axis.
func (c *ChartSpec) Validate() error {
	if c.Type != ChartTypeLine {
		return fmt.Errorf("chart type %q", c.Type)
	}
	for _, s := range c.Series {
		if len(s.Values) != len(c.X.Values) {
			return fmt.Errorf("series %q has %d values for %d x values", s.Name, len(s.Values), len(c.X.Values))
		}
	}
	return nil
}

// LineChart returns the decoded chart spec, or an UnsupportedArtifactError
// when the artifact cannot be rendered as a line chart.
func (a Artifact) LineChart() (*ChartSpec, error) {
	if a.Kind != ArtifactKindChart {
		return nil, &UnsupportedArtifactError{Kind: string(a.Kind), Reason: "unknown kind"}
	}
	if a.Chart == nil {
		return nil, &UnsupportedArtifactError{Kind: string(a.Kind), Reason: "malformed spec"}
	}
	if err := a.Chart.Validate(); err != nil {
		return nil, &UnsupportedArtifactError{Kind: string(a.Kind), Reason: err.Error()}
	}
	return a.Chart, nil
}

// PartitionArtifacts splits artifacts into renderable charts and the
// reasons the rest were skipped, preserving order within each group.
func PartitionArtifacts(artifacts []Artifact) ([]*ChartSpec, []*UnsupportedArtifactError) {
	var charts []*ChartSpec
	var skipped []*UnsupportedArtifactError
	for _, a := range artifacts {
		switch a.Kind {
		case ArtifactKindChart:
			chart, err := a.LineChart()
			if err != nil {
				skipped = append(skipped, err.(*UnsupportedArtifactError))
				continue
			}
			charts = append(charts, chart)
		default:
			kind := string(a.Kind)
			if kind == "" {
				kind = "unknown"
			}
			skipped = append(skipped, &UnsupportedArtifactError{Kind: kind, Reason: "unknown kind"})
		}
	}
	return charts, skipped
}
