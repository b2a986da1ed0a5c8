package parser

import (
	"bytes"
	"io"

	"gopkg.in/yaml.v3"

	"yqhp/pipeline-engine/pkg/types"
)

// YAMLPrinter 把流水线写回规范化的 YAML：步骤一律展开为 mapping 形式，
// 从文件加载的流水线在文档头部注明来源路径。
type YAMLPrinter struct {
	indent int
}

// NewYAMLPrinter creates a printer with two-space indentation.
func NewYAMLPrinter() *YAMLPrinter {
	return &YAMLPrinter{indent: 2}
}

// WithIndent sets the indentation width.
func (p *YAMLPrinter) WithIndent(spaces int) *YAMLPrinter {
	p.indent = spaces
	return p
}

// Print renders pipeline to bytes.
func (p *YAMLPrinter) Print(pipeline *types.Pipeline) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Fprint(&buf, pipeline); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Fprint renders pipeline to w.
func (p *YAMLPrinter) Fprint(w io.Writer, pipeline *types.Pipeline) error {
	var body yaml.Node
	if err := body.Encode(pipeline); err != nil {
		return NewParseError(0, 0, "failed to encode pipeline "+pipeline.Name, err)
	}
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{&body}}
	if pipeline.Source != "" {
		doc.HeadComment = "source: " + pipeline.Source
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(p.indent)
	if err := enc.Encode(doc); err != nil {
		return NewParseError(0, 0, "failed to write pipeline "+pipeline.Name, err)
	}
	return enc.Close()
}
