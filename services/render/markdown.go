package rendersvc

import (
	"bytes"
	"context"

	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/eduNEXT/extemporaneous-grading/core/grading"
)

// markdownRenderer renders nested child content and author messages from
// markdown to HTML. Raw HTML in the input is escaped (WithUnsafe is NOT set),
// so authored content cannot inject script.
type markdownRenderer struct {
	md goldmark.Markdown
}

var _ grading.Renderer = (*markdownRenderer)(nil)

func NewMarkdownRenderer() *markdownRenderer {
	return &markdownRenderer{
		md: goldmark.New(
			goldmark.WithRendererOptions(
				goldmarkhtml.WithHardWraps(),
			),
		),
	}
}

func (r *markdownRenderer) RenderChild(_ context.Context, child grading.Child, _ grading.Student) (grading.Fragment, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(child.Content), &buf); err != nil {
		return grading.Fragment{}, err
	}
	return grading.Fragment{Content: buf.String()}, nil
}

func (r *markdownRenderer) RenderMessage(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
