package markdown

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindDialogue is the node kind of a Dialogue block.
var KindDialogue = ast.NewNodeKind("Dialogue")

// Dialogue is a character dialogue container written as
//
//	:::name[https://cms.example.com/files/avatar.png]{align="left"}
//	What the character says.
//	:::
//
// The bracketed image URL is required; without it the lines stay ordinary
// markdown.
type Dialogue struct {
	ast.BaseBlock
	Character string
	Image     string
	Align     string

	fence int
}

// Kind implements ast.Node.
func (n *Dialogue) Kind() ast.NodeKind {
	return KindDialogue
}

// Dump implements ast.Node.
func (n *Dialogue) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Character": n.Character,
		"Image":     n.Image,
		"Align":     n.Align,
	}, nil)
}

var (
	dialogueOpenRe = regexp.MustCompile(`^(:{3,})([A-Za-z][\w-]*)\[([^\]]*)\](?:\{([^}]*)\})?$`)
	dialogueAttrRe = regexp.MustCompile(`([\w-]+)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"']+))`)
)

type dialogueParser struct{}

func (p *dialogueParser) Trigger() []byte {
	return []byte{':'}
}

func (p *dialogueParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	_, pos := util.IndentWidth(line, reader.LineOffset())
	m := dialogueOpenRe.FindSubmatch(util.TrimRightSpace(line[pos:]))
	if m == nil {
		return nil, parser.NoChildren
	}
	src := strings.TrimSpace(string(m[3]))
	if SafeURL(src) == "" {
		return nil, parser.NoChildren
	}
	node := &Dialogue{
		Character: string(m[2]),
		Image:     src,
		Align:     dialogueAlign(string(m[4])),
		fence:     len(m[1]),
	}
	reader.Advance(segment.Len() - newlineLen(line) + segment.Padding)
	return node, parser.HasChildren
}

func (p *dialogueParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	w, pos := util.IndentWidth(line, reader.LineOffset())
	if w < 4 {
		i := pos
		for i < len(line) && line[i] == ':' {
			i++
		}
		if i-pos >= node.(*Dialogue).fence && util.IsBlank(line[i:]) {
			reader.Advance(segment.Len() - newlineLen(line) + segment.Padding)
			return parser.Close
		}
	}
	return parser.Continue | parser.HasChildren
}

func (p *dialogueParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *dialogueParser) CanInterruptParagraph() bool {
	return true
}

func (p *dialogueParser) CanAcceptIndentedLine() bool {
	return false
}

func newlineLen(line []byte) int {
	if len(line) > 0 && line[len(line)-1] == '\n' {
		return 1
	}
	return 0
}

// dialogueAlign returns "left" or "right" when attrs sets align to one of
// them.
func dialogueAlign(attrs string) string {
	for _, m := range dialogueAttrRe.FindAllStringSubmatch(attrs, -1) {
		if m[1] != "align" {
			continue
		}
		switch v := m[2] + m[3] + m[4]; v {
		case "left", "right":
			return v
		}
	}
	return ""
}

type dialogueRenderer struct{}

func (r *dialogueRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDialogue, r.render)
}

func (r *dialogueRenderer) render(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</div></aside>\n")
		return ast.WalkContinue, nil
	}
	n := node.(*Dialogue)
	class := "character-dialogue"
	if n.Align != "" {
		class += " align-" + n.Align
	}
	name := html.EscapeString(n.Character)
	fmt.Fprintf(w, `<aside aria-label="Character dialogue: %s" class="%s" data-character="%s">`, name, class, name)
	fmt.Fprintf(w, `<img class="character-dialogue-image" alt="%s" loading="lazy" src="%s" width="100">`, name, SafeURL(n.Image))
	_, _ = w.WriteString("<div class=\"character-dialogue-content\">\n")
	return ast.WalkContinue, nil
}

type dialogueExtension struct{}

// CharacterDialogue renders :::name[image] containers as character dialogue
// asides.
var CharacterDialogue goldmark.Extender = &dialogueExtension{}

func (e *dialogueExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(
		util.Prioritized(&dialogueParser{}, 750),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&dialogueRenderer{}, 500),
	))
}
