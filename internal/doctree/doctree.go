package doctree

// Page is the root of a parsed document.
type Page struct {
	Title string         // Document title (from front matter or filename)
	Meta  map[string]any // Front matter, nil when the source had none
	Nodes []Node         // Top-level nodes in document order
}

// Kind identifies the concrete type of a Node.
type Kind int

const (
	KindText Kind = iota
	KindEmphasis
	KindExternalLink
	KindInternalLink
	KindHashTag
	KindHeading
	KindParagraph
	KindList
	KindListItem
	KindTable
	KindCodeBlock
	KindBlockQuote
	KindMath
	KindImage
)

var kindNames = [...]string{
	KindText:         "text",
	KindEmphasis:     "emphasis",
	KindExternalLink: "external_link",
	KindInternalLink: "internal_link",
	KindHashTag:      "hashtag",
	KindHeading:      "heading",
	KindParagraph:    "paragraph",
	KindList:         "list",
	KindListItem:     "list_item",
	KindTable:        "table",
	KindCodeBlock:    "code_block",
	KindBlockQuote:   "block_quote",
	KindMath:         "math",
	KindImage:        "image",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Node is one element of the tree. The set of implementations is closed.
type Node interface {
	Kind() Kind
	node()
}

// Text is a run of plain inline text.
type Text struct {
	Value string
}

// Emphasis is styled inline text. Bold carries the strength (1 for **x**).
type Emphasis struct {
	Text          string
	Bold          int
	Italic        bool
	Strikethrough bool
}

// ExternalLink points outside the document set. Title is empty when absent.
type ExternalLink struct {
	URL   string
	Title string
}

// InternalLink points at another page by title, optionally at an anchor in it.
type InternalLink struct {
	Title  string
	Anchor string
}

// HashTag is a #tag reference. Value excludes the leading '#'.
type HashTag struct {
	Value string
}

type Heading struct {
	Text  string
	Level int
}

// Paragraph is an ordered run of inline nodes.
type Paragraph struct {
	Children []Node
}

type List struct {
	Ordered bool
	Items   []*ListItem
}

type ListItem struct {
	Children []Node
}

type Table struct {
	Title  string
	Header []string
	Rows   [][]string
}

// CodeBlock holds source lines verbatim. FileName carries the fence info string.
type CodeBlock struct {
	FileName string
	Lines    []string
}

type BlockQuote struct {
	Value string
}

// Math holds unrendered math source.
type Math struct {
	Value string
}

type Image struct {
	URI string
}

func NewImage(uri string) *Image { return &Image{URI: uri} }

func NewText(v string) *Text { return &Text{Value: v} }

func (*Text) Kind() Kind         { return KindText }
func (*Emphasis) Kind() Kind     { return KindEmphasis }
func (*ExternalLink) Kind() Kind { return KindExternalLink }
func (*InternalLink) Kind() Kind { return KindInternalLink }
func (*HashTag) Kind() Kind      { return KindHashTag }
func (*Heading) Kind() Kind      { return KindHeading }
func (*Paragraph) Kind() Kind    { return KindParagraph }
func (*List) Kind() Kind         { return KindList }
func (*ListItem) Kind() Kind     { return KindListItem }
func (*Table) Kind() Kind        { return KindTable }
func (*CodeBlock) Kind() Kind    { return KindCodeBlock }
func (*BlockQuote) Kind() Kind   { return KindBlockQuote }
func (*Math) Kind() Kind         { return KindMath }
func (*Image) Kind() Kind        { return KindImage }

func (*Text) node()         {}
func (*Emphasis) node()     {}
func (*ExternalLink) node() {}
func (*InternalLink) node() {}
func (*HashTag) node()      {}
func (*Heading) node()      {}
func (*Paragraph) node()    {}
func (*List) node()         {}
func (*ListItem) node()     {}
func (*Table) node()        {}
func (*CodeBlock) node()    {}
func (*BlockQuote) node()   {}
func (*Math) node()         {}
func (*Image) node()        {}
