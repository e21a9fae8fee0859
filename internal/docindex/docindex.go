// Package docindex builds the navigation index of the world datatypes in
// the tree format used by generated HTML documentation.
package docindex

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	serrors "github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/world"
)

// ErrInvalidIndex wraps every problem reported by Validate.
var ErrInvalidIndex = errors.New("invalid documentation index")

// Entry is one node of the index. Types link to their own page and name
// the index of their members in Ref. Enumerations link to an anchor on the
// file page and list their values as Children.
type Entry struct {
	Name     string
	Page     string
	Anchor   string
	Ref      string
	Children []Entry
}

// URL returns the page with its anchor, if any.
func (e Entry) URL() string {
	if e.Anchor == "" {
		return e.Page
	}
	return e.Page + "#" + e.Anchor
}

// Options names the namespace and source file the index describes.
type Options struct {
	Namespace string
	File      string
}

// DefaultOptions describes package world.
func DefaultOptions() Options {
	return Options{Namespace: "world", File: "internal/world/world.go"}
}

// VarName returns the variable name the index is rendered into.
func (o Options) VarName() string {
	return EscapeName(o.File)
}

// EscapeName converts a symbol or path into a documentation file name:
// '/' becomes _2, '.' becomes _8, ':' becomes _1, '_' is doubled and
// upper case letters become '_' plus the lower case letter.
func EscapeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '/':
			b.WriteString("_2")
		case r == '.':
			b.WriteString("_8")
		case r == ':':
			b.WriteString("_1")
		case r == '_':
			b.WriteString("__")
		case r == ' ':
			b.WriteString("_01")
		case r >= 'A' && r <= 'Z':
			b.WriteByte('_')
			b.WriteRune(r - 'A' + 'a')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hash(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// EnumAnchor returns the anchor of an enumeration declared in namespace.
func EnumAnchor(namespace, enum string) string {
	return "a" + hash(namespace+"::"+enum)
}

// ValueAnchor returns the anchor of one value of the enumeration whose
// anchor is enumAnchor.
func ValueAnchor(enumAnchor, value string) string {
	return enumAnchor + "a" + hash(value)
}

func typeEntry(o Options, name string) Entry {
	ref := "struct" + EscapeName(o.Namespace+"::"+name)
	return Entry{Name: name, Page: ref + ".html", Ref: ref}
}

func enumEntry(o Options, name string, values []string) Entry {
	page := EscapeName(o.File) + ".html"
	anchor := EnumAnchor(o.Namespace, name)
	e := Entry{Name: name, Page: page, Anchor: anchor, Children: []Entry{}}
	for _, v := range values {
		e.Children = append(e.Children, Entry{Name: v, Page: page, Anchor: ValueAnchor(anchor, v)})
	}
	return e
}

// Index builds the index of the world datatypes: BoundarySpec, WorldSpec
// and WorldParams followed by the BoundaryClass and RockProperty
// enumerations with every value in declaration order.
func Index(o Options) []Entry {
	var props []string
	for p := world.Density; p <= world.ResistivityZ; p++ {
		props = append(props, p.String())
	}
	var classes []string
	for _, c := range []world.BoundaryClass{world.Normal, world.Warped} {
		name := c.String()
		classes = append(classes, strings.ToUpper(name[:1])+name[1:])
	}
	return []Entry{
		typeEntry(o, "BoundarySpec"),
		typeEntry(o, "WorldSpec"),
		typeEntry(o, "WorldParams"),
		enumEntry(o, "BoundaryClass", classes),
		enumEntry(o, "RockProperty", props),
	}
}

// WorldIndex builds the index for package world.
func WorldIndex() []Entry {
	return Index(DefaultOptions())
}

// Validate checks that every entry has a name and a page and that no two
// entries share an anchor on the same page.
func Validate(entries []Entry) error {
	ec := serrors.NewErrorCollector()
	seen := map[string]string{}
	var walk func(path string, es []Entry)
	walk = func(path string, es []Entry) {
		for i, e := range es {
			field := fmt.Sprintf("%sentry", path)
			if strings.TrimSpace(e.Name) == "" {
				ec.Addf(field, i+1, "empty display name")
			}
			if e.Page == "" {
				ec.Addf(field, i+1, "%q has no page", e.Name)
			}
			if e.Anchor != "" {
				key := e.URL()
				if prev, ok := seen[key]; ok {
					ec.Addf(field, i+1, "%q reuses the anchor of %q", e.Name, prev)
				} else {
					seen[key] = e.Name
				}
			}
			if len(e.Children) > 0 {
				walk(e.Name+" ", e.Children)
			}
		}
	}
	walk("", entries)
	if err := ec.Err(); err != nil {
		return errors.Join(ErrInvalidIndex, err)
	}
	return nil
}

// Render writes entries as a JavaScript navigation tree assigned to
// varName.
func Render(w io.Writer, varName string, entries []Entry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "var %s =\n[\n", varName)
	renderEntries(&b, entries, 4)
	b.WriteString("];\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func renderEntries(b *strings.Builder, entries []Entry, indent int) {
	pad := strings.Repeat(" ", indent)
	for i, e := range entries {
		fmt.Fprintf(b, "%s[ %s, %s, ", pad, jsString(e.Name), jsString(e.URL()))
		switch {
		case e.Children != nil:
			b.WriteString("[\n")
			renderEntries(b, e.Children, indent+2)
			b.WriteString(pad + "] ]")
		case e.Ref != "":
			fmt.Fprintf(b, "%s ]", jsString(e.Ref))
		default:
			b.WriteString("null ]")
		}
		if i < len(entries)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
}

// jsString quotes s as a JSON string, which is also a valid JavaScript
// string literal.
func jsString(s string) string {
	out, _ := json.Marshal(s)
	return string(out)
}
