package pptx

import (
	"path"
	"strings"

	"github.com/beevik/etree"
)

const (
	nsP   = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsMC  = "http://schemas.openxmlformats.org/markup-compatibility/2006"
	nsCT  = "http://schemas.openxmlformats.org/package/2006/content-types"
	nsRel = "http://schemas.openxmlformats.org/package/2006/relationships"
)

const (
	RelTypeOfficeDocument = nsR + "/officeDocument"
	RelTypeSlide          = nsR + "/slide"
	RelTypeSlideLayout    = nsR + "/slideLayout"
	RelTypeSlideMaster    = nsR + "/slideMaster"
	RelTypeImage          = nsR + "/image"
	RelTypeHyperlink      = nsR + "/hyperlink"
	RelTypeNotesSlide     = nsR + "/notesSlide"

	ContentTypeSlide = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
)

const xmlDecl = `version="1.0" encoding="UTF-8" standalone="yes"`

func is(e *etree.Element, ns, tag string) bool {
	return e != nil && e.Tag == tag && e.NamespaceURI() == ns
}

func child(e *etree.Element, ns, tag string) *etree.Element {
	if e == nil {
		return nil
	}
	for _, c := range e.ChildElements() {
		if is(c, ns, tag) {
			return c
		}
	}
	return nil
}

func children(e *etree.Element, ns, tag string) []*etree.Element {
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if is(c, ns, tag) {
			out = append(out, c)
		}
	}
	return out
}

// prefixFor ищет префикс, под которым ns объявлен на элементе или его предках.
func prefixFor(e *etree.Element, ns, fallback string) string {
	for cur := e; cur != nil; cur = cur.Parent() {
		for _, a := range cur.Attr {
			if a.Space == "xmlns" && a.Value == ns {
				return a.Key
			}
		}
	}
	return fallback
}

func qualify(prefix, tag string) string {
	if prefix == "" {
		return tag
	}
	return prefix + ":" + tag
}

// walk обходит e и всех потомков в порядке документа.
func walk(e *etree.Element, fn func(*etree.Element)) {
	fn(e)
	for _, c := range e.ChildElements() {
		walk(c, fn)
	}
}

// insertBefore вставляет el перед первым дочерним элементом ns:tag
// или в конец, если такого нет.
func insertBefore(parent, el *etree.Element, ns, tag string) {
	if anchor := child(parent, ns, tag); anchor != nil {
		parent.InsertChildAt(anchor.Index(), el)
		return
	}
	parent.AddChild(el)
}

func newXMLDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", xmlDecl)
	return doc
}

// relsPartName: ppt/slides/slide1.xml -> ppt/slides/_rels/slide1.xml.rels
func relsPartName(partName string) string {
	dir, file := path.Split(partName)
	return dir + "_rels/" + file + ".rels"
}

// resolveTarget переводит цель связи в имя части пакета.
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return strings.TrimPrefix(path.Join(path.Dir(source), target), "/")
}

// relativeTarget строит относительную цель связи от части from к части to.
func relativeTarget(from, to string) string {
	fromDir := strings.Split(path.Dir(from), "/")
	if path.Dir(from) == "." {
		fromDir = nil
	}
	toParts := strings.Split(to, "/")

	common := 0
	for common < len(fromDir) && common < len(toParts)-1 && fromDir[common] == toParts[common] {
		common++
	}

	var b strings.Builder
	for i := common; i < len(fromDir); i++ {
		b.WriteString("../")
	}
	b.WriteString(strings.Join(toParts[common:], "/"))
	return b.String()
}
