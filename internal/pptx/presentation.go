// Package pptx открывает презентации PowerPoint (OOXML), дублирует слайды
// и подставляет текст в текстовые фрагменты.
package pptx

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

var (
	// ErrInvalidPackage: данные не являются презентацией PowerPoint.
	ErrInvalidPackage = errors.New("not a presentation package")
	// ErrNoSlides: в презентации нет ни одного слайда.
	ErrNoSlides = errors.New("presentation has no slides")

	errPartNotFound = errors.New("part not found")
)

const (
	rootRelsPart        = "_rels/.rels"
	defaultMainPart     = "ppt/presentation.xml"
	appPropertiesPart   = "docProps/app.xml"
	minSlideID          = 256
	slidePartNameFormat = "ppt/slides/slide%d.xml"
)

var slidePartRe = regexp.MustCompile(`(?i)^ppt/slides/slide(\d+)\.xml$`)

// Presentation представляет открытую презентацию.
type Presentation struct {
	pkg    *Package
	logger *zap.Logger

	partName string
	doc      *etree.Document
	rels     *Relationships
	types    *etree.Document
	slides   []*Slide
}

// Open разбирает презентацию из байтов .pptx.
func Open(data []byte, logger *zap.Logger) (*Presentation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pkg, err := openPackage(data)
	if err != nil {
		return nil, err
	}

	types, err := pkg.XML(contentTypesPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}

	mainPart := defaultMainPart
	if rootRels, err := pkg.XML(rootRelsPart); err == nil {
		if rel, ok := parseRelationships(rootRels).FirstOfType(RelTypeOfficeDocument); ok {
			mainPart = resolveTarget("", rel.Target)
		}
	}

	doc, err := pkg.XML(mainPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	if !is(doc.Root(), nsP, "presentation") {
		return nil, fmt.Errorf("%w: %s is not a presentation part", ErrInvalidPackage, mainPart)
	}

	relsDoc, err := pkg.XML(relsPartName(mainPart))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}

	p := &Presentation{
		pkg:      pkg,
		logger:   logger,
		partName: mainPart,
		doc:      doc,
		rels:     parseRelationships(relsDoc),
		types:    types,
	}

	if err := p.loadSlides(); err != nil {
		return nil, err
	}
	if len(p.slides) == 0 {
		return nil, ErrNoSlides
	}
	return p, nil
}

func (p *Presentation) sldIDList() *etree.Element {
	return child(p.doc.Root(), nsP, "sldIdLst")
}

func (p *Presentation) loadSlides() error {
	lst := p.sldIDList()
	if lst == nil {
		return nil
	}

	for _, el := range children(lst, nsP, "sldId") {
		relID := attrNS(el, nsR, "id")
		rel, ok := p.rels.Get(relID)
		if !ok || rel.Type != RelTypeSlide {
			return fmt.Errorf("%w: slide reference %q is not resolvable", ErrInvalidPackage, relID)
		}

		slide, err := p.openSlide(resolveTarget(p.partName, rel.Target))
		if err != nil {
			return err
		}
		slide.sldID = el
		p.slides = append(p.slides, slide)
	}
	return nil
}

func (p *Presentation) openSlide(partName string) (*Slide, error) {
	doc, err := p.pkg.XML(partName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	if !is(doc.Root(), nsP, "sld") {
		return nil, fmt.Errorf("%w: %s is not a slide part", ErrInvalidPackage, partName)
	}

	rels := newRelationships()
	if relsDoc, err := p.pkg.XML(relsPartName(partName)); err == nil {
		rels = parseRelationships(relsDoc)
	}

	return &Slide{prs: p, partName: partName, doc: doc, rels: rels}, nil
}

// Slides возвращает слайды в порядке показа.
func (p *Presentation) Slides() []*Slide {
	out := make([]*Slide, len(p.slides))
	copy(out, p.slides)
	return out
}

// Save записывает презентацию в w.
func (p *Presentation) Save(w io.Writer) error {
	p.syncAppProperties()
	return p.pkg.Write(w)
}

// syncAppProperties обновляет счётчик слайдов в docProps/app.xml, если он есть.
func (p *Presentation) syncAppProperties() {
	if !p.pkg.Has(appPropertiesPart) {
		return
	}
	doc, err := p.pkg.XML(appPropertiesPart)
	if err != nil || doc.Root() == nil {
		p.logger.Debug("app properties are not readable", zap.Error(err))
		return
	}
	for _, el := range doc.Root().ChildElements() {
		if el.Tag == "Slides" {
			el.SetText(strconv.Itoa(len(p.slides)))
			return
		}
	}
}

func (p *Presentation) nextSlidePartName() string {
	highest := 0
	for _, name := range p.pkg.partNames() {
		m := slidePartRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf(slidePartNameFormat, highest+1)
}

func (p *Presentation) nextSlideID() int {
	highest := minSlideID - 1
	if lst := p.sldIDList(); lst != nil {
		for _, el := range children(lst, nsP, "sldId") {
			if n, err := strconv.Atoi(el.SelectAttrValue("id", "")); err == nil && n > highest {
				highest = n
			}
		}
	}
	return highest + 1
}

// addContentTypeOverride регистрирует тип содержимого новой части.
func (p *Presentation) addContentTypeOverride(partName, contentType string) {
	root := p.types.Root()
	el := root.CreateElement(qualify(root.Space, "Override"))
	el.CreateAttr("PartName", "/"+partName)
	el.CreateAttr("ContentType", contentType)
}

// registerSlide включает новую часть слайда в пакет и ставит её в список показа сразу после after.
func (p *Presentation) registerSlide(s *Slide, after *Slide) {
	p.pkg.SetXML(s.partName, s.doc)
	p.pkg.SetXML(relsPartName(s.partName), s.rels.doc)
	p.addContentTypeOverride(s.partName, ContentTypeSlide)

	relID := p.rels.Add(RelTypeSlide, relativeTarget(p.partName, s.partName), false)

	root := p.doc.Root()
	lst := p.sldIDList()
	if lst == nil {
		lst = etree.NewElement(qualify(root.Space, "sldIdLst"))
		insertAfterAny(root, lst, "sldMasterIdLst", "notesMasterIdLst", "handoutMasterIdLst")
	}

	el := etree.NewElement(qualify(lst.Space, "sldId"))
	el.CreateAttr("id", strconv.Itoa(p.nextSlideID()))
	el.CreateAttr(qualify(prefixFor(root, nsR, "r"), "id"), relID)
	s.sldID = el

	pos := len(p.slides)
	for i, cur := range p.slides {
		if cur == after {
			pos = i + 1
			break
		}
	}

	if pos < len(p.slides) {
		lst.InsertChildAt(p.slides[pos].sldID.Index(), el)
	} else {
		lst.AddChild(el)
	}

	p.slides = append(p.slides, nil)
	copy(p.slides[pos+1:], p.slides[pos:])
	p.slides[pos] = s
}

// insertAfterAny ставит el после последнего найденного элемента из names,
// иначе первым дочерним элементом.
func insertAfterAny(parent, el *etree.Element, names ...string) {
	idx := -1
	for _, c := range parent.ChildElements() {
		for _, n := range names {
			if is(c, nsP, n) {
				idx = c.Index()
			}
		}
	}
	parent.InsertChildAt(idx+1, el)
}

// attrNS возвращает значение атрибута из пространства имён ns.
func attrNS(e *etree.Element, ns, key string) string {
	for _, a := range e.Attr {
		if a.Key == key && a.Space != "" && a.NamespaceURI() == ns {
			return a.Value
		}
	}
	return ""
}
