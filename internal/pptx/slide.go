package pptx

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// Slide представляет один слайд презентации.
type Slide struct {
	prs      *Presentation
	partName string
	doc      *etree.Document
	rels     *Relationships
	sldID    *etree.Element
}

// PartName возвращает имя части слайда в пакете, например ppt/slides/slide1.xml.
func (s *Slide) PartName() string {
	return s.partName
}

// Relationships возвращает связи слайда.
func (s *Slide) Relationships() *Relationships {
	return s.rels
}

func (s *Slide) commonData() *etree.Element {
	return child(s.doc.Root(), nsP, "cSld")
}

func (s *Slide) shapeTree() *etree.Element {
	return child(s.commonData(), nsP, "spTree")
}

func (s *Slide) background() *etree.Element {
	return child(s.commonData(), nsP, "bg")
}

var shapeTags = map[string]bool{
	"sp":           true,
	"grpSp":        true,
	"graphicFrame": true,
	"cxnSp":        true,
	"pic":          true,
	"contentPart":  true,
}

func isShape(e *etree.Element) bool {
	switch e.NamespaceURI() {
	case nsP:
		return shapeTags[e.Tag]
	case nsMC:
		return e.Tag == "AlternateContent"
	}
	return false
}

func isPicture(e *etree.Element) bool {
	return is(e, nsP, "pic")
}

// Shapes возвращает элементы фигур верхнего уровня в порядке документа.
func (s *Slide) Shapes() []*etree.Element {
	tree := s.shapeTree()
	if tree == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range tree.ChildElements() {
		if isShape(c) {
			out = append(out, c)
		}
	}
	return out
}

// DuplicateSlide создаёт копию src на том же макете и ставит её сразу после src.
//
// Фигуры переносятся по одной. Для изображений копия получает собственные
// связи на те же части-картинки; если связь восстановить не удалось,
// элемент копируется как есть без неразрешённых ссылок. Остальные фигуры копируются целиком.
func (p *Presentation) DuplicateSlide(src *Slide) (*Slide, error) {
	layout, ok := src.rels.FirstOfType(RelTypeSlideLayout)
	if !ok {
		return nil, fmt.Errorf("%w: slide %s has no layout", ErrInvalidPackage, src.partName)
	}

	name := p.nextSlidePartName()
	dst := &Slide{
		prs:      p,
		partName: name,
		doc:      newSlideDocument(src.doc.Root()),
		rels:     newRelationships(),
	}
	dst.rels.Add(RelTypeSlideLayout, layout.Target, false)

	if bg := src.background(); bg != nil {
		clone := bg.Copy()
		dst.commonData().InsertChildAt(0, clone)
		if err := dst.relink(src, clone); err != nil {
			p.logger.Debug("background relationship not copied",
				zap.String("slide", src.partName), zap.Error(err))
			dst.relinkResolved(src, clone)
		}
	}

	tree := dst.shapeTree()
	for _, shape := range src.Shapes() {
		clone := shape.Copy()
		// Префиксы атрибутов разрешаются только внутри документа
		insertBefore(tree, clone, nsP, "extLst")
		if err := dst.relink(src, clone); err != nil {
			if isPicture(shape) {
				p.logger.Warn("Image copy failed, falling back to raw XML copy",
					zap.String("slide", src.partName), zap.Error(err))
			} else {
				p.logger.Debug("shape relationship not copied",
					zap.String("slide", src.partName), zap.Error(err))
			}
			dst.relinkResolved(src, clone)
		}
	}

	p.registerSlide(dst, src)
	return dst, nil
}

// newSlideDocument строит пустой слайд с объявлениями пространств имён
// и свойствами дерева фигур исходного слайда.
func newSlideDocument(srcRoot *etree.Element) *etree.Document {
	doc := newXMLDocument()
	root := doc.CreateElement(srcRoot.FullTag())
	for _, a := range srcRoot.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") || a.Key == "Ignorable" {
			root.CreateAttr(a.FullKey(), a.Value)
		}
	}

	pp := root.Space
	cSld := root.CreateElement(qualify(pp, "cSld"))
	tree := cSld.CreateElement(qualify(pp, "spTree"))

	srcCSld := child(srcRoot, nsP, "cSld")
	if srcTree := child(srcCSld, nsP, "spTree"); srcTree != nil {
		for _, c := range srcTree.ChildElements() {
			if is(c, nsP, "nvGrpSpPr") || is(c, nsP, "grpSpPr") {
				tree.AddChild(c.Copy())
			}
		}
	}
	if child(tree, nsP, "nvGrpSpPr") == nil {
		nv := etree.NewElement(qualify(pp, "nvGrpSpPr"))
		cNvPr := nv.CreateElement(qualify(pp, "cNvPr"))
		cNvPr.CreateAttr("id", "1")
		cNvPr.CreateAttr("name", "")
		nv.CreateElement(qualify(pp, "cNvGrpSpPr"))
		nv.CreateElement(qualify(pp, "nvPr"))
		tree.InsertChildAt(0, nv)
		tree.CreateElement(qualify(pp, "grpSpPr"))
	}

	if clr := child(srcRoot, nsP, "clrMapOvr"); clr != nil {
		root.AddChild(clr.Copy())
	} else {
		clr := root.CreateElement(qualify(pp, "clrMapOvr"))
		clr.CreateElement(qualify(prefixFor(srcRoot, nsA, "a"), "masterClrMapping"))
	}
	return doc
}

// relink переносит связи, на которые ссылается el (r:embed, r:link, r:id),
// из src в s и переписывает идентификаторы. Если хотя бы одну ссылку
// разрешить не удалось, возвращает ошибку и не меняет ни el, ни связи s.
func (s *Slide) relink(src *Slide, el *etree.Element) error {
	resolved, missing := s.resolveRefs(src, el)
	if len(missing) > 0 {
		return fmt.Errorf("unresolved relationships in %s: %s", src.partName, strings.Join(missing, ", "))
	}
	s.rewriteRefs(el, resolved)
	return nil
}

// relinkResolved переносит только разрешимые ссылки el. Атрибуты с
// неразрешёнными ссылками удаляются: старый rId в копии мог бы указать на чужую связь.
func (s *Slide) relinkResolved(src *Slide, el *etree.Element) {
	resolved, _ := s.resolveRefs(src, el)
	s.rewriteRefs(el, resolved)
}

func isRelRef(a etree.Attr) bool {
	return a.Space != "" && a.NamespaceURI() == nsR
}

// resolveRefs находит в src связи для всех ссылок el, ничего не изменяя.
func (s *Slide) resolveRefs(src *Slide, el *etree.Element) (map[string]Relationship, []string) {
	resolved := make(map[string]Relationship)
	var missing []string
	seen := make(map[string]bool)

	walk(el, func(e *etree.Element) {
		for _, a := range e.Attr {
			if !isRelRef(a) || seen[a.Value] {
				continue
			}
			seen[a.Value] = true

			rel, ok := src.rels.Get(a.Value)
			if !ok {
				missing = append(missing, a.Value)
				continue
			}
			if !rel.External && !s.prs.pkg.Has(resolveTarget(src.partName, rel.Target)) {
				missing = append(missing, a.Value+" -> "+rel.Target)
				continue
			}
			resolved[a.Value] = rel
		}
	})
	return resolved, missing
}

// rewriteRefs добавляет в s связи из resolved и переписывает ссылки el на новые
// идентификаторы. Ссылки, которых нет в resolved, удаляются.
func (s *Slide) rewriteRefs(el *etree.Element, resolved map[string]Relationship) {
	ids := make(map[string]string, len(resolved))

	walk(el, func(e *etree.Element) {
		kept := e.Attr[:0]
		for _, a := range e.Attr {
			if !isRelRef(a) {
				kept = append(kept, a)
				continue
			}
			rel, ok := resolved[a.Value]
			if !ok {
				continue
			}
			id, ok := ids[a.Value]
			if !ok {
				id = s.rels.GetOrAdd(rel.Type, rel.Target, rel.External)
				ids[a.Value] = id
			}
			a.Value = id
			kept = append(kept, a)
		}
		e.Attr = kept
	})
}
