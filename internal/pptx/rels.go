package pptx

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Relationship: запись из .rels-части.
type Relationship struct {
	ID       string
	Type     string
	Target   string
	External bool
}

// Relationships: связи одной части пакета.
type Relationships struct {
	doc  *etree.Document
	root *etree.Element
}

func parseRelationships(doc *etree.Document) *Relationships {
	root := doc.Root()
	if root == nil {
		root = doc.CreateElement("Relationships")
		root.CreateAttr("xmlns", nsRel)
	}
	return &Relationships{doc: doc, root: root}
}

func newRelationships() *Relationships {
	doc := newXMLDocument()
	root := doc.CreateElement("Relationships")
	root.CreateAttr("xmlns", nsRel)
	return &Relationships{doc: doc, root: root}
}

func (r *Relationships) entries() []*etree.Element {
	return children(r.root, nsRel, "Relationship")
}

func toRelationship(e *etree.Element) Relationship {
	return Relationship{
		ID:       e.SelectAttrValue("Id", ""),
		Type:     e.SelectAttrValue("Type", ""),
		Target:   e.SelectAttrValue("Target", ""),
		External: strings.EqualFold(e.SelectAttrValue("TargetMode", ""), "External"),
	}
}

// All возвращает все связи в порядке объявления.
func (r *Relationships) All() []Relationship {
	var out []Relationship
	for _, e := range r.entries() {
		out = append(out, toRelationship(e))
	}
	return out
}

// Get ищет связь по идентификатору.
func (r *Relationships) Get(id string) (Relationship, bool) {
	for _, e := range r.entries() {
		if e.SelectAttrValue("Id", "") == id {
			return toRelationship(e), true
		}
	}
	return Relationship{}, false
}

// FirstOfType возвращает первую связь заданного типа.
func (r *Relationships) FirstOfType(typ string) (Relationship, bool) {
	for _, e := range r.entries() {
		if e.SelectAttrValue("Type", "") == typ {
			return toRelationship(e), true
		}
	}
	return Relationship{}, false
}

// GetOrAdd возвращает идентификатор существующей связи с теми же
// типом и целью либо добавляет новую.
func (r *Relationships) GetOrAdd(typ, target string, external bool) string {
	for _, rel := range r.All() {
		if rel.Type == typ && rel.Target == target && rel.External == external {
			return rel.ID
		}
	}
	return r.Add(typ, target, external)
}

// Add добавляет связь и возвращает её новый идентификатор rIdN.
func (r *Relationships) Add(typ, target string, external bool) string {
	id := r.nextID()
	e := r.root.CreateElement(qualify(r.root.Space, "Relationship"))
	e.CreateAttr("Id", id)
	e.CreateAttr("Type", typ)
	e.CreateAttr("Target", target)
	if external {
		e.CreateAttr("TargetMode", "External")
	}
	return id
}

func (r *Relationships) nextID() string {
	highest := 0
	for _, e := range r.entries() {
		id := e.SelectAttrValue("Id", "")
		if !strings.HasPrefix(id, "rId") {
			continue
		}
		if n, err := strconv.Atoi(id[3:]); err == nil && n > highest {
			highest = n
		}
	}
	return "rId" + strconv.Itoa(highest+1)
}
