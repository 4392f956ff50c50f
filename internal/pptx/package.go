package pptx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

const contentTypesPart = "[Content_Types].xml"

// part: одна запись zip-архива пакета.
// Если doc != nil, при сохранении часть сериализуется заново.
type part struct {
	name string
	file *zip.File
	doc  *etree.Document
}

// Package хранит в памяти OPC-пакет (zip с XML-частями).
type Package struct {
	parts []*part
	index map[string]*part
}

func openPackage(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}

	pkg := &Package{index: make(map[string]*part, len(zr.File))}
	for _, f := range zr.File {
		p := &part{name: f.Name, file: f}
		pkg.parts = append(pkg.parts, p)
		pkg.index[strings.ToLower(f.Name)] = p
	}
	return pkg, nil
}

// Has сообщает, есть ли в пакете часть с таким именем (без учёта регистра, как в OPC).
func (p *Package) Has(name string) bool {
	_, ok := p.index[strings.ToLower(name)]
	return ok
}

// XML возвращает разобранный документ части. Повторный вызов отдаёт тот же документ.
func (p *Package) XML(name string) (*etree.Document, error) {
	pt, ok := p.index[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("part %q: %w", name, errPartNotFound)
	}
	if pt.doc != nil {
		return pt.doc, nil
	}

	rc, err := pt.file.Open()
	if err != nil {
		return nil, fmt.Errorf("open part %q: %w", name, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read part %q: %w", name, err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("parse part %q: %w", name, err)
	}
	pt.doc = doc
	return doc, nil
}

// SetXML добавляет новую часть или заменяет содержимое существующей.
func (p *Package) SetXML(name string, doc *etree.Document) {
	if pt, ok := p.index[strings.ToLower(name)]; ok {
		pt.doc = doc
		return
	}
	pt := &part{name: name, doc: doc}
	p.parts = append(p.parts, pt)
	p.index[strings.ToLower(name)] = pt
}

// Write сериализует пакет. [Content_Types].xml всегда идёт первым,
// нетронутые части копируются без перепаковки.
func (p *Package) Write(w io.Writer) error {
	zw := zip.NewWriter(w)

	ordered := make([]*part, 0, len(p.parts))
	for _, pt := range p.parts {
		if pt.name == contentTypesPart {
			ordered = append([]*part{pt}, ordered...)
			continue
		}
		ordered = append(ordered, pt)
	}

	for _, pt := range ordered {
		if pt.doc == nil {
			if err := zw.Copy(pt.file); err != nil {
				return fmt.Errorf("copy part %q: %w", pt.name, err)
			}
			continue
		}

		fw, err := zw.CreateHeader(&zip.FileHeader{Name: pt.name, Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("create part %q: %w", pt.name, err)
		}
		if _, err := pt.doc.WriteTo(fw); err != nil {
			return fmt.Errorf("write part %q: %w", pt.name, err)
		}
	}

	return zw.Close()
}

func (p *Package) partNames() []string {
	names := make([]string, 0, len(p.parts))
	for _, pt := range p.parts {
		names = append(names, pt.name)
	}
	return names
}
