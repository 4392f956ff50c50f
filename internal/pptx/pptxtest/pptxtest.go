// Package pptxtest собирает минимальные .pptx-шаблоны для тестов.
package pptxtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"strings"
)

// PNG: заглушка изображения (сигнатура PNG и немного данных).
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRpptxtest")

// Template описывает первый слайд шаблона.
type Template struct {
	// Shapes: текстовые фигуры, каждая строка становится отдельным фрагментом (run) в одном абзаце.
	Shapes [][]string
	// Group: фрагменты фигуры, вложенной в группу.
	Group []string
	// Table: ячейки однострочной таблицы.
	Table []string
	// Picture добавляет изображение со связью на ppt/media/image1.png.
	Picture bool
	// BrokenPicture добавляет изображение, чья связь отсутствует в rels слайда.
	BrokenPicture bool
	// Hyperlink добавляет перед изображениями фигуру с внешней ссылкой
	// и делает изображения кликабельными по той же ссылке.
	Hyperlink bool
	// MissingMedia не кладёт ppt/media/image1.png в пакет: связь rId2 остаётся без цели.
	MissingMedia bool
	// Background переопределяет фон слайда.
	Background bool
	// Notes добавляет слайд заметок, связанный с первым слайдом.
	Notes bool
	// ExtraSlides: число дополнительных слайдов с текстом "extra N".
	ExtraSlides int
}

const (
	nsDecl = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
		`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`
	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
	relNS     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// Build возвращает байты .pptx.
func (t Template) Build() []byte {
	files := []struct{ name, body string }{
		{"[Content_Types].xml", t.contentTypes()},
		{"_rels/.rels", rels(rel{"rId1", "officeDocument", "ppt/presentation.xml", false})},
		{"docProps/app.xml", xmlHeader + fmt.Sprintf(`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"><Application>pptxtest</Application><Slides>%d</Slides></Properties>`, 1+t.ExtraSlides)},
		{"ppt/presentation.xml", t.presentation()},
		{"ppt/_rels/presentation.xml.rels", t.presentationRels()},
		{"ppt/slideMasters/slideMaster1.xml", xmlHeader + `<p:sldMaster ` + nsDecl + `><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld><p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", rels(rel{"rId1", "slideLayout", "../slideLayouts/slideLayout1.xml", false})},
		{"ppt/slideLayouts/slideLayout1.xml", xmlHeader + `<p:sldLayout ` + nsDecl + `><p:cSld name="Blank"><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld></p:sldLayout>`},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", rels(rel{"rId1", "slideMaster", "../slideMasters/slideMaster1.xml", false})},
		{"ppt/slides/slide1.xml", t.firstSlide()},
		{"ppt/slides/_rels/slide1.xml.rels", t.firstSlideRels()},
	}
	if !t.MissingMedia {
		files = append(files, struct{ name, body string }{"ppt/media/image1.png", string(PNG)})
	}
	for i := 0; i < t.ExtraSlides; i++ {
		n := i + 2
		files = append(files,
			struct{ name, body string }{fmt.Sprintf("ppt/slides/slide%d.xml", n), slide(textShape(2, fmt.Sprintf("extra %d", n-1)))},
			struct{ name, body string }{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), rels(rel{"rId1", "slideLayout", "../slideLayouts/slideLayout1.xml", false})},
		)
	}
	if t.Notes {
		files = append(files, struct{ name, body string }{"ppt/notesSlides/notesSlide1.xml", xmlHeader + `<p:notes ` + nsDecl + `><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld></p:notes>`})
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(f.body)); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

type rel struct {
	id, typ, target string
	external        bool
}

func rels(items ...rel) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range items {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s/%s" Target="%s"`, r.id, relNS, r.typ, html.EscapeString(r.target))
		if r.external {
			b.WriteString(` TargetMode="External"`)
		}
		b.WriteString(`/>`)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func (t Template) contentTypes() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	b.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	b.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	b.WriteString(`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>`)
	for i := 1; i <= 1+t.ExtraSlides; i++ {
		fmt.Fprintf(&b, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i)
	}
	if t.Notes {
		b.WriteString(`<Override PartName="/ppt/notesSlides/notesSlide1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.notesSlide+xml"/>`)
	}
	b.WriteString(`</Types>`)
	return b.String()
}

func (t Template) presentation() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<p:presentation ` + nsDecl + `>`)
	b.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	b.WriteString(`<p:sldIdLst>`)
	for i := 0; i <= t.ExtraSlides; i++ {
		fmt.Fprintf(&b, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+2)
	}
	b.WriteString(`</p:sldIdLst>`)
	b.WriteString(`<p:sldSz cx="9144000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/>`)
	b.WriteString(`</p:presentation>`)
	return b.String()
}

func (t Template) presentationRels() string {
	items := []rel{{"rId1", "slideMaster", "slideMasters/slideMaster1.xml", false}}
	for i := 0; i <= t.ExtraSlides; i++ {
		items = append(items, rel{fmt.Sprintf("rId%d", i+2), "slide", fmt.Sprintf("slides/slide%d.xml", i+1), false})
	}
	return rels(items...)
}

func (t Template) firstSlide() string {
	var shapes strings.Builder
	id := 2
	for _, runs := range t.Shapes {
		shapes.WriteString(textShape(id, runs...))
		id++
	}
	if len(t.Group) > 0 {
		fmt.Fprintf(&shapes, `<p:grpSp><p:nvGrpSpPr><p:cNvPr id="%d" name="Group"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>%s</p:grpSp>`, id, textShape(id+1, t.Group...))
		id += 2
	}
	if len(t.Table) > 0 {
		fmt.Fprintf(&shapes, `<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="%d" name="Table"/><p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr><p:xfrm><a:off x="0" y="0"/><a:ext cx="100" cy="100"/></p:xfrm><a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/table"><a:tbl><a:tr h="100">`, id)
		for _, cell := range t.Table {
			fmt.Fprintf(&shapes, `<a:tc><a:txBody><a:bodyPr/><a:p><a:r><a:t>%s</a:t></a:r></a:p></a:txBody></a:tc>`, html.EscapeString(cell))
		}
		shapes.WriteString(`</a:tr></a:tbl></a:graphicData></a:graphic></p:graphicFrame>`)
		id++
	}
	if t.Hyperlink {
		fmt.Fprintf(&shapes, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Link"><a:hlinkClick r:id="rId3"/></p:cNvPr><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:p><a:r><a:t>link</a:t></a:r></a:p></p:txBody></p:sp>`, id)
		id++
	}
	if t.Picture {
		shapes.WriteString(t.picture(id, "rId2"))
		id++
	}
	if t.BrokenPicture {
		shapes.WriteString(t.picture(id, "rId99"))
	}

	body := shapes.String()
	if t.Background {
		return slideWithBackground(body)
	}
	return slide(body)
}

func (t Template) firstSlideRels() string {
	items := []rel{
		{"rId1", "slideLayout", "../slideLayouts/slideLayout1.xml", false},
		{"rId2", "image", "../media/image1.png", false},
	}
	if t.Hyperlink {
		items = append(items, rel{"rId3", "hyperlink", "https://example.com/?a=1&b=2", true})
	}
	if t.Notes {
		items = append(items, rel{"rId4", "notesSlide", "../notesSlides/notesSlide1.xml", false})
	}
	return rels(items...)
}

func slide(shapes string) string {
	return xmlHeader + `<p:sld ` + nsDecl + `><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
		shapes + `</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`
}

func slideWithBackground(shapes string) string {
	return xmlHeader + `<p:sld ` + nsDecl + `><p:cSld><p:bg><p:bgPr><a:blipFill><a:blip r:embed="rId2"/><a:stretch><a:fillRect/></a:stretch></a:blipFill><a:effectLst/></p:bgPr></p:bg><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
		shapes + `</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`
}

func textShape(id int, runs ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Text %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/><a:p>`, id, id)
	for _, r := range runs {
		fmt.Fprintf(&b, `<a:r><a:rPr lang="en-US" dirty="0"/><a:t>%s</a:t></a:r>`, html.EscapeString(r))
	}
	b.WriteString(`</a:p></p:txBody></p:sp>`)
	return b.String()
}

func (t Template) picture(id int, relID string) string {
	cNvPr := fmt.Sprintf(`<p:cNvPr id="%d" name="Picture %d"/>`, id, id)
	if t.Hyperlink {
		cNvPr = fmt.Sprintf(`<p:cNvPr id="%d" name="Picture %d"><a:hlinkClick r:id="rId3"/></p:cNvPr>`, id, id)
	}
	return fmt.Sprintf(`<p:pic><p:nvPicPr>%s<p:cNvPicPr/><p:nvPr/></p:nvPicPr><p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill><p:spPr><a:xfrm rot="5400000"><a:off x="10" y="20"/><a:ext cx="30" cy="40"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`, cNvPr, relID)
}
