package pptx

import (
	"strings"

	"github.com/beevik/etree"
)

// textRuns собирает элементы a:t всех текстовых фрагментов (a:r) слайда
// в порядке документа. Обходит обычные фигуры, группы и ячейки таблиц.
func (s *Slide) textRuns() []*etree.Element {
	var out []*etree.Element
	for _, shape := range s.Shapes() {
		out = collectRuns(shape, out)
	}
	return out
}

func collectRuns(shape *etree.Element, out []*etree.Element) []*etree.Element {
	switch {
	case is(shape, nsP, "sp"):
		return appendBodyRuns(child(shape, nsP, "txBody"), out)
	case is(shape, nsP, "grpSp"):
		for _, c := range shape.ChildElements() {
			if isShape(c) {
				out = collectRuns(c, out)
			}
		}
	case is(shape, nsP, "graphicFrame"):
		tbl := child(child(child(shape, nsA, "graphic"), nsA, "graphicData"), nsA, "tbl")
		if tbl == nil {
			return out
		}
		for _, tr := range children(tbl, nsA, "tr") {
			for _, tc := range children(tr, nsA, "tc") {
				out = appendBodyRuns(child(tc, nsA, "txBody"), out)
			}
		}
	}
	return out
}

func appendBodyRuns(body *etree.Element, out []*etree.Element) []*etree.Element {
	if body == nil {
		return out
	}
	for _, para := range children(body, nsA, "p") {
		for _, run := range children(para, nsA, "r") {
			if t := child(run, nsA, "t"); t != nil {
				out = append(out, t)
			}
		}
	}
	return out
}

// Text возвращает текст всех фрагментов слайда в порядке документа.
func (s *Slide) Text() []string {
	runs := s.textRuns()
	out := make([]string, 0, len(runs))
	for _, t := range runs {
		out = append(out, t.Text())
	}
	return out
}

// ReplacePlaceholders подставляет values по очереди в текстовые фрагменты слайда,
// содержащие token: каждый такой фрагмент забирает одно значение и заменяет им
// только первое вхождение. Когда значения заканчиваются, все вхождения token
// в оставшихся фрагментах заменяются пустой строкой. Возвращает число использованных значений.
func (s *Slide) ReplacePlaceholders(token string, values []string) int {
	if token == "" {
		return 0
	}

	next := 0
	for _, t := range s.textRuns() {
		text := t.Text()
		if !strings.Contains(text, token) {
			continue
		}
		if next < len(values) {
			t.SetText(strings.Replace(text, token, values[next], 1))
			next++
			continue
		}
		t.SetText(strings.ReplaceAll(text, token, ""))
	}
	return next
}
