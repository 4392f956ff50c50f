// Package main запускает multichecker проекта.
//
// Он включает:
// - анализаторы go/analysis/passes (shadow, structtag, nilness, printf,
//   errorsas, httpresponse, lostcancel, unusedresult)
// - все SA-анализаторы staticcheck
// - S1000 и U1000 из staticcheck
// - bodyclose для незакрытых тел HTTP-ответов
// - собственный анализатор noexit (запрещает os.Exit и log.Fatal* в main)
//
// Запуск:
//
//	go run ./cmd/staticlint ./...
package main

import (
	"strings"

	"github.com/timakin/bodyclose/passes/bodyclose"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilness"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unusedresult"
	"honnef.co/go/tools/staticcheck"

	"github.com/sithlordsylar/PPTX-Gen-Temp/cmd/staticlint/noexit"
)

func main() {
	multichecker.Main(analyzers()...)
}

func analyzers() []*analysis.Analyzer {
	list := []*analysis.Analyzer{
		shadow.Analyzer,
		structtag.Analyzer,
		nilness.Analyzer,
		printf.Analyzer,
		errorsas.Analyzer,
		httpresponse.Analyzer,
		lostcancel.Analyzer,
		unusedresult.Analyzer,
	}

	// SA-анализаторы
	for _, a := range staticcheck.Analyzers {
		if strings.HasPrefix(a.Analyzer.Name, "SA") {
			list = append(list, a.Analyzer)
		}
	}

	// не-SA:
	if a := findAnalyzer("S1000"); a != nil {
		list = append(list, a) // упрощения
	}
	if a := findAnalyzer("U1000"); a != nil {
		list = append(list, a) // неиспользуемый код
	}

	// публичный анализатор (не из staticcheck)
	list = append(list, bodyclose.Analyzer)

	// собственный анализатор
	list = append(list, noexit.NewAnalyzer())

	return list
}

func findAnalyzer(name string) *analysis.Analyzer {
	for _, a := range staticcheck.Analyzers {
		if a.Analyzer.Name == name {
			return a.Analyzer
		}
	}
	return nil
}
