// Package noexit содержит пользовательский анализатор,
// который запрещает прямой вызов os.Exit и log.Fatal* в функции main пакета main.
package noexit

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/types/typeutil"
)

// Analyzer запрещает os.Exit и log.Fatal* в функции main.
var Analyzer = &analysis.Analyzer{
	Name: "noexit",
	Doc:  "запрещает использовать os.Exit и log.Fatal* в функции main пакета main",
	Run:  run,
}

var forbidden = map[string]bool{
	"os.Exit":     true,
	"log.Fatal":   true,
	"log.Fatalf":  true,
	"log.Fatalln": true,
}

// NewAnalyzer возвращает анализатор noexit.
func NewAnalyzer() *analysis.Analyzer {
	return Analyzer
}

func run(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	for _, file := range pass.Files {
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Name.Name != "main" || fn.Recv != nil || fn.Body == nil {
				continue
			}

			ast.Inspect(fn.Body, func(n ast.Node) bool {
				// Замыкания внутри main проверять не нужно
				if _, ok := n.(*ast.FuncLit); ok {
					return false
				}

				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}

				callee, ok := typeutil.Callee(pass.TypesInfo, call).(*types.Func)
				if !ok || callee.Pkg() == nil {
					return true
				}
				// Методы (например, (*log.Logger).Fatal) не трогаем
				if sig, ok := callee.Type().(*types.Signature); ok && sig.Recv() != nil {
					return true
				}

				if name := callee.FullName(); forbidden[name] {
					pass.Reportf(call.Pos(), "вызов %s в функции main запрещён", name)
				}
				return true
			})
		}
	}
	return nil, nil
}
