package main

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

// CtxKeyAnalyzer reports context.WithValue calls whose key has a builtin
// type. Such keys collide across packages.
var CtxKeyAnalyzer = &analysis.Analyzer{
	Name:     "ctxkey",
	Doc:      "reports context.WithValue keys of builtin type",
	Run:      runCtxKey,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
}

func runCtxKey(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	insp.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)

		fn, ok := typeutil.Callee(pass.TypesInfo, call).(*types.Func)
		if !ok || fn.Pkg() == nil || fn.Pkg().Path() != "context" || fn.Name() != "WithValue" || len(call.Args) != 3 {
			return
		}

		key := pass.TypesInfo.TypeOf(call.Args[1])
		if basic, ok := key.(*types.Basic); ok {
			pass.Reportf(call.Args[1].Pos(), "context key should have its own type, not %s", basic.Name())
		}
	})

	return nil, nil
}
