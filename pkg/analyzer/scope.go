package analyzer

import (
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
)

// ScopeKind discriminates the node kinds of a scope tree.
type ScopeKind string

const (
	FunctionScope ScopeKind = "function"
	TypeScope     ScopeKind = "type"
)

// ScopeNode is one function or type declaration span in a source file.
// For methods, Receiver carries the receiver type name, which plays the
// role the class name plays in class-based languages.
type ScopeNode struct {
	Kind      ScopeKind
	Name      string
	Receiver  string
	StartLine int
	EndLine   int
}

// ScopeTree holds the scope spans of one source file, sorted by start line
// so containment queries can binary-search.
type ScopeTree struct {
	nodes []*ScopeNode
}

// ParseScopes parses a Go source file and collects its function and type
// declaration spans.
func ParseScopes(filename string) (*ScopeTree, error) {
	fset := token.NewFileSet()
	parsedFile, err := parser.ParseFile(fset, filename, nil, 0)
	if err != nil {
		return nil, err
	}
	return buildScopeTree(fset, parsedFile), nil
}

func buildScopeTree(fset *token.FileSet, file *ast.File) *ScopeTree {
	tree := &ScopeTree{}

	ast.Inspect(file, func(node ast.Node) bool {
		switch n := node.(type) {
		case *ast.FuncDecl:
			start := fset.Position(n.Pos())
			end := fset.Position(n.End())
			tree.nodes = append(tree.nodes, &ScopeNode{
				Kind:      FunctionScope,
				Name:      n.Name.Name,
				Receiver:  receiverName(n),
				StartLine: start.Line,
				EndLine:   end.Line,
			})
		case *ast.TypeSpec:
			switch n.Type.(type) {
			case *ast.StructType, *ast.InterfaceType:
				start := fset.Position(n.Pos())
				end := fset.Position(n.End())
				tree.nodes = append(tree.nodes, &ScopeNode{
					Kind:      TypeScope,
					Name:      n.Name.Name,
					StartLine: start.Line,
					EndLine:   end.Line,
				})
			}
		}
		return true
	})

	sort.Slice(tree.nodes, func(i, j int) bool {
		ni, nj := tree.nodes[i], tree.nodes[j]
		if ni.StartLine != nj.StartLine {
			return ni.StartLine < nj.StartLine
		}
		return ni.EndLine < nj.EndLine
	})

	return tree
}

func receiverName(f *ast.FuncDecl) string {
	if f.Recv == nil || len(f.Recv.List) == 0 {
		return ""
	}
	return exprName(f.Recv.List[0].Type)
}

func exprName(x ast.Expr) string {
	switch y := x.(type) {
	case *ast.StarExpr:
		return exprName(y.X)
	case *ast.IndexExpr:
		return exprName(y.X)
	case *ast.Ident:
		return y.Name
	default:
		return ""
	}
}

// Functions returns the function scopes in declaration order.
func (t *ScopeTree) Functions() []*ScopeNode {
	var funcs []*ScopeNode
	for _, n := range t.nodes {
		if n.Kind == FunctionScope {
			funcs = append(funcs, n)
		}
	}
	return funcs
}

// Enclosing finds the smallest function and type scope containing the given
// line. It binary-searches the sorted spans for the first candidate, then
// scans the containing spans backwards, preferring the tightest interval.
func (t *ScopeTree) Enclosing(line int) (functionName, typeName string) {
	idx := sort.Search(len(t.nodes), func(i int) bool {
		return t.nodes[i].StartLine > line
	})

	bestFunc := -1
	bestType := -1
	for i := idx - 1; i >= 0; i-- {
		node := t.nodes[i]
		if node.StartLine > line || node.EndLine < line {
			continue
		}
		switch node.Kind {
		case FunctionScope:
			if bestFunc < 0 || span(node) < span(t.nodes[bestFunc]) {
				bestFunc = i
			}
		case TypeScope:
			if bestType < 0 || span(node) < span(t.nodes[bestType]) {
				bestType = i
			}
		}
	}

	if bestFunc >= 0 {
		fn := t.nodes[bestFunc]
		functionName = fn.Name
		typeName = fn.Receiver
	}
	if typeName == "" && bestType >= 0 {
		typeName = t.nodes[bestType].Name
	}
	return functionName, typeName
}

func span(n *ScopeNode) int {
	return n.EndLine - n.StartLine
}
