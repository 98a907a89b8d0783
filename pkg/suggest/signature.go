package suggest

import (
	"go/ast"
	"go/parser"
	"go/token"
)

// Param is one parameter of an analyzed function signature.
type Param struct {
	Name string
	Type string
}

// FuncSignature describes a function or method found in a source file,
// enough to fill in test skeletons for it.
type FuncSignature struct {
	Name     string
	Receiver string
	Params   []Param
	Results  int
	// ReturnsError reports whether the last result is an error.
	ReturnsError bool
}

// fileStructure summarizes the declarations of a source file for the
// missing-test-file scan.
type fileStructure struct {
	functions []string
	types     []string
	sigs      map[string]*FuncSignature
}

func (fs *fileStructure) complexity() int {
	return len(fs.functions) + len(fs.types)
}

// parseFileStructure parses a Go source file and collects the declared
// functions, struct and interface types, and function signatures.
func parseFileStructure(filename string) (*fileStructure, error) {
	fset := token.NewFileSet()
	parsedFile, err := parser.ParseFile(fset, filename, nil, 0)
	if err != nil {
		return nil, err
	}

	fs := &fileStructure{sigs: make(map[string]*FuncSignature)}

	ast.Inspect(parsedFile, func(node ast.Node) bool {
		switch n := node.(type) {
		case *ast.FuncDecl:
			sig := signatureOf(n)
			fs.functions = append(fs.functions, sig.Name)
			fs.sigs[sigKey(sig.Receiver, sig.Name)] = sig
		case *ast.TypeSpec:
			switch n.Type.(type) {
			case *ast.StructType, *ast.InterfaceType:
				fs.types = append(fs.types, n.Name.Name)
			}
		}
		return true
	})

	return fs, nil
}

// signature finds the signature of a function or method. The receiver plays
// the role a class plays elsewhere; an empty receiver matches plain functions.
func (fs *fileStructure) signature(receiver, name string) *FuncSignature {
	if name == "" {
		return nil
	}
	if sig, ok := fs.sigs[sigKey(receiver, name)]; ok {
		return sig
	}
	// Gaps inside struct literals attribute a type but no method; fall back
	// to the bare function of that name.
	return fs.sigs[sigKey("", name)]
}

func sigKey(receiver, name string) string {
	if receiver == "" {
		return name
	}
	return receiver + "." + name
}

func signatureOf(f *ast.FuncDecl) *FuncSignature {
	sig := &FuncSignature{Name: f.Name.Name}

	if f.Recv != nil && len(f.Recv.List) > 0 {
		sig.Receiver = typeText(f.Recv.List[0].Type)
	}

	if f.Type.Params != nil {
		for _, field := range f.Type.Params.List {
			typ := typeText(field.Type)
			if len(field.Names) == 0 {
				sig.Params = append(sig.Params, Param{Type: typ})
				continue
			}
			for _, name := range field.Names {
				sig.Params = append(sig.Params, Param{Name: name.Name, Type: typ})
			}
		}
	}

	if f.Type.Results != nil {
		sig.Results = f.Type.Results.NumFields()
		if n := len(f.Type.Results.List); n > 0 {
			sig.ReturnsError = typeText(f.Type.Results.List[n-1].Type) == "error"
		}
	}

	return sig
}

func typeText(x ast.Expr) string {
	switch y := x.(type) {
	case *ast.StarExpr:
		return typeText(y.X)
	case *ast.IndexExpr:
		return typeText(y.X)
	case *ast.SelectorExpr:
		return typeText(y.X) + "." + y.Sel.Name
	case *ast.ArrayType:
		return "[]" + typeText(y.Elt)
	case *ast.MapType:
		return "map[" + typeText(y.Key) + "]" + typeText(y.Value)
	case *ast.Ellipsis:
		return "..." + typeText(y.Elt)
	case *ast.Ident:
		return y.Name
	default:
		return ""
	}
}
