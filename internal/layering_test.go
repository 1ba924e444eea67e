package layering_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

const module = "github.com/comalice/chartkit/internal/"

// allowed lists the internal packages each package may import. The engine
// core must not depend on adapters.
var allowed = map[string][]string{
	"primitives":    nil,
	"log":           nil,
	"core":          {"primitives", "log"},
	"extensibility": {"core", "primitives", "log"},
	"production":    {"core", "primitives", "log"},
}

func TestInternalLayering(t *testing.T) {
	for pkg, deps := range allowed {
		t.Run(pkg, func(t *testing.T) {
			files, err := filepath.Glob(filepath.Join(pkg, "*.go"))
			if err != nil {
				t.Fatal(err)
			}
			if len(files) == 0 {
				t.Fatalf("no sources in %s", pkg)
			}
			ok := map[string]bool{}
			for _, d := range deps {
				ok[d] = true
			}
			fset := token.NewFileSet()
			for _, fn := range files {
				if strings.HasSuffix(fn, "_test.go") {
					continue
				}
				src, err := os.ReadFile(fn)
				if err != nil {
					t.Fatal(err)
				}
				f, err := parser.ParseFile(fset, fn, src, parser.ImportsOnly)
				if err != nil {
					t.Fatalf("parse %s: %v", fn, err)
				}
				for _, imp := range f.Imports {
					path, _ := strconv.Unquote(imp.Path.Value)
					dep, found := strings.CutPrefix(path, module)
					if found && !ok[dep] {
						t.Errorf("%s imports %s", fn, path)
					}
				}
			}
		})
	}
}
