// Package codegen lowers a parsed program to x86-64 assembly using a
// stack-slot model: every local lives at a fixed offset from %rbp and
// every expression leaves its value in %rax.
package codegen

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/raymyers/stackcc/pkg/asm"
	"github.com/raymyers/stackcc/pkg/ast"
)

// ErrUnsupported is wrapped by the error Run returns in strict mode
var ErrUnsupported = errors.New("unsupported construct")

// Options controls code generation
type Options struct {
	// Strict makes Run fail when a construct had to be skipped
	Strict bool
}

// Generator holds the state of one Generate call. A Generator may be
// reused; each Generate starts from scratch.
type Generator struct {
	opts Options

	prog    *ast.Program
	out     *asm.Program
	globals map[string]ast.Type
	consts  map[string]int64
	labels  int
	skipped []string
	offsets map[string]map[string]int

	// per function
	fn        *ast.Function
	code      *asm.Function
	frame     *frame
	depth     int // values pushed by expression evaluation
	breaks    []asm.Label
	continues []asm.Label
	userLbls  map[string]asm.Label
}

// New creates a generator
func New(opts Options) *Generator {
	return &Generator{opts: opts}
}

// Generate returns the assembly text for prog. It never fails: constructs
// the backend cannot lower are skipped and reported by Unsupported.
func Generate(prog *ast.Program) string {
	return New(Options{}).Generate(prog)
}

// GenerateStrict is Generate with every skipped construct turned into an
// error
func GenerateStrict(prog *ast.Program) (string, error) {
	return New(Options{Strict: true}).Run(prog)
}

// Generate lowers prog and prints it
func (g *Generator) Generate(prog *ast.Program) string {
	var buf bytes.Buffer
	asm.NewPrinter(&buf).PrintProgram(g.Lower(prog))
	return buf.String()
}

// Run is Generate under the Options policy
func (g *Generator) Run(prog *ast.Program) (string, error) {
	text := g.Generate(prog)
	if g.opts.Strict && len(g.skipped) > 0 {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, strings.Join(g.skipped, "; "))
	}
	return text, nil
}

// Unsupported lists the constructs skipped by the last Generate
func (g *Generator) Unsupported() []string {
	return g.skipped
}

// Offsets returns the frame offsets assigned to the locals and
// parameters of function name by the last Generate. A name declared more
// than once keeps its first offset.
func (g *Generator) Offsets(name string) map[string]int {
	return g.offsets[name]
}

// Lower translates prog into the assembly model
func (g *Generator) Lower(prog *ast.Program) *asm.Program {
	g.prog = prog
	g.out = &asm.Program{}
	g.globals = make(map[string]ast.Type)
	g.consts = make(map[string]int64)
	g.labels = 0
	g.skipped = nil
	g.offsets = make(map[string]map[string]int)

	for _, f := range prog.Functions {
		g.globals[f.Name] = &ast.FuncType{Return: f.ReturnType, Params: f.Params, IsVariadic: f.IsVariadic}
	}
	for _, s := range prog.Globals {
		g.global(s)
	}
	for _, f := range prog.Functions {
		if f.IsExternal {
			continue
		}
		g.function(f)
	}
	return g.out
}

// skip records a construct that was not lowered
func (g *Generator) skip(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if g.fn != nil {
		msg = g.fn.Name + ": " + msg
	}
	g.skipped = append(g.skipped, msg)
}

// label returns a fresh local label of the given kind
func (g *Generator) label(kind string) asm.Label {
	l := asm.Label(fmt.Sprintf(".L%s_%d", kind, g.labels))
	g.labels++
	return l
}

// str places a string literal in the cstring section
func (g *Generator) str(s string) string {
	name := fmt.Sprintf("L.str.%d", len(g.out.Strings))
	g.out.Strings = append(g.out.Strings, asm.StringLit{Label: name, Value: s})
	return name
}

// constant resolves enumeration constants
func (g *Generator) constant(name string) (int64, bool) {
	if g.frame != nil {
		if l := g.frame.lookup(name); l != nil {
			return l.value, l.isConst
		}
	}
	v, ok := g.consts[name]
	return v, ok
}

func (g *Generator) emit(inst asm.Instruction) {
	g.code.Append(inst)
}

func (g *Generator) push() {
	g.emit(asm.PUSH{Src: asm.R(asm.RAX)})
	g.depth++
}

func (g *Generator) pop(r asm.Reg) {
	g.emit(asm.POP{Dst: asm.R(r)})
	g.depth--
}
