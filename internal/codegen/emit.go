package codegen

import (
	"io"
	"sort"
	"strings"
)

// RenderAssembly writes the generated instruction stream as target
// assembly text, with every defined label printed before the instruction
// it points at. Labels bound past the end of the stream print at the end.
func (g *Generator) RenderAssembly(w io.Writer) error {
	instructions := g.buf.Snapshot()
	byOffset := make(map[int][]string)
	for name, off := range g.labels.Snapshot() {
		byOffset[off] = append(byOffset[off], name)
	}
	for _, names := range byOffset {
		sort.Strings(names)
	}

	var b strings.Builder
	writeLabels := func(off int) {
		for _, name := range byOffset[off] {
			if !strings.HasPrefix(name, ".") {
				b.WriteByte('\n')
			}
			b.WriteString(name)
			b.WriteString(":\n")
		}
	}

	for i, in := range instructions {
		writeLabels(i)
		b.WriteString("\t")
		b.WriteString(g.enc.Render(in))
		b.WriteByte('\n')
	}
	writeLabels(len(instructions))

	_, err := io.WriteString(w, b.String())
	return err
}

// GenerateProgram lowers every function of a program in declaration order.
// The first failing function aborts generation; partial output stays in
// the buffer for diagnostics.
func (g *Generator) GenerateProgram() error {
	if g.program == nil {
		return nil
	}
	for _, fn := range g.program.Funcs {
		if err := g.GenerateFunction(fn); err != nil {
			return err
		}
	}
	return nil
}
