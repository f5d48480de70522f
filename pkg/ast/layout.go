package ast

// Resolve follows typedef names through the program's typedef table.
// Qualifiers are dropped along the way.
func (p *Program) Resolve(t Type) Type {
	for i := 0; i < len(p.Typedefs)+1; i++ {
		t = Unqualified(t)
		td, ok := t.(*TypeDef)
		if !ok {
			return t
		}
		found := false
		for _, def := range p.Typedefs {
			if def.Name == td.Name {
				t, found = def.Type, true
				break
			}
		}
		if !found {
			return t
		}
	}
	return t
}

// SizeOf is like TypeSize but resolves typedef names and
// lays out the program's struct and union definitions.
func (p *Program) SizeOf(t Type) int {
	size, _ := p.layout(p.Resolve(t))
	return size
}

// AlignOf is the alignment counterpart of (*Program).SizeOf
func (p *Program) AlignOf(t Type) int {
	_, align := p.layout(p.Resolve(t))
	return align
}

func (p *Program) layout(t Type) (size, align int) {
	switch t := t.(type) {
	case *Array:
		if t.Size == nil {
			return 0, p.AlignOf(t.Elem)
		}
		return *t.Size * p.SizeOf(t.Elem), p.AlignOf(t.Elem)
	case *Tagged:
		if t.Kind == TagEnum {
			return 4, 4
		}
		def := p.FindStruct(t.Name, t.Kind == TagUnion)
		if def == nil {
			return 0, 1
		}
		return p.structLayout(def)
	}
	return TypeSize(t), TypeAlign(t)
}

func (p *Program) structLayout(s *Struct) (size, align int) {
	align = 1
	for _, f := range s.Fields {
		fs, fa := p.SizeOf(f.Type), p.AlignOf(f.Type)
		if fa > align {
			align = fa
		}
		if s.IsUnion {
			if fs > size {
				size = fs
			}
			continue
		}
		size = alignUp(size, fa) + fs
	}
	return alignUp(size, align), align
}

func alignUp(n, a int) int {
	if a <= 1 {
		return n
	}
	return (n + a - 1) / a * a
}

// FieldOffset locates member name of the struct or union t, searching
// anonymous members too. It returns the member's byte offset and type.
func (p *Program) FieldOffset(t Type, name string) (offset int, typ Type, ok bool) {
	tag, isTag := p.Resolve(t).(*Tagged)
	if !isTag || tag.Kind == TagEnum {
		return 0, nil, false
	}
	def := p.FindStruct(tag.Name, tag.Kind == TagUnion)
	if def == nil {
		return 0, nil, false
	}
	off := 0
	for _, f := range def.Fields {
		if !def.IsUnion {
			off = alignUp(off, p.AlignOf(f.Type))
		}
		if f.Name == name {
			return off, f.Type, true
		}
		if f.Name == "" {
			if inner, ft, found := p.FieldOffset(f.Type, name); found {
				return off + inner, ft, true
			}
		}
		if !def.IsUnion {
			off += p.SizeOf(f.Type)
		}
	}
	return 0, nil, false
}
