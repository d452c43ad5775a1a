package resolver

import (
	"github.com/greensward/folio/core"
)

// ObjectReader loads indirect objects by number. Both the file reader and
// the in-memory document satisfy this.
type ObjectReader interface {
	ResolveReference(ref core.IndirectRef) (core.Object, error)
}

// ObjectResolver resolves indirect references, detecting cycles with an
// explicit in-progress set rather than relying on recursion limits.
type ObjectResolver struct {
	reader     ObjectReader
	inProgress map[int]bool
	maxDepth   int
	depth      int
}

// Option configures an ObjectResolver.
type Option func(*ObjectResolver)

// WithMaxDepth caps recursion depth for deep resolution (default 100).
func WithMaxDepth(depth int) Option {
	return func(r *ObjectResolver) {
		r.maxDepth = depth
	}
}

// New creates a resolver over reader.
func New(reader ObjectReader, opts ...Option) *ObjectResolver {
	r := &ObjectResolver{
		reader:     reader,
		inProgress: make(map[int]bool),
		maxDepth:   100,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve follows obj once if it is an indirect reference; all other values
// pass through unchanged.
func (r *ObjectResolver) Resolve(obj core.Object) (core.Object, error) {
	return r.resolve(obj, false)
}

// ResolveDeep recursively expands every indirect reference nested in obj.
func (r *ObjectResolver) ResolveDeep(obj core.Object) (core.Object, error) {
	return r.resolve(obj, true)
}

func (r *ObjectResolver) resolve(obj core.Object, deep bool) (core.Object, error) {
	// A fresh top-level call starts with a clean in-progress set; the same
	// object may legitimately appear in separate resolution trees.
	if r.depth == 0 {
		r.inProgress = make(map[int]bool)
	}
	if r.depth >= r.maxDepth {
		return nil, core.Errorf(core.CyclicReference, -1,
			"resolution depth exceeds %d", r.maxDepth)
	}

	switch v := obj.(type) {
	case core.IndirectRef:
		if r.inProgress[v.Number] {
			return nil, core.Errorf(core.CyclicReference, -1,
				"object %d is already being resolved", v.Number)
		}
		r.inProgress[v.Number] = true
		defer delete(r.inProgress, v.Number)

		resolved, err := r.reader.ResolveReference(v)
		if err != nil {
			return nil, err
		}
		if deep {
			r.depth++
			resolved, err = r.resolve(resolved, deep)
			r.depth--
			if err != nil {
				return nil, err
			}
		}
		return resolved, nil

	case core.Dict:
		if !deep {
			return v, nil
		}
		out := make(core.Dict, len(v))
		for key, value := range v {
			r.depth++
			rv, err := r.resolve(value, deep)
			r.depth--
			if err != nil {
				return nil, err
			}
			out[key] = rv
		}
		return out, nil

	case core.Array:
		if !deep {
			return v, nil
		}
		out := make(core.Array, len(v))
		for i, elem := range v {
			r.depth++
			rv, err := r.resolve(elem, deep)
			r.depth--
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil

	case *core.Stream:
		if !deep {
			return v, nil
		}
		r.depth++
		rd, err := r.resolve(v.Dict, deep)
		r.depth--
		if err != nil {
			return nil, err
		}
		return &core.Stream{Dict: rd.(core.Dict), Data: v.Data}, nil

	default:
		return obj, nil
	}
}

// ResolveReference resolves a single reference shallowly.
func (r *ObjectResolver) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return r.resolve(ref, false)
}
