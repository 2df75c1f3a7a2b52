package generator

import (
	"moralsim/domain/scenario"
	"moralsim/ports"
)

// drawParams instantiates every parameter of a template uniformly within its
// bounds. Challenged templates use their narrowed bounds where declared.
func drawParams(t *scenario.Template, rng ports.RNGPort, challenged bool) scenario.Params {
	p := scenario.NewParams()
	for _, spec := range t.Params {
		switch spec.Kind {
		case scenario.KindLabel:
			pool := spec.Pool(challenged)
			if len(pool) == 0 {
				continue
			}
			p.SetLabel(spec.Name, pool[rng.Intn(len(pool))])
		default:
			lo, hi := spec.Bounds(challenged)
			if hi < lo {
				lo, hi = hi, lo
			}
			p.SetCount(spec.Name, lo+rng.Intn(hi-lo+1))
		}
	}
	return p
}
