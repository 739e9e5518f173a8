package mapping

import (
	"github.com/soar/retrocouch/internal/action"
	"github.com/soar/retrocouch/internal/device"
)

// Resolve evaluates every action of the profile against the sampler. It
// never fails: a source that cannot be read leaves its action at the
// default and does not affect the others.
func Resolve(p Profile, s device.Sampler) action.State {
	var st action.State
	if s == nil {
		return st
	}
	for _, a := range action.All {
		src, ok := p.Mapping[a]
		if !ok || src == nil {
			continue
		}
		st.SetValue(a, src.Value(s))
	}
	return st
}
