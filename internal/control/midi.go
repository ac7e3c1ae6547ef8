package control

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-delay/delay"
)

const statusControlChange = 0xb0

// CCMap binds MIDI controller numbers to parameter IDs.
type CCMap map[int64]string

// DefaultCCMap uses the first three general-purpose controllers.
func DefaultCCMap() CCMap {
	return CCMap{
		20: delay.ParamDryWet,
		21: delay.ParamFeedback,
		22: delay.ParamDelayTime,
	}
}

// ParseCCMap reads "cc=param" pairs separated by commas, e.g.
// "20=dryWet,21=feedback,22=delayTime". Command aliases are accepted.
func ParseCCMap(s string) (CCMap, error) {
	m := CCMap{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		num, name, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid cc binding %q", pair)
		}
		cc, err := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
		if err != nil || cc < 0 || cc > 127 {
			return nil, fmt.Errorf("invalid controller number %q", num)
		}
		id := strings.TrimSpace(name)
		if alias, ok := aliases[strings.ToLower(id)]; ok {
			id = alias
		}
		if _, ok := delay.NewDefaultParams().ByID(id); !ok {
			return nil, fmt.Errorf("unknown parameter %q", name)
		}
		m[cc] = id
	}
	return m, nil
}

// ApplyCC handles one MIDI message. Control changes on a bound controller
// set the parameter to value/127 of its range, on any channel. It reports
// whether a parameter changed.
func ApplyCC(params *delay.Params, m CCMap, status, data1, data2 int64) bool {
	if status&0xf0 != statusControlChange {
		return false
	}
	id, ok := m[data1]
	if !ok {
		return false
	}
	p, ok := params.ByID(id)
	if !ok {
		return false
	}
	if data2 < 0 {
		data2 = 0
	} else if data2 > 127 {
		data2 = 127
	}
	v := p.Min() + (p.Max()-p.Min())*float32(data2)/127
	p.BeginGesture()
	p.Set(v)
	p.EndGesture()
	return true
}
