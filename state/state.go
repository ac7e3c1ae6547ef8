// Package state persists delay parameters.
//
// The host state blob is a single XML element tagged "Delay" with the
// attributes DryWet, Feedback and Time, wrapped in a small binary header:
//
//	uint32 LE magic 0x21324356
//	uint32 LE length of the XML text including its NUL terminator
//	XML text, NUL
//
// Loading is lenient: a missing tag or malformed payload leaves the
// parameters untouched and is not reported as an error.
package state

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-delay/delay"
)

const (
	// Tag is the element name of the persisted record.
	Tag = "Delay"

	AttrDryWet   = "DryWet"
	AttrFeedback = "Feedback"
	AttrTime     = "Time"

	blobMagic      uint32 = 0x21324356
	blobHeaderSize        = 8
)

type record struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
}

// EncodeXML renders values as the tagged XML record.
func EncodeXML(v delay.Values) ([]byte, error) {
	r := record{
		XMLName: xml.Name{Local: Tag},
		Attrs: []xml.Attr{
			{Name: xml.Name{Local: AttrDryWet}, Value: formatDouble(v.DryWet)},
			{Name: xml.Name{Local: AttrFeedback}, Value: formatDouble(v.Feedback)},
			{Name: xml.Name{Local: AttrTime}, Value: formatDouble(v.DelayTime)},
		},
	}
	return xml.Marshal(r)
}

// Save captures the current parameter values as a host state blob.
func Save(p *delay.Params) ([]byte, error) {
	text, err := EncodeXML(p.Snapshot())
	if err != nil {
		return nil, err
	}
	out := make([]byte, blobHeaderSize, blobHeaderSize+len(text)+1)
	binary.LittleEndian.PutUint32(out[0:4], blobMagic)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(text)+1))
	out = append(out, text...)
	out = append(out, 0)
	return out, nil
}

// Load applies a host state blob (or bare XML record) to p. Each attribute
// that is present and parses as a double is written to its parameter; the
// parameter clamps it to range. It reports whether a Delay record was found.
func Load(p *delay.Params, data []byte) bool {
	if p == nil {
		return false
	}
	text, ok := unwrapBlob(data)
	if !ok {
		return false
	}

	var r record
	if err := xml.Unmarshal(text, &r); err != nil {
		return false
	}
	if r.XMLName.Local != Tag {
		return false
	}

	for _, a := range r.Attrs {
		var param *delay.Parameter
		switch a.Name.Local {
		case AttrDryWet:
			param = p.DryWet
		case AttrFeedback:
			param = p.Feedback
		case AttrTime:
			param = p.DelayTime
		default:
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 64)
		if err != nil {
			continue
		}
		param.Set(float32(v))
	}
	return true
}

// WriteFile saves the current parameter values to path.
func WriteFile(path string, p *delay.Params) error {
	b, err := Save(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// ReadFile applies the state stored at path. Only I/O failures are errors;
// an unusable payload returns false, nil.
func ReadFile(path string, p *delay.Params) (bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return Load(p, b), nil
}

func unwrapBlob(data []byte) ([]byte, bool) {
	if len(data) >= blobHeaderSize && binary.LittleEndian.Uint32(data[0:4]) == blobMagic {
		size := int(binary.LittleEndian.Uint32(data[4:8]))
		if size <= 0 || size > len(data)-blobHeaderSize {
			return nil, false
		}
		text := data[blobHeaderSize : blobHeaderSize+size]
		if i := bytes.IndexByte(text, 0); i >= 0 {
			text = text[:i]
		}
		return text, len(text) > 0
	}
	text := bytes.TrimSpace(data)
	if len(text) == 0 || text[0] != '<' {
		return nil, false
	}
	return text, true
}

func formatDouble(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
