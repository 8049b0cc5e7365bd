package geom

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
)

// commandArgCounts gives the fixed argument count for each binary command
// code, per §4.4's table.
var commandArgCounts = map[byte]int{
	0: 0, // close
	1: 2, // move-to
	2: 2, // line-to
	3: 4, // quadratic
	4: 6, // cubic
	5: 4, // arc, 2-point form used internally
}

// DecodePathCommands decodes a binary (cmd byte, f32 args...) stream. An
// unrecognized command code is a soft stop: decoding terminates and
// returns everything read so far, with no error.
func DecodePathCommands(raw []byte) Path {
	var p Path
	pos := 0
	for pos < len(raw) {
		code := raw[pos]
		pos++
		n, ok := commandArgCounts[code]
		if !ok {
			break // soft stop: unknown code
		}
		if pos+n*4 > len(raw) {
			break // soft stop: truncated trailing command
		}
		args := make([]float32, n)
		for i := 0; i < n; i++ {
			args[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[pos : pos+4]))
			pos += 4
		}
		appendCommand(&p, code, args)
	}
	return p
}

func appendCommand(p *Path, code byte, a []float32) {
	switch code {
	case 0:
		p.close()
	case 1:
		p.moveTo(float64(a[0]), float64(a[1]))
	case 2:
		p.lineTo(float64(a[0]), float64(a[1]))
	case 3:
		p.quadTo(float64(a[0]), float64(a[1]), float64(a[2]), float64(a[3]))
	case 4:
		p.cubicTo(float64(a[0]), float64(a[1]), float64(a[2]), float64(a[3]), float64(a[4]), float64(a[5]))
	case 5:
		// 2-point arc form used internally: treated as a line between the
		// two endpoints, matching the observed source behavior for the
		// rarely-emitted internal arc command (see DESIGN.md).
		p.lineTo(float64(a[2]), float64(a[3]))
	}
}

// DecodePathCommandsText decodes the alternative textual form: interleaved
// single-letter commands (M/L/Q/C/Z) and numeric operands.
func DecodePathCommandsText(s string) Path {
	var p Path
	fields := tokenizeCommandText(s)
	i := 0
	for i < len(fields) {
		switch fields[i] {
		case "M":
			if i+2 >= len(fields) {
				return p
			}
			p.moveTo(atof(fields[i+1]), atof(fields[i+2]))
			i += 3
		case "L":
			if i+2 >= len(fields) {
				return p
			}
			p.lineTo(atof(fields[i+1]), atof(fields[i+2]))
			i += 3
		case "Q":
			if i+4 >= len(fields) {
				return p
			}
			p.quadTo(atof(fields[i+1]), atof(fields[i+2]), atof(fields[i+3]), atof(fields[i+4]))
			i += 5
		case "C":
			if i+6 >= len(fields) {
				return p
			}
			p.cubicTo(atof(fields[i+1]), atof(fields[i+2]), atof(fields[i+3]), atof(fields[i+4]), atof(fields[i+5]), atof(fields[i+6]))
			i += 7
		case "Z":
			p.close()
			i++
		default:
			return p // soft stop: unknown token
		}
	}
	return p
}

func tokenizeCommandText(s string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == 'M' || r == 'L' || r == 'Q' || r == 'C' || r == 'Z':
			flush()
			out = append(out, string(r))
		case r == ',' || r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
