package text

import (
	"math"
	"sort"
	"strings"
)

// lineTolerance is how far apart two baselines can sit and still count as
// the same line, in points.
const lineTolerance = 2.0

// Assemble orders fragments into lines and joins them into plain text.
// Spaces are inserted where the horizontal gap between fragments is wide
// enough to be a word boundary; wide vertical gaps become blank lines.
func Assemble(fragments []Fragment) string {
	if len(fragments) == 0 {
		return ""
	}

	lines := groupLines(fragments)

	var sb strings.Builder
	for i, line := range lines {
		writeLine(&sb, line)
		if i == len(lines)-1 {
			break
		}
		sb.WriteByte('\n')
		if isParagraphBreak(line, lines[i+1]) {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// groupLines buckets fragments by baseline, top of page first, left to
// right within a line.
func groupLines(fragments []Fragment) [][]Fragment {
	sorted := make([]Fragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y-sorted[j].Y) > lineTolerance {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines [][]Fragment
	for _, frag := range sorted {
		n := len(lines)
		if n > 0 && math.Abs(lines[n-1][0].Y-frag.Y) <= lineTolerance {
			lines[n-1] = append(lines[n-1], frag)
			continue
		}
		lines = append(lines, []Fragment{frag})
	}
	return lines
}

func writeLine(sb *strings.Builder, line []Fragment) {
	for i, frag := range line {
		if i > 0 && needsSpace(line[i-1], frag) {
			sb.WriteByte(' ')
		}
		sb.WriteString(frag.Text)
	}
}

// needsSpace reports whether the gap between two adjacent fragments reads
// as a word boundary.
func needsSpace(prev, next Fragment) bool {
	if strings.HasSuffix(prev.Text, " ") || strings.HasPrefix(next.Text, " ") {
		return false
	}
	gap := next.X - (prev.X + prev.Width)
	threshold := 0.25 * prev.FontSize
	if threshold <= 0 {
		threshold = 1
	}
	return gap > threshold
}

func isParagraphBreak(line, next []Fragment) bool {
	drop := line[0].Y - next[0].Y
	size := line[0].FontSize
	if size <= 0 {
		size = 12
	}
	return drop > 1.8*size
}
