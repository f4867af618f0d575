// Package sniffer detects the shape of an uploaded statement: the delimiter of
// text files and which headers most likely hold each transaction field.
package sniffer

import (
	"bufio"
	"bytes"
	"strings"
)

// candidateDelimiters is ordered by preference; earlier entries win ties.
var candidateDelimiters = []rune{';', '\t', ',', '|'}

// maxScanLines bounds how far DetectDelimiter reads; maxSampleLines is how
// many non-empty lines it compares.
const (
	maxScanLines  = 20
	maxSampleLines = 5
)

// DetectDelimiter compares the candidates over the first non-empty lines
// and picks the one present on the most lines, then the one whose count per
// line is most consistent, then the most frequent. A title line without any
// delimiter above the header does not decide the result. Files without any
// candidate default to a comma.
func DetectDelimiter(data []byte) rune {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var sample []string
	for i := 0; i < maxScanLines && len(sample) < maxSampleLines && scanner.Scan(); i++ {
		if line := cleanLine(scanner.Text(), i == 0); line != "" {
			sample = append(sample, line)
		}
	}

	best, bestScore := ',', delimiterScore{}
	for _, d := range candidateDelimiters {
		if score := scoreDelimiter(sample, d); score.beats(bestScore) {
			best, bestScore = d, score
		}
	}
	return best
}

type delimiterScore struct {
	lines      int // lines containing the delimiter
	consistent int // lines sharing the most common non-zero count
	total      int
}

func (s delimiterScore) beats(o delimiterScore) bool {
	if s.lines != o.lines {
		return s.lines > o.lines
	}
	if s.consistent != o.consistent {
		return s.consistent > o.consistent
	}
	return s.total > o.total
}

func scoreDelimiter(lines []string, d rune) delimiterScore {
	var score delimiterScore
	counts := make(map[int]int)
	for _, line := range lines {
		n := strings.Count(line, string(d))
		if n == 0 {
			continue
		}
		score.lines++
		score.total += n
		counts[n]++
		score.consistent = max(score.consistent, counts[n])
	}
	return score
}

func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}
