package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/glassfire"
)

// readPoints parses one point per line. Fields are separated by whitespace
// or commas and the first skip fields of a line are ignored. Blank lines and
// lines starting with '#' are skipped. All points must have the same length.
func readPoints(r io.Reader, skip int) ([][]float64, error) {
	var points [][]float64
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if len(fields) <= skip {
			return nil, fmt.Errorf("line %d: %d fields, need more than %d", line, len(fields), skip)
		}

		p := make([]float64, 0, len(fields)-skip)
		for _, f := range fields[skip:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			p = append(p, v)
		}
		if len(points) > 0 && len(p) != len(points[0]) {
			return nil, fmt.Errorf("line %d: %d coordinates, expected %d", line, len(p), len(points[0]))
		}
		points = append(points, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// writePredictions writes one line per point: its index, the key of its best
// model ("-" if none), the density under that model and the coordinates.
func writePredictions(w io.Writer, ss *glassfire.ScorerSet, points [][]float64, regularize float64, nearest int) error {
	bw := bufio.NewWriter(w)
	for i, p := range points {
		res, err := ss.Query(p, regularize, nearest)
		if err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}

		key := "-"
		if res.Found {
			key = res.Model.Key()
		}
		fmt.Fprintf(bw, "%d %s %s", i, key, strconv.FormatFloat(res.Score, 'g', 6, 64))
		for _, v := range p {
			bw.WriteByte(' ')
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
