package gcode

import (
	"fmt"
	"io"
)

// Parse tokenizes every line of data, stopping at the first syntax error.
func Parse(data string) ([]Line, error) {
	r := SplitLines(data)
	var res []Line
	for i := 0; ; i++ {
		s, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		ln, err := Tokenize(i, s)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		res = append(res, ln)
	}
	return res, nil
}

func MustParse(data string) []Line {
	l, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return l
}
