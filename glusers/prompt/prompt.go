// Package prompt implements the interactive yes/no confirmation used before
// destructive operations.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

var answers = map[string]bool{
	"yes": true,
	"y":   true,
	"ye":  true,
	"no":  false,
	"n":   false,
}

// Confirm asks question on w and reads the answer from reader. An empty answer
// takes defaultYes. Anything that is not a recognized yes/no spelling
// re-asks until a valid answer (or EOF) arrives.
//
// The caller owns the reader so that one buffer spans a whole batch of
// confirmations; wrapping the input per call would swallow piped answers
// meant for later questions.
func Confirm(reader *bufio.Reader, w io.Writer, question string, defaultYes bool) (bool, error) {
	suffix := " [y/N] "
	if defaultYes {
		suffix = " [Y/n] "
	}

	for {
		fmt.Fprint(w, question+suffix)

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return defaultYes, nil
			}
			return false, err
		}

		choice := strings.ToLower(strings.TrimSpace(line))
		if choice == "" {
			return defaultYes, nil
		}
		if answer, ok := answers[choice]; ok {
			return answer, nil
		}
		fmt.Fprintln(w, "Please respond with 'yes' or 'no' (or 'y' or 'n').")
	}
}
