package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Answer prints an answer for a terminal. Fenced code blocks are framed and
// labelled with their language; everything else is printed as is.
func Answer(out io.Writer, text string) {
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	inCode := false
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if !inCode {
				lang := strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
				if lang == "" {
					lang = "text"
				}
				fmt.Fprintf(out, "--- code (%s) ---\n", lang)
			} else {
				fmt.Fprintln(out, "--- end ---")
			}
			inCode = !inCode
			continue
		}
		if inCode {
			fmt.Fprintf(out, "  %s\n", line)
			continue
		}
		fmt.Fprintln(out, line)
	}
	if inCode {
		fmt.Fprintln(out, "--- end ---")
	}
}

// Error prints a failed search the way the web widget shows it.
func Error(out io.Writer, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(out, "error: %s\n", apiErr.Error())
		return
	}
	fmt.Fprintf(out, "error: %v\n", err)
}
