// Package modparse parses ctxrun module files: UTF-8 text made of records
// separated by lines beginning with "+++", each record a TOML-shaped table
// declaring one tool function, except an optional leading free-form
// preamble that becomes (part of) the system prompt.
package modparse

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/BurntSushi/toml"
)

// Result is the outcome of parsing one module file.
type Result struct {
	Sys       string
	Functions []Function
}

// Function is a parsed, not-yet-compiled function record.
type Function struct {
	Name        string
	Description string
	Parameters  any // decoded as map[string]any; convert via ctxrun.SchemaFromAny
	Exec        string
	Template    *template.Template
}

type rawRecord struct {
	Name        string
	Description string
	Parameters  any
	Exec        string
}

// Parse reads r record by record. A trailing "+++" is appended internally
// so the final record is always flushed. The first record may be free-form
// text instead of a valid table; its trimmed body is folded into Sys
// (only while no function has yet been accepted). Any later record that
// fails to parse as a function is a fatal error.
func Parse(r io.Reader) (Result, error) {
	var res Result
	var buf strings.Builder

	scanner := bufio.NewScanner(io.MultiReader(r, strings.NewReader("\n+++")))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	seenNames := map[string]bool{}

	flush := func() error {
		text := buf.String()
		buf.Reset()
		if strings.TrimSpace(text) == "" {
			return nil
		}

		var raw rawRecord
		_, err := toml.Decode(text, &raw)
		if err != nil {
			if len(res.Functions) == 0 {
				if t := strings.TrimSpace(text); t != "" {
					if res.Sys != "" {
						res.Sys += "\n"
					}
					res.Sys += t
				}
				return nil
			}
			return fmt.Errorf("bad module: record past first does not parse as a function: %w", err)
		}

		if seenNames[raw.Name] {
			return fmt.Errorf("bad module: duplicate function name %q", raw.Name)
		}
		seenNames[raw.Name] = true

		tmpl, err := template.New(raw.Name).Parse(raw.Exec)
		if err != nil {
			return fmt.Errorf("bad module: compile template for %q: %w", raw.Name, err)
		}

		res.Functions = append(res.Functions, Function{
			Name:        raw.Name,
			Description: raw.Description,
			Parameters:  raw.Parameters,
			Exec:        raw.Exec,
			Template:    tmpl,
		})
		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "+++") {
			if err := flush(); err != nil {
				return res, err
			}
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			buf.WriteString("\n")
			continue
		}
		buf.WriteString(trimmed)
		buf.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("bad module: %w", err)
	}

	return res, nil
}
