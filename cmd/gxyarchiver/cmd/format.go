package cmd

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// Formatter renders command output
type Formatter interface {
	Format(io.Writer, interface{}) error
}

// FormatterFunc adapts a function into a Formatter
type FormatterFunc func(io.Writer, interface{}) error

// Format calls f
func (f FormatterFunc) Format(w io.Writer, data interface{}) error {
	return f(w, data)
}

var (
	jsonFormatter = FormatterFunc(func(w io.Writer, data interface{}) error {
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	})

	yamlFormatter = FormatterFunc(func(w io.Writer, data interface{}) error {
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	})
)

// format renders data with the formatter selected by the --format flag of the command
func format(cmd *cobra.Command, data interface{}, text Formatter) error {
	selected, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	var f Formatter
	switch selected {
	case "", "text":
		f = text
	case "json":
		f = jsonFormatter
	case "yaml":
		f = yamlFormatter
	default:
		return fmt.Errorf("unsupported format %q", selected)
	}
	return f.Format(cmd.OutOrStdout(), data)
}
