package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Server flags
	Port int
	Host string

	// Controller flags
	Attrs string
	El    string

	// Output flags
	Format string
}

var outputFormats = []string{"table", "json", "yaml"}

// AddStandardFlags adds standard flags to a command
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "server":
			addServerFlags(cmd, flags)
		case "controller":
			addControllerFlags(cmd, flags)
		case "output":
			addOutputFlags(cmd, flags)
		}
	}

	return flags
}

func addServerFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().IntVarP(&flags.Port, "port", "p", 8080, "Port to serve on")
	cmd.Flags().StringVar(&flags.Host, "host", "localhost", "Host to bind to")
	AddFlagValidation(cmd, "port", ValidatePort)
}

func addControllerFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVar(&flags.Attrs, "attrs", "", "Controller attributes (JSON or @file.json)")
	cmd.Flags().StringVar(&flags.El, "el", "", "Element selector, overriding the blueprint's")
	AddFlagValidation(cmd, "attrs", ValidateAttrs)
}

func addOutputFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.Format, "output", "o", "table", "Output format (table|json|yaml)")
	AddFlagValidation(cmd, "output", func(format string) error {
		return ValidateFormatWithSuggestion(format, outputFormats)
	})
}

// ParseAttrs decodes --attrs, reading a file when the value starts with @,
// and applies --el on top.
func (f *StandardFlags) ParseAttrs() (map[string]any, error) {
	attrs := make(map[string]any)

	data := []byte(f.Attrs)
	if filename, ok := strings.CutPrefix(f.Attrs, "@"); ok {
		var err error
		data, err = os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read attrs file %s: %w", filename, err)
		}
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &attrs); err != nil {
			return nil, fmt.Errorf("invalid JSON in attrs: %w", err)
		}
		if attrs == nil {
			attrs = make(map[string]any)
		}
	}

	if f.El != "" {
		attrs["el"] = f.El
	}
	return attrs, nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidatePort accepts 0 (any free port) through 65535.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", port)
	}

	return nil
}

// ValidateAttrs checks inline JSON; @file values are read later.
func ValidateAttrs(value string) error {
	if value == "" || strings.HasPrefix(value, "@") {
		return nil
	}

	var attrs map[string]any
	if err := json.Unmarshal([]byte(value), &attrs); err != nil {
		return fmt.Errorf("attrs must be a JSON object: %w", err)
	}
	return nil
}

// ValidateFormatWithSuggestion rejects unknown formats, naming the closest
// valid one when the input looks like a typo.
func ValidateFormatWithSuggestion(format string, valid []string) error {
	format = strings.ToLower(format)
	if slices.Contains(valid, format) {
		return nil
	}

	for _, v := range valid {
		if strings.HasPrefix(v, format) || strings.HasPrefix(format, v) {
			return fmt.Errorf("invalid format %q, did you mean %q?", format, v)
		}
	}
	return fmt.Errorf("invalid format %q, must be one of: %s", format, strings.Join(valid, ", "))
}
