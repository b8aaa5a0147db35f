package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/safing/rpsldb/object"
)

func printJSON(handle io.Writer, message interface{}) error {
	b, err := json.MarshalIndent(message, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintf(handle, "%s\n", b)
	return nil
}

func printSpecs(handle io.Writer, specs []object.Spec) {
	for _, spec := range specs {
		fmt.Fprintln(handle, spec.String())
	}
}
