// Command gen-types writes TypeScript declarations for the control API to stdout.
//
//	go run ./src/cmd/gen-types > shell/src/api-types.ts
package main

import (
	"fmt"
	"os"

	"github.com/coder/guts"
	"github.com/coder/guts/config"
)

const modulePath = "github.com/dns-browser/dns-browser/src/internal/"

var packages = []string{
	modulePath + "api",
	modulePath + "config",
	modulePath + "dnsswitch",
	modulePath + "proxy",
}

func main() {
	if err := generate(); err != nil {
		fmt.Fprintf(os.Stderr, "gen-types: %v\n", err)
		os.Exit(1)
	}
}

func generate() error {
	gen, err := guts.NewGolangParser()
	if err != nil {
		return fmt.Errorf("create parser: %w", err)
	}

	for _, pkg := range packages {
		if err := gen.IncludeGenerate(pkg); err != nil {
			return fmt.Errorf("include %s: %w", pkg, err)
		}
	}

	ts, err := gen.ToTypescript()
	if err != nil {
		return fmt.Errorf("convert to typescript: %w", err)
	}

	ts.ApplyMutations(
		config.ExportTypes,
		config.ReadOnly,
	)

	out, err := ts.Serialize()
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}

	_, err = fmt.Fprint(os.Stdout, out)
	return err
}
