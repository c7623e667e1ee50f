package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/goliatone/go-formbind/pkg/config"
	"github.com/goliatone/go-formbind/pkg/messages"
	"github.com/goliatone/go-formbind/pkg/rules"
)

type violation struct {
	file     string
	location string
	message  string
}

func main() {
	flag.Usage = func() {
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [paths...]\n", filepath.Base(os.Args[0])); err != nil {
			panic(err)
		}
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "\nLint form definition files and directories.\n"); err != nil {
			panic(err)
		}
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{"forms"}
	}

	violations, err := lintPaths(paths, rules.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "lint: %v\n", err)
		os.Exit(1)
	}
	if len(violations) > 0 {
		report(os.Stderr, violations)
		os.Exit(1)
	}
}

func lintPaths(paths []string, reg *rules.Registry) ([]violation, error) {
	var result []violation
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		var set *config.Set
		if info.IsDir() {
			set, err = config.LoadFS(os.DirFS(path), reg)
		} else {
			set, err = config.LoadFile(path, reg)
		}
		if err != nil {
			result = append(result, violation{file: path, location: "-", message: err.Error()})
			continue
		}
		for _, name := range set.Names() {
			def, _ := set.Form(name)
			result = append(result, lintDefinition(path, def, reg)...)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].file == result[j].file {
			if result[i].location == result[j].location {
				return result[i].message < result[j].message
			}
			return result[i].location < result[j].location
		}
		return result[i].file < result[j].file
	})
	return result, nil
}

func lintDefinition(path string, def config.Definition, reg *rules.Registry) []violation {
	file := path
	if def.Source != "" && def.Source != path {
		file = filepath.Join(path, def.Source)
	}

	var result []violation
	for _, issue := range def.Check(reg) {
		location := issue.Form
		if issue.Field != "" {
			location += "." + issue.Field
		}
		result = append(result, violation{file: file, location: location, message: issue.Message})
	}

	keys := make([]string, 0, len(def.Messages))
	for key := range def.Messages {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	catalog, err := messages.New()
	if err != nil {
		return append(result, violation{file: file, location: def.Name, message: err.Error()})
	}
	for _, key := range keys {
		if err := catalog.Set(key, def.Messages[key]); err != nil {
			result = append(result, violation{file: file, location: def.Name + ".messages." + key, message: err.Error()})
		}
	}
	return result
}

func report(w io.Writer, violations []violation) {
	for _, v := range violations {
		fmt.Fprintf(w, "%s: %s -> %s\n", v.file, v.location, v.message)
	}
}
