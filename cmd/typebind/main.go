package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/typebind/hosttype"
	"github.com/wippyai/typebind/instantiate"
	"github.com/wippyai/typebind/loader"
	"github.com/wippyai/typebind/manifest"
	"github.com/wippyai/typebind/registry"
	"github.com/wippyai/typebind/resource"
	"github.com/wippyai/typebind/wasmhost"
)

func main() {
	var (
		manifestFile = flag.String("manifest", "", "Path to a YAML manifest (std module only if empty)")
		verbose      = flag.Bool("v", false, "Log registration events")
		exportWasm   = flag.Bool("wasm", false, "Export sequences to a wazero runtime and list host functions")
		interactive  = flag.Bool("i", false, "Interactive mode with TUI")
		schema       = flag.Bool("schema", false, "Print the manifest JSON schema and exit")
	)
	flag.Parse()

	if *schema {
		data, err := manifest.Schema()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	if err := run(*manifestFile, *verbose, *exportWasm, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(manifestFile string, verbose, exportWasm, interactive bool) error {
	ctx := context.Background()

	log := zap.NewNop()
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer func() { _ = l.Sync() }()
		log = l
	}
	registry.SetLogger(log)
	instantiate.SetLogger(log)
	wasmhost.SetLogger(log)
	loader.SetLogger(log)

	var (
		mf  *manifest.Manifest
		err error
	)
	if manifestFile != "" {
		mf, err = manifest.Load(manifestFile)
	} else {
		mf, err = manifest.Parse(nil)
	}
	if err != nil {
		return err
	}

	opts := loader.DefaultOptions().WithManifest(mf)
	opts.Natives = catalogue()
	opts.Logger = log
	session, err := loader.New(opts)
	if err != nil {
		return fmt.Errorf("std module: %w", err)
	}
	// Module failures are reported per module below.
	_ = session.Apply(mf)

	if interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("interactive mode requires a terminal")
		}
		return runInteractive(session, manifestFile)
	}

	fmt.Printf("Session: %s\n", session.ID())
	fmt.Printf("\nModules:\n")
	for _, st := range session.Modules() {
		if st.Loaded() {
			fmt.Printf("  %s  ok (%d declared, %d instantiated)\n", st.Scope, st.Declared, st.Instantiated)
		} else {
			fmt.Printf("  %s  FAILED: %v\n", st.Scope, st.Err)
		}
	}

	fmt.Printf("\nMappings:\n")
	for _, info := range describeAll(session) {
		fmt.Printf("  %s  [%s]\n", info.name, info.scope)
		for _, l := range info.layouts {
			fmt.Printf("    %-9s #%-3d %s\n", l.layout, l.id, l.shape)
		}
		fmt.Printf("    methods: %s\n", strings.Join(info.methods, ", "))
	}

	if !exportWasm {
		return nil
	}

	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	table := resource.NewTable()
	defer table.Close()

	exporter := wasmhost.New(rt, table, session.Kind())
	mappings := session.Registry().Mappings()
	for _, scope := range scopes(mappings) {
		mod, err := exporter.Export(ctx, scope, mappings)
		if err != nil {
			fmt.Printf("\n%s: %v\n", scope, err)
			continue
		}
		fmt.Printf("\nHost module %s:\n", mod.Name())
		var owned []*registry.Mapping
		for _, m := range mappings {
			if m.Scope() == scope {
				owned = append(owned, m)
			}
		}
		for _, fn := range exporter.Functions(owned) {
			fmt.Printf("  %s%s\n", fn.Name, signature(fn))
		}
	}
	return nil
}

func scopes(mappings []*registry.Mapping) []hosttype.Scope {
	seen := make(map[hosttype.Scope]bool)
	var out []hosttype.Scope
	for _, m := range mappings {
		if !seen[m.Scope()] {
			seen[m.Scope()] = true
			out = append(out, m.Scope())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func signature(fn wasmhost.Function) string {
	var params, results []string
	for _, p := range fn.Params {
		params = append(params, api.ValueTypeName(p))
	}
	for _, r := range fn.Results {
		results = append(results, api.ValueTypeName(r))
	}
	sig := "(" + strings.Join(params, ", ") + ")"
	if len(results) > 0 {
		sig += " -> " + strings.Join(results, ", ")
	}
	return sig
}

type mappingInfo struct {
	name    string
	scope   string
	key     string
	layouts []layoutInfo
	methods []string
}

type layoutInfo struct {
	layout string
	shape  string
	id     uint32
}

func describeAll(s *loader.Session) []mappingInfo {
	var out []mappingInfo
	for _, m := range s.Registry().Mappings() {
		out = append(out, describe(m))
	}
	return out
}

func describe(m *registry.Mapping) mappingInfo {
	info := mappingInfo{
		name:  m.Name(),
		scope: string(m.Scope()),
		key:   m.Key().String(),
	}
	for l := hosttype.LayoutValue; l < hosttype.NumLayouts; l++ {
		t := m.Handle(l)
		if t == nil {
			continue
		}
		info.layouts = append(info.layouts, layoutInfo{
			layout: l.String(),
			shape:  hosttype.ShapeName(t.WIT),
			id:     t.ID,
		})
		if info.methods == nil {
			info.methods = t.MethodNames()
		}
	}
	return info
}
