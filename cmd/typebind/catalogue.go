package main

import "github.com/wippyai/typebind/loader"

// Native types manifests may declare with the "go" key.
type (
	Meters  float64
	Celsius float32
	Count   int32
	Ticks   int64
	Label   string
	Flag    bool
)

func catalogue() map[string]loader.Native {
	return map[string]loader.Native{
		"meters":  loader.NativeOf[Meters](),
		"celsius": loader.NativeOf[Celsius](),
		"count":   loader.NativeOf[Count](),
		"ticks":   loader.NativeOf[Ticks](),
		"label":   loader.NativeOf[Label](),
		"flag":    loader.NativeOf[Flag](),
	}
}
