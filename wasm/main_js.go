//go:build js && wasm

package main

import (
	"context"
	"syscall/js"

	"github.com/voxelsplace/meshsdf/api"
	"github.com/voxelsplace/meshsdf/meshsdf"
)

func bytesArg(v js.Value) []byte {
	buf := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(buf, v)
	return buf
}

func toUint8Array(b []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(arr, b)
	return arr
}

// glb2sdf(glbBytes, resolution?, iterations?) -> Uint8Array | error string
func glb2sdf(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing glb bytes")
	}
	s := api.DefaultSettings()
	if len(args) > 1 {
		s.Resolution = args[1].Int()
	}
	if len(args) > 2 {
		s.Options = append(s.Options, meshsdf.WithIterations(args[2].Int()))
	}
	s.Options = append(s.Options, meshsdf.WithWorkers(1))
	out, err := api.GLBToFieldBytes(context.Background(), bytesArg(args[0]), s)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return toUint8Array(out)
}

// sdf2glb(msdfBytes, iso?) -> Uint8Array | error string
func sdf2glb(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing msdf bytes")
	}
	var iso float32
	if len(args) > 1 {
		iso = float32(args[1].Float())
	}
	out, err := api.FieldToGLB(bytesArg(args[0]), iso, 0)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return toUint8Array(out)
}

// sdfblocks(msdfBytes, threshold?) -> Uint8Array | error string
func sdfblocks(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing msdf bytes")
	}
	var threshold float32
	if len(args) > 1 {
		threshold = float32(args[1].Float())
	}
	out, err := api.FieldBlocksToGLB(bytesArg(args[0]), threshold)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return toUint8Array(out)
}

// sdfinfo(msdfBytes) -> string
func sdfinfo(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing msdf bytes")
	}
	info, err := api.FieldInfo(bytesArg(args[0]))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return js.ValueOf(info.String())
}

func main() {
	js.Global().Set("glb2sdf", js.FuncOf(glb2sdf))
	js.Global().Set("sdf2glb", js.FuncOf(sdf2glb))
	js.Global().Set("sdfblocks", js.FuncOf(sdfblocks))
	js.Global().Set("sdfinfo", js.FuncOf(sdfinfo))
	select {}
}
