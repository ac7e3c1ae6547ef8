//go:build js && wasm

package main

import (
	"syscall/js"
	"unsafe"

	"github.com/cwbudde/algo-delay/delay"
	"github.com/cwbudde/algo-delay/state"
)

const maxBlockFrames = 128

var (
	globalEngine *delay.Engine
	globalParams *delay.Params
	// Shared interleaved stereo block: JS writes input, Go writes output in place.
	ioBuffer []float32
)

func main() {
	// Keep program running
	c := make(chan struct{})

	// Export functions to JavaScript
	js.Global().Set("wasmInit", js.FuncOf(wasmInit))
	js.Global().Set("wasmSetParam", js.FuncOf(wasmSetParam))
	js.Global().Set("wasmGetParam", js.FuncOf(wasmGetParam))
	js.Global().Set("wasmProcessBlock", js.FuncOf(wasmProcessBlock))
	js.Global().Set("wasmGetBufferPointer", js.FuncOf(wasmGetBufferPointer))
	js.Global().Set("wasmGetState", js.FuncOf(wasmGetState))
	js.Global().Set("wasmSetState", js.FuncOf(wasmSetState))
	js.Global().Set("wasmGetMemoryBuffer", js.FuncOf(wasmGetMemoryBuffer))

	println("WASM delay module loaded")
	<-c
}

func wasmInit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	sampleRate := args[0].Float()

	if globalParams == nil {
		globalParams = delay.NewDefaultParams()
	}
	engine := delay.NewEngine(globalParams)
	if err := engine.Reconfigure(sampleRate, delay.MaxDelayTime); err != nil {
		println("Delay init failed:", err.Error())
		return nil
	}
	globalEngine = engine

	// Pre-allocate the shared block for 128 stereo frames
	if ioBuffer == nil {
		ioBuffer = make([]float32, maxBlockFrames*2)
	}

	println("Delay initialized at", int(sampleRate), "Hz")
	return nil
}

func wasmSetParam(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || globalParams == nil {
		return nil
	}
	p, ok := globalParams.ByID(args[0].String())
	if !ok {
		return nil
	}
	p.Set(float32(args[1].Float()))
	return nil
}

func wasmGetParam(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || globalParams == nil {
		return 0
	}
	p, ok := globalParams.ByID(args[0].String())
	if !ok {
		return 0
	}
	return float64(p.Get())
}

func wasmProcessBlock(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || globalEngine == nil {
		return 0
	}

	numFrames := args[0].Int()
	if numFrames > maxBlockFrames {
		numFrames = maxBlockFrames
	}
	if numFrames <= 0 {
		return 0
	}

	block := ioBuffer[:numFrames*2]
	if err := globalEngine.ProcessInterleaved(block, block); err != nil {
		return 0
	}
	return numFrames
}

func wasmGetBufferPointer(this js.Value, args []js.Value) interface{} {
	if len(ioBuffer) == 0 {
		return 0
	}
	// Return pointer to buffer in WASM linear memory
	ptr := &ioBuffer[0]
	return js.ValueOf(uintptr(unsafe.Pointer(ptr)))
}

func wasmGetState(this js.Value, args []js.Value) interface{} {
	if globalParams == nil {
		return nil
	}
	blob, err := state.Save(globalParams)
	if err != nil {
		println("Failed to save state:", err.Error())
		return nil
	}
	arr := js.Global().Get("Uint8Array").New(len(blob))
	js.CopyBytesToJS(arr, blob)
	return arr
}

func wasmSetState(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return false
	}
	if globalParams == nil {
		globalParams = delay.NewDefaultParams()
	}

	// Copy data from JS to Go
	arr := args[0]
	length := arr.Get("byteLength").Int()
	if length == 0 {
		return false
	}
	data := make([]byte, length)
	js.CopyBytesToGo(data, arr)
	return state.Load(globalParams, data)
}

func wasmGetMemoryBuffer(this js.Value, args []js.Value) interface{} {
	// Return WASM memory buffer for access from JS
	return js.Global().Get("Go").Get("_inst").Get("exports").Get("mem").Get("buffer")
}
