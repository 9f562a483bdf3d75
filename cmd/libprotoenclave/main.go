// Command libprotoenclave builds the enclave boundary as a C shared library:
//
//	go build -buildmode=c-shared -o libprotoenclave.so ./cmd/libprotoenclave
//
// The host passes encoded EnclaveRequest bytes to ProcessEnclaveRequest and
// receives encoded EnclaveResponse bytes it must release with
// FreeEnclaveBuffer. A NULL result is the null sentinel.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"context"
	"math"
	"unsafe"

	runtimepkg "github.com/drblury/protoenclave/internal/runtime"
)

func main() {}

//export ProcessEnclaveRequest
func ProcessEnclaveRequest(data *C.uchar, length C.int, outLen *C.int) (result *C.uchar) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			recordHostFault(runtimepkg.SentinelPanic)
		}
	}()

	if outLen != nil {
		*outLen = 0
	}
	if !hostArgsValid(data == nil, int(length), outLen == nil) {
		recordHostFault(runtimepkg.SentinelInvalidArguments)
		return nil
	}

	var in []byte
	if length > 0 {
		in = C.GoBytes(unsafe.Pointer(data), length)
	}

	out := boundaryEngine().Process(context.Background(), in)
	if out == nil {
		return nil
	}
	if len(out) > math.MaxInt32 {
		recordHostFault(runtimepkg.SentinelAllocation)
		return nil
	}

	// malloc(0) may return NULL, which the host would read as the sentinel.
	buf := C.malloc(C.size_t(max(len(out), 1)))
	if buf == nil {
		recordHostFault(runtimepkg.SentinelAllocation)
		return nil
	}
	copy(unsafe.Slice((*byte)(buf), len(out)), out)
	*outLen = C.int(len(out))
	return (*C.uchar)(buf)
}

//export FreeEnclaveBuffer
func FreeEnclaveBuffer(buf *C.uchar) {
	if buf != nil {
		C.free(unsafe.Pointer(buf))
	}
}
