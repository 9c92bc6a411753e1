package wasmgen

// epsilon is the tolerance used by every zeroish/not-zeroish predicate:
// ==, !=, !, the logical operators, sign(), and if()/while() conditions all
// treat |x| < epsilon as zero rather than requiring bit-exact equality, and
// buffer indices add it before truncation. The ordering comparisons
// (<, >, <=, >=) and int()/floor() do not use it.
const epsilon = 0.00001

// maxLoopCount bounds the iteration count of while() and loop() so a
// runaway condition or count cannot hang the host.
// https://github.com/WACUP/vis_milk2/blob/de9625a89e724afe23ed273b96b8e48496095b6c/ns-eel2/ns-eel.h#L136
const maxLoopCount = 1048576

const wasmPageSize = 65536
const bytesPerF64 = 8
const bufferCount = 2

// bufferSize is the number of f64 slots in each of megabuf/gmegabuf.
// https://github.com/WACUP/vis_milk2/blob/de9625a89e724afe23ed273b96b8e48496095b6c/ns-eel2/ns-eel.h#L145
const bufferSize = 65536 * 128

// gmegabufOffset is gmegabuf's byte offset into linear memory, immediately
// past megabuf's region.
const gmegabufOffset = bufferSize * bytesPerF64

// wasmMemorySize is the number of 64KiB pages needed to back both buffers.
const wasmMemorySize = (bufferSize * bytesPerF64 * bufferCount) / wasmPageSize
