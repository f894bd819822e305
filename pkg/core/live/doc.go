// Package live implements the live media session: the lifecycle state
// machine, the outbound capture-encode-send pipeline, the inbound
// receive loop and the gapless playback scheduler.
//
// The package defines the capabilities it consumes (Transport,
// CaptureDevice, AudioSink) and stays free of hardware and network
// code; pkg/transport/gemini, pkg/capture and pkg/playback provide the
// implementations. Callers drive a Session and observe it through
// Callbacks.
package live
