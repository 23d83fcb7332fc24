// Package playback moves decoded audio from a media file to an output
// device.
//
// A Pipeline goroutine decodes, resamples and pushes samples into a
// bounded single-producer single-consumer queue, waiting whenever the
// queue lacks room for a whole frame. The device thread runs a Callback
// that pops one sample per output slot and writes silence when the queue
// is empty. The two sides share nothing but the queue.
//
// Session ties these together for one file and one device.
package playback
