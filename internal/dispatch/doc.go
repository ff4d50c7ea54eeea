// Package dispatch turns segments and box maps into bus work requests and
// carries them to workers.
//
// The assembler builds one DetectionRequest per segment and one
// MarkupRequest per rendered medium. The Dispatcher publishes a batch of
// requests on their queues, waits on a private reply queue for every
// correlated response, and deletes the reply queue when done. ServeDetection
// and ServeMarkup are the worker side of the same exchange.
package dispatch
