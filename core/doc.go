// Package core implements the ragline client: the single chokepoint through
// which every feature talks to the RAG backend.
//
// # Client
//
// [Client] builds requests from logical endpoints, applies the session
// bearer token and per-request timeouts, and normalizes the backend's
// inconsistent wire envelopes into one shape:
//
//	c := core.New("http://127.0.0.1:9380", core.WithStorage(st))
//	payload, err := c.Do(ctx, "/kb/list", core.RequestOptions{})
//
// Relative endpoints receive the version prefix exactly once: "/kb/list"
// and "/v1/kb/list" resolve to the same URL. Absolute endpoints pass
// through verbatim.
//
// # Envelopes
//
// The backend answers in three JSON shapes plus raw binary. [Envelope]
// names them explicitly: [KindLegacy] ({retcode, retmsg, data}),
// [KindModern] ({code, message, data}, remapped onto the legacy fields),
// [KindRaw] (no envelope, the whole body is the payload) and [KindBlob]
// (non-JSON). [Client.Do] returns the unwrapped payload; login/register
// callers use [Client.DoEnvelope] because the issued token travels in the
// Authorization response header alongside the body.
//
// # Errors
//
// Every failure surfaces as an *[APIError] wrapping a sentinel:
//
//	if errors.Is(err, core.ErrUnauthorized) {
//	    // session expired; the stored token has already been cleared
//	}
//
// A 401 from any request clears the ambient token as a side effect.
//
// # Streaming
//
// [Client.OpenStream] issues a streaming POST and yields [StreamEvent]
// values over a channel until a done message, a transport error, or
// [Stream.Close]. Streams carry no timeout.
//
// # Transfers
//
// [Client.Upload] encodes multipart file payloads and [Client.Download]
// resolves save filenames from the Content-Disposition header.
package core
