// File path: internal/compile/splitter.go
package compile

import "strings"

// ProgressMarker tags in-band status lines inside the model stream. A
// marked line runs until the next newline and is routed to the status sink
// instead of the document body.
const ProgressMarker = "[PROGRESS]"

// progressSplitter separates progress annotations from body text. It keeps
// state across chunks: a marker may open in one chunk and its line may end
// in a later one, body text after the newline is preserved, and a marker
// split across a chunk boundary is held back until the next chunk proves or
// disproves it.
type progressSplitter struct {
	status     func(line string)
	inProgress bool
	pending    strings.Builder
	carry      string
}

func newProgressSplitter(status func(line string)) *progressSplitter {
	if status == nil {
		status = func(string) {}
	}
	return &progressSplitter{status: status}
}

// Feed consumes one stream chunk and returns the body text it contributes.
func (p *progressSplitter) Feed(chunk string) string {
	chunk = p.carry + chunk
	p.carry = ""
	var body strings.Builder
	for chunk != "" {
		if p.inProgress {
			nl := strings.Index(chunk, "\n")
			if nl < 0 {
				p.pending.WriteString(chunk)
				return body.String()
			}
			p.pending.WriteString(chunk[:nl])
			p.status(p.pending.String())
			p.pending.Reset()
			p.inProgress = false
			chunk = chunk[nl+1:]
			continue
		}
		idx := strings.Index(chunk, ProgressMarker)
		if idx < 0 {
			// A marker prefix at the end of the chunk may complete in the
			// next one; it becomes body only once disproven.
			keep := markerPrefixLen(chunk)
			body.WriteString(chunk[:len(chunk)-keep])
			p.carry = chunk[len(chunk)-keep:]
			break
		}
		body.WriteString(chunk[:idx])
		p.inProgress = true
		chunk = chunk[idx+len(ProgressMarker):]
	}
	return body.String()
}

// Flush emits an unterminated progress line once the stream ends and
// returns any held-back marker prefix, which is body text after all.
func (p *progressSplitter) Flush() string {
	if p.inProgress {
		if line := p.pending.String(); line != "" {
			p.status(line)
		}
		p.pending.Reset()
		p.inProgress = false
	}
	tail := p.carry
	p.carry = ""
	return tail
}

// markerPrefixLen reports the length of the longest proper prefix of
// ProgressMarker that text ends with.
func markerPrefixLen(text string) int {
	max := len(ProgressMarker) - 1
	if max > len(text) {
		max = len(text)
	}
	for k := max; k > 0; k-- {
		if strings.HasSuffix(text, ProgressMarker[:k]) {
			return k
		}
	}
	return 0
}
