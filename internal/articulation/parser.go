// Package articulation parses assistant replies into ordered segments of
// conversational text, validated actions and parse errors.
//
// An action block on the wire:
//
//	°°°°
//	```json
//	{"action": "create", "path": "src/a.js", "has_content_block": true}
//	```
//	°°°°
//	console.log(1);
//	°°°°
//
// The raw payload and its closing delimiter are only part of the block when
// the header sets has_content_block to true.
package articulation

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"gen1/internal/actions"
	"gen1/internal/logging"
)

// Delimiter frames action blocks.
const Delimiter = "°°°°"

const (
	openFence  = "```json"
	closeFence = "```"
)

var (
	audioDirective = regexp.MustCompile(`__\{audio:\s*"(.*?)"\}__`)

	// contentFlag detects has_content_block:true in headers that fail to
	// decode, so their payload is not mistaken for conversational text.
	contentFlag = regexp.MustCompile(`"has_content_block"\s*:\s*true`)
)

// Parser turns raw assistant text into segments. It is safe for concurrent use.
type Parser struct {
	registry *actions.Registry

	mu    sync.Mutex
	stats Stats
}

// Stats tracks parsing statistics for monitoring.
type Stats struct {
	TotalProcessed int
	TextSegments   int
	Actions        int
	Repairs        int
	Errors         int
}

// NewParser creates a parser validating against registry, or against the
// default registry when nil.
func NewParser(registry *actions.Registry) *Parser {
	if registry == nil {
		registry = actions.Default()
	}
	return &Parser{registry: registry}
}

// GetStats returns current parsing statistics.
func (p *Parser) GetStats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// ResetStats resets the parsing statistics.
func (p *Parser) ResetStats() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = Stats{}
}

// Parse splits raw into ordered segments. It never fails: malformed blocks
// become error segments and unmatched delimiters stay in the text.
func (p *Parser) Parse(raw string) *Result {
	res := &Result{}
	text := p.extractSpeech(raw, res)

	var repairs int
	textStart, pos := 0, 0
	for {
		i := strings.Index(text[pos:], Delimiter)
		if i < 0 {
			break
		}
		at := pos + i
		seg, end, repaired, ok := p.parseBlock(text, at)
		if !ok {
			pos = at + len(Delimiter)
			continue
		}
		if at > textStart {
			res.Segments = append(res.Segments, Segment{Type: SegmentText, Text: text[textStart:at]})
		}
		res.Segments = append(res.Segments, seg)
		if repaired {
			repairs++
		}
		textStart, pos = end, end
	}
	if textStart < len(text) {
		res.Segments = append(res.Segments, Segment{Type: SegmentText, Text: text[textStart:]})
	}

	p.record(res, repairs)
	return res
}

// extractSpeech strips every audio directive and keeps the last one.
func (p *Parser) extractSpeech(raw string, res *Result) string {
	matches := audioDirective.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return raw
	}
	res.Speech = matches[len(matches)-1][1]
	res.HasSpeech = true
	return audioDirective.ReplaceAllString(raw, "")
}

func (p *Parser) record(res *Result, repairs int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.TotalProcessed++
	p.stats.Repairs += repairs
	for _, s := range res.Segments {
		switch {
		case s.Type == SegmentText:
			p.stats.TextSegments++
		case s.Type == SegmentError:
			p.stats.Errors++
		default:
			p.stats.Actions++
		}
	}
	logging.ArticulationDebug("parsed response: %d segments, %d repairs, speech=%t", len(res.Segments), repairs, res.HasSpeech)
}

// parseBlock tries to read one action block whose opening delimiter sits at
// at. ok is false when the text there is not a well-formed block frame; end
// is the index just past the block.
func (p *Parser) parseBlock(s string, at int) (seg Segment, end int, repaired, ok bool) {
	headerStart, headerEnd, frameEnd, ok := p.frame(s, at)
	if !ok {
		return Segment{}, 0, false, false
	}
	headerRaw := s[headerStart:headerEnd]
	end = frameEnd

	header, repaired, err := decodeHeader(headerRaw)
	if err != nil {
		// swallow the payload the broken header announced
		if contentFlag.MatchString(headerRaw) {
			if _, payloadEnd, found := payload(s, frameEnd); found {
				end = payloadEnd
			}
		}
		return p.errorSegment(s[at:end], "", err), end, false, true
	}

	kind, _ := header["action"].(string)

	if flag, isBool := header["has_content_block"].(bool); isBool && flag {
		body, payloadEnd, found := payload(s, frameEnd)
		if found {
			end = payloadEnd
		}
		switch {
		case !found || body == "":
			return p.errorSegment(s[at:end], actions.Kind(kind),
				fmt.Errorf(`%w: "has_content_block" is true but no raw content block was provided after the JSON`, ErrContentBlock)), end, repaired, true
		case header["content"] != nil:
			return p.errorSegment(s[at:end], actions.Kind(kind),
				fmt.Errorf(`%w: "content" must not be set in the JSON when "has_content_block" is true`, ErrContentBlock)), end, repaired, true
		}
		header["content"] = body
		header["has_content_block"] = false
	}

	action, err := p.registry.Validate(header)
	if err != nil {
		return p.errorSegment(s[at:end], actions.Kind(kind), err), end, repaired, true
	}

	return Segment{Type: segmentTypeFor(action.Family()), Action: action}, end, repaired, true
}

// frame matches delimiter, fence, JSON object, fence, delimiter, allowing
// whitespace between the parts. It returns the header bounds and the index
// past the second delimiter.
func (p *Parser) frame(s string, at int) (headerStart, headerEnd, frameEnd int, ok bool) {
	i := skipSpace(s, at+len(Delimiter))
	if !hasPrefixFold(s[i:], openFence) {
		return 0, 0, 0, false
	}
	headerStart = skipSpace(s, i+len(openFence))

	closing := func(after int) (int, bool) {
		j := skipSpace(s, after)
		if !strings.HasPrefix(s[j:], closeFence) {
			return 0, false
		}
		j = skipSpace(s, j+len(closeFence))
		if !strings.HasPrefix(s[j:], Delimiter) {
			return 0, false
		}
		return j + len(Delimiter), true
	}

	if end := scanObject(s, headerStart); end > 0 {
		if fe, ok := closing(end); ok {
			return headerStart, end, fe, true
		}
	}

	end := lazyObjectEnd(s, headerStart, func(after int) bool {
		_, ok := closing(after)
		return ok
	})
	if end < 0 {
		return 0, 0, 0, false
	}
	fe, _ := closing(end)
	return headerStart, end, fe, true
}

// payload reads a raw content block starting at from and running to the
// next delimiter. An empty payload keeps the delimiter only when a fenced
// header follows it, since it then opens the next block.
func payload(s string, from int) (body string, end int, found bool) {
	i := strings.Index(s[from:], Delimiter)
	if i < 0 {
		return "", from, false
	}
	end = from + i + len(Delimiter)
	body = strings.TrimSpace(s[from : from+i])
	if body == "" && hasPrefixFold(s[skipSpace(s, end):], openFence) {
		return "", from, true
	}
	return body, end, true
}

func (p *Parser) errorSegment(raw string, kind actions.Kind, err error) Segment {
	logging.ArticulationWarn("rejected action block (kind=%q): %v", kind, err)
	return Segment{
		Type:         SegmentError,
		ErrorMessage: "Error parsing AI operation: " + err.Error(),
		RawContent:   raw,
		Kind:         kind,
		Err:          err,
	}
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return i
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
