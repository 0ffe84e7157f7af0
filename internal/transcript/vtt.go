package transcript

import (
	"regexp"
	"strings"
)

// Header is the token a caption document must start with to be segmented.
const Header = "WEBVTT"

// UnknownSpeaker labels cues that carry no voice tag.
const UnknownSpeaker = "Unknown"

const rangeSep = "-->"

var (
	blockSplit = regexp.MustCompile(`\n\s*\n`)
	voiceTag   = regexp.MustCompile(`(?i)<v\s+([^>]+)>`)
	anyTag     = regexp.MustCompile(`<[^>]*>`)
)

// Turn is one or more consecutive cues spoken by the same speaker.
type Turn struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Format renders a caption document as speaker turns. Input that is not a
// caption document is returned unchanged.
func Format(document string) string {
	if !strings.HasPrefix(document, Header) {
		return document
	}
	return Render(Parse(document))
}

// Parse extracts merged speaker turns from a caption document. Blocks without
// a time range are skipped. Non-caption input yields no turns.
func Parse(document string) []Turn {
	if !strings.HasPrefix(document, Header) {
		return nil
	}

	var turns []Turn
	for i, block := range blockSplit.Split(document, -1) {
		block = strings.TrimSpace(block)
		if block == "" || (i == 0 && strings.HasPrefix(block, Header)) {
			continue
		}

		seg, ok := parseCue(block)
		if !ok {
			continue
		}

		if n := len(turns); n > 0 && turns[n-1].Speaker == seg.Speaker {
			turns[n-1].End = seg.End
			turns[n-1].Text += " " + seg.Text
			continue
		}
		turns = append(turns, seg)
	}
	return turns
}

// parseCue turns one cue block into a single-cue turn.
func parseCue(block string) (Turn, bool) {
	lines := strings.Split(block, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	if len(lines) < 2 {
		return Turn{}, false
	}

	rangeIdx := -1
	for i, l := range lines {
		if strings.Contains(l, rangeSep) {
			rangeIdx = i
			break
		}
	}
	if rangeIdx < 0 {
		return Turn{}, false
	}

	start, end, _ := strings.Cut(lines[rangeIdx], rangeSep)
	raw := strings.Join(lines[rangeIdx+1:], " ")

	speaker := UnknownSpeaker
	if m := voiceTag.FindStringSubmatch(raw); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			speaker = name
		}
	}

	return Turn{
		Start:   strings.TrimSpace(start),
		End:     strings.TrimSpace(end),
		Speaker: speaker,
		Text:    strings.TrimSpace(anyTag.ReplaceAllString(raw, "")),
	}, true
}

// Render writes turns as "start - end", speaker and text lines, with a blank
// line between turns.
func Render(turns []Turn) string {
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(t.Start)
		sb.WriteString(" - ")
		sb.WriteString(t.End)
		sb.WriteByte('\n')
		sb.WriteString(t.Speaker)
		sb.WriteByte('\n')
		sb.WriteString(t.Text)
	}
	return sb.String()
}
