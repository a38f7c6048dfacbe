package generate

import (
	"github.com/pkg/errors"
)

// Style selects the layout and emphasis of a generated resume.
type Style string

// Supported resume styles.
const (
	StyleATSOptimized Style = "ats-optimized"
	StyleModern       Style = "modern"
	StyleTraditional  Style = "traditional"
	StyleMinimal      Style = "minimal"
	StyleCreative     Style = "creative"
)

// Tone selects the voice of a generated cover letter.
type Tone string

// Supported cover letter tones.
const (
	ToneFormal    Tone = "formal"
	ToneFriendly  Tone = "friendly"
	ToneConcise   Tone = "concise"
	ToneConfident Tone = "confident"
)

// AnswerType selects the shape of a generated application answer.
type AnswerType string

// Supported answer formats.
const (
	AnswerShort AnswerType = "short"
	AnswerLong  AnswerType = "long"
	AnswerStar  AnswerType = "star"
)

// Styles lists every resume style in display order.
func Styles() (styles []Style) {
	styles = []Style{StyleATSOptimized, StyleModern, StyleTraditional, StyleMinimal, StyleCreative}
	return styles
}

// Tones lists every cover letter tone in display order.
func Tones() (tones []Tone) {
	tones = []Tone{ToneFormal, ToneFriendly, ToneConcise, ToneConfident}
	return tones
}

// AnswerTypes lists every answer format in display order.
func AnswerTypes() (types []AnswerType) {
	types = []AnswerType{AnswerShort, AnswerLong, AnswerStar}
	return types
}

// ParseStyle validates a user-supplied style name.
func ParseStyle(value string) (style Style, err error) {
	for _, s := range Styles() {
		if string(s) == value {
			style = s
			return style, err
		}
	}
	err = errors.Errorf("invalid style '%s': must be one of %v", value, Styles())
	return style, err
}

// ParseTone validates a user-supplied tone name.
func ParseTone(value string) (tone Tone, err error) {
	for _, t := range Tones() {
		if string(t) == value {
			tone = t
			return tone, err
		}
	}
	err = errors.Errorf("invalid tone '%s': must be one of %v", value, Tones())
	return tone, err
}

// ParseAnswerType validates a user-supplied answer format.
func ParseAnswerType(value string) (answerType AnswerType, err error) {
	for _, a := range AnswerTypes() {
		if string(a) == value {
			answerType = a
			return answerType, err
		}
	}
	err = errors.Errorf("invalid answer type '%s': must be one of %v", value, AnswerTypes())
	return answerType, err
}

// styleInstruction maps a style to its prompt instruction.
// Unknown values fall back to the ATS-optimized instruction.
func styleInstruction(style Style) (instruction string) {
	switch style {
	case StyleATSOptimized:
		instruction = "Create an ATS-optimized resume with keywords, quantified achievements, and clear section headers."
	case StyleModern:
		instruction = "Create a modern, visually appealing resume with a creative layout and design."
	case StyleTraditional:
		instruction = "Create a traditional, conservative resume suitable for formal industries."
	case StyleMinimal:
		instruction = "Create a minimal, clean resume with essential information only."
	case StyleCreative:
		instruction = "Create a creative, unique resume that stands out while remaining professional."
	default:
		instruction = styleInstruction(StyleATSOptimized)
	}
	return instruction
}

// toneInstruction maps a tone to its prompt instruction.
// Unknown values fall back to the formal instruction.
func toneInstruction(tone Tone) (instruction string) {
	switch tone {
	case ToneFormal:
		instruction = "Use a formal, professional tone"
	case ToneFriendly:
		instruction = "Use a warm, friendly but professional tone"
	case ToneConcise:
		instruction = "Keep it brief and to the point"
	case ToneConfident:
		instruction = "Show confidence and enthusiasm"
	default:
		instruction = toneInstruction(ToneFormal)
	}
	return instruction
}

// answerInstruction maps an answer format to its prompt instruction.
// Unknown values fall back to the STAR instruction.
func answerInstruction(answerType AnswerType) (instruction string) {
	switch answerType {
	case AnswerShort:
		instruction = "Provide a brief 2-3 sentence answer"
	case AnswerLong:
		instruction = "Provide a detailed paragraph answer"
	case AnswerStar:
		instruction = "Use the STAR method (Situation, Task, Action, Result) with a specific example"
	default:
		instruction = answerInstruction(AnswerStar)
	}
	return instruction
}
