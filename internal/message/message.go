package message

import (
	"strconv"
	"strings"
)

// Tag identifies the state transition a Message asks the dispatcher to perform.
type Tag int

const (
	ClearScreen Tag = iota
	InitEmptyScene
	InitDemoScene
	InitStepFile
	NextFrame
	DrawLoadingScreen
	DrawErrorScreen
	SetStepFileContent
	FitAll
)

var tagNames = map[Tag]string{
	ClearScreen:        "ClearScreen",
	InitEmptyScene:     "InitEmptyScene",
	InitDemoScene:      "InitDemoScene",
	InitStepFile:       "InitStepFile",
	NextFrame:          "NextFrame",
	DrawLoadingScreen:  "DrawLoadingScreen",
	DrawErrorScreen:    "DrawErrorScreen",
	SetStepFileContent: "SetStepFileContent",
	FitAll:             "FitAll",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "Tag(" + strconv.Itoa(int(t)) + ")"
}

// Known reports whether the dispatcher has a handler for the tag.
func (t Tag) Known() bool {
	_, ok := tagNames[t]
	return ok
}

// Message is a tagged unit of work. Then holds the tags that must run
// immediately after Tag, in order, before anything else is processed.
type Message struct {
	Tag     Tag
	Payload interface{}
	Then    []Tag
}

// New builds a single message without successors.
func New(tag Tag) Message {
	return Message{Tag: tag}
}

// WithPayload builds a single message carrying payload.
func WithPayload(tag Tag, payload interface{}) Message {
	return Message{Tag: tag, Payload: payload}
}

// Chain links tags into one message whose successors are processed
// contiguously. Chain() with no tags returns ok=false.
func Chain(tags ...Tag) (Message, bool) {
	if len(tags) == 0 {
		return Message{}, false
	}
	m := Message{Tag: tags[0]}
	if len(tags) > 1 {
		m.Then = append([]Tag(nil), tags[1:]...)
	}
	return m, true
}

// MustChain is Chain for callers with a fixed, non-empty tag list.
func MustChain(tags ...Tag) Message {
	m, ok := Chain(tags...)
	if !ok {
		panic("message: empty chain")
	}
	return m
}

// Chained reports whether the message carries successors.
func (m Message) Chained() bool {
	return len(m.Then) > 0
}

// Tags returns the head tag followed by every successor.
func (m Message) Tags() []Tag {
	out := make([]Tag, 0, 1+len(m.Then))
	out = append(out, m.Tag)
	return append(out, m.Then...)
}

func (m Message) String() string {
	tags := m.Tags()
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = t.String()
	}
	return strings.Join(parts, "→")
}
