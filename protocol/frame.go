// Package protocol defines the framing shared by the chat server and client.
//
// Client to server traffic is plain text, one command per line, optionally
// prefixed by a correlation tag ("#<id> "). Server to client traffic is one
// JSON frame per line, so that a pushed message can never be mistaken for a
// command reply.
package protocol

import (
	"bytes"
	"cow-chat/errors"
	"encoding/json"
	"fmt"
	"strings"
)

type Kind string

const (
	KindWelcome Kind = "welcome"
	KindReply   Kind = "reply"
	KindPush    Kind = "push"
)

const tagPrefix = "#"

type Frame struct {
	Kind  Kind     `json:"kind"`
	ID    string   `json:"id,omitempty"`
	OK    bool     `json:"ok"`
	Code  string   `json:"code,omitempty"`
	Text  string   `json:"text,omitempty"`
	Items []string `json:"items,omitempty"`
	From  string   `json:"from,omitempty"`
}

func Welcome(text string) Frame {
	return Frame{Kind: KindWelcome, OK: true, Text: text}
}

func Push(from, text string) Frame {
	return Frame{Kind: KindPush, OK: true, From: from, Text: text}
}

func Reply(id, text string, items ...string) Frame {
	return Frame{Kind: KindReply, ID: id, OK: true, Code: errors.CodeOK, Text: text, Items: items}
}

func Failure(id string, err error) Frame {
	return Frame{Kind: KindReply, ID: id, OK: false, Code: errors.Code(err), Text: err.Error()}
}

// Err rebuilds the error carried by a failed reply.
func (f Frame) Err() error {
	if f.OK {
		return nil
	}
	return fmt.Errorf("%w (%s)", errors.FromCode(f.Code), f.Text)
}

// Encode serializes a frame as a single newline-terminated line.
func Encode(f Frame) ([]byte, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func Decode(line []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(bytes.TrimSpace(line), &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", errors.ErrUnexpectedFrame, err)
	}
	switch f.Kind {
	case KindWelcome, KindReply, KindPush:
		return f, nil
	default:
		return Frame{}, fmt.Errorf("%w: kind %q", errors.ErrUnexpectedFrame, f.Kind)
	}
}

// Tag prefixes a command line with its correlation id.
func Tag(id, command string) string {
	return tagPrefix + id + " " + command
}

// Untag splits an incoming line into its optional correlation id and the command.
// A tag only counts when it is followed by a space and a non-empty command;
// otherwise the whole line is the command.
func Untag(line string) (id string, command string) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, tagPrefix) {
		return "", line
	}
	head, rest, found := strings.Cut(line[len(tagPrefix):], " ")
	rest = strings.TrimSpace(rest)
	if !found || head == "" || rest == "" {
		return "", line
	}
	return head, rest
}
