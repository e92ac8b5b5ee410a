// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package agentwire

import (
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Part kind discriminator values.
const (
	PartKindText = "text"
	PartKindData = "data"
	PartKindFile = "file"
)

// Part represents one segment of a message or artifact body.
// It is a closed union over TextPart, DataPart and FilePart,
// discriminated by the "kind" field on the wire.
type Part interface {
	PartKind() string
	Validate() error
}

// TextPart is a plain text segment.
type TextPart struct {
	Kind     string         `json:"kind"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// NewTextPart creates a TextPart with the kind discriminator set.
func NewTextPart(text string) *TextPart {
	return &TextPart{Kind: PartKindText, Text: text}
}

// PartKind returns the part kind.
func (p *TextPart) PartKind() string { return PartKindText }

// Validate ensures the TextPart is valid.
func (p *TextPart) Validate() error {
	if p.Kind != PartKindText {
		return fmt.Errorf("text part kind must be %q, got %q", PartKindText, p.Kind)
	}
	if p.Text == "" {
		return fmt.Errorf("text part text cannot be empty")
	}
	return nil
}

// DataPart is a structured data segment.
type DataPart struct {
	Kind     string         `json:"kind"`
	Data     map[string]any `json:"data"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// NewDataPart creates a DataPart with the kind discriminator set.
func NewDataPart(data map[string]any) *DataPart {
	return &DataPart{Kind: PartKindData, Data: data}
}

// PartKind returns the part kind.
func (p *DataPart) PartKind() string { return PartKindData }

// Validate ensures the DataPart is valid.
func (p *DataPart) Validate() error {
	if p.Kind != PartKindData {
		return fmt.Errorf("data part kind must be %q, got %q", PartKindData, p.Kind)
	}
	if p.Data == nil {
		return fmt.Errorf("data part data cannot be nil")
	}
	return nil
}

// FilePart is a file segment, referenced by URI or carried inline as bytes.
type FilePart struct {
	Kind     string         `json:"kind"`
	Name     string         `json:"name,omitzero"`
	MIMEType string         `json:"mimeType,omitzero"`
	URI      string         `json:"uri,omitzero"`
	Bytes    []byte         `json:"bytes,omitzero"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// PartKind returns the part kind.
func (p *FilePart) PartKind() string { return PartKindFile }

// Validate ensures the FilePart is valid.
func (p *FilePart) Validate() error {
	if p.Kind != PartKindFile {
		return fmt.Errorf("file part kind must be %q, got %q", PartKindFile, p.Kind)
	}
	if p.URI == "" && len(p.Bytes) == 0 {
		return fmt.Errorf("file part must carry a URI or inline bytes")
	}
	return nil
}

// PartList is an ordered sequence of parts with union-aware JSON handling.
type PartList []Part

// Validate ensures every part in the list is valid.
func (pl PartList) Validate() error {
	if len(pl) == 0 {
		return fmt.Errorf("parts cannot be empty")
	}
	for i, part := range pl {
		if part == nil {
			return fmt.Errorf("part at index %d cannot be nil", i)
		}
		if err := part.Validate(); err != nil {
			return fmt.Errorf("part at index %d is invalid: %w", i, err)
		}
	}
	return nil
}

// UnmarshalJSON decodes a JSON array of parts, dispatching on the
// "kind" discriminator of each element.
func (pl *PartList) UnmarshalJSON(data []byte) error {
	var raw []jsontext.Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parts := make(PartList, 0, len(raw))
	for i, elem := range raw {
		part, err := UnmarshalPart(elem)
		if err != nil {
			return fmt.Errorf("part at index %d: %w", i, err)
		}
		parts = append(parts, part)
	}

	*pl = parts
	return nil
}

// UnmarshalPart decodes a single part from its JSON encoding using the
// "kind" discriminator.
func UnmarshalPart(data []byte) (Part, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to read part kind: %w", err)
	}

	switch probe.Kind {
	case PartKindText:
		var part TextPart
		if err := json.Unmarshal(data, &part); err != nil {
			return nil, err
		}
		return &part, nil

	case PartKindData:
		var part DataPart
		if err := json.Unmarshal(data, &part); err != nil {
			return nil, err
		}
		return &part, nil

	case PartKindFile:
		var part FilePart
		if err := json.Unmarshal(data, &part); err != nil {
			return nil, err
		}
		return &part, nil

	default:
		return nil, fmt.Errorf("unknown part kind: %q", probe.Kind)
	}
}

// Text joins the text content of all text parts in the list.
// An empty delimiter defaults to newline.
func (pl PartList) Text(delimiter string) string {
	if delimiter == "" {
		delimiter = "\n"
	}
	var out string
	for _, part := range pl {
		tp, ok := part.(*TextPart)
		if !ok {
			continue
		}
		if out != "" {
			out += delimiter
		}
		out += tp.Text
	}
	return out
}

// Artifact represents an output object produced by a task.
// Artifacts are append-only on the task; an artifact built incrementally
// over a stream carries LastChunk on its final fragment.
type Artifact struct {
	ArtifactID  string         `json:"artifactId"`
	Name        string         `json:"name,omitzero"`
	Description string         `json:"description,omitzero"`
	Parts       PartList       `json:"parts"`
	LastChunk   bool           `json:"lastChunk,omitzero"`
	Metadata    map[string]any `json:"metadata,omitzero"`
}

// NewTextArtifact creates an artifact holding a single text part.
func NewTextArtifact(name, text string) *Artifact {
	return &Artifact{
		ArtifactID: generateID(),
		Name:       name,
		Parts:      PartList{NewTextPart(text)},
	}
}

// Validate ensures the Artifact is valid.
func (a *Artifact) Validate() error {
	if a.ArtifactID == "" {
		return fmt.Errorf("artifact ID cannot be empty")
	}
	if err := a.Parts.Validate(); err != nil {
		return fmt.Errorf("artifact %s: %w", a.ArtifactID, err)
	}
	return nil
}

// Clone returns a deep copy of the artifact. Parts are immutable by
// convention and shared between copies.
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}
	out := *a
	out.Parts = make(PartList, len(a.Parts))
	copy(out.Parts, a.Parts)
	if a.Metadata != nil {
		out.Metadata = make(map[string]any, len(a.Metadata))
		for k, v := range a.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
