// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package agentwire

import (
	"context"
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
)

// AgentProvider identifies the organization operating an agent.
type AgentProvider struct {
	Organization string `json:"organization"`
	URL          string `json:"url,omitzero"`
}

// AgentCapabilities advertises the optional protocol features an agent
// supports. The runtime consults it before accepting streaming calls.
type AgentCapabilities struct {
	Streaming         bool `json:"streaming"`
	PushNotifications bool `json:"pushNotifications"`
}

// AgentSkill describes one unit of capability an agent can perform.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitzero"`
	Tags        []string `json:"tags,omitzero"`
	Examples    []string `json:"examples,omitzero"`
}

// AgentCard is the discovery document a caller fetches before first
// contact. It is an advisory, unauthenticated hint: nothing in the
// protocol guarantees the accuracy of its fields, so callers should
// verify provenance out of band (see CardVerifier) before trusting
// name, url or capabilities.
type AgentCard struct {
	Name         string            `json:"name"`
	Description  string            `json:"description,omitzero"`
	URL          string            `json:"url"`
	Version      string            `json:"version"`
	Provider     *AgentProvider    `json:"provider,omitzero"`
	Capabilities AgentCapabilities `json:"capabilities"`
	Skills       []AgentSkill      `json:"skills,omitzero"`
}

// Validate ensures the AgentCard is valid.
func (c *AgentCard) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("agent card name cannot be empty")
	}
	if c.URL == "" {
		return fmt.Errorf("agent card URL cannot be empty")
	}
	if c.Version == "" {
		return fmt.Errorf("agent card version cannot be empty")
	}
	return nil
}

// ParseCard decodes an unsigned agent card. The result carries no
// provenance guarantee; use a CardVerifier when one is available.
func ParseCard(data []byte) (*AgentCard, error) {
	var card AgentCard
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, &JSONParseError{Msg: err.Error()}
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	return &card, nil
}

// CardVerifier checks the provenance of a discovery document before it
// is trusted. It is a seam: the core never calls it implicitly, and
// deployments that have no signing scheme simply do not configure one.
type CardVerifier interface {
	// Verify checks the signed card payload and returns the embedded
	// AgentCard on success.
	Verify(ctx context.Context, signed []byte) (*AgentCard, error)
}

// JWSCardVerifier verifies agent cards distributed as JWS messages
// whose payload is the card JSON, against a fixed set of trusted keys.
type JWSCardVerifier struct {
	keys jwk.Set
}

var _ CardVerifier = (*JWSCardVerifier)(nil)

// NewJWSCardVerifier creates a verifier trusting the given JWK set.
func NewJWSCardVerifier(keys jwk.Set) (*JWSCardVerifier, error) {
	if keys == nil || keys.Len() == 0 {
		return nil, fmt.Errorf("trusted key set cannot be empty")
	}
	return &JWSCardVerifier{keys: keys}, nil
}

// Verify checks the JWS signature and decodes the embedded card.
func (v *JWSCardVerifier) Verify(ctx context.Context, signed []byte) (*AgentCard, error) {
	payload, err := jws.Verify(signed, jws.WithKeySet(v.keys,
		jws.WithInferAlgorithmFromKey(true), jws.WithRequireKid(false)))
	if err != nil {
		return nil, fmt.Errorf("agent card signature verification failed: %w", err)
	}
	return ParseCard(payload)
}
