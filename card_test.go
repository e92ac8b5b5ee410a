// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package agentwire

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/google/go-cmp/cmp"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
)

func testCard() *AgentCard {
	return &AgentCard{
		Name:        "Currency Agent",
		Description: "Converts amounts between currencies",
		URL:         "https://currency.example.com",
		Version:     "1.0.0",
		Capabilities: AgentCapabilities{
			Streaming: true,
		},
		Skills: []AgentSkill{{
			ID:   "convert",
			Name: "Currency conversion",
			Tags: []string{"currency"},
		}},
	}
}

func TestAgentCardValidate(t *testing.T) {
	tests := map[string]struct {
		mutate  func(*AgentCard)
		wantErr bool
	}{
		"valid":           {func(c *AgentCard) {}, false},
		"missing name":    {func(c *AgentCard) { c.Name = "" }, true},
		"missing url":     {func(c *AgentCard) { c.URL = "" }, true},
		"missing version": {func(c *AgentCard) { c.Version = "" }, true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			card := testCard()
			tt.mutate(card)
			err := card.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseCard(t *testing.T) {
	want := testCard()
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	got, err := ParseCard(data)
	if err != nil {
		t.Fatalf("ParseCard() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseCard() mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseCard([]byte(`{"name":""}`)); err == nil {
		t.Error("ParseCard() of an invalid card should fail")
	}
}

func TestJWSCardVerifier(t *testing.T) {
	rawKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	privKey, err := jwk.Import(rawKey)
	if err != nil {
		t.Fatalf("jwk.Import() error = %v", err)
	}
	pubKey, err := jwk.PublicKeyOf(privKey)
	if err != nil {
		t.Fatalf("jwk.PublicKeyOf() error = %v", err)
	}

	trusted := jwk.NewSet()
	if err := trusted.AddKey(pubKey); err != nil {
		t.Fatalf("AddKey() error = %v", err)
	}

	verifier, err := NewJWSCardVerifier(trusted)
	if err != nil {
		t.Fatalf("NewJWSCardVerifier() error = %v", err)
	}

	payload, err := json.Marshal(testCard())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	signed, err := jws.Sign(payload, jws.WithKey(jwa.ES256(), privKey))
	if err != nil {
		t.Fatalf("jws.Sign() error = %v", err)
	}

	card, err := verifier.Verify(context.Background(), signed)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if diff := cmp.Diff(testCard(), card); diff != "" {
		t.Errorf("Verify() card mismatch (-want +got):\n%s", diff)
	}
}

func TestJWSCardVerifierRejectsUntrustedKey(t *testing.T) {
	trustedRaw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	trustedKey, err := jwk.Import(trustedRaw)
	if err != nil {
		t.Fatalf("jwk.Import() error = %v", err)
	}
	trustedPub, err := jwk.PublicKeyOf(trustedKey)
	if err != nil {
		t.Fatalf("jwk.PublicKeyOf() error = %v", err)
	}

	trusted := jwk.NewSet()
	if err := trusted.AddKey(trustedPub); err != nil {
		t.Fatalf("AddKey() error = %v", err)
	}
	verifier, err := NewJWSCardVerifier(trusted)
	if err != nil {
		t.Fatalf("NewJWSCardVerifier() error = %v", err)
	}

	impostorRaw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	impostorKey, err := jwk.Import(impostorRaw)
	if err != nil {
		t.Fatalf("jwk.Import() error = %v", err)
	}

	payload, err := json.Marshal(testCard())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	signed, err := jws.Sign(payload, jws.WithKey(jwa.ES256(), impostorKey))
	if err != nil {
		t.Fatalf("jws.Sign() error = %v", err)
	}

	if _, err := verifier.Verify(context.Background(), signed); err == nil {
		t.Error("Verify() with an untrusted signing key should fail")
	}
}

func TestNewJWSCardVerifierRequiresKeys(t *testing.T) {
	if _, err := NewJWSCardVerifier(nil); err == nil {
		t.Error("NewJWSCardVerifier(nil) should fail")
	}
	if _, err := NewJWSCardVerifier(jwk.NewSet()); err == nil {
		t.Error("NewJWSCardVerifier() with an empty set should fail")
	}
}
