package builder

import (
	"context"
	"fmt"
	"strings"

	"mon-launch/pkg/types"
)

// TemplateGenerator is the built-in Generator: it renders contract code and a
// frontend prompt from fixed templates. Swap in an LLM-backed implementation
// for generated content; the machine only cares about the interface.
type TemplateGenerator struct{}

func (TemplateGenerator) GenerateContract(_ context.Context, concept types.Concept) (string, error) {
	symbol := strings.ToUpper(concept.Symbol)
	if symbol == "" {
		return "", fmt.Errorf("concept has no symbol")
	}

	return fmt.Sprintf(`// SPDX-License-Identifier: MIT
pragma solidity ^0.8.24;

import {ERC20} from "@openzeppelin/contracts/token/ERC20/ERC20.sol";

/// @title %s
/// @notice %s
contract %sToken is ERC20 {
    constructor() ERC20(%q, %q) {}
}
`, concept.Title, concept.Description, sanitizeIdentifier(symbol), concept.Title, symbol), nil
}

func (TemplateGenerator) GenerateFrontendPrompt(_ context.Context, concept types.Concept) (string, error) {
	if concept.Title == "" {
		return "", fmt.Errorf("concept has no title")
	}

	return fmt.Sprintf(
		"Build a single-page landing site for the token %q (symbol %s). "+
			"Theme it around: %s. Include a hero section, a tokenomics section "+
			"and a link to the bonding-curve trading page.",
		concept.Title, strings.ToUpper(concept.Symbol), concept.Description), nil
}

// sanitizeIdentifier keeps only characters legal in a Solidity identifier.
func sanitizeIdentifier(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (b.Len() > 0 && r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "Launch"
	}
	return b.String()
}
