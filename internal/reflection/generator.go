// Package reflection implements the daily reflection pipeline: it composes
// a coaching prompt from an identity's traits and the day's behaviors,
// calls an external chat-completion API, defensively extracts and validates
// the model's JSON payload, and persists it with replace-on-conflict
// semantics.
package reflection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/becomehq/alignd/internal/store"
)

// Sentinel errors for the boundary layer to classify.
var (
	// ErrMissingAPIKey reports that the caller supplied an empty credential.
	ErrMissingAPIKey = errors.New("API key is required")

	// ErrMalformedOutput reports that the model's response did not match
	// the expected reflection payload shape. Nothing is persisted.
	ErrMalformedOutput = errors.New("malformed model output")
)

// systemInstruction is the fixed coaching instruction sent with every
// generation request.
const systemInstruction = `You are a psychologically intelligent identity performance coach.
Analyze behavioral alignment with the stated identity.
Be specific, insightful, and constructive.
Avoid generic motivation.
Focus on identity reinforcement and misalignment patterns.

Respond with valid JSON only, in this exact structure:
{
  "title": "string",
  "alignmentSummary": "string",
  "observations": ["string", "string", "string"],
  "identityCorrection": "string",
  "closingStatement": "string"
}`

// Input carries everything needed to generate one day's reflection for
// one identity. The caller supplies the identity snapshot and the day's
// behaviors; the pipeline does not re-read them from the store.
type Input struct {
	IdentityID          int64              `json:"identity_id"`
	Date                string             `json:"date"`
	IdentityName        string             `json:"identity_name"`
	IdentityDescription string             `json:"identity_description"`
	Traits              []string           `json:"traits"`
	Behaviors           []BehaviorSnapshot `json:"behaviors"`
}

// BehaviorSnapshot is one logged behavior as presented to the model.
type BehaviorSnapshot struct {
	Description    string `json:"description"`
	AlignmentScore int    `json:"alignment_score"`
}

// payload is the expected shape of the model's JSON answer.
type payload struct {
	Title              string   `json:"title"`
	AlignmentSummary   string   `json:"alignmentSummary"`
	Observations       []string `json:"observations"`
	IdentityCorrection string   `json:"identityCorrection"`
	ClosingStatement   string   `json:"closingStatement"`
}

// Generator runs the reflection pipeline against a store and a
// completion API client.
type Generator struct {
	store  *store.Store
	client *Client
}

// NewGenerator creates a Generator with the given store and client.
func NewGenerator(s *store.Store, c *Client) *Generator {
	return &Generator{store: s, client: c}
}

// Generate runs the full pipeline: validate → compose → call → extract →
// validate payload → persist → fetch. Any failure before the persist step
// leaves the store untouched.
func (g *Generator) Generate(ctx context.Context, apiKey string, input Input) (*store.DailyReflection, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	raw, err := g.client.Complete(ctx, apiKey, systemInstruction, userMessage(input))
	if err != nil {
		return nil, err
	}

	content := extractPayload(raw)
	if err := validatePayload(content); err != nil {
		return nil, err
	}

	return g.store.SaveReflection(input.Date, content, input.IdentityID)
}

// userMessage builds the per-request user prompt from the identity
// snapshot and the day's behaviors.
func userMessage(input Input) string {
	var lines []string
	for _, b := range input.Behaviors {
		lines = append(lines, fmt.Sprintf("- %s (alignment: %d/10)", b.Description, b.AlignmentScore))
	}
	behaviorsText := strings.Join(lines, "\n")
	if behaviorsText == "" {
		behaviorsText = "(No behaviors logged today)"
	}

	return fmt.Sprintf(`Identity: %s
Description: %s
Traits: %s

Today's behaviors and alignment:
%s
`,
		input.IdentityName,
		input.IdentityDescription,
		strings.Join(input.Traits, ", "),
		behaviorsText,
	)
}

// extractPayload trims the model's answer and strips an optional
// surrounding Markdown code fence (```json or bare ```), tolerating the
// model wrapping its JSON in a code block.
func extractPayload(raw string) string {
	content := strings.TrimSpace(raw)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimSpace(strings.TrimPrefix(content, "```"))
	content = strings.TrimSpace(strings.TrimSuffix(content, "```"))
	return content
}

// validatePayload checks the extracted content against the expected
// five-field reflection shape. The model's output is untrusted: invalid
// JSON or missing fields fail with ErrMalformedOutput rather than being
// stored verbatim.
func validatePayload(content string) error {
	var p payload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	switch {
	case p.Title == "":
		return fmt.Errorf("%w: missing title", ErrMalformedOutput)
	case p.AlignmentSummary == "":
		return fmt.Errorf("%w: missing alignmentSummary", ErrMalformedOutput)
	case len(p.Observations) == 0:
		return fmt.Errorf("%w: missing observations", ErrMalformedOutput)
	case p.IdentityCorrection == "":
		return fmt.Errorf("%w: missing identityCorrection", ErrMalformedOutput)
	case p.ClosingStatement == "":
		return fmt.Errorf("%w: missing closingStatement", ErrMalformedOutput)
	}
	return nil
}
