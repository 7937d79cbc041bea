// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the concrete store and
// reflection client and injects them into the tool handlers. No business
// logic lives here — only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/becomehq/alignd/internal/reflection"
	"github.com/becomehq/alignd/internal/store"
	"github.com/becomehq/alignd/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools registered.
// This is the single place where all dependencies are resolved.
//
// The returned cleanup function closes the store's database connection
// and must be called on shutdown (typically via defer). It is always
// non-nil and safe to call even when initialization failed.
func New() (*server.MCPServer, func(), error) {
	// --- Create shared dependencies ---

	st, err := store.New(store.DefaultConfig())
	if err != nil {
		return nil, noop, fmt.Errorf("opening store: %w", err)
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			log.Printf("WARNING: store close: %v", err)
		}
	}

	client := reflection.NewClient(reflection.DefaultClientConfig())
	generator := reflection.NewGenerator(st, client)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"alignd",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register user tools ---

	userCreate := tools.NewUserCreateTool(st)
	s.AddTool(userCreate.Definition(), userCreate.Handle)

	userGet := tools.NewUserGetTool(st)
	s.AddTool(userGet.Definition(), userGet.Handle)

	// --- Register identity tools ---

	identityCreate := tools.NewIdentityCreateTool(st)
	s.AddTool(identityCreate.Definition(), identityCreate.Handle)

	identityList := tools.NewIdentityListTool(st)
	s.AddTool(identityList.Definition(), identityList.Handle)

	identityGet := tools.NewIdentityGetTool(st)
	s.AddTool(identityGet.Definition(), identityGet.Handle)

	identityUpdate := tools.NewIdentityUpdateTool(st)
	s.AddTool(identityUpdate.Definition(), identityUpdate.Handle)

	// --- Register trait tools ---

	traitCreate := tools.NewTraitCreateTool(st)
	s.AddTool(traitCreate.Definition(), traitCreate.Handle)

	traitList := tools.NewTraitListTool(st)
	s.AddTool(traitList.Definition(), traitList.Handle)

	traitDelete := tools.NewTraitDeleteTool(st)
	s.AddTool(traitDelete.Definition(), traitDelete.Handle)

	// --- Register behavior tools ---

	behaviorLog := tools.NewBehaviorLogTool(st)
	s.AddTool(behaviorLog.Definition(), behaviorLog.Handle)

	behaviorForDate := tools.NewBehaviorForDateTool(st)
	s.AddTool(behaviorForDate.Definition(), behaviorForDate.Handle)

	behaviorList := tools.NewBehaviorListTool(st)
	s.AddTool(behaviorList.Definition(), behaviorList.Handle)

	// --- Register reflection tools ---

	reflectionGenerate := tools.NewReflectionGenerateTool(generator)
	s.AddTool(reflectionGenerate.Definition(), reflectionGenerate.Handle)

	reflectionForDate := tools.NewReflectionForDateTool(st)
	s.AddTool(reflectionForDate.Definition(), reflectionForDate.Handle)

	reflectionList := tools.NewReflectionListTool(st)
	s.AddTool(reflectionList.Definition(), reflectionList.Handle)

	// --- Register analytics tools ---

	alignmentWeekly := tools.NewAlignmentWeeklyTool(st)
	s.AddTool(alignmentWeekly.Definition(), alignmentWeekly.Handle)

	alignmentTrends := tools.NewAlignmentTrendsTool(st)
	s.AddTool(alignmentTrends.Definition(), alignmentTrends.Handle)

	return s, cleanup, nil
}

// noop is a no-op cleanup function returned when initialization fails
// before the store is opened.
func noop() {}

// serverInstructions returns the usage instructions that tell the AI
// how to use alignd effectively.
func serverInstructions() string {
	return `You have access to alignd, an identity-based habit tracker MCP server.

alignd is built on the idea that lasting change comes from identity
("I am a disciplined person"), not outcomes ("I want to run a marathon").
Users define who they want to become, log daily behaviors scored 1-10 by
how aligned they are with that identity, and receive AI-generated daily
reflections that coach them toward closing the gap.

## Core Concepts

- **User**: A single local profile. Call user_get first; if it returns
  null, create one with user_create.
- **Identity**: Who the user wants to become (e.g. "A writer who ships").
  One user can have several identities. Listed newest first.
- **Trait**: A one-word or short quality attached to an identity
  (e.g. "disciplined", "curious"). Traits shape the AI reflections.
- **Behavior log**: A dated entry describing something the user did,
  with an alignment_score from 1 (contradicts the identity) to 10
  (fully embodies it).
- **Daily reflection**: An AI-generated coaching note for one identity
  and one date. Regenerating for the same date replaces the previous one.

## Typical Workflow

1. user_get → user_create if needed
2. identity_create, then trait_create for 2-5 defining traits
3. Throughout the day: behavior_log entries with honest scores
4. End of day: reflection_generate with the identity's traits and the
   day's behaviors (fetch them with behavior_for_date)
5. Review progress: alignment_weekly for a date range,
   alignment_trends for the trailing window

## Important Rules

- alignment_score must be between 1 and 10 — the tools reject anything else
- Dates are YYYY-MM-DD strings
- reflection_generate takes the completion API key per call; it is never
  stored. Ask the user for their key rather than guessing.
- traits and behaviors parameters of reflection_generate are JSON-encoded
  arrays passed as strings
- Scores are self-assessments: encourage honesty over streaks. A day of
  low scores plus a candid reflection beats inflated numbers.`
}
