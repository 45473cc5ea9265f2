// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"mcp-nutrition-plan/internal/models"
	"mcp-nutrition-plan/internal/planner"
)

const defaultRunLimit = 20

type SolvePlansParams struct {
	Inputs *models.Inputs `json:"inputs,omitempty" description:"Clients, meal slots and ingredients to plan; omit to use the stored inputs"`
	Save   bool           `json:"save,omitempty" description:"Whether to store the run and its lines"`
}

type ImportInputsParams struct {
	Inputs models.Inputs `json:"inputs" description:"Clients, meal slots and ingredients replacing the stored ones"`
}

type GetPlanParams struct {
	RunID string `json:"run_id" description:"Identifier of a stored run"`
}

type ListRunsParams struct {
	Limit int `json:"limit,omitempty" description:"Maximum number of runs to return"`
}

type GetMealTargetsParams struct {
	Client string         `json:"client" description:"Client identifier"`
	Day    string         `json:"day" description:"Day label"`
	Inputs *models.Inputs `json:"inputs,omitempty" description:"Inputs to read the client from; omit to use the stored inputs"`
}

type PlanResponse struct {
	RunID   string                  `json:"run_id,omitempty"`
	Summary planner.Summary         `json:"summary"`
	Lines   []models.IngredientLine `json:"lines"`
}

func (s *PlanServer) registerTools() {
	s.tools = map[string]toolHandler{
		"solve_plans":      s.handleSolvePlans,
		"import_inputs":    s.handleImportInputs,
		"get_plan":         s.handleGetPlan,
		"list_runs":        s.handleListRuns,
		"get_meal_targets": s.handleGetMealTargets,
	}
}

func (s *PlanServer) toolNames() []string {
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// extractParams safely extracts parameters from the request arguments
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	return nil
}

// inputsOrStored returns the inline inputs, falling back to the database.
func (s *PlanServer) inputsOrStored(in *models.Inputs) (models.Inputs, error) {
	if in != nil {
		return *in, nil
	}
	if s.storage == nil {
		return models.Inputs{}, fmt.Errorf("%w: inputs are required", errInvalidParams)
	}
	stored, err := s.storage.LoadInputs()
	if err != nil {
		return models.Inputs{}, fmt.Errorf("failed to load stored inputs: %w", err)
	}
	return stored, nil
}

// handleSolvePlans solves every client's meals and optionally stores the run
func (s *PlanServer) handleSolvePlans(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params SolvePlansParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if params.Save && s.storage == nil {
		return nil, fmt.Errorf("cannot save run: %w", errStorageDisabled)
	}

	in, err := s.inputsOrStored(params.Inputs)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	lines, err := s.planner.Solve(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to solve plans: %w", err)
	}
	if lines == nil {
		lines = []models.IngredientLine{}
	}

	resp := PlanResponse{Summary: planner.Summarize(lines), Lines: lines}
	if params.Save {
		run := &models.PlanRun{
			Lines:         resp.Summary.Lines,
			Meals:         resp.Summary.Meals,
			UnsolvedMeals: resp.Summary.UnsolvedMeals,
		}
		if err := s.storage.SaveRun(run, lines); err != nil {
			return nil, fmt.Errorf("failed to save run: %w", err)
		}
		resp.RunID = run.ID
		log.Printf("Saved plan run %s (%d lines, %d unsolved meals)", run.ID, run.Lines, run.UnsolvedMeals)
	}

	return s.createJSONResponse(resp)
}

// handleImportInputs replaces the stored inputs
func (s *PlanServer) handleImportInputs(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	if s.storage == nil {
		return nil, errStorageDisabled
	}

	var params ImportInputsParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if err := params.Inputs.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	if err := s.storage.ReplaceInputs(params.Inputs); err != nil {
		return nil, fmt.Errorf("failed to import inputs: %w", err)
	}

	return s.createJSONResponse(map[string]interface{}{
		"clients":     len(params.Inputs.Clients),
		"meal_slots":  len(params.Inputs.MealSlots),
		"ingredients": len(params.Inputs.Ingredients),
	})
}

// handleGetPlan returns the lines of a stored run
func (s *PlanServer) handleGetPlan(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	if s.storage == nil {
		return nil, errStorageDisabled
	}

	var params GetPlanParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	params.RunID = strings.TrimSpace(params.RunID)
	if params.RunID == "" {
		return nil, fmt.Errorf("%w: run_id is required", errInvalidParams)
	}

	lines, err := s.storage.GetRunLines(params.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return s.createJSONResponse(PlanResponse{
		RunID:   params.RunID,
		Summary: planner.Summarize(lines),
		Lines:   lines,
	})
}

// handleListRuns returns the most recent stored runs
func (s *PlanServer) handleListRuns(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	if s.storage == nil {
		return nil, errStorageDisabled
	}

	var params ListRunsParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if params.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must be positive", errInvalidParams)
	}
	if params.Limit == 0 {
		params.Limit = defaultRunLimit
	}

	runs, err := s.storage.ListRuns(params.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return s.createJSONResponse(map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// handleGetMealTargets reports the per-meal macro target of a client's
// ordinary meals on one day
func (s *PlanServer) handleGetMealTargets(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetMealTargetsParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if params.Client == "" || params.Day == "" {
		return nil, fmt.Errorf("%w: client and day are required", errInvalidParams)
	}

	in, err := s.inputsOrStored(params.Inputs)
	if err != nil {
		return nil, err
	}

	target, err := planner.MealTarget(in, params.Client, params.Day)
	if err != nil {
		if errors.Is(err, models.ErrNoOrdinaryMealSlots) {
			return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
		}
		return nil, err
	}

	return s.createJSONResponse(map[string]interface{}{
		"client": params.Client,
		"day":    params.Day,
		"target": target,
	})
}
