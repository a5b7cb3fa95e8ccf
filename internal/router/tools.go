// Package router implements the Tool Router: validating an (action) request
// against the enumerated megatool surface, dispatching to the right engine
// component, and enforcing max_chars output safety — grounded on teacher
// `internal/mcp/handler.go`'s handleCallTool dispatch-and-envelope pattern.
package router

// Megatool names advertised over MCP, per spec §6.
const (
	ToolCodeExplorer   = "cortex_code_explorer"
	ToolSymbolAnalyzer = "cortex_symbol_analyzer"
	ToolChronos        = "cortex_chronos"
	ToolDiagnostics    = "run_diagnostics"
)

// Action names, namespaced per megatool, per spec §6.
const (
	ActionMapOverview           = "map_overview"
	ActionDeepSlice             = "deep_slice"
	ActionReadSource            = "read_source"
	ActionFindUsages            = "find_usages"
	ActionFindImplementations   = "find_implementations"
	ActionBlastRadius           = "blast_radius"
	ActionPropagationChecklist  = "propagation_checklist"
	ActionSaveCheckpoint        = "save_checkpoint"
	ActionListCheckpoints       = "list_checkpoints"
	ActionCompareCheckpoint     = "compare_checkpoint"
	ActionDeleteCheckpoint      = "delete_checkpoint"
)

// actionToMegatool maps every known action to its owning megatool, both for
// validation and for resolving legacy bare-action tool-name shims.
var actionToMegatool = map[string]string{
	ActionMapOverview:          ToolCodeExplorer,
	ActionDeepSlice:            ToolCodeExplorer,
	ActionReadSource:           ToolSymbolAnalyzer,
	ActionFindUsages:           ToolSymbolAnalyzer,
	ActionFindImplementations:  ToolSymbolAnalyzer,
	ActionBlastRadius:          ToolSymbolAnalyzer,
	ActionPropagationChecklist: ToolSymbolAnalyzer,
	ActionSaveCheckpoint:       ToolChronos,
	ActionListCheckpoints:      ToolChronos,
	ActionCompareCheckpoint:    ToolChronos,
	ActionDeleteCheckpoint:     ToolChronos,
}

// megatoolActions lists the valid actions per megatool, used to build the
// tools/list schema and to validate a dispatched action belongs to the
// megatool the caller invoked it on.
var megatoolActions = map[string][]string{
	ToolCodeExplorer:   {ActionMapOverview, ActionDeepSlice},
	ToolSymbolAnalyzer: {ActionReadSource, ActionFindUsages, ActionFindImplementations, ActionBlastRadius, ActionPropagationChecklist},
	ToolChronos:        {ActionSaveCheckpoint, ActionListCheckpoints, ActionCompareCheckpoint, ActionDeleteCheckpoint},
}

// ToolDefinition is the tools/list schema entry for one megatool.
type ToolDefinition struct {
	Name        string
	Description string
	Actions     []string
}

// Definitions returns the four advertised tools in a fixed order, per
// spec §6's "four megatools plus run_diagnostics".
func Definitions() []ToolDefinition {
	return []ToolDefinition{
		{Name: ToolCodeExplorer, Description: "Repository overview and token-budgeted context slices.", Actions: megatoolActions[ToolCodeExplorer]},
		{Name: ToolSymbolAnalyzer, Description: "Symbol-level source reads, usage and implementation search, blast radius, propagation checklist.", Actions: megatoolActions[ToolSymbolAnalyzer]},
		{Name: ToolChronos, Description: "Structural snapshot save/list/compare/delete for named symbols.", Actions: megatoolActions[ToolChronos]},
		{Name: ToolDiagnostics, Description: "Auto-detected compiler/type-checker diagnostics pinned to file:line.", Actions: nil},
	}
}

// resolveTool returns the canonical (megatool, action) pair for a tool call.
// toolName may be one of the four megatool names (action read from params)
// or a legacy bare action name accepted as a shim, per spec §4.7.
func resolveTool(toolName, action string) (megatool string, resolvedAction string, ok bool) {
	if toolName == ToolDiagnostics {
		return ToolDiagnostics, "", true
	}
	if _, isMegatool := megatoolActions[toolName]; isMegatool {
		if action == "" {
			return toolName, "", false
		}
		for _, a := range megatoolActions[toolName] {
			if a == action {
				return toolName, action, true
			}
		}
		return toolName, action, false
	}
	// Legacy shim: toolName is itself a bare action name.
	if mt, isAction := actionToMegatool[toolName]; isAction {
		return mt, toolName, true
	}
	return "", "", false
}
