package router

import (
	"fmt"
	"strings"
	"time"

	"cortexast/internal/chronos"
	"cortexast/internal/config"
	"cortexast/internal/cortexerrors"
	"cortexast/internal/diagnostics"
	"cortexast/internal/langdriver"
	"cortexast/internal/output"
	"cortexast/internal/slicer"
	"cortexast/internal/symbolgraph"
	"cortexast/internal/vectorstore"
)

// Router dispatches a validated (tool, action) call to the engine and
// enforces the max_chars output-safety contract, grounded on teacher
// `internal/mcp/handler.go`'s handleCallTool.
type Router struct {
	repoRoot string
	cfg      *config.Config
	registry *langdriver.Registry
	store    *vectorstore.Store
	chronos  *chronos.Store
}

// New builds a Router bound to one resolved repo root.
func New(repoRoot string, cfg *config.Config, registry *langdriver.Registry, store *vectorstore.Store, chronosStore *chronos.Store) *Router {
	return &Router{repoRoot: repoRoot, cfg: cfg, registry: registry, store: store, chronos: chronosStore}
}

// Result is one dispatched call's output, already clamped to max_chars.
type Result struct {
	Text      string
	Truncated bool
}

// Dispatch validates toolName/action against the enum and routes to the
// matching engine component. toolName may be a megatool name (with action
// read from params) or a legacy bare action name (per spec §4.7's shim
// rule). repoRoot and max_chars may be overridden per call via params.
func (r *Router) Dispatch(toolName string, params map[string]interface{}) (Result, error) {
	action, _ := params["action"].(string)
	megatool, resolvedAction, ok := resolveTool(toolName, action)
	if !ok {
		return Result{}, cortexerrors.New(cortexerrors.InvalidAction,
			fmt.Sprintf("unknown tool/action: tool=%q action=%q", toolName, action)).
			WithHint("valid megatools: cortex_code_explorer, cortex_symbol_analyzer, cortex_chronos, run_diagnostics")
	}

	repoRoot := r.repoRoot
	if override, ok := params["repoPath"].(string); ok && override != "" {
		repoRoot = override
	}
	maxChars := r.cfg.Router.DefaultMaxChars
	if v, ok := numParam(params, "max_chars"); ok && v > 0 {
		maxChars = v
	}
	if maxChars > r.cfg.Router.MaxCharsClamp {
		maxChars = r.cfg.Router.MaxCharsClamp
	}

	if megatool == ToolDiagnostics {
		res, err := diagnostics.Run(repoRoot)
		if err != nil {
			return Result{}, err
		}
		text := renderDiagnostics(res)
		clipped, truncated := output.TruncateUTF8(text, maxChars)
		if truncated {
			clipped += "\n[TRUNCATED: output exceeded max_chars]\n"
		}
		return Result{Text: clipped, Truncated: truncated}, nil
	}

	text, selfClamped, err := r.dispatchAction(repoRoot, resolvedAction, params, maxChars)
	if err != nil {
		return Result{}, err
	}

	if selfClamped {
		return Result{Text: text, Truncated: strings.Contains(text, "TRUNCATED")}, nil
	}

	clipped, truncated := output.TruncateUTF8(text, maxChars)
	if truncated {
		clipped += "\n[TRUNCATED: output exceeded max_chars]\n"
	}
	return Result{Text: clipped, Truncated: truncated}, nil
}

func (r *Router) dispatchAction(repoRoot, action string, params map[string]interface{}, maxChars int) (text string, selfClamped bool, err error) {
	switch action {
	case ActionMapOverview:
		res, err := symbolgraph.MapOverview(repoRoot, r.cfg, r.registry, symbolgraph.OverviewParams{
			TargetDir:       strParam(params, "target_dir"),
			SearchFilter:    strParam(params, "search_filter"),
			IgnoreGitignore: boolParam(params, "ignore_gitignore"),
		})
		if err != nil {
			return "", false, err
		}
		return res.Render(), false, nil

	case ActionDeepSlice:
		budget, _ := numParam(params, "budget_tokens")
		limit, _ := numParam(params, "query_limit")
		res, err := slicer.DeepSlice(repoRoot, r.cfg, r.registry, r.store, slicer.Params{
			Target:          strParam(params, "target"),
			Query:           strParam(params, "query"),
			BudgetTokens:    budget,
			SkeletonOnly:    boolParam(params, "skeleton_only"),
			QueryLimit:      limit,
			MaxChars:        maxChars,
			IgnoreGitignore: boolParam(params, "ignore_gitignore"),
		})
		if err != nil {
			return "", false, err
		}
		return res.XML, true, nil // slicer already self-clamps to max_chars

	case ActionReadSource:
		names := strSliceParam(params, "symbol_names")
		if len(names) == 0 {
			if single := strParam(params, "symbol_name"); single != "" {
				names = []string{single}
			}
		}
		reads, err := symbolgraph.ReadSource(repoRoot, r.registry, strParam(params, "path"), names, boolParam(params, "skeleton_only"))
		if err != nil {
			return "", false, err
		}
		return renderReadSource(reads), false, nil

	case ActionFindUsages:
		groups, err := symbolgraph.FindUsages(repoRoot, r.cfg, r.registry, strParam(params, "symbol_name"), strParam(params, "target_dir"), boolParam(params, "ignore_gitignore"))
		if err != nil {
			return "", false, err
		}
		return renderUsageGroups(groups), false, nil

	case ActionFindImplementations:
		groups, err := symbolgraph.FindImplementations(repoRoot, r.cfg, r.registry, strParam(params, "symbol_name"), strParam(params, "target_dir"), boolParam(params, "ignore_gitignore"))
		if err != nil {
			return "", false, err
		}
		return renderImplementationGroups(groups), false, nil

	case ActionBlastRadius:
		res, err := symbolgraph.BlastRadius(repoRoot, r.cfg, r.registry, strParam(params, "symbol_name"), strParam(params, "target_dir"), boolParam(params, "ignore_gitignore"))
		if err != nil {
			return "", false, err
		}
		return renderBlastRadius(res), false, nil

	case ActionPropagationChecklist:
		symbolName := strParam(params, "symbol_name")
		if symbolName == "" {
			symbolName = strParam(params, "changed_path") // legacy input name
		}
		res, err := symbolgraph.PropagationChecklist(repoRoot, r.cfg, r.registry, symbolName, strSliceParam(params, "aliases"), boolParam(params, "ignore_gitignore"))
		if err != nil {
			return "", false, err
		}
		return res.Render(), true, nil // already enforces its own 8000-char cap

	case ActionSaveCheckpoint:
		cp, err := r.chronos.Save(strParam(params, "path"), strParam(params, "symbol_name"), strParam(params, "semantic_tag"), strParam(params, "namespace"), time.Now().Unix())
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("saved checkpoint %s/%s@%s (hash %s)", cp.Namespace, cp.SymbolName, cp.SemanticTag, cp.StructuralHash), false, nil

	case ActionListCheckpoints:
		checkpoints, err := r.chronos.List()
		if err != nil {
			return "", false, err
		}
		return renderCheckpoints(checkpoints), false, nil

	case ActionCompareCheckpoint:
		res, err := r.chronos.Compare(strParam(params, "namespace"), strParam(params, "symbol_name"), strParam(params, "tag_a"), strParam(params, "tag_b"), strParam(params, "path"))
		if err != nil {
			return "", false, err
		}
		return renderCompare(res), false, nil

	case ActionDeleteCheckpoint:
		n, err := r.chronos.Delete(chronos.DeleteFilter{
			Namespace:   strParam(params, "namespace"),
			SymbolName:  strParam(params, "symbol_name"),
			SemanticTag: strParam(params, "semantic_tag"),
			Path:        strParam(params, "path"),
		})
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("deleted %d checkpoint(s)", n), false, nil

	default:
		return "", false, cortexerrors.New(cortexerrors.InvalidAction, fmt.Sprintf("unrecognized action %q", action))
	}
}

func strParam(params map[string]interface{}, key string) string {
	v, _ := params[key].(string)
	return v
}

func boolParam(params map[string]interface{}, key string) bool {
	v, _ := params[key].(bool)
	return v
}

func numParam(params map[string]interface{}, key string) (int, bool) {
	switch v := params[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func strSliceParam(params map[string]interface{}, key string) []string {
	raw, ok := params[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func renderReadSource(reads []symbolgraph.SymbolRead) string {
	var b strings.Builder
	for _, r := range reads {
		if !r.Found {
			fmt.Fprintf(&b, "## %s: NOT FOUND\n%v\n", r.SymbolName, r.Error)
			continue
		}
		fmt.Fprintf(&b, "## %s (lines %d-%d)\n%s\n", r.SymbolName, r.StartLine, r.EndLine, r.Source)
	}
	return b.String()
}

func renderUsageGroups(groups []symbolgraph.UsageGroup) string {
	var b strings.Builder
	for _, g := range groups {
		fmt.Fprintf(&b, "%s:\n", g.Path)
		for _, cat := range categoryOrder {
			usages, ok := g.ByCategory[cat]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "  %s:\n", cat)
			for _, u := range usages {
				fmt.Fprintf(&b, "    line %d\n", u.Line)
			}
		}
	}
	return b.String()
}

var categoryOrder = []langdriver.UsageCategory{
	langdriver.CategoryCall,
	langdriver.CategoryTypeRef,
	langdriver.CategoryFieldInit,
	langdriver.CategoryFieldAccess,
	langdriver.CategoryImpl,
}

func renderImplementationGroups(groups []symbolgraph.ImplementationGroup) string {
	var b strings.Builder
	for _, g := range groups {
		fmt.Fprintf(&b, "%s:\n", g.Language)
		for _, impl := range g.Implementors {
			fmt.Fprintf(&b, "  %s (%s:%d)\n", impl.TypeName, impl.Path, impl.Line)
		}
	}
	return b.String()
}

func renderBlastRadius(res symbolgraph.BlastRadiusResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Definition: %s (%s:%d)\n", res.Definition.Name, res.DefPath, res.Definition.LineStart)
	b.WriteString("Outgoing:\n")
	for _, c := range res.Outgoing {
		fmt.Fprintf(&b, "  %s (line %d)\n", c.CalleeName, c.Line)
	}
	b.WriteString("Incoming:\n")
	for _, c := range res.Incoming {
		fmt.Fprintf(&b, "  %s:%d in %s [%s]\n", c.Path, c.Line, c.Enclosing, c.Category)
	}
	return b.String()
}

func renderCheckpoints(checkpoints []chronos.Checkpoint) string {
	var b strings.Builder
	for _, cp := range checkpoints {
		hashPrefix := cp.StructuralHash
		if len(hashPrefix) > 8 {
			hashPrefix = hashPrefix[:8]
		}
		fmt.Fprintf(&b, "%s/%s@%s saved_at=%d hash=%s\n", cp.Namespace, cp.SymbolName, cp.SemanticTag, cp.SavedAt, hashPrefix)
	}
	return b.String()
}

func renderDiagnostics(res diagnostics.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "project_type=%s diagnostics=%d\n", res.ProjectType, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		fmt.Fprintf(&b, "%s:%d:%d: %s\n    %s\n", d.Path, d.Line, d.Column, d.Message, d.SourceContext)
	}
	return b.String()
}

func renderCompare(res chronos.CompareResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s vs %s — identical=%t\n", res.SymbolName, res.TagA, res.TagB, res.Identical)
	for i, line := range res.Lines {
		marker := "="
		if !line.Equal {
			marker = "!"
		}
		fmt.Fprintf(&b, "%s %4d | %-40s | %s\n", marker, i+1, line.TagALine, line.TagBLine)
	}
	return b.String()
}
