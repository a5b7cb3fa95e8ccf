package slicer

import (
	"os"
	"sort"
	"strings"

	"cortexast/internal/config"
	"cortexast/internal/langdriver"
	"cortexast/internal/output"
	"cortexast/internal/paths"
	"cortexast/internal/scanner"
	"cortexast/internal/skeleton"
	"cortexast/internal/vectorstore"
)

// defaultBudgetTokens is deep_slice's default token budget, per spec §4.5.2.
const defaultBudgetTokens = 32000

// rootManifestNames are always included first, at minimal cost, so an
// agent orienting itself in a repo never has to ask for them separately.
var rootManifestNames = map[string]bool{
	"package.json":   true,
	"Cargo.toml":     true,
	"pyproject.toml": true,
	"go.mod":         true,
	"README.md":      true,
	"readme.md":      true,
}

// Params controls a single DeepSlice call.
type Params struct {
	Target          string // relative to repo root; "" means repo root
	Query           string
	BudgetTokens    int
	SkeletonOnly    bool
	QueryLimit      int
	MaxChars        int
	IgnoreGitignore bool
}

// Result is DeepSlice's output, per spec §4.5.2.
type Result struct {
	XML             string
	IncludedFiles   int
	EstimatedTokens int
	Truncated       bool
}

// DeepSlice implements spec §4.5.2: enumerate candidates, optionally rank by
// vector similarity, greedily include skeletonized files within the token
// budget (root manifests first), and emit the bounded XML document.
func DeepSlice(repoRoot string, cfg *config.Config, registry *langdriver.Registry, store *vectorstore.Store, p Params) (Result, error) {
	budget := p.BudgetTokens
	if budget <= 0 {
		budget = defaultBudgetTokens
	}
	maxChars := p.MaxChars
	if maxChars <= 0 {
		maxChars = cfg.Router.DefaultMaxChars
	}
	if maxChars > cfg.Router.MaxCharsClamp {
		maxChars = cfg.Router.MaxCharsClamp
	}

	records, err := scanner.Walk(repoRoot, cfg, scanner.Options{Target: p.Target, IgnoreGitignore: p.IgnoreGitignore})
	if err != nil {
		return Result{}, err
	}

	var candidates []scanner.FileRecord
	for _, r := range records {
		if r.SkipReason == scanner.SkipNone {
			candidates = append(candidates, r)
		}
	}

	ordered := orderCandidates(candidates, p.Query, store)

	charsPerToken := cfg.TokenEstimator.CharsPerToken
	var nodes []FileNode
	tokensUsed := 0
	truncatedFiles := 0

	for _, rec := range ordered {
		isManifest := rootManifestNames[rec.Path]
		skel, err := skeletonizeFile(repoRoot, rec.Path, registry, charsPerToken, p.SkeletonOnly)
		if err != nil {
			continue
		}

		if !isManifest && tokensUsed+skel.EstimatedTokens > budget {
			truncatedFiles++
			continue
		}

		nodes = append(nodes, FileNode{
			Path:     rec.Path,
			Language: rec.LanguageTag,
			Content:  skel.SkeletonText,
		})
		tokensUsed += skel.EstimatedTokens
	}

	xmlDoc := BuildXML(nodes, len(nodes), tokensUsed, truncatedFiles)

	clipped, wasTruncated := output.TruncateUTF8(xmlDoc, maxChars)
	if wasTruncated {
		clipped += "\n<!-- TRUNCATED: output exceeded max_chars -->\n"
	}

	return Result{
		XML:             clipped,
		IncludedFiles:   len(nodes),
		EstimatedTokens: tokensUsed,
		Truncated:       wasTruncated || truncatedFiles > 0,
	}, nil
}

// orderCandidates puts root manifests first (guaranteed-inclusion path),
// then either the vector-ranked order (when a query is present) or
// deterministic path order.
func orderCandidates(candidates []scanner.FileRecord, query string, store *vectorstore.Store) []scanner.FileRecord {
	manifests := make([]scanner.FileRecord, 0)
	rest := make([]scanner.FileRecord, 0, len(candidates))
	for _, r := range candidates {
		if rootManifestNames[r.Path] {
			manifests = append(manifests, r)
		} else {
			rest = append(rest, r)
		}
	}
	sort.Slice(manifests, func(i, j int) bool { return manifests[i].Path < manifests[j].Path })

	if query == "" || store == nil {
		sort.Slice(rest, func(i, j int) bool { return rest[i].Path < rest[j].Path })
		return append(manifests, rest...)
	}

	idx, err := store.Refresh()
	if err != nil {
		sort.Slice(rest, func(i, j int) bool { return rest[i].Path < rest[j].Path })
		return append(manifests, rest...)
	}
	ranked := store.Query(idx, query, 0)

	rank := make(map[string]int, len(ranked))
	for i, res := range ranked {
		rank[res.Path] = i
	}

	byPath := make(map[string]scanner.FileRecord, len(rest))
	for _, r := range rest {
		byPath[r.Path] = r
	}

	var rankedRecords []scanner.FileRecord
	for _, res := range ranked {
		if r, ok := byPath[res.Path]; ok {
			rankedRecords = append(rankedRecords, r)
			delete(byPath, res.Path)
		}
	}

	var unranked []scanner.FileRecord
	for _, r := range byPath {
		unranked = append(unranked, r)
	}
	sort.Slice(unranked, func(i, j int) bool { return unranked[i].Path < unranked[j].Path })

	return append(manifests, append(rankedRecords, unranked...)...)
}

func skeletonizeFile(repoRoot, relPath string, registry *langdriver.Registry, charsPerToken int, skeletonOnly bool) (skeleton.Result, error) {
	abs, err := paths.ResolveRepoPath(repoRoot, relPath)
	if err != nil {
		return skeleton.Result{}, err
	}
	source, err := os.ReadFile(abs)
	if err != nil {
		return skeleton.Result{}, err
	}
	if !skeletonOnly && looksLikeManifest(relPath) {
		// Manifests are already compact; skeletonizing them (stripping
		// "bodies") would destroy the very fields a reader needs, so they
		// pass through verbatim and are only token-counted.
		text := string(source)
		return skeleton.Result{SkeletonText: text, EstimatedTokens: estimateTokens(text, charsPerToken)}, nil
	}
	return skeleton.Skeletonize(registry, relPath, source, skeleton.Options{CharsPerToken: charsPerToken})
}

func looksLikeManifest(path string) bool {
	return rootManifestNames[path] || strings.HasSuffix(strings.ToLower(path), "readme.md")
}

func estimateTokens(text string, charsPerToken int) int {
	if charsPerToken <= 0 {
		charsPerToken = 4
	}
	if len(text) == 0 {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}
