// Package project detects build metadata from a workspace.
//
// The analyzer recognizes Maven (pom.xml) and Gradle (build.gradle,
// build.gradle.kts) projects and falls back to a plain src/ layout. It
// returns the detected main class, class paths, and source paths so
// recovery can fill gaps in an incomplete attach configuration.
package project

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	srverrors "github.com/debugmcp/jdwp-mcp/internal/errors"
	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

// Analyzer detects project build metadata.
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer creates a project analyzer.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{logger: logger}
}

var (
	pomMainClassRe    = regexp.MustCompile(`<mainClass>\s*([\w.$]+)\s*</mainClass>`)
	gradleMainClassRe = regexp.MustCompile(`mainClass(?:Name)?\s*(?:\.set\(|=\s*)\s*["']([\w.$]+)["']`)
	packageDeclRe     = regexp.MustCompile(`^\s*package\s+([\w.]+)\s*;`)
)

// Analyze inspects workspaceRoot and returns the detected build metadata.
// Missing pieces are left empty rather than treated as errors; only a
// missing workspace root fails.
func (a *Analyzer) Analyze(ctx context.Context, workspaceRoot string) (*types.ProjectInfo, error) {
	if _, err := os.Stat(workspaceRoot); err != nil {
		return nil, srverrors.WorkspaceNotFound(workspaceRoot)
	}

	info := &types.ProjectInfo{
		ClassPaths:  []string{},
		SourcePaths: []string{},
	}

	switch {
	case exists(filepath.Join(workspaceRoot, "pom.xml")):
		info.BuildSystem = "maven"
		a.analyzeMaven(workspaceRoot, info)
	case exists(filepath.Join(workspaceRoot, "build.gradle")) ||
		exists(filepath.Join(workspaceRoot, "build.gradle.kts")):
		info.BuildSystem = "gradle"
		a.analyzeGradle(workspaceRoot, info)
	default:
		a.analyzePlain(workspaceRoot, info)
	}

	if info.MainClass == "" {
		if mc := findMainClass(ctx, workspaceRoot, info.SourcePaths); mc != "" {
			info.MainClass = mc
		}
	}

	a.logger.Debug("project analyzed",
		zap.String("workspaceRoot", workspaceRoot),
		zap.String("buildSystem", info.BuildSystem),
		zap.String("mainClass", info.MainClass),
		zap.Int("classPaths", len(info.ClassPaths)))

	return info, nil
}

func (a *Analyzer) analyzeMaven(root string, info *types.ProjectInfo) {
	if src := filepath.Join(root, "src", "main", "java"); exists(src) {
		info.SourcePaths = append(info.SourcePaths, src)
	}
	if classes := filepath.Join(root, "target", "classes"); exists(classes) {
		info.ClassPaths = append(info.ClassPaths, classes)
	}

	data, err := os.ReadFile(filepath.Join(root, "pom.xml"))
	if err != nil {
		return
	}
	if m := pomMainClassRe.FindSubmatch(data); m != nil {
		info.MainClass = string(m[1])
	}
}

func (a *Analyzer) analyzeGradle(root string, info *types.ProjectInfo) {
	if src := filepath.Join(root, "src", "main", "java"); exists(src) {
		info.SourcePaths = append(info.SourcePaths, src)
	}
	for _, rel := range []string{
		filepath.Join("build", "classes", "java", "main"),
		filepath.Join("build", "classes", "main"),
	} {
		if p := filepath.Join(root, rel); exists(p) {
			info.ClassPaths = append(info.ClassPaths, p)
		}
	}

	for _, name := range []string{"build.gradle", "build.gradle.kts"} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		if m := gradleMainClassRe.FindSubmatch(data); m != nil {
			info.MainClass = string(m[1])
			return
		}
	}
}

func (a *Analyzer) analyzePlain(root string, info *types.ProjectInfo) {
	if src := filepath.Join(root, "src"); exists(src) {
		info.SourcePaths = append(info.SourcePaths, src)
	}
	for _, rel := range []string{"out", "bin", "classes"} {
		if p := filepath.Join(root, rel); exists(p) {
			info.ClassPaths = append(info.ClassPaths, p)
		}
	}
}

// findMainClass scans the source paths for a Java file declaring a main
// method and derives its fully qualified class name. The first hit wins.
func findMainClass(ctx context.Context, root string, sourcePaths []string) string {
	roots := sourcePaths
	if len(roots) == 0 {
		roots = []string{root}
	}

	for _, sp := range roots {
		var found string
		_ = filepath.WalkDir(sp, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if ctx.Err() != nil {
				return fs.SkipAll
			}
			if d.IsDir() {
				// Build output and VCS directories never hold sources.
				switch d.Name() {
				case "target", "build", "node_modules", ".git":
					return fs.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(d.Name(), ".java") {
				return nil
			}
			if fqcn, ok := mainClassOf(path); ok {
				found = fqcn
				return fs.SkipAll
			}
			return nil
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// mainClassOf reports the fully qualified class name of a Java source file
// if it declares a main method.
func mainClassOf(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	var pkg string
	hasMain := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if pkg == "" {
			if m := packageDeclRe.FindStringSubmatch(line); m != nil {
				pkg = m[1]
			}
		}
		if strings.Contains(line, "static void main") {
			hasMain = true
			break
		}
	}
	if !hasMain {
		return "", false
	}

	class := strings.TrimSuffix(filepath.Base(path), ".java")
	if pkg == "" {
		return class, true
	}
	return fmt.Sprintf("%s.%s", pkg, class), true
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
