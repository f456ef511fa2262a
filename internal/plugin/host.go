package plugin

import "github.com/yacobolo/cssdts/internal/hook"

// Extension is the kind of file a module resolves to.
type Extension string

const (
	ExtensionTs  Extension = ".ts"
	ExtensionTsx Extension = ".tsx"
	ExtensionDts Extension = ".d.ts"
)

// ResolveArgs are the arguments of a module resolution batch.
type ResolveArgs struct {
	ModuleNames    []string
	ContainingFile string
}

// ResolvedModule is one entry of a resolution batch. A nil entry means the
// host could not resolve the name.
type ResolvedModule struct {
	ResolvedFileName string
	Extension        Extension
}

// LanguageServiceHost exposes the host methods the plugin intercepts.
type LanguageServiceHost struct {
	// ResolveModuleNames returns one result per module name, in order.
	ResolveModuleNames *hook.Method[ResolveArgs, []*ResolvedModule]
}

// LineOffset is a one-based position.
type LineOffset struct {
	Line   int
	Offset int
}

// ScriptInfo maps positions within a file.
type ScriptInfo interface {
	PositionToLineOffset(position int) LineOffset
}

// Project is the host project a language service belongs to.
type Project struct {
	GetScriptInfo *hook.Method[string, ScriptInfo]
	rootFiles     func() []string
}

// NewProject builds a project whose root files are listed by rootFiles and
// whose script info comes from getScriptInfo.
func NewProject(rootFiles func() []string, getScriptInfo func(string) ScriptInfo) *Project {
	return &Project{
		GetScriptInfo: hook.New("getScriptInfo", getScriptInfo),
		rootFiles:     rootFiles,
	}
}

// RootFiles lists the project's root file paths.
func (p *Project) RootFiles() []string {
	if p.rootFiles == nil {
		return nil
	}
	return p.rootFiles()
}

// TextSpan is a range in a file.
type TextSpan struct {
	Start  int
	Length int
}

// DefinitionInfo locates a definition.
type DefinitionInfo struct {
	FileName      string
	TextSpan      TextSpan
	Kind          string
	Name          string
	ContainerName string
}

// QuickInfo is hover information.
type QuickInfo struct {
	Kind          string
	TextSpan      TextSpan
	DisplayString string
	Documentation string
}

// CompletionEntry is one completion candidate.
type CompletionEntry struct {
	Name     string
	Kind     string
	SortText string
}

// CompletionInfo is a completion list.
type CompletionInfo struct {
	IsMemberCompletion bool
	Entries            []CompletionEntry
}

// LanguageService is the subset of the host language service the plugin
// proxies.
type LanguageService interface {
	GetDefinitionAtPosition(fileName string, position int) []DefinitionInfo
	GetQuickInfoAtPosition(fileName string, position int) *QuickInfo
	GetCompletionsAtPosition(fileName string, position int) *CompletionInfo
}

// CreateInfo is what the host hands a plugin on activation.
type CreateInfo struct {
	LanguageService     LanguageService
	LanguageServiceHost *LanguageServiceHost
	Project             *Project
}
