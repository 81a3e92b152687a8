package language

import (
	"path"
	"strings"
)

// ExtensionToLanguage maps file extensions (without dot) to language names.
var ExtensionToLanguage = map[string]string{
	// Go
	"go": "Go",
	// JVM
	"java": "Java", "kt": "Kotlin", "scala": "Scala",
	// C family
	"c": "C", "h": "C",
	"cpp": "C++", "cc": "C++", "cxx": "C++", "hpp": "C++", "hh": "C++",
	// C#
	"cs": "C#",
	// Objective-C
	"m": "Objective-C", "mm": "Objective-C",
	// JavaScript / TypeScript
	"js": "JavaScript", "mjs": "JavaScript", "jsx": "JavaScript",
	"ts": "TypeScript", "tsx": "TypeScript",
	// Scripting
	"py": "Python", "rb": "Ruby", "pl": "Perl", "pm": "Perl", "php": "PHP", "lua": "Lua",
	// Rust
	"rs": "Rust",
	// Shell
	"sh": "Shell", "bash": "Shell", "zsh": "Shell",
	// Web
	"html": "HTML", "htm": "HTML", "css": "CSS",
	// Data / Config
	"xml": "XML", "json": "JSON", "yaml": "YAML", "yml": "YAML", "toml": "TOML",
	// Misc
	"md": "Markdown", "txt": "Text", "sql": "SQL", "proto": "Protobuf",
}

// DetectLanguage returns the language for a path based on its extension or
// well-known file name. Returns "Unknown" if nothing matches.
func DetectLanguage(filePath string) string {
	base := strings.ToLower(path.Base(strings.ReplaceAll(filePath, "\\", "/")))
	switch base {
	case "makefile", "gnumakefile":
		return "Makefile"
	case "dockerfile":
		return "Dockerfile"
	case "cmakelists.txt":
		return "CMake"
	case "build.xml":
		return "Ant"
	}

	ext := strings.TrimPrefix(path.Ext(base), ".")
	if lang, ok := ExtensionToLanguage[ext]; ok {
		return lang
	}
	return "Unknown"
}

// CountLanguages returns language -> file count for the given paths.
func CountLanguages(paths []string) map[string]int {
	counts := make(map[string]int)
	for _, p := range paths {
		counts[DetectLanguage(p)]++
	}
	return counts
}
