package ignore

// DefaultDirectoryPatterns are directory names that are never worth indexing.
// Entries are glob patterns matched against the directory's base name.
var DefaultDirectoryPatterns = []string{
	// Version control
	".git",
	".svn",
	".hg",
	".bzr",
	"CVS",
	"SCCS",
	"RCS",
	"_darcs",

	// Dependencies
	"node_modules",
	"bower_components",

	// Caches
	"__pycache__",
	".cache",
	".gradle",

	// IDE / Editor
	".idea",
	".vscode",
}

// DefaultIgnoredExtensions are file suffixes excluded from the index.
// Matching is a case-insensitive suffix comparison on the base name.
var DefaultIgnoredExtensions = []string{
	// Compiled / Binary
	".o",
	".a",
	".so",
	".dylib",
	".dll",
	".exe",
	".obj",
	".lib",
	".class",
	".jar",
	".war",
	".pyc",
	".pyo",

	// Archives
	".zip",
	".tar",
	".tar.gz",
	".tgz",
	".rar",
	".7z",

	// Images
	".png",
	".jpg",
	".jpeg",
	".gif",
	".bmp",
	".ico",
	".webp",

	// Fonts
	".woff",
	".woff2",
	".ttf",
	".eot",

	// Editor swap files
	".swp",
	".swo",

	// OS files
	".DS_Store",

	// Logs
	".log",

	// Databases
	".sqlite",
	".sqlite3",
	".db",
}
