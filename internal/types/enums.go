package types

import "strings"

// Priority orders packages by how essential they are. Higher values win
// during index deduplication.
type Priority int

const (
	PriorityUnknown Priority = iota
	PriorityExtra
	PriorityOptional
	PriorityStandard
	PriorityImportant
	PriorityRequired
)

func ParsePriority(value string) Priority {
	switch strings.TrimSpace(value) {
	case "required":
		return PriorityRequired
	case "important":
		return PriorityImportant
	case "standard":
		return PriorityStandard
	case "optional":
		return PriorityOptional
	case "extra":
		return PriorityExtra
	default:
		return PriorityUnknown
	}
}

func (p Priority) String() string {
	switch p {
	case PriorityRequired:
		return "required"
	case PriorityImportant:
		return "important"
	case PriorityStandard:
		return "standard"
	case PriorityOptional:
		return "optional"
	case PriorityExtra:
		return "extra"
	default:
		return "unknown"
	}
}

type Architecture string

const (
	ArchitectureAMD64   Architecture = "amd64"
	ArchitectureARM64   Architecture = "arm64"
	ArchitectureI386    Architecture = "i386"
	ArchitectureARMHF   Architecture = "armhf"
	ArchitectureAll     Architecture = "all"
	ArchitectureAny     Architecture = "any"
	ArchitectureUnknown Architecture = "unknown"
)

func ParseArchitecture(value string) Architecture {
	switch arch := Architecture(strings.TrimSpace(value)); arch {
	case ArchitectureAMD64, ArchitectureARM64, ArchitectureI386, ArchitectureARMHF, ArchitectureAll, ArchitectureAny:
		return arch
	default:
		return ArchitectureUnknown
	}
}

type Section string

const (
	SectionAdmin         Section = "admin"
	SectionComm          Section = "comm"
	SectionDatabase      Section = "database"
	SectionDebug         Section = "debug"
	SectionDevel         Section = "devel"
	SectionDoc           Section = "doc"
	SectionEditors       Section = "editors"
	SectionFonts         Section = "fonts"
	SectionGames         Section = "games"
	SectionGnome         Section = "gnome"
	SectionGraphics      Section = "graphics"
	SectionHTTPD         Section = "httpd"
	SectionInterpreters  Section = "interpreters"
	SectionIntrospection Section = "introspection"
	SectionJava          Section = "java"
	SectionKernel        Section = "kernel"
	SectionLibDevel      Section = "libdevel"
	SectionLibs          Section = "libs"
	SectionLisp          Section = "lisp"
	SectionLocalization  Section = "localization"
	SectionMail          Section = "mail"
	SectionMath          Section = "math"
	SectionMetapackages  Section = "metapackages"
	SectionMisc          Section = "misc"
	SectionNet           Section = "net"
	SectionOldLibs       Section = "oldlibs"
	SectionOtherOSFS     Section = "otherosfs"
	SectionPerl          Section = "perl"
	SectionPHP           Section = "php"
	SectionPython        Section = "python"
	SectionRuby          Section = "ruby"
	SectionScience       Section = "science"
	SectionShells        Section = "shells"
	SectionSound         Section = "sound"
	SectionText          Section = "text"
	SectionTranslations  Section = "translations"
	SectionUtils         Section = "utils"
	SectionVCS           Section = "vcs"
	SectionVideo         Section = "video"
	SectionWeb           Section = "web"
	SectionX11           Section = "x11"
	SectionZope          Section = "zope"
	SectionUnknown       Section = "unknown"
)

var knownSections = map[Section]struct{}{
	SectionAdmin: {}, SectionComm: {}, SectionDatabase: {}, SectionDebug: {}, SectionDevel: {},
	SectionDoc: {}, SectionEditors: {}, SectionFonts: {}, SectionGames: {}, SectionGnome: {},
	SectionGraphics: {}, SectionHTTPD: {}, SectionInterpreters: {}, SectionIntrospection: {},
	SectionJava: {}, SectionKernel: {}, SectionLibDevel: {}, SectionLibs: {}, SectionLisp: {},
	SectionLocalization: {}, SectionMail: {}, SectionMath: {}, SectionMetapackages: {},
	SectionMisc: {}, SectionNet: {}, SectionOldLibs: {}, SectionOtherOSFS: {}, SectionPerl: {},
	SectionPHP: {}, SectionPython: {}, SectionRuby: {}, SectionScience: {}, SectionShells: {},
	SectionSound: {}, SectionText: {}, SectionTranslations: {}, SectionUtils: {}, SectionVCS: {},
	SectionVideo: {}, SectionWeb: {}, SectionX11: {}, SectionZope: {},
}

// ParseSection maps a Section field value onto the known section list.
// Archive area prefixes such as "universe/" are dropped first.
func ParseSection(value string) Section {
	value = strings.TrimSpace(value)
	if idx := strings.LastIndex(value, "/"); idx >= 0 {
		value = value[idx+1:]
	}
	section := Section(value)
	if _, ok := knownSections[section]; ok {
		return section
	}
	return SectionUnknown
}

type StatusWant string

const (
	StatusWantInstall   StatusWant = "install"
	StatusWantHold      StatusWant = "hold"
	StatusWantDeinstall StatusWant = "deinstall"
	StatusWantPurge     StatusWant = "purge"
	StatusWantUnknown   StatusWant = "unknown"
)

type StatusFlag string

const (
	StatusFlagOK            StatusFlag = "ok"
	StatusFlagReinstReq     StatusFlag = "reinstreq"
	StatusFlagHold          StatusFlag = "hold"
	StatusFlagHoldReinstReq StatusFlag = "hold-reinstreq"
)

type StatusState string

const (
	StatusStateNotInstalled   StatusState = "not-installed"
	StatusStateUnpacked       StatusState = "unpacked"
	StatusStateHalfConfigured StatusState = "half-configured"
	StatusStateHalfInstalled  StatusState = "half-installed"
	StatusStateInstalled      StatusState = "installed"
	StatusStateConfigFiles    StatusState = "config-files"
	StatusStatePostInstFailed StatusState = "post-inst-failed"
	StatusStateRemovalFailed  StatusState = "removal-failed"
)

type DependencyState string

const (
	DependencyStateMissing  DependencyState = "missing"
	DependencyStateOld      DependencyState = "old"
	DependencyStateUpToDate DependencyState = "up-to-date"
)

type SourceType string

const (
	SourceTypeDeb    SourceType = "deb"
	SourceTypeDebSrc SourceType = "deb-src"
)

// LockScope names a managed directory guarded by its own advisory lock.
type LockScope string

const (
	LockScopeLists   LockScope = "lists"
	LockScopeArchive LockScope = "archive"
)

// Compression of a fetched Packages file.
type Compression string

const (
	CompressionGzip Compression = "gz"
	CompressionXz   Compression = "xz"
	CompressionNone Compression = ""
)
