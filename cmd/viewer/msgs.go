package viewer

import (
	_ "embed"
	"strings"
)

var (
	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort = "Content auto-detection and rendering for node outputs"
	MsgRootLong = `viewer detects what kind of content a string holds (markdown, JSON,
CSV, images, ANSI logs, ...) and renders it as a themed, sandboxed HTML
document the way the in-graph display node does.

Content is read from a file argument or stdin. The same detection and
rendering stack also backs the serve command's HTTP API.`

	MsgDetectShort     = "Detect the best view for content"
	MsgDetectLong      = "Detect runs the registered views' heuristics over the content and reports the winner."
	MsgRenderShort     = "Render content to a standalone HTML document"
	MsgRenderLong      = "Render detects the content type and composes the full themed document, ready to open in a browser."
	MsgViewsShort      = "List the registered views"
	MsgViewsLong       = "Views lists every registered view with its priority, marker and capabilities."
	MsgExportShort     = "Export content to a zip archive"
	MsgExportLong      = "Export detects each item's type and archives it under a matching file extension."
	MsgServeShort      = "Serve the preview API over HTTP"
	MsgServeLong       = "Serve starts the JSON preview API: detection, rendering and export over HTTP."
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Flag descriptions
	MsgFlagVerbose  = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig   = "Config file (default viewer.toml in working or XDG config dir)"
	MsgFlagAll      = "Show the scores of every view, not just the winner"
	MsgFlagNode     = "Node id used for persisted state lookups"
	MsgFlagView     = "Pin a view instead of detecting"
	MsgFlagOutput   = "Write output to this file instead of stdout"
	MsgFlagTerminal = "Render markdown for the terminal instead of emitting HTML"
	MsgFlagZip      = "Archive file to write"
	MsgFlagAddr     = "Listen address (overrides config)"

	// Status messages
	MsgWroteFormat     = "Wrote %s (%d bytes)"
	MsgArchivedFormat  = "Archived %d file(s) to %s"
	MsgDetectedFormat  = "%s (score %d%s)\n"
	MsgByMarkerSuffix  = ", by marker"
	MsgNoViewsDetected = "No registered views."
)
